package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/meal-order/internal/adapter/sink"
	"github.com/rl1809/meal-order/internal/adapter/storage"
	"github.com/rl1809/meal-order/internal/clock"
	"github.com/rl1809/meal-order/internal/core/domain"
	"github.com/rl1809/meal-order/internal/core/service"
)

const (
	redisAddr     = "localhost:6379"
	keyPrefix     = "stress:"
	totalSessions = 50
	queueSize     = 100
)

const stressMenu = `id,name,price,category,isActive,availableDays,stockAvailability
b1,Idli,40,breakfast,true,mon|tue|wed|thu|fri,in
`

type staticFeed string

func (f staticFeed) Fetch(context.Context) (string, error) { return string(f), nil }

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := context.Background()

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect redis", "addr", redisAddr, "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	keys := storage.Keys{
		Catalog: keyPrefix + "menuCache",
		Counter: keyPrefix + "order_counter",
		Profile: keyPrefix + "user_profile",
	}

	// Clear previous test data
	rdb.Del(ctx, keys.Catalog, keys.Counter)
	profiles, _ := rdb.Keys(ctx, keys.Profile+":*").Result()
	for _, k := range profiles {
		rdb.Del(ctx, k)
	}

	// Initialize adapters and service
	store := storage.NewRedisStore(rdb, keys)
	clk := clock.NewReal()
	catalog := service.NewCatalogService(staticFeed(stressMenu), store, clk, time.Hour, logger)
	storefront := service.NewStorefront(catalog, service.NewResolver(clk, time.Local), store,
		sink.NewClient(sink.Config{Phone: "+910000000000"}, nil, logger), queueSize, logger)
	defer storefront.Close()

	// Drain the archive queue in background
	go func() {
		for range storefront.GetOrderQueue() {
		}
	}()

	days, err := storefront.Menu(ctx, domain.CategoryBreakfast)
	if err != nil || len(days) == 0 {
		logger.Error("no delivery date available", "error", err)
		os.Exit(1)
	}
	date := days[0].Date

	// Counters
	var successCount atomic.Int32
	var failCount atomic.Int32
	var mu sync.Mutex
	seen := make(map[string]int)

	// Spawn concurrent checkouts
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalSessions; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			id, err := checkoutOnce(ctx, storefront, n, date)
			if err != nil {
				logger.Warn("checkout failed", "session", n, "error", err)
				failCount.Add(1)
				return
			}
			successCount.Add(1)
			mu.Lock()
			seen[id]++
			mu.Unlock()
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Results
	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Total Sessions:   %d\n", totalSessions)
	fmt.Printf("Dispatched:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Distinct IDs:     %d\n", len(seen))
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	// Assertions
	if success == totalSessions && len(seen) == totalSessions {
		fmt.Printf("PASS: %d orders dispatched with distinct ids\n", totalSessions)
	} else {
		fmt.Printf("FAIL: Expected %d distinct dispatched orders, got %d dispatched/%d distinct\n",
			totalSessions, success, len(seen))
	}

	// Verify final counter in Redis
	counter, _ := rdb.Get(ctx, keys.Counter).Int()
	fmt.Printf("Final Redis Counter: %d\n", counter)

	if counter == totalSessions {
		fmt.Println("PASS: Counter matches dispatched orders")
	} else {
		fmt.Printf("FAIL: Expected counter %d, got %d\n", totalSessions, counter)
	}
}

func checkoutOnce(ctx context.Context, storefront *service.Storefront, n int, date time.Time) (string, error) {
	session := storefront.NewSession()
	err := storefront.Signup(ctx, session, domain.UserProfile{
		Name:    fmt.Sprintf("user-%d", n),
		Phone:   "9000000000",
		Address: "Stress Street",
	})
	if err != nil {
		return "", err
	}
	if _, err := storefront.AddToCart(ctx, session, "b1", date); err != nil {
		return "", err
	}

	checkout, err := storefront.Session(ctx, session)
	if err != nil {
		return "", err
	}
	if err := checkout.ConfirmPayment(ctx); err != nil {
		return "", err
	}
	d, err := checkout.Dispatch(ctx)
	if err != nil {
		return "", err
	}
	return d.Order.ID, checkout.Complete()
}
