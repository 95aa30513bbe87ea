package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rl1809/meal-order/internal/adapter/feed"
	"github.com/rl1809/meal-order/internal/adapter/handler"
	"github.com/rl1809/meal-order/internal/adapter/sink"
	"github.com/rl1809/meal-order/internal/adapter/storage"
	"github.com/rl1809/meal-order/internal/clock"
	"github.com/rl1809/meal-order/internal/config"
	"github.com/rl1809/meal-order/internal/core/domain"
	"github.com/rl1809/meal-order/internal/core/service"
)

// menu_check prints the upcoming availability of one meal, either from a
// running server over gRPC or straight from the configured feed.
func main() {
	meal := flag.String("meal", "lunch", "meal category to list")
	addr := flag.String("grpc", "", "address of a running server; empty reads the feed directly")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		days []handler.DayResponse
		err  error
	)
	if *addr != "" {
		days, err = remoteMenu(ctx, *addr, *meal)
	} else {
		days, err = localMenu(ctx, *meal, logger)
	}
	if err != nil {
		logger.Error("failed to load menu", "meal", *meal, "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tDAY\tITEM\tPRICE\tSTATUS")
	for _, day := range days {
		for _, item := range day.Items {
			state := item.Countdown
			if item.Badge != "" {
				state = item.Badge
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", day.Date, day.Label, item.Item.Name, domain.FormatAmount(item.Item.Price), state)
		}
	}
	w.Flush()
}

func remoteMenu(ctx context.Context, addr, meal string) ([]handler.DayResponse, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	resp, err := handler.NewStorefrontClient(conn).ListMenu(ctx, &handler.ListMenuRequest{Meal: meal})
	if err != nil {
		return nil, err
	}
	return resp.Days, nil
}

func localMenu(ctx context.Context, meal string, logger *slog.Logger) ([]handler.DayResponse, error) {
	category, ok := domain.ParseCategory(meal)
	if !ok {
		return nil, fmt.Errorf("unknown meal %q", meal)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	store, err := storage.OpenSQLiteStore(ctx, cfg.SQLitePath, storage.DefaultKeys())
	if err != nil {
		return nil, err
	}
	defer store.Close()

	clk := clock.NewReal()
	catalog := service.NewCatalogService(feed.NewHTTPFeed(cfg.MenuCSVURL, nil), store, clk, cfg.CatalogTTL, logger)
	if _, err := catalog.Refresh(ctx); err != nil {
		return nil, err
	}

	storefront := service.NewStorefront(catalog, service.NewResolver(clk, cfg.Location), store,
		sink.NewClient(sink.Config{Phone: cfg.WhatsAppNumber}, nil, logger), 0, logger)
	menu, err := storefront.Menu(ctx, category)
	if err != nil {
		return nil, err
	}
	return handler.DayResponses(menu), nil
}
