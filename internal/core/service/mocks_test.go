package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rl1809/meal-order/internal/clock"
	"github.com/rl1809/meal-order/internal/core/domain"
)

const testMenuCSV = `id,name,description,price,category,isActive,availableDays,imageUrl,stockAvailability
l1,Veg Thali,"Rice, dal and two curries",120,lunch,true,"mon,tue,wed,thu,fri",,in
s1,Samosa,,20,snacks,true,mon|tue|wed|thu|fri,,in
b1,Idli,,40,breakfast,TRUE,mon tue wed thu fri,,in
x1,Biryani,,150,lunch,true,mon;wed;fri,,out
d1,Chapati,,60,dinner,false,mon,,in
`

// Mon 19 Oct 2026 in UTC.
var monday = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Mock CatalogFeed
type mockFeed struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (m *mockFeed) Fetch(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.text, m.err
}

func (m *mockFeed) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Mock LocalStore
type mockStore struct {
	mu       sync.Mutex
	snapshot *domain.CatalogSnapshot
	counter  int64
	profiles map[string]domain.UserProfile
}

func newMockStore() *mockStore {
	return &mockStore{profiles: make(map[string]domain.UserProfile)}
}

func (m *mockStore) LoadCatalog(ctx context.Context) (*domain.CatalogSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return nil, nil
	}
	snap := *m.snapshot
	return &snap, nil
}

func (m *mockStore) SaveCatalog(ctx context.Context, snapshot domain.CatalogSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = &snapshot
	return nil
}

func (m *mockStore) NextOrderNumber(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return m.counter, nil
}

func (m *mockStore) LoadProfile(ctx context.Context, owner string) (*domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[owner]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *mockStore) SaveProfile(ctx context.Context, owner string, profile domain.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[owner] = profile
	return nil
}

// Mock OrderSink
type mockSink struct {
	mu        sync.Mutex
	submitted []domain.Order
	events    []string
}

func (m *mockSink) Submit(ctx context.Context, order domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, order)
	m.events = append(m.events, "submit")
}

func (m *mockSink) ChatLink(order domain.Order) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, "link")
	return "https://wa.me/919876543210?text=" + order.ID
}

func (m *mockSink) SupportLink() string {
	return "https://wa.me/919876543210?text=help"
}

func (m *mockSink) Submitted() []domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Order(nil), m.submitted...)
}

// Mock OrderLedger
type mockLedger struct {
	mu     sync.Mutex
	orders map[string]domain.Order
	fail   bool
}

func newMockLedger() *mockLedger {
	return &mockLedger{orders: make(map[string]domain.Order)}
}

func (m *mockLedger) SaveOrder(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("ledger down")
	}
	m.orders[order.ID] = order
	return nil
}

func (m *mockLedger) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

type testEnv struct {
	feed       *mockFeed
	store      *mockStore
	sink       *mockSink
	now        *time.Time
	catalog    *CatalogService
	resolver   *Resolver
	storefront *Storefront
}

// newTestEnv builds a storefront over the test menu with a movable clock.
func newTestEnv(now time.Time, queueSize int) *testEnv {
	env := &testEnv{
		feed:  &mockFeed{text: testMenuCSV},
		store: newMockStore(),
		sink:  &mockSink{},
		now:   &now,
	}
	clk := clock.FuncClock(func() time.Time { return *env.now })
	env.catalog = NewCatalogService(env.feed, env.store, clk, time.Hour, discardLogger())
	env.resolver = NewResolver(clk, time.UTC)
	env.storefront = NewStorefront(env.catalog, env.resolver, env.store, env.sink, queueSize, discardLogger())
	return env
}

func (e *testEnv) signedUpSession(t interface{ Fatalf(string, ...any) }) string {
	id := e.storefront.NewSession()
	err := e.storefront.Signup(context.Background(), id, domain.UserProfile{
		Name: "Asha", Phone: "9876543210", Address: "12 Lake Road",
	})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	return id
}
