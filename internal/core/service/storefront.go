package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/meal-order/internal/core/domain"
	"github.com/rl1809/meal-order/internal/port"
)

// Storefront ties the catalog, the resolver and per-session checkouts
// together and feeds dispatched orders to the archive queue.
type Storefront struct {
	catalog  *CatalogService
	resolver *Resolver
	store    port.LocalStore
	sink     port.OrderSink
	logger   *slog.Logger

	mu        sync.Mutex
	sessions  map[string]*session
	idleTTL   time.Duration
	lastSweep time.Time

	queueMu    sync.Mutex
	orderQueue chan domain.Order
	closed     bool
}

const (
	DefaultSessionIdleTTL = 24 * time.Hour
	sessionSweepInterval  = time.Minute
)

type session struct {
	checkout *Checkout
	lastSeen time.Time
}

type StorefrontOption func(*Storefront)

// WithSessionIdleTTL sets how long an unused session stays in memory. Zero
// or less keeps sessions until the process exits.
func WithSessionIdleTTL(ttl time.Duration) StorefrontOption {
	return func(s *Storefront) { s.idleTTL = ttl }
}

// NewStorefront builds the service. A queueSize of 0 disables archiving.
func NewStorefront(catalog *CatalogService, resolver *Resolver, store port.LocalStore, sink port.OrderSink, queueSize int, logger *slog.Logger, opts ...StorefrontOption) *Storefront {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Storefront{
		catalog:  catalog,
		resolver: resolver,
		store:    store,
		sink:     sink,
		logger:   logger,
		sessions: make(map[string]*session),
		idleTTL:  DefaultSessionIdleTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if queueSize > 0 {
		s.orderQueue = make(chan domain.Order, queueSize)
	}
	return s
}

// NewSession starts a browsing context with its own cart.
func (s *Storefront) NewSession() string {
	id := uuid.NewString()
	now := s.resolver.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(now)
	s.sessions[id] = &session{checkout: s.newCheckout(id), lastSeen: now}
	return id
}

// Session returns the checkout of id. An id this process does not hold is
// restored with an empty cart when a profile was saved under it, so a
// customer keeps their signup across restarts and idle eviction.
func (s *Storefront) Session(ctx context.Context, id string) (*Checkout, error) {
	now := s.resolver.Now()

	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok {
		sess.lastSeen = now
		s.mu.Unlock()
		return sess.checkout, nil
	}
	s.mu.Unlock()

	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrSessionNotFound
	}
	profile, err := s.store.LoadProfile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if profile == nil {
		return nil, domain.ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.lastSeen = now
		return sess.checkout, nil
	}
	s.sweepLocked(now)
	checkout := s.newCheckout(id)
	s.sessions[id] = &session{checkout: checkout, lastSeen: now}
	s.logger.Info("session restored", "session", id)
	return checkout, nil
}

// EvictIdle drops every session unused for longer than the idle TTL and
// returns how many were removed.
func (s *Storefront) EvictIdle() int {
	now := s.resolver.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictLocked(now)
}

func (s *Storefront) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < sessionSweepInterval {
		return
	}
	s.evictLocked(now)
}

func (s *Storefront) evictLocked(now time.Time) int {
	s.lastSweep = now
	if s.idleTTL <= 0 {
		return 0
	}
	evicted := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.idleTTL {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Debug("evicted idle sessions", "count", evicted, "remaining", len(s.sessions))
	}
	return evicted
}

func (s *Storefront) newCheckout(id string) *Checkout {
	return newCheckout(id, s.catalog, s.resolver, s.store, s.sink, s.enqueue, s.logger)
}

// Signup stores the customer profile for a session.
func (s *Storefront) Signup(ctx context.Context, sessionID string, profile domain.UserProfile) error {
	if _, err := s.Session(ctx, sessionID); err != nil {
		return err
	}
	profile = domain.UserProfile{
		Name:    strings.TrimSpace(profile.Name),
		Phone:   strings.TrimSpace(profile.Phone),
		Address: strings.TrimSpace(profile.Address),
	}
	switch {
	case profile.Name == "":
		return domain.NewValidationError(domain.ErrInvalidProfile, "Name is required.")
	case profile.Phone == "":
		return domain.NewValidationError(domain.ErrInvalidProfile, "Phone is required.")
	case profile.Address == "":
		return domain.NewValidationError(domain.ErrInvalidProfile, "Address is required.")
	}
	if err := s.store.SaveProfile(ctx, sessionID, profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *Storefront) Profile(ctx context.Context, sessionID string) (*domain.UserProfile, error) {
	if _, err := s.Session(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.store.LoadProfile(ctx, sessionID)
}

// Menu resolves the upcoming days for one meal category.
func (s *Storefront) Menu(ctx context.Context, meal domain.Category) ([]domain.DayMenu, error) {
	items, err := s.catalog.Meal(ctx, meal)
	if err != nil {
		return nil, err
	}
	return GroupByDate(s.resolver.Resolve(items, DefaultHorizonDays)), nil
}

func (s *Storefront) ActiveMeals(ctx context.Context) ([]domain.Category, error) {
	return s.catalog.ActiveMeals(ctx)
}

// AddToCart evaluates the item for the given delivery date as of now and
// adds it to the session's cart.
func (s *Storefront) AddToCart(ctx context.Context, sessionID, itemID string, date time.Time) (domain.CartLineItem, error) {
	checkout, err := s.Session(ctx, sessionID)
	if err != nil {
		return domain.CartLineItem{}, err
	}
	item, err := s.catalog.Item(ctx, itemID)
	if err != nil {
		return domain.CartLineItem{}, err
	}
	if !item.IsActive || !s.offered(item, date) {
		return domain.CartLineItem{}, domain.NewValidationError(domain.ErrNotOffered,
			fmt.Sprintf("%s is not offered on %s.", item.Name, domain.ShortDate(date)))
	}
	return checkout.Add(Evaluate(item, date, s.resolver.Now()))
}

// SupportLink is the chat link for contacting the store.
func (s *Storefront) SupportLink() string {
	return s.sink.SupportLink()
}

func (s *Storefront) offered(item domain.MenuItem, date time.Time) bool {
	for _, w := range s.resolver.Resolve([]domain.MenuItem{item}, DefaultHorizonDays) {
		if domain.DateKey(w.Date) == domain.DateKey(date) {
			return true
		}
	}
	return false
}

func (s *Storefront) enqueue(order domain.Order) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	if s.orderQueue == nil || s.closed {
		return
	}
	select {
	case s.orderQueue <- order:
	default:
		s.logger.Warn("archive queue full, order not archived", "order_id", order.ID)
	}
}

// GetOrderQueue exposes dispatched orders to archive workers.
func (s *Storefront) GetOrderQueue() <-chan domain.Order {
	return s.orderQueue
}

func (s *Storefront) Close() {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.orderQueue != nil {
		close(s.orderQueue)
	}
}

// ParseDate reads an ISO calendar date in the storefront's time zone.
func (s *Storefront) ParseDate(value string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(value), s.resolver.Location())
	if err != nil {
		return time.Time{}, domain.NewValidationError(err, fmt.Sprintf("Invalid delivery date %q.", value))
	}
	return d, nil
}
