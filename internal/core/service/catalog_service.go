package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rl1809/meal-order/internal/clock"
	"github.com/rl1809/meal-order/internal/core/domain"
	"github.com/rl1809/meal-order/internal/port"
)

// DefaultCatalogTTL is how long a fetched feed is reused before refetching.
const DefaultCatalogTTL = time.Hour

type CatalogService struct {
	feed   port.CatalogFeed
	cache  port.CatalogCache
	clock  clock.Clock
	ttl    time.Duration
	logger *slog.Logger
}

func NewCatalogService(feed port.CatalogFeed, cache port.CatalogCache, clk clock.Clock, ttl time.Duration, logger *slog.Logger) *CatalogService {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{
		feed:   feed,
		cache:  cache,
		clock:  clk,
		ttl:    ttl,
		logger: logger,
	}
}

// Rows returns the cached feed while it is fresh and fetches otherwise.
// A failed fetch falls back to whatever is cached, however old.
func (s *CatalogService) Rows(ctx context.Context) ([]domain.RawRow, error) {
	now := s.clock.Now()

	cached, err := s.cache.LoadCatalog(ctx)
	if err != nil {
		s.logger.Warn("catalog cache unreadable", "error", err)
		cached = nil
	}
	if cached != nil && now.Sub(cached.FetchedAt()) < s.ttl {
		s.logger.Debug("using cached catalog", "age", now.Sub(cached.FetchedAt()))
		return cached.Data, nil
	}

	rows, err := s.fetch(ctx, now)
	if err == nil {
		return rows, nil
	}

	if errors.Is(err, domain.ErrConfiguration) {
		s.logger.Error("catalog feed not configured", "error", err)
		return nil, nil
	}
	if cached != nil {
		s.logger.Warn("catalog fetch failed, serving stale cache", "error", err, "fetched_at", cached.FetchedAt())
		return cached.Data, nil
	}
	return nil, err
}

// Refresh fetches the feed regardless of cache age.
func (s *CatalogService) Refresh(ctx context.Context) ([]domain.RawRow, error) {
	return s.fetch(ctx, s.clock.Now())
}

func (s *CatalogService) fetch(ctx context.Context, now time.Time) ([]domain.RawRow, error) {
	text, err := s.feed.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	rows, err := ParseCatalog(text)
	if err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	snapshot := domain.CatalogSnapshot{Data: rows, Time: now.UnixMilli()}
	if err := s.cache.SaveCatalog(ctx, snapshot); err != nil {
		s.logger.Warn("failed to cache catalog", "error", err)
	}
	s.logger.Info("catalog fetched", "rows", len(rows))
	return rows, nil
}

// Items coerces every feed row into a menu item.
func (s *CatalogService) Items(ctx context.Context) ([]domain.MenuItem, error) {
	rows, err := s.Rows(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]domain.MenuItem, 0, len(rows))
	for i, row := range rows {
		items = append(items, domain.ItemFromRow(row, i+1))
	}
	return items, nil
}

// Meal returns the active items of one category.
func (s *CatalogService) Meal(ctx context.Context, category domain.Category) ([]domain.MenuItem, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return nil, err
	}
	var meal []domain.MenuItem
	for _, item := range items {
		if item.Category == category && item.IsActive {
			meal = append(meal, item)
		}
	}
	return meal, nil
}

// Item looks up a single item by identifier.
func (s *CatalogService) Item(ctx context.Context, id string) (domain.MenuItem, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return domain.MenuItem{}, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.MenuItem{}, domain.ErrItemNotFound
}

// ActiveMeals lists the categories that have at least one active item. The
// landing summary is looser than item coercion and also accepts "yes" and "1".
func (s *CatalogService) ActiveMeals(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.Rows(ctx)
	if err != nil {
		return nil, err
	}
	var active []domain.Category
	for _, meal := range domain.Categories {
		for _, row := range rows {
			cat := strings.ToLower(strings.TrimSpace(row["category"]))
			flag := strings.ToLower(strings.TrimSpace(row["isActive"]))
			if cat == string(meal) && (flag == "true" || flag == "yes" || flag == "1") {
				active = append(active, meal)
				break
			}
		}
	}
	return active, nil
}
