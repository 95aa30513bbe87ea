package service

import (
	"time"

	"github.com/rl1809/meal-order/internal/clock"
	"github.com/rl1809/meal-order/internal/core/domain"
)

const (
	DefaultHorizonDays = 7
	maxSurfacedDays    = 5
)

// Resolver computes per-date orderability. Results depend on the evaluation
// instant and are never cached.
type Resolver struct {
	clock clock.Clock
	loc   *time.Location
}

func NewResolver(clk clock.Clock, loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{clock: clk, loc: loc}
}

func (r *Resolver) Now() time.Time {
	return r.clock.Now().In(r.loc)
}

func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Resolve evaluates items against the upcoming weekdays as of now.
func (r *Resolver) Resolve(items []domain.MenuItem, horizonDays int) []domain.AvailabilityWindow {
	return r.ResolveAt(items, horizonDays, r.Now())
}

// ResolveAt keeps the first five upcoming weekdays on which at least one item
// is offered and evaluates every offered item on each of them.
func (r *Resolver) ResolveAt(items []domain.MenuItem, horizonDays int, now time.Time) []domain.AvailabilityWindow {
	now = now.In(r.loc)

	var windows []domain.AvailabilityWindow
	kept := 0
	for _, date := range UpcomingDates(now, horizonDays) {
		if kept == maxSurfacedDays {
			break
		}
		var offered []domain.MenuItem
		for _, item := range items {
			if item.AvailableOn(date.Weekday()) {
				offered = append(offered, item)
			}
		}
		if len(offered) == 0 {
			continue
		}
		kept++
		for _, item := range offered {
			windows = append(windows, Evaluate(item, date, now))
		}
	}
	return windows
}

// Evaluate decides whether item can still be ordered for delivery on date.
func Evaluate(item domain.MenuItem, date, now time.Time) domain.AvailabilityWindow {
	w := domain.AvailabilityWindow{
		Item:      item,
		Date:      startOfDay(date),
		Orderable: true,
		Reason:    domain.BlockNone,
	}

	closed := false
	if hour, ok := domain.DeliveryHour(item.Category); ok {
		d := w.Date
		delivery := time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, d.Location())
		closesAt := delivery.Add(-domain.CutoffLead)
		w.ClosesAt = &closesAt
		w.HoursLeft = delivery.Sub(now).Hours() - domain.CutoffLead.Hours()
		closed = w.HoursLeft <= 0
	}

	switch {
	case item.OutOfStock():
		w.Orderable = false
		w.Reason = domain.BlockOutOfStock
	case closed:
		w.Orderable = false
		w.Reason = domain.BlockClosed
	}
	return w
}

// UpcomingDates returns the next horizonDays calendar dates starting today,
// with Saturdays and Sundays removed.
func UpcomingDates(now time.Time, horizonDays int) []time.Time {
	today := startOfDay(now)
	var dates []time.Time
	for i := 0; i < horizonDays; i++ {
		d := today.AddDate(0, 0, i)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// GroupByDate buckets windows by delivery date, preserving order.
func GroupByDate(windows []domain.AvailabilityWindow) []domain.DayMenu {
	var days []domain.DayMenu
	for _, w := range windows {
		if n := len(days); n > 0 && days[n-1].Date.Equal(w.Date) {
			days[n-1].Windows = append(days[n-1].Windows, w)
			continue
		}
		days = append(days, domain.DayMenu{
			Date:    w.Date,
			Label:   w.DayLabel(),
			Windows: []domain.AvailabilityWindow{w},
		})
	}
	return days
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
