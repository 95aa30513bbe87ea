package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/rl1809/meal-order/internal/core/domain"
	"github.com/rl1809/meal-order/internal/port"
)

type itemSource interface {
	Item(ctx context.Context, id string) (domain.MenuItem, error)
}

// Checkout is one session's cart together with the checkout state machine.
// All methods are safe for concurrent use; calls are serialized per session.
type Checkout struct {
	mu       sync.Mutex
	owner    string
	cart     *Cart
	state    domain.State
	slot     string
	catalog  itemSource
	resolver *Resolver
	counter  port.OrderCounter
	profiles port.ProfileStore
	sink     port.OrderSink
	archive  func(domain.Order)
	logger   *slog.Logger
}

func newCheckout(owner string, catalog itemSource, resolver *Resolver, store port.LocalStore, sink port.OrderSink, archive func(domain.Order), logger *slog.Logger) *Checkout {
	if archive == nil {
		archive = func(domain.Order) {}
	}
	return &Checkout{
		owner:    owner,
		cart:     NewCart(),
		state:    domain.StateEmpty,
		slot:     domain.DeliverySlots[0],
		catalog:  catalog,
		resolver: resolver,
		counter:  store,
		profiles: store,
		sink:     sink,
		archive:  archive,
		logger:   logger.With("session", owner),
	}
}

func (c *Checkout) State() domain.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Checkout) Slot() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slot
}

func (c *Checkout) Lines() []domain.CartLineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.Lines()
}

func (c *Checkout) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.Total()
}

func (c *Checkout) GroupByDay() []domain.DayGroup {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.GroupByDay()
}

// Add puts the window's item into the cart if it is orderable.
func (c *Checkout) Add(w domain.AvailabilityWindow) (domain.CartLineItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.mutable(); err != nil {
		return domain.CartLineItem{}, err
	}
	line, err := c.cart.Add(w)
	if err != nil {
		return domain.CartLineItem{}, err
	}
	c.cartChanged()
	return line, nil
}

func (c *Checkout) SetQuantity(lineID string, n int) error {
	return c.mutate(func() error { return c.cart.SetQuantity(lineID, n) })
}

func (c *Checkout) Increase(lineID string) error {
	return c.mutate(func() error { return c.cart.Increase(lineID) })
}

func (c *Checkout) Decrease(lineID string) error {
	return c.mutate(func() error { return c.cart.Decrease(lineID) })
}

func (c *Checkout) Remove(lineID string) error {
	return c.mutate(func() error { return c.cart.Remove(lineID) })
}

func (c *Checkout) SetSlot(slot string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !slices.Contains(domain.DeliverySlots, slot) {
		return domain.NewValidationError(domain.ErrInvalidSlot, fmt.Sprintf("Delivery slot %q is not offered.", slot))
	}
	c.slot = slot
	return nil
}

// RequestPayment moves a populated cart to PaymentPending once every line is
// still orderable right now.
func (c *Checkout) RequestPayment(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestPayment(ctx)
}

// ConfirmPayment records the customer's claim that they paid. From an
// unvalidated cart it validates first, as a single user action.
func (c *Checkout) ConfirmPayment(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case domain.StateEmpty, domain.StatePopulated, domain.StateCleared:
		if err := c.requestPayment(ctx); err != nil {
			return err
		}
	case domain.StatePaymentPending:
	case domain.StatePaymentConfirmed:
		return nil
	default:
		return c.transitionError("Order already sent.")
	}

	profile, err := c.profiles.LoadProfile(ctx, c.owner)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return domain.NewValidationError(domain.ErrNoProfile, "Please sign up first.")
	}

	c.state = domain.StatePaymentConfirmed
	c.logger.Info("payment confirmed", "lines", c.cart.Len(), "total", c.cart.Total())
	return nil
}

// Dispatch mints the order id, notifies the sink and returns the chat link.
// The sink submission completes before the link is built and before the
// order is handed to the archive.
func (c *Checkout) Dispatch(ctx context.Context) (domain.Dispatch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.StatePaymentConfirmed {
		return domain.Dispatch{}, domain.NewValidationError(domain.ErrPaymentNotConfirmed, "Confirm payment first.")
	}

	profile, err := c.profiles.LoadProfile(ctx, c.owner)
	if err != nil {
		return domain.Dispatch{}, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return domain.Dispatch{}, domain.NewValidationError(domain.ErrNoProfile, "Please sign up first.")
	}

	n, err := c.counter.NextOrderNumber(ctx)
	if err != nil {
		return domain.Dispatch{}, fmt.Errorf("allocate order id: %w", err)
	}

	order := domain.Order{
		ID:        domain.OrderID(n),
		Ref:       uuid.NewString(),
		Lines:     c.cart.Lines(),
		Total:     c.cart.Total(),
		Slot:      c.slot,
		Customer:  *profile,
		Status:    domain.OrderStatusDispatched,
		CreatedAt: c.resolver.Now(),
	}

	c.sink.Submit(ctx, order)
	link := c.sink.ChatLink(order)
	c.archive(order)

	c.state = domain.StateDispatched
	c.logger.Info("order dispatched", "order_id", order.ID, "ref", order.Ref, "total", order.Total)

	return domain.Dispatch{
		Order:         order,
		ChatURL:       link,
		RedirectTo:    domain.ConfirmationPath,
		RedirectAfter: domain.ConfirmationDelay,
	}, nil
}

// Complete empties the cart after a dispatch.
func (c *Checkout) Complete() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.StateDispatched {
		return c.transitionError("Nothing to complete.")
	}
	c.cart.Clear()
	c.state = domain.StateCleared
	return nil
}

func (c *Checkout) requestPayment(ctx context.Context) error {
	switch c.state {
	case domain.StateEmpty, domain.StatePopulated, domain.StateCleared:
	case domain.StatePaymentPending:
		return nil
	default:
		return c.transitionError("Payment already confirmed.")
	}

	if c.cart.Len() == 0 {
		return domain.NewValidationError(domain.ErrCartEmpty, "Cart empty")
	}

	now := c.resolver.Now()
	for _, line := range c.cart.Lines() {
		item, err := c.catalog.Item(ctx, line.ItemID)
		if errors.Is(err, domain.ErrItemNotFound) {
			item = line.Snapshot()
		} else if err != nil {
			return fmt.Errorf("revalidate %s: %w", line.LineID(), err)
		}
		w := Evaluate(item, line.DeliveryDate, now)
		if !w.Orderable {
			return blockedError(item, line.DeliveryDate, w.Reason)
		}
	}

	c.state = domain.StatePaymentPending
	return nil
}

func (c *Checkout) mutate(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.mutable(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	c.cartChanged()
	return nil
}

func (c *Checkout) mutable() error {
	if c.state == domain.StateDispatched {
		return c.transitionError("Order already sent.")
	}
	return nil
}

// cartChanged drops any validation done for the previous cart contents.
func (c *Checkout) cartChanged() {
	if c.cart.Len() == 0 {
		c.state = domain.StateEmpty
		return
	}
	c.state = domain.StatePopulated
}

func (c *Checkout) transitionError(reason string) error {
	return domain.NewValidationError(fmt.Errorf("%w from %s", domain.ErrInvalidTransition, c.state), reason)
}
