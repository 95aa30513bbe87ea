package service

import (
	"fmt"
	"time"

	"github.com/rl1809/meal-order/internal/core/domain"
)

// Cart holds the selected line items. It is not safe for concurrent use;
// Checkout serializes access.
type Cart struct {
	lines []domain.CartLineItem
}

func NewCart() *Cart {
	return &Cart{}
}

// Add puts one unit of the window's item on its delivery date into the cart.
func (c *Cart) Add(w domain.AvailabilityWindow) (domain.CartLineItem, error) {
	if !w.Orderable {
		return domain.CartLineItem{}, blockedError(w.Item, w.Date, w.Reason)
	}

	id := domain.LineID(w.Item.ID, w.Date)
	if i := c.index(id); i >= 0 {
		c.lines[i].Quantity++
		return c.lines[i], nil
	}

	line := domain.CartLineItem{
		ItemID:                     w.Item.ID,
		Name:                       w.Item.Name,
		Price:                      w.Item.Price,
		ImageURL:                   w.Item.ImageURL,
		Category:                   w.Item.Category,
		DeliveryDate:               w.Date,
		Quantity:                   1,
		DayLabel:                   w.DayLabel(),
		DeliveryAvailableAtAddTime: w.Orderable,
	}
	c.lines = append(c.lines, line)
	return line, nil
}

// SetQuantity stores n for the line; n <= 0 removes it.
func (c *Cart) SetQuantity(lineID string, n int) error {
	i := c.index(lineID)
	if i < 0 {
		return domain.ErrLineNotFound
	}
	if n <= 0 {
		c.removeAt(i)
		return nil
	}
	c.lines[i].Quantity = n
	return nil
}

func (c *Cart) Increase(lineID string) error {
	i := c.index(lineID)
	if i < 0 {
		return domain.ErrLineNotFound
	}
	return c.SetQuantity(lineID, c.lines[i].Quantity+1)
}

// Decrease removes the line once its last unit is taken away.
func (c *Cart) Decrease(lineID string) error {
	i := c.index(lineID)
	if i < 0 {
		return domain.ErrLineNotFound
	}
	return c.SetQuantity(lineID, c.lines[i].Quantity-1)
}

func (c *Cart) Remove(lineID string) error {
	i := c.index(lineID)
	if i < 0 {
		return domain.ErrLineNotFound
	}
	c.removeAt(i)
	return nil
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) Total() float64 {
	var total float64
	for _, l := range c.lines {
		total += l.Subtotal()
	}
	return total
}

func (c *Cart) Len() int {
	return len(c.lines)
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []domain.CartLineItem {
	out := make([]domain.CartLineItem, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) GroupByDay() []domain.DayGroup {
	return domain.GroupLines(c.lines)
}

func (c *Cart) index(lineID string) int {
	for i, l := range c.lines {
		if l.LineID() == lineID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}

func blockedError(item domain.MenuItem, date time.Time, reason domain.BlockReason) error {
	if reason == domain.BlockOutOfStock {
		return domain.NewValidationError(domain.ErrOutOfStock, fmt.Sprintf("%s is out of stock.", item.Name))
	}
	return domain.NewValidationError(domain.ErrOrderClosed, fmt.Sprintf("Order closed for %s.", domain.ShortDate(date)))
}
