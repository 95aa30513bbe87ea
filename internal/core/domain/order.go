package domain

import (
	"fmt"
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderStatusDispatched OrderStatus = "dispatched"
	OrderStatusArchived   OrderStatus = "archived"
)

type Order struct {
	ID        string         `json:"orderId"`
	Ref       string         `json:"ref"`
	Lines     []CartLineItem `json:"lines"`
	Total     float64        `json:"total"`
	Slot      string         `json:"slot"`
	Customer  UserProfile    `json:"customer"`
	Status    OrderStatus    `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
}

// OrderID formats a counter value as the short display identifier, e.g. T007.
func OrderID(counter int64) string {
	return fmt.Sprintf("T%03d", counter)
}

// ItemsSummary lists lines as "{qty}x {name} ({date})" joined by " | ".
func (o Order) ItemsSummary() string {
	parts := make([]string, 0, len(o.Lines))
	for _, l := range o.Lines {
		parts = append(parts, fmt.Sprintf("%dx %s (%s)", l.Quantity, l.Name, ShortDate(l.DeliveryDate)))
	}
	return strings.Join(parts, " | ")
}

// GroupLines buckets lines by delivery date, keeping first-seen order.
func GroupLines(lines []CartLineItem) []DayGroup {
	var groups []DayGroup
	index := make(map[string]int)
	for _, l := range lines {
		key := DateKey(l.DeliveryDate)
		i, ok := index[key]
		if !ok {
			label := l.DayLabel
			if label == "" {
				label = DayLabel(l.DeliveryDate)
			}
			groups = append(groups, DayGroup{Date: l.DeliveryDate, Label: label})
			i = len(groups) - 1
			index[key] = i
		}
		groups[i].Lines = append(groups[i].Lines, l)
	}
	return groups
}

// ChatMessage is the pre-filled text of the messaging deep link.
func (o Order) ChatMessage(storeName string) string {
	var b strings.Builder
	b.WriteString(storeName)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Order ID: %s\n\n", o.ID)

	if o.Customer != (UserProfile{}) {
		fmt.Fprintf(&b, "%s\n%s\n%s\n\n", o.Customer.Name, o.Customer.Phone, o.Customer.Address)
	}

	b.WriteString("Order Details:\n")
	for _, g := range GroupLines(o.Lines) {
		fmt.Fprintf(&b, "%s:\n", g.Label)
		for _, l := range g.Lines {
			fmt.Fprintf(&b, "- %dx %s (%s)\n", l.Quantity, l.Name, ShortDate(l.DeliveryDate))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Total: ₹%s\n", FormatAmount(o.Total))
	fmt.Fprintf(&b, "Delivery Slot: %s", o.Slot)
	return b.String()
}
