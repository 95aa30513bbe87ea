package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func sampleOrder() Order {
	mon := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	tue := mon.AddDate(0, 0, 1)
	return Order{
		ID: "T007",
		Lines: []CartLineItem{
			{ItemID: "l1", Name: "Veg Thali", Price: 120, DeliveryDate: mon, Quantity: 2, DayLabel: "Monday"},
			{ItemID: "s1", Name: "Samosa", Price: 20, DeliveryDate: tue, Quantity: 1, DayLabel: "Tuesday"},
			{ItemID: "b1", Name: "Idli", Price: 40, DeliveryDate: mon, Quantity: 1, DayLabel: "Monday"},
		},
		Total:    300,
		Slot:     SlotLunch,
		Customer: UserProfile{Name: "Asha", Phone: "9876543210", Address: "12 Lake Road"},
	}
}

func TestOrderID(t *testing.T) {
	tests := map[int64]string{1: "T001", 2: "T002", 42: "T042", 999: "T999", 1000: "T1000"}
	for n, want := range tests {
		if got := OrderID(n); got != want {
			t.Errorf("OrderID(%d) = %s, want %s", n, got, want)
		}
	}
}

func TestItemsSummary(t *testing.T) {
	want := "2x Veg Thali (10/19/2026) | 1x Samosa (10/20/2026) | 1x Idli (10/19/2026)"
	if got := sampleOrder().ItemsSummary(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestGroupLines(t *testing.T) {
	groups := GroupLines(sampleOrder().Lines)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Label != "Monday" || len(groups[0].Lines) != 2 {
		t.Errorf("unexpected first group %s with %d lines", groups[0].Label, len(groups[0].Lines))
	}
	if groups[1].Label != "Tuesday" || groups[1].Lines[0].Name != "Samosa" {
		t.Errorf("unexpected second group %+v", groups[1])
	}
}

func TestChatMessage(t *testing.T) {
	want := "Sakthi Kitchen\n\n" +
		"Order ID: T007\n\n" +
		"Asha\n9876543210\n12 Lake Road\n\n" +
		"Order Details:\n" +
		"Monday:\n- 2x Veg Thali (10/19/2026)\n- 1x Idli (10/19/2026)\n\n" +
		"Tuesday:\n- 1x Samosa (10/20/2026)\n\n" +
		"Total: ₹300\n" +
		"Delivery Slot: 11:00 AM – 01:00 PM"

	if got := sampleOrder().ChatMessage("Sakthi Kitchen"); got != want {
		t.Errorf("unexpected message:\n%s\nwant:\n%s", got, want)
	}
}

func TestLineID(t *testing.T) {
	d := time.Date(2026, 10, 19, 23, 30, 0, 0, time.UTC)
	if got := LineID("l1", d); got != "l1@2026-10-19" {
		t.Errorf("unexpected line id %s", got)
	}
}

func TestValidationError(t *testing.T) {
	err := fmt.Errorf("checkout: %w", NewValidationError(ErrCartEmpty, "Cart empty"))

	if !IsValidation(err) {
		t.Error("expected validation error")
	}
	if !errors.Is(err, ErrCartEmpty) {
		t.Error("expected cause to be preserved")
	}
	if Reason(err) != "Cart empty" {
		t.Errorf("unexpected reason %q", Reason(err))
	}
	if IsValidation(ErrNetwork) || Reason(ErrNetwork) != "" {
		t.Error("infrastructure errors are not validation errors")
	}
}

func TestAvailabilityWindowLabels(t *testing.T) {
	closes := time.Date(2026, 10, 18, 21, 0, 0, 0, time.UTC)
	w := AvailabilityWindow{
		Item:      MenuItem{Category: CategorySnacks},
		Date:      time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		Orderable: true,
		ClosesAt:  &closes,
		Reason:    BlockNone,
		HoursLeft: 2.999,
	}
	if w.Countdown() != "2h 59m" {
		t.Errorf("expected 2h 59m, got %q", w.Countdown())
	}
	if w.Label() != "" || w.Slot() != SlotSnacks || w.DayLabel() != "Monday" {
		t.Errorf("unexpected labels %q %q %q", w.Label(), w.Slot(), w.DayLabel())
	}

	w.Reason = BlockClosed
	w.HoursLeft = -1
	if w.Label() != "ORDER CLOSED" || w.Countdown() != "" {
		t.Errorf("unexpected closed labels %q %q", w.Label(), w.Countdown())
	}
}
