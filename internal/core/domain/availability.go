package domain

import (
	"fmt"
	"math"
	"time"
)

type BlockReason string

const (
	BlockNone       BlockReason = "none"
	BlockClosed     BlockReason = "closed"
	BlockOutOfStock BlockReason = "out-of-stock"
)

const (
	// CutoffLead is subtracted from the delivery instant to get the ordering cutoff.
	CutoffLead = 14 * time.Hour

	SlotLunch  = "11:00 AM – 01:00 PM"
	SlotSnacks = "04:00 PM – 06:00 PM"
)

// DeliverySlots are the slots a customer may choose at checkout.
var DeliverySlots = []string{SlotLunch, SlotSnacks}

// DeliveryHour returns the local hour of delivery for categories with a cutoff.
func DeliveryHour(c Category) (int, bool) {
	switch c {
	case CategoryLunch:
		return 11, true
	case CategorySnacks:
		return 16, true
	default:
		return 0, false
	}
}

func SlotFor(c Category) string {
	if c == CategorySnacks {
		return SlotSnacks
	}
	return SlotLunch
}

// AvailabilityWindow is the orderability of one item on one calendar date at
// a given evaluation instant.
type AvailabilityWindow struct {
	Item      MenuItem    `json:"item"`
	Date      time.Time   `json:"date"`
	Orderable bool        `json:"orderable"`
	ClosesAt  *time.Time  `json:"closesAt"`
	Reason    BlockReason `json:"reason"`
	HoursLeft float64     `json:"hoursLeft"`
}

// Countdown renders the remaining time until cutoff as "Xh Ym".
func (w AvailabilityWindow) Countdown() string {
	if w.ClosesAt == nil || w.HoursLeft <= 0 {
		return ""
	}
	total := int(math.Floor(w.HoursLeft * 60))
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}

// Label is the badge shown for blocked items.
func (w AvailabilityWindow) Label() string {
	switch w.Reason {
	case BlockOutOfStock:
		return "OUT OF STOCK"
	case BlockClosed:
		return "ORDER CLOSED"
	default:
		return ""
	}
}

func (w AvailabilityWindow) Slot() string {
	return SlotFor(w.Item.Category)
}

func (w AvailabilityWindow) DayLabel() string {
	return DayLabel(w.Date)
}

// DayMenu is every window of one delivery date.
type DayMenu struct {
	Date    time.Time            `json:"date"`
	Label   string               `json:"label"`
	Windows []AvailabilityWindow `json:"items"`
}

// DayLabel is the long weekday name of a date.
func DayLabel(d time.Time) string {
	return d.Weekday().String()
}

// DateKey is the ISO calendar date.
func DateKey(d time.Time) string {
	return d.Format("2006-01-02")
}

// ShortDate mirrors the numeric month/day/year format used in order messages.
func ShortDate(d time.Time) string {
	return d.Format("1/2/2006")
}
