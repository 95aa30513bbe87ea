package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Category string

const (
	CategoryBreakfast Category = "breakfast"
	CategoryLunch     Category = "lunch"
	CategoryDinner    Category = "dinner"
	CategorySnacks    Category = "snacks"
)

// Categories lists meals in display order.
var Categories = []Category{CategoryBreakfast, CategoryLunch, CategoryDinner, CategorySnacks}

func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return c, false
}

type StockStatus string

const (
	StockIn  StockStatus = "in"
	StockOut StockStatus = "out"
)

// RawRow is one feed record keyed by header name.
type RawRow map[string]string

// CatalogSnapshot is the cached form of a fetched feed.
type CatalogSnapshot struct {
	Data []RawRow `json:"data"`
	Time int64    `json:"time"` // epoch ms
}

func (s CatalogSnapshot) FetchedAt() time.Time {
	return time.UnixMilli(s.Time)
}

type MenuItem struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Price         float64     `json:"price"`
	Category      Category    `json:"category"`
	IsActive      bool        `json:"isActive"`
	AvailableDays []string    `json:"availableDays"`
	ImageURL      string      `json:"imageUrl"`
	Stock         StockStatus `json:"stockAvailability"`
}

// AvailableOn reports whether the recurrence set contains the weekday.
func (m MenuItem) AvailableOn(day time.Weekday) bool {
	token := WeekdayToken(day)
	for _, d := range m.AvailableDays {
		if d == token {
			return true
		}
	}
	return false
}

func (m MenuItem) OutOfStock() bool {
	return m.Stock == StockOut
}

// WeekdayToken returns the three-letter lowercase abbreviation, e.g. "mon".
func WeekdayToken(day time.Weekday) string {
	return strings.ToLower(day.String()[:3])
}

var daySeparators = regexp.MustCompile(`[\s,;|]+`)

// ParseDays splits a day list such as "Mon, Wednesday|fri" into weekday tokens.
func ParseDays(list string) []string {
	var days []string
	for _, part := range daySeparators.Split(strings.TrimSpace(list), -1) {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if len(part) > 3 {
			part = part[:3]
		}
		days = append(days, part)
	}
	return days
}

// ItemFromRow coerces a loosely typed feed row. index is the 1-based data row
// number and is only used when the row carries no id.
func ItemFromRow(row RawRow, index int) MenuItem {
	id := strings.TrimSpace(row["id"])
	if id == "" {
		id = fmt.Sprintf("row-%d", index)
	}

	days := row["day"]
	if strings.TrimSpace(days) == "" {
		days = row["availableDays"]
	}

	stock := StockStatus(strings.ToLower(strings.TrimSpace(row["stockAvailability"])))
	if stock == "" {
		stock = StockIn
	}

	return MenuItem{
		ID:            id,
		Name:          strings.TrimSpace(row["name"]),
		Description:   strings.TrimSpace(row["description"]),
		Price:         parsePrice(row["price"]),
		Category:      Category(strings.ToLower(strings.TrimSpace(row["category"]))),
		IsActive:      strings.ToLower(strings.TrimSpace(row["isActive"])) == "true",
		AvailableDays: ParseDays(days),
		ImageURL:      strings.TrimSpace(row["imageUrl"]),
		Stock:         stock,
	}
}

func parsePrice(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// FormatAmount renders prices without trailing zeros: 120, 99.5.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
