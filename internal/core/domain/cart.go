package domain

import "time"

type CartLineItem struct {
	ItemID                     string    `json:"itemId"`
	Name                       string    `json:"name"`
	Price                      float64   `json:"price"`
	ImageURL                   string    `json:"imageUrl"`
	Category                   Category  `json:"category"`
	DeliveryDate               time.Time `json:"deliveryDate"`
	Quantity                   int       `json:"qty"`
	DayLabel                   string    `json:"dayLabel"`
	DeliveryAvailableAtAddTime bool      `json:"deliveryAvailable"`
}

func (l CartLineItem) LineID() string {
	return LineID(l.ItemID, l.DeliveryDate)
}

func (l CartLineItem) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

// Snapshot rebuilds the item as it looked when the line was added.
func (l CartLineItem) Snapshot() MenuItem {
	return MenuItem{
		ID:       l.ItemID,
		Name:     l.Name,
		Price:    l.Price,
		Category: l.Category,
		ImageURL: l.ImageURL,
		IsActive: true,
		Stock:    StockIn,
	}
}

// LineID keys a cart line by item and delivery date.
func LineID(itemID string, date time.Time) string {
	return itemID + "@" + DateKey(date)
}

// DayGroup is the cart lines of one delivery date.
type DayGroup struct {
	Date  time.Time      `json:"date"`
	Label string         `json:"label"`
	Lines []CartLineItem `json:"lines"`
}

type UserProfile struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}
