package port

import (
	"context"

	"github.com/rl1809/meal-order/internal/core/domain"
)

type CatalogFeed interface {
	// Fetch retrieves the raw feed text, bypassing intermediary caches
	Fetch(ctx context.Context) (string, error)
}

type OrderSink interface {
	// Submit notifies the external order sink; failures are handled internally
	Submit(ctx context.Context, order domain.Order)

	// ChatLink builds the messaging deep link carrying the order summary
	ChatLink(order domain.Order) string

	// SupportLink builds a deep link for contacting the store
	SupportLink() string
}
