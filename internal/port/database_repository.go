package port

import (
	"context"

	"github.com/rl1809/meal-order/internal/core/domain"
)

type OrderLedger interface {
	// SaveOrder archives a dispatched order with its lines
	SaveOrder(ctx context.Context, order domain.Order) error

	// GetOrder retrieves an archived order by display ID, nil if absent
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
}
