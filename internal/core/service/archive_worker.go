package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/rl1809/meal-order/internal/core/domain"
	"github.com/rl1809/meal-order/internal/port"
)

const archiveTimeout = 5 * time.Second

// ArchiveWorker drains the order queue into the ledger until the queue is
// closed. Failures are logged; dispatch has already succeeded for the user.
// A nil queue means archiving is disabled and the worker returns at once.
func ArchiveWorker(id int, queue <-chan domain.Order, ledger port.OrderLedger, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if queue == nil {
		logger.Warn("archive queue disabled, worker not started", "worker", id)
		return
	}
	for order := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)

		order.Status = domain.OrderStatusArchived
		if err := ledger.SaveOrder(ctx, order); err != nil {
			logger.Error("failed to archive order", "worker", id, "order_id", order.ID, "error", err)
		} else {
			logger.Debug("archived order", "worker", id, "order_id", order.ID)
		}

		cancel()
	}
}
