package jobs

import (
	"context"
	"log/slog"
	"time"

	"stagepass/internal/messaging"
	"stagepass/internal/models"
	"stagepass/internal/repository"
)

const checkInterval = 30 * time.Second

// OrderExpirationJob fails pending orders that outlived their timeout and
// returns their tickets to the event's remaining quantity. Storefront
// purchases are inserted as success, so this only ever touches admin-created
// pending orders.
type OrderExpirationJob struct {
	orderRepo  *repository.OrderRepository
	natsClient *messaging.NATSClient
	timeout    time.Duration
	ticker     *time.Ticker
	done       chan bool
}

func NewOrderExpirationJob(orderRepo *repository.OrderRepository, natsClient *messaging.NATSClient, timeout time.Duration) *OrderExpirationJob {
	return &OrderExpirationJob{
		orderRepo:  orderRepo,
		natsClient: natsClient,
		timeout:    timeout,
		done:       make(chan bool),
	}
}

// Start begins the background job that sweeps for expired orders
func (j *OrderExpirationJob) Start(ctx context.Context) {
	slog.Info("Starting order expiration job", "check_interval", checkInterval.String(), "timeout", j.timeout.String())

	j.ticker = time.NewTicker(checkInterval)

	go j.checkExpiredOrders(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				go j.checkExpiredOrders(ctx)
			case <-j.done:
				slog.Info("Order expiration job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the background job
func (j *OrderExpirationJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

func (j *OrderExpirationJob) checkExpiredOrders(ctx context.Context) {
	cutoff := time.Now().Add(-j.timeout)

	expired, err := j.orderRepo.GetExpiredPending(ctx, cutoff)
	if err != nil {
		slog.Error("Failed to get expired orders", "error", err)
		return
	}

	if len(expired) == 0 {
		slog.Debug("No expired orders found")
		return
	}

	slog.Info("Found expired orders to process", "count", len(expired))

	for _, order := range expired {
		// FailAndRestock re-checks the pending status under lock, so a
		// concurrent confirmation wins over the sweep.
		if err := j.orderRepo.FailAndRestock(ctx, order.ID); err != nil {
			slog.Error("Failed to expire order", "error", err, "order_id", order.ID)
			continue
		}

		event := models.OrderExpiredEvent{
			OrderID:   order.ID,
			EventID:   order.EventID,
			Qty:       order.Qty,
			Timestamp: time.Now(),
		}

		if err := j.natsClient.Publish(models.EventOrderExpired, event); err != nil {
			slog.Error("Failed to publish order expired event", "error", err, "order_id", order.ID)
		}

		slog.Info("Expired pending order", "order_id", order.ID, "qty", order.Qty)
	}
}
