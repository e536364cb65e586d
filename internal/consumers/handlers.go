package consumers

import (
	"context"
	"encoding/json"
	"log/slog"

	"stagepass/internal/models"
	"stagepass/internal/repository"
	"stagepass/internal/search"

	"github.com/nats-io/stan.go"
)

type Handlers struct {
	repos    *repository.Repositories
	esClient *search.ElasticsearchClient
}

func NewHandlers(repos *repository.Repositories, esClient *search.ElasticsearchClient) *Handlers {
	return &Handlers{
		repos:    repos,
		esClient: esClient,
	}
}

// HandleOrderCreated records completed purchases in the audit log. A natural
// place to hang confirmation email delivery later.
func (h *Handlers) HandleOrderCreated(m *stan.Msg) {
	var event models.OrderCreatedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal order created event", "error", err)
		m.Ack()
		return
	}

	slog.Info("Order completed",
		"order_id", event.OrderID,
		"user_id", event.UserID,
		"event_id", event.EventID,
		"qty", event.Qty,
		"total_price", event.TotalPrice)

	m.Ack()
}

// HandleOrderExpired records pending orders failed by the expiration job
func (h *Handlers) HandleOrderExpired(m *stan.Msg) {
	var event models.OrderExpiredEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal order expired event", "error", err)
		m.Ack()
		return
	}

	slog.Info("Order expired and restocked", "order_id", event.OrderID, "qty", event.Qty)

	m.Ack()
}

// HandleEventChanged re-indexes a created or updated event into Elasticsearch
func (h *Handlers) HandleEventChanged(m *stan.Msg) {
	ctx := context.Background()

	var event models.EventChangedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal event change", "error", err)
		m.Ack()
		return
	}

	if h.esClient == nil {
		m.Ack()
		return
	}

	record, err := h.repos.Events.GetByID(ctx, event.EventID)
	if err != nil {
		slog.Error("Failed to load event for indexing", "error", err, "event_id", event.EventID)
		return // no ack: retry on the next delivery
	}
	if record == nil {
		slog.Warn("Event vanished before indexing", "event_id", event.EventID)
		m.Ack()
		return
	}

	if err := h.esClient.IndexEvent(ctx, record); err != nil {
		slog.Error("Failed to index event", "error", err, "event_id", event.EventID)
		return
	}

	slog.Info("Indexed event", "event_id", event.EventID)
	m.Ack()
}

// HandleEventDeleted drops a deleted event from the search index
func (h *Handlers) HandleEventDeleted(m *stan.Msg) {
	ctx := context.Background()

	var event models.EventDeletedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal event deleted", "error", err)
		m.Ack()
		return
	}

	if h.esClient == nil {
		m.Ack()
		return
	}

	if err := h.esClient.DeleteEvent(ctx, event.EventID); err != nil {
		slog.Error("Failed to remove event from index", "error", err, "event_id", event.EventID)
		return
	}

	slog.Info("Removed event from index", "event_id", event.EventID)
	m.Ack()
}
