package service

import (
	"context"
	"fmt"
	"time"

	apperrors "stagepass/internal/errors"
	"stagepass/internal/logger"
	"stagepass/internal/metrics"
	"stagepass/internal/middleware"
	"stagepass/internal/models"

	"github.com/google/uuid"
)

// OrderStore is the slice of the order repository the workflow needs.
// CreatePurchase must apply the inventory decrement and the order insert
// atomically and reject the decrement unless qty >= requested.
type OrderStore interface {
	CreatePurchase(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByUserID(ctx context.Context, userID string) ([]models.Order, error)
}

// EventGetter reads current event state for purchase validation
type EventGetter interface {
	GetByID(ctx context.Context, id int64) (*models.Event, error)
}

// Publisher emits domain events; failures are logged, never fatal
type Publisher interface {
	Publish(subject string, data interface{}) error
}

type OrderService struct {
	orderRepo OrderStore
	eventRepo EventGetter
	publisher Publisher
	now       func() time.Time
}

func NewOrderService(orderRepo OrderStore, eventRepo EventGetter, publisher Publisher) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		eventRepo: eventRepo,
		publisher: publisher,
		now:       time.Now,
	}
}

// Purchase validates the buyer's intent against current event state and, when
// everything holds, records the order and decrements the event's remaining
// quantity in one transaction. Validations run in a fixed order and each
// failure is terminal with no state change.
func (s *OrderService) Purchase(ctx context.Context, req *models.CreatePurchaseRequest) (*models.CreatePurchaseResponse, error) {
	event, err := s.eventRepo.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil || !event.Published {
		// Unpublished events are invisible to buyers
		return nil, apperrors.ErrEventNotFound
	}

	now := s.now()
	if !now.Before(event.StartAt) {
		return nil, &apperrors.SaleClosedError{Reason: "already started"}
	}
	// Only reachable with start_at > end_at; kept as a guard against bad data.
	if !now.Before(event.EndAt) {
		return nil, &apperrors.SaleClosedError{Reason: "already ended"}
	}

	if event.Qty <= 0 {
		return nil, apperrors.ErrSoldOut
	}

	if req.Qty < 1 {
		return nil, apperrors.ErrInvalidQuantity
	}

	if req.Qty > event.Qty {
		return nil, &apperrors.InsufficientStockError{Requested: req.Qty, Available: event.Qty}
	}

	principal, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthenticatedBuyer
	}

	eventID := event.ID
	order := &models.Order{
		ID:         uuid.New().String(),
		UserID:     principal.UserID,
		EventID:    &eventID,
		Qty:        req.Qty,
		// Total is fixed from the server-side price at this moment, never
		// recomputed and never taken from the client.
		TotalPrice: int64(req.Qty) * event.Price,
		Status:     models.OrderStatusSuccess,
	}

	if err := s.orderRepo.CreatePurchase(ctx, order); err != nil {
		metrics.PurchasesTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	metrics.PurchasesTotal.WithLabelValues("success").Inc()
	metrics.TicketsSoldTotal.Add(float64(order.Qty))

	eventData := models.OrderCreatedEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		EventID:    eventID,
		Qty:        order.Qty,
		TotalPrice: order.TotalPrice,
		Timestamp:  time.Now(),
	}

	if err := s.publisher.Publish(models.EventOrderCreated, eventData); err != nil {
		// Log error but don't fail the operation
		logger.WithContext(ctx).Error("Failed to publish order created event",
			"error", err,
			"order_id", order.ID,
			"event_type", "order.created")
	}

	return &models.CreatePurchaseResponse{OrderID: order.ID}, nil
}

// CreateManual is the admin shortcut insert. It takes the same shape as a
// storefront purchase (same atomic decrement, same captured total) but allows
// choosing the buyer and starting the order as pending.
func (s *OrderService) CreateManual(ctx context.Context, req *models.CreateManualOrderRequest) (*models.CreatePurchaseResponse, error) {
	status := req.Status
	if status == "" {
		status = models.OrderStatusSuccess
	}
	if status != models.OrderStatusSuccess && status != models.OrderStatusPending {
		return nil, fmt.Errorf("invalid order status %q", status)
	}

	event, err := s.eventRepo.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, apperrors.ErrEventNotFound
	}

	if req.Qty < 1 {
		return nil, apperrors.ErrInvalidQuantity
	}

	eventID := event.ID
	order := &models.Order{
		ID:         uuid.New().String(),
		UserID:     req.UserID,
		EventID:    &eventID,
		Qty:        req.Qty,
		TotalPrice: int64(req.Qty) * event.Price,
		Status:     status,
	}

	if err := s.orderRepo.CreatePurchase(ctx, order); err != nil {
		return nil, err
	}

	return &models.CreatePurchaseResponse{OrderID: order.ID}, nil
}

// List returns the principal's orders, newest first
func (s *OrderService) List(ctx context.Context, userID string) ([]models.ListOrdersResponseItem, error) {
	orders, err := s.orderRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}

	result := make([]models.ListOrdersResponseItem, len(orders))
	for i, order := range orders {
		result[i] = models.ListOrdersResponseItem{
			ID:         order.ID,
			EventID:    order.EventID,
			Qty:        order.Qty,
			TotalPrice: order.TotalPrice,
			Status:     order.Status,
			CreatedAt:  order.CreatedAt,
		}
	}

	return result, nil
}

// GetTicket assembles the receipt view of an order. Buyers can only read
// their own orders; admins can read any.
func (s *OrderService) GetTicket(ctx context.Context, orderID string) (*models.TicketResponse, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, apperrors.ErrOrderNotFound
	}

	principal, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthorized
	}
	if order.UserID != principal.UserID && !principal.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	ticket := &models.TicketResponse{
		Order:     *order,
		QRPayload: fmt.Sprintf("stagepass://tickets/%s", order.ID),
	}

	// The event may have been deleted since the purchase; the ticket still
	// renders from the captured order data.
	if order.EventID != nil {
		event, err := s.eventRepo.GetByID(ctx, *order.EventID)
		if err != nil {
			return nil, fmt.Errorf("failed to get event: %w", err)
		}
		if event != nil {
			ticket.Event = &models.TicketEventInfo{
				Title:    event.Title,
				Location: event.Location,
				StartAt:  event.StartAt,
			}
		}
	}

	return ticket, nil
}
