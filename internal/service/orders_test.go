package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "stagepass/internal/errors"
	"stagepass/internal/middleware"
	"stagepass/internal/models"
)

// saleTime is the fixed "now" all tests run at; events are positioned
// around it.
var saleTime = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type fakeEventStore struct {
	mu     sync.Mutex
	events map[int64]*models.Event
}

func newFakeEventStore(events ...*models.Event) *fakeEventStore {
	store := &fakeEventStore{events: make(map[int64]*models.Event)}
	for _, e := range events {
		store.events[e.ID] = e
	}
	return store
}

func (f *fakeEventStore) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[id]
	if !ok {
		return nil, nil
	}
	copied := *event
	return &copied, nil
}

func (f *fakeEventStore) qty(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[id].Qty
}

func (f *fakeEventStore) setPrice(id int64, price int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[id].Price = price
}

// fakeOrderStore applies the same conditional-decrement contract as the SQL
// repository: the decrement and the insert happen under one lock, and the
// decrement is refused unless enough tickets remain.
type fakeOrderStore struct {
	events *fakeEventStore
	mu     sync.Mutex
	orders map[string]models.Order
}

func newFakeOrderStore(events *fakeEventStore) *fakeOrderStore {
	return &fakeOrderStore{events: events, orders: make(map[string]models.Order)}
}

func (f *fakeOrderStore) CreatePurchase(ctx context.Context, order *models.Order) error {
	f.events.mu.Lock()
	defer f.events.mu.Unlock()

	event, ok := f.events.events[*order.EventID]
	if !ok {
		return apperrors.ErrEventNotFound
	}
	if event.Qty < order.Qty {
		if event.Qty == 0 {
			return apperrors.ErrSoldOut
		}
		return &apperrors.InsufficientStockError{Requested: order.Qty, Available: event.Qty}
	}
	event.Qty -= order.Qty

	f.mu.Lock()
	defer f.mu.Unlock()
	order.CreatedAt = saleTime
	order.UpdatedAt = saleTime
	f.orders[order.ID] = *order
	return nil
}

func (f *fakeOrderStore) GetByID(ctx context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	return &order, nil
}

func (f *fakeOrderStore) GetByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Order
	for _, order := range f.orders {
		if order.UserID == userID {
			result = append(result, order)
		}
	}
	return result, nil
}

func (f *fakeOrderStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (f *fakePublisher) Publish(subject string, data interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	return nil
}

func (f *fakePublisher) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.subjects...)
}

func onSaleEvent(id int64, price int64, qty int) *models.Event {
	return &models.Event{
		ID:        id,
		Title:     "Summer Jazz Night",
		Location:  "Riverside Hall",
		StartAt:   saleTime.Add(48 * time.Hour),
		EndAt:     saleTime.Add(52 * time.Hour),
		Price:     price,
		Qty:       qty,
		Published: true,
	}
}

func newTestOrderService(events ...*models.Event) (*OrderService, *fakeEventStore, *fakeOrderStore, *fakePublisher) {
	eventStore := newFakeEventStore(events...)
	orderStore := newFakeOrderStore(eventStore)
	publisher := &fakePublisher{}
	svc := NewOrderService(orderStore, eventStore, publisher)
	svc.now = func() time.Time { return saleTime }
	return svc, eventStore, orderStore, publisher
}

func buyerCtx(userID string) context.Context {
	return middleware.ContextWithPrincipal(context.Background(), middleware.Principal{
		UserID: userID,
		Role:   models.RoleUser,
	})
}

func TestPurchaseSuccess(t *testing.T) {
	svc, events, orders, publisher := newTestOrderService(onSaleEvent(1, 100000, 5))
	ctx := buyerCtx("buyer-1")

	resp, err := svc.Purchase(ctx, &models.CreatePurchaseRequest{EventID: 1, Qty: 3})
	require.NoError(t, err)
	require.NotEmpty(t, resp.OrderID)

	order, err := orders.GetByID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, "buyer-1", order.UserID)
	assert.Equal(t, 3, order.Qty)
	assert.Equal(t, int64(300000), order.TotalPrice)
	assert.Equal(t, models.OrderStatusSuccess, order.Status)

	assert.Equal(t, 2, events.qty(1))
	assert.Equal(t, []string{models.EventOrderCreated}, publisher.published())
}

func TestPurchaseTotalCapturedAtPurchaseTime(t *testing.T) {
	svc, events, orders, _ := newTestOrderService(onSaleEvent(1, 100000, 5))

	resp, err := svc.Purchase(buyerCtx("buyer-1"), &models.CreatePurchaseRequest{EventID: 1, Qty: 2})
	require.NoError(t, err)

	// Price changes after the purchase must not touch recorded totals
	events.setPrice(1, 250000)

	order, err := orders.GetByID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, int64(200000), order.TotalPrice)
}

func TestPurchaseEventNotFound(t *testing.T) {
	svc, _, orders, _ := newTestOrderService()

	_, err := svc.Purchase(buyerCtx("buyer-1"), &models.CreatePurchaseRequest{EventID: 42, Qty: 1})
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
	assert.Equal(t, 0, orders.count())
}

func TestPurchaseUnpublishedEventLooksMissing(t *testing.T) {
	event := onSaleEvent(1, 5000, 10)
	event.Published = false
	svc, _, orders, _ := newTestOrderService(event)

	_, err := svc.Purchase(buyerCtx("buyer-1"), &models.CreatePurchaseRequest{EventID: 1, Qty: 1})
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
	assert.Equal(t, 0, orders.count())
}

func TestPurchaseSaleClosed(t *testing.T) {
	started := onSaleEvent(1, 5000, 10)
	started.StartAt = saleTime.Add(-time.Hour)
	started.EndAt = saleTime.Add(2 * time.Hour)

	startsNow := onSaleEvent(2, 5000, 10)
	startsNow.StartAt = saleTime
	startsNow.EndAt = saleTime.Add(2 * time.Hour)

	svc, events, orders, _ := newTestOrderService(started, startsNow)

	// An event that already started is closed
	_, err := svc.Purchase(buyerCtx("buyer-1"), &models.CreatePurchaseRequest{EventID: 1, Qty: 1})
	var closed *apperrors.SaleClosedError
	require.ErrorAs(t, err, &closed)
	assert.Equal(t, "already started", closed.Reason)

	// The boundary counts as started
	_, err = svc.Purchase(buyerCtx("buyer-1"), &models.CreatePurchaseRequest{EventID: 2, Qty: 1})
	require.ErrorAs(t, err, &closed)
	assert.Equal(t, "already started", closed.Reason)

	assert.Equal(t, 0, orders.count())
	assert.Equal(t, 10, events.qty(1))
}

func TestPurchaseSoldOut(t *testing.T) {
	svc, _, orders, _ := newTestOrderService(onSaleEvent(1, 5000, 0))

	_, err := svc.Purchase(buyerCtx("buyer-1"), &models.CreatePurchaseRequest{EventID: 1, Qty: 1})
	assert.ErrorIs(t, err, apperrors.ErrSoldOut)
	assert.Equal(t, 0, orders.count())
}

func TestPurchaseInvalidQuantity(t *testing.T) {
	svc, events, orders, _ := newTestOrderService(onSaleEvent(1, 5000, 10))

	for _, qty := range []int{0, -1, -10} {
		_, err := svc.Purchase(buyerCtx("buyer-1"), &models.CreatePurchaseRequest{EventID: 1, Qty: qty})
		assert.ErrorIs(t, err, apperrors.ErrInvalidQuantity, "qty=%d", qty)
	}

	assert.Equal(t, 0, orders.count())
	assert.Equal(t, 10, events.qty(1))
}

func TestPurchaseInsufficientStock(t *testing.T) {
	svc, events, orders, publisher := newTestOrderService(onSaleEvent(1, 5000, 2))

	_, err := svc.Purchase(buyerCtx("buyer-1"), &models.CreatePurchaseRequest{EventID: 1, Qty: 5})

	var insufficient *apperrors.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 5, insufficient.Requested)
	assert.Equal(t, 2, insufficient.Available)

	assert.Equal(t, 0, orders.count())
	assert.Equal(t, 2, events.qty(1))
	assert.Empty(t, publisher.published())
}

func TestPurchaseUnauthenticated(t *testing.T) {
	svc, events, orders, _ := newTestOrderService(onSaleEvent(1, 5000, 10))

	_, err := svc.Purchase(context.Background(), &models.CreatePurchaseRequest{EventID: 1, Qty: 2})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticatedBuyer)

	assert.Equal(t, 0, orders.count())
	assert.Equal(t, 10, events.qty(1))
}

func TestPurchasePublishFailureDoesNotFailOrder(t *testing.T) {
	svc, events, orders, publisher := newTestOrderService(onSaleEvent(1, 5000, 10))
	publisher.err = errors.New("nats connection lost")

	resp, err := svc.Purchase(buyerCtx("buyer-1"), &models.CreatePurchaseRequest{EventID: 1, Qty: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.OrderID)
	assert.Equal(t, 1, orders.count())
	assert.Equal(t, 9, events.qty(1))
}

// Concurrent buyers competing for the same tickets: the conditional decrement
// admits exactly as many purchases as inventory covers and remaining never
// goes negative.
func TestPurchaseConcurrent(t *testing.T) {
	const buyers = 20
	const perOrder = 2
	const stock = 10

	svc, events, orders, _ := newTestOrderService(onSaleEvent(1, 5000, stock))

	var wg sync.WaitGroup
	results := make(chan error, buyers)

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Purchase(buyerCtx("buyer-1"), &models.CreatePurchaseRequest{EventID: 1, Qty: perOrder})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var insufficient *apperrors.InsufficientStockError
		if !errors.Is(err, apperrors.ErrSoldOut) && !errors.As(err, &insufficient) {
			t.Fatalf("unexpected purchase error: %v", err)
		}
	}

	assert.Equal(t, stock/perOrder, succeeded)
	assert.Equal(t, stock/perOrder, orders.count())
	assert.Equal(t, 0, events.qty(1))
}

func TestCreateManualDefaultsToSuccess(t *testing.T) {
	svc, events, orders, _ := newTestOrderService(onSaleEvent(1, 7000, 4))

	resp, err := svc.CreateManual(context.Background(), &models.CreateManualOrderRequest{
		UserID:  "user-9",
		EventID: 1,
		Qty:     2,
	})
	require.NoError(t, err)

	order, err := orders.GetByID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusSuccess, order.Status)
	assert.Equal(t, int64(14000), order.TotalPrice)
	assert.Equal(t, 2, events.qty(1))
}

func TestCreateManualPendingHoldsInventory(t *testing.T) {
	svc, events, orders, _ := newTestOrderService(onSaleEvent(1, 7000, 4))

	resp, err := svc.CreateManual(context.Background(), &models.CreateManualOrderRequest{
		UserID:  "user-9",
		EventID: 1,
		Qty:     1,
		Status:  models.OrderStatusPending,
	})
	require.NoError(t, err)

	order, err := orders.GetByID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	// Pending orders hold their tickets until confirmed or expired
	assert.Equal(t, 3, events.qty(1))
}

func TestCreateManualRejectsInvalidStatus(t *testing.T) {
	svc, _, orders, _ := newTestOrderService(onSaleEvent(1, 7000, 4))

	_, err := svc.CreateManual(context.Background(), &models.CreateManualOrderRequest{
		UserID:  "user-9",
		EventID: 1,
		Qty:     1,
		Status:  "failed",
	})
	assert.Error(t, err)
	assert.Equal(t, 0, orders.count())
}

func TestGetTicketOwnership(t *testing.T) {
	svc, _, _, _ := newTestOrderService(onSaleEvent(1, 5000, 10))

	resp, err := svc.Purchase(buyerCtx("buyer-1"), &models.CreatePurchaseRequest{EventID: 1, Qty: 1})
	require.NoError(t, err)

	// Owner reads their own ticket
	ticket, err := svc.GetTicket(buyerCtx("buyer-1"), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "stagepass://tickets/"+resp.OrderID, ticket.QRPayload)
	require.NotNil(t, ticket.Event)
	assert.Equal(t, "Summer Jazz Night", ticket.Event.Title)
	assert.Equal(t, "Riverside Hall", ticket.Event.Location)

	// Another buyer cannot
	_, err = svc.GetTicket(buyerCtx("buyer-2"), resp.OrderID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	// Admins can read any order
	adminCtx := middleware.ContextWithPrincipal(context.Background(), middleware.Principal{
		UserID: "admin-1",
		Role:   models.RoleAdmin,
	})
	_, err = svc.GetTicket(adminCtx, resp.OrderID)
	assert.NoError(t, err)

	// Anonymous callers get nothing
	_, err = svc.GetTicket(context.Background(), resp.OrderID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestGetTicketSurvivesDeletedEvent(t *testing.T) {
	svc, events, _, _ := newTestOrderService(onSaleEvent(1, 5000, 10))

	resp, err := svc.Purchase(buyerCtx("buyer-1"), &models.CreatePurchaseRequest{EventID: 1, Qty: 1})
	require.NoError(t, err)

	events.mu.Lock()
	delete(events.events, 1)
	events.mu.Unlock()

	ticket, err := svc.GetTicket(buyerCtx("buyer-1"), resp.OrderID)
	require.NoError(t, err)
	assert.Nil(t, ticket.Event)
	assert.Equal(t, int64(5000), ticket.Order.TotalPrice)
}

func TestGetTicketNotFound(t *testing.T) {
	svc, _, _, _ := newTestOrderService()

	_, err := svc.GetTicket(buyerCtx("buyer-1"), "missing-order")
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
}

func TestListOrders(t *testing.T) {
	svc, _, _, _ := newTestOrderService(onSaleEvent(1, 5000, 10))

	_, err := svc.Purchase(buyerCtx("buyer-1"), &models.CreatePurchaseRequest{EventID: 1, Qty: 1})
	require.NoError(t, err)
	_, err = svc.Purchase(buyerCtx("buyer-1"), &models.CreatePurchaseRequest{EventID: 1, Qty: 2})
	require.NoError(t, err)
	_, err = svc.Purchase(buyerCtx("buyer-2"), &models.CreatePurchaseRequest{EventID: 1, Qty: 1})
	require.NoError(t, err)

	list, err := svc.List(context.Background(), "buyer-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, item := range list {
		assert.Equal(t, models.OrderStatusSuccess, item.Status)
	}
}
