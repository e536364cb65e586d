package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stagepass/internal/database"
	apperrors "stagepass/internal/errors"
	"stagepass/internal/models"
)

type OrderRepository struct {
	db *database.DB
}

func NewOrderRepository(db *database.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, user_id, event_id, qty, total_price, status, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }, order *models.Order) error {
	return row.Scan(
		&order.ID,
		&order.UserID,
		&order.EventID,
		&order.Qty,
		&order.TotalPrice,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
}

// CreatePurchase inserts the order and decrements the event's remaining
// quantity in a single transaction. The decrement is conditional on
// qty >= requested, so two concurrent purchases can never oversell: the
// loser of the race sees zero affected rows and the whole purchase rolls
// back with no order written.
func (r *OrderRepository) CreatePurchase(ctx context.Context, order *models.Order) error {
	if order.EventID == nil {
		return fmt.Errorf("purchase requires an event id")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	decrement := `UPDATE events SET qty = qty - $1, updated_at = NOW() WHERE id = $2 AND qty >= $1`
	result, err := tx.ExecContext(ctx, decrement, order.Qty, *order.EventID)
	if err != nil {
		return fmt.Errorf("failed to decrement event quantity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Lost the race or the event vanished; report what is actually left.
		var remaining int
		err := tx.QueryRowContext(ctx, `SELECT qty FROM events WHERE id = $1`, *order.EventID).Scan(&remaining)
		if err == sql.ErrNoRows {
			return apperrors.ErrEventNotFound
		}
		if err != nil {
			return err
		}
		if remaining == 0 {
			return apperrors.ErrSoldOut
		}
		return &apperrors.InsufficientStockError{Requested: order.Qty, Available: remaining}
	}

	insert := `
		INSERT INTO orders (id, user_id, event_id, qty, total_price, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err = tx.QueryRowContext(ctx, insert,
		order.ID,
		order.UserID,
		order.EventID,
		order.Qty,
		order.TotalPrice,
		order.Status,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return tx.Commit()
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	err := scanOrder(r.db.QueryRowContext(ctx, query, id), order)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return order, err
}

func (r *OrderRepository) GetByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

// GetExpiredPending retrieves pending orders created before the cutoff
func (r *OrderRepository) GetExpiredPending(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	var orders []models.Order
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

// FailAndRestock marks a pending order failed and returns its quantity to the
// event, both in one transaction. A no-op if the order is no longer pending.
func (r *OrderRepository) FailAndRestock(ctx context.Context, orderID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	order := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND status = 'pending' FOR UPDATE`
	err = scanOrder(tx.QueryRowContext(ctx, query, orderID), order)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `UPDATE orders SET status = 'failed', updated_at = NOW() WHERE id = $1`, orderID)
	if err != nil {
		return err
	}

	if order.EventID != nil {
		_, err = tx.ExecContext(ctx, `UPDATE events SET qty = qty + $1, updated_at = NOW() WHERE id = $2`,
			order.Qty, *order.EventID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SalesTotals returns the aggregate revenue and ticket count of successful orders
func (r *OrderRepository) SalesTotals(ctx context.Context) (revenue int64, tickets int64, err error) {
	query := `SELECT COALESCE(SUM(total_price), 0), COALESCE(SUM(qty), 0) FROM orders WHERE status = 'success'`
	err = r.db.QueryRowContext(ctx, query).Scan(&revenue, &tickets)
	return revenue, tickets, err
}
