package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stagepass/internal/database"
	"stagepass/internal/models"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, title, description, location, banner_url, start_at, end_at,
       price, qty, published, featured, created_at, updated_at`

func scanEvent(row interface{ Scan(...interface{}) error }, event *models.Event) error {
	return row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Location,
		&event.BannerURL,
		&event.StartAt,
		&event.EndAt,
		&event.Price,
		&event.Qty,
		&event.Published,
		&event.Featured,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (title, description, location, banner_url, start_at, end_at,
		                    price, qty, published, featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		event.Title,
		event.Description,
		event.Location,
		event.BannerURL,
		event.StartAt,
		event.EndAt,
		event.Price,
		event.Qty,
		event.Published,
		event.Featured,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)

	return err
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	event := &models.Event{}
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	err := scanEvent(r.db.QueryRowContext(ctx, query, id), event)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return event, err
}

func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	var events []models.Event
	var args []interface{}
	argIndex := 1

	sqlQuery := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`

	if filter.PublishedOnly {
		sqlQuery += " AND published = TRUE"
	}

	if filter.FeaturedOnly {
		sqlQuery += " AND featured = TRUE"
	}

	if filter.Query != "" {
		sqlQuery += fmt.Sprintf(" AND (title ILIKE $%d OR location ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+filter.Query+"%")
		argIndex++
	}

	sqlQuery += " ORDER BY start_at ASC, id ASC"

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		sqlQuery += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
		args = append(args, filter.PageSize, offset)
	}

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var event models.Event
		if err := scanEvent(rows, &event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, location = $3, banner_url = $4,
		    start_at = $5, end_at = $6, price = $7, qty = $8,
		    published = $9, featured = $10, updated_at = $11
		WHERE id = $12`

	event.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		event.Title,
		event.Description,
		event.Location,
		event.BannerURL,
		event.StartAt,
		event.EndAt,
		event.Price,
		event.Qty,
		event.Published,
		event.Featured,
		event.UpdatedAt,
		event.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *EventRepository) UpdateBannerURL(ctx context.Context, id int64, bannerURL string) error {
	query := `UPDATE events SET banner_url = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, bannerURL, id)
	return err
}

// Delete is the destructive admin override. Orders referencing the event keep
// a NULL event_id via the FK's ON DELETE SET NULL.
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// CountActive counts published events that have not yet ended
func (r *EventRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM events WHERE published = TRUE AND end_at > NOW()`
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}
