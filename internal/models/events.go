package models

import "time"

// NATS Event Types
const (
	EventOrderCreated = "order.created"
	EventOrderExpired = "order.expired"
	EventEventCreated = "event.created"
	EventEventUpdated = "event.updated"
	EventEventDeleted = "event.deleted"
)

// OrderCreatedEvent represents a completed purchase
type OrderCreatedEvent struct {
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	EventID    int64     `json:"event_id"`
	Qty        int       `json:"qty"`
	TotalPrice int64     `json:"total_price"`
	Timestamp  time.Time `json:"timestamp"`
}

// OrderExpiredEvent represents a pending order that timed out and was restocked
type OrderExpiredEvent struct {
	OrderID   string    `json:"order_id"`
	EventID   *int64    `json:"event_id"`
	Qty       int       `json:"qty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventChangedEvent represents a created or updated catalog event; the search
// index consumer re-indexes on it
type EventChangedEvent struct {
	EventID   int64     `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
}

// EventDeletedEvent represents a catalog event removed by an administrator
type EventDeletedEvent struct {
	EventID   int64     `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
}
