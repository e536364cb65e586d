package models

import (
	"time"
)

// User represents an authenticated principal in the system
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     string    `json:"full_name" db:"full_name"`
	Role         string    `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	LastLoggedIn time.Time `json:"last_logged_in" db:"last_logged_in"`
}

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Event represents a sellable scheduled happening
type Event struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description" db:"description"`
	Location    string    `json:"location" db:"location"`
	BannerURL   *string   `json:"banner_url" db:"banner_url"`
	StartAt     time.Time `json:"start_at" db:"start_at"`
	EndAt       time.Time `json:"end_at" db:"end_at"`
	Price       int64     `json:"price" db:"price"`
	Qty         int       `json:"qty" db:"qty"`
	Published   bool      `json:"published" db:"published"`
	Featured    bool      `json:"featured" db:"featured"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Order represents one purchase of tickets for an event.
// TotalPrice is captured at purchase time and never recomputed.
type Order struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	EventID    *int64    `json:"event_id" db:"event_id"`
	Qty        int       `json:"qty" db:"qty"`
	TotalPrice int64     `json:"total_price" db:"total_price"`
	Status     string    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Order statuses. pending may transition to success or failed; both are terminal.
const (
	OrderStatusPending = "pending"
	OrderStatusSuccess = "success"
	OrderStatusFailed  = "failed"
)
