package models

import "time"

// CreatePurchaseRequest - storefront purchase request. The price is never taken
// from the client; only the event and the desired quantity.
type CreatePurchaseRequest struct {
	EventID int64 `json:"event_id" binding:"required"`
	Qty     int   `json:"qty" binding:"required"`
}

// CreatePurchaseResponse - identifier of the created order for receipt navigation
type CreatePurchaseResponse struct {
	OrderID string `json:"order_id"`
}

// LoginRedirectResponse - returned with 401 when an unauthenticated buyer
// attempts a purchase; the client navigates to LoginURL and comes back to ReturnTo
type LoginRedirectResponse struct {
	Error    string `json:"error"`
	LoginURL string `json:"login_url"`
	ReturnTo string `json:"return_to"`
}

// ListEventsResponseItem - storefront catalog entry
type ListEventsResponseItem struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Location  string    `json:"location"`
	BannerURL *string   `json:"banner_url,omitempty"`
	StartAt   time.Time `json:"start_at"`
	EndAt     time.Time `json:"end_at"`
	Price     int64     `json:"price"`
	Qty       int       `json:"qty"`
	Featured  bool      `json:"featured"`
}

// ListEventsResponse - storefront catalog listing
type ListEventsResponse []ListEventsResponseItem

// EventFilter - catalog listing filters
type EventFilter struct {
	Query         string
	FeaturedOnly  bool
	PublishedOnly bool
	Page          int
	PageSize      int
}

// CreateEventRequest - admin event creation
type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description *string   `json:"description"`
	Location    string    `json:"location" binding:"required"`
	BannerURL   *string   `json:"banner_url"`
	StartAt     time.Time `json:"start_at" binding:"required"`
	EndAt       time.Time `json:"end_at" binding:"required"`
	Price       int64     `json:"price"`
	Qty         int       `json:"qty"`
	Published   bool      `json:"published"`
	Featured    bool      `json:"featured"`
}

// UpdateEventRequest - admin event edit, full replacement of mutable fields
type UpdateEventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description *string   `json:"description"`
	Location    string    `json:"location" binding:"required"`
	BannerURL   *string   `json:"banner_url"`
	StartAt     time.Time `json:"start_at" binding:"required"`
	EndAt       time.Time `json:"end_at" binding:"required"`
	Price       int64     `json:"price"`
	Qty         int       `json:"qty"`
	Published   bool      `json:"published"`
	Featured    bool      `json:"featured"`
}

// CreateEventResponse - модель ответа при создании события
type CreateEventResponse struct {
	ID int64 `json:"id"`
}

// UploadBannerResponse - public URL of the stored banner image
type UploadBannerResponse struct {
	BannerURL string `json:"banner_url"`
}

// TicketResponse - receipt view of an order: the order itself, a snapshot of
// the event it was bought for, and the payload an external renderer encodes
// into a QR code
type TicketResponse struct {
	Order     Order            `json:"order"`
	Event     *TicketEventInfo `json:"event,omitempty"`
	QRPayload string           `json:"qr_payload"`
}

// TicketEventInfo - the slice of event data shown on a ticket
type TicketEventInfo struct {
	Title    string    `json:"title"`
	Location string    `json:"location"`
	StartAt  time.Time `json:"start_at"`
}

// ListOrdersResponseItem - entry in the user's ticket list
type ListOrdersResponseItem struct {
	ID         string    `json:"id"`
	EventID    *int64    `json:"event_id"`
	Qty        int       `json:"qty"`
	TotalPrice int64     `json:"total_price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateManualOrderRequest - admin shortcut insert; takes the same shape as a
// storefront purchase but allows picking the user and an initial status
type CreateManualOrderRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	EventID int64  `json:"event_id" binding:"required"`
	Qty     int    `json:"qty" binding:"required"`
	Status  string `json:"status"`
}

// CreateUserRequest - admin user creation
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role"`
}

// CreateUserResponse - identifier of the created user
type CreateUserResponse struct {
	ID string `json:"id"`
}

// StatsResponse - admin dashboard aggregates
type StatsResponse struct {
	TotalRevenue int64 `json:"total_revenue"`
	TicketsSold  int64 `json:"tickets_sold"`
	ActiveEvents int64 `json:"active_events"`
	NewUsers     int64 `json:"new_users"`
}
