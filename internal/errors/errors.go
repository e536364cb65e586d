package errors

import (
	"errors"
	"fmt"
)

// Purchase workflow failures. Each validation stage maps to exactly one of
// these; handlers translate them to HTTP statuses.
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrSoldOut              = errors.New("event is sold out")
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrUnauthenticatedBuyer = errors.New("buyer is not authenticated")
)

var (
	ErrUnauthorized = errors.New("user is not authorized")
	ErrForbidden    = errors.New("operation is forbidden for user")
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrOrderNotFound = errors.New("order not found")
	ErrEmailTaken    = errors.New("email is already registered")
)

// SaleClosedError reports why ticket sales are closed for an event.
type SaleClosedError struct {
	Reason string // "already started" or "already ended"
}

func (e *SaleClosedError) Error() string {
	return fmt.Sprintf("ticket sales are closed: event has %s", e.Reason)
}

// InsufficientStockError carries the actual remaining count so the buyer can
// be told how many tickets are still available.
type InsufficientStockError struct {
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d tickets are left, requested %d", e.Available, e.Requested)
}
