package service

import (
	"context"
	"fmt"
	"time"

	"stagepass/internal/models"
)

// SalesReader provides the order aggregates for the dashboard
type SalesReader interface {
	SalesTotals(ctx context.Context) (revenue int64, tickets int64, err error)
}

// ActiveEventCounter counts currently sellable events
type ActiveEventCounter interface {
	CountActive(ctx context.Context) (int64, error)
}

// RegistrationCounter counts recent signups
type RegistrationCounter interface {
	CountRegisteredSince(ctx context.Context, since time.Time) (int64, error)
}

// NewUsersWindow is the lookback for the dashboard's new-user count
const NewUsersWindow = 30 * 24 * time.Hour

type StatsService struct {
	orders SalesReader
	events ActiveEventCounter
	users  RegistrationCounter
}

func NewStatsService(orders SalesReader, events ActiveEventCounter, users RegistrationCounter) *StatsService {
	return &StatsService{orders: orders, events: events, users: users}
}

// Dashboard assembles the admin overview numbers
func (s *StatsService) Dashboard(ctx context.Context) (*models.StatsResponse, error) {
	revenue, tickets, err := s.orders.SalesTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read sales totals: %w", err)
	}

	active, err := s.events.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active events: %w", err)
	}

	newUsers, err := s.users.CountRegisteredSince(ctx, time.Now().Add(-NewUsersWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to count new users: %w", err)
	}

	return &models.StatsResponse{
		TotalRevenue: revenue,
		TicketsSold:  tickets,
		ActiveEvents: active,
		NewUsers:     newUsers,
	}, nil
}
