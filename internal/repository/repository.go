package repository

import (
	"stagepass/internal/database"
)

type Repositories struct {
	Events *EventRepository
	Orders *OrderRepository
	Users  *UserRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Events: NewEventRepository(db),
		Orders: NewOrderRepository(db),
		Users:  NewUserRepository(db),
	}
}
