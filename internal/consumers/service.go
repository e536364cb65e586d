package consumers

import (
	"context"
	"log/slog"

	"stagepass/internal/config"
	"stagepass/internal/database"
	"stagepass/internal/messaging"
	"stagepass/internal/repository"
	"stagepass/internal/search"
)

type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	repos    *repository.Repositories
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	var esClient *search.ElasticsearchClient
	if cfg.Elasticsearch.Enabled {
		esClient, err = search.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			return nil, err
		}
	}

	repos := repository.NewRepositories(db)
	handlers := NewHandlers(repos, esClient)

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		repos:    repos,
		handlers: handlers,
	}, nil
}

func (cs *ConsumerService) Repositories() *repository.Repositories {
	return cs.repos
}

func (cs *ConsumerService) NATS() *messaging.NATSClient {
	return cs.nats
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	_, err := cs.nats.SubscribeQueue("order.created", "consumers", cs.handlers.HandleOrderCreated)
	if err != nil {
		return err
	}

	_, err = cs.nats.SubscribeQueue("order.expired", "consumers", cs.handlers.HandleOrderExpired)
	if err != nil {
		return err
	}

	// Catalog changes feed the search index
	_, err = cs.nats.SubscribeQueue("event.created", "consumers", cs.handlers.HandleEventChanged)
	if err != nil {
		return err
	}

	_, err = cs.nats.SubscribeQueue("event.updated", "consumers", cs.handlers.HandleEventChanged)
	if err != nil {
		return err
	}

	_, err = cs.nats.SubscribeQueue("event.deleted", "consumers", cs.handlers.HandleEventDeleted)
	if err != nil {
		return err
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
