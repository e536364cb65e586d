package service

import (
	"stagepass/internal/external"
	"stagepass/internal/messaging"
	"stagepass/internal/repository"
	"stagepass/internal/search"
)

type Services struct {
	Events *EventService
	Orders *OrderService
	Users  *UserService
	Stats  *StatsService
}

func NewServices(repos *repository.Repositories, natsClient *messaging.NATSClient, esClient *search.ElasticsearchClient, imageStore *external.ImageStoreClient) *Services {
	// A nil *ElasticsearchClient must not end up inside a non-nil interface.
	var searcher EventSearcher
	if esClient != nil {
		searcher = esClient
	}

	var uploader BannerUploader
	if imageStore != nil {
		uploader = imageStore
	}

	return &Services{
		Events: NewEventService(repos.Events, searcher, uploader, natsClient),
		Orders: NewOrderService(repos.Orders, repos.Events, natsClient),
		Users:  NewUserService(repos.Users),
		Stats:  NewStatsService(repos.Orders, repos.Events, repos.Users),
	}
}
