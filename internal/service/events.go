package service

import (
	"context"
	"fmt"
	"time"

	apperrors "stagepass/internal/errors"
	"stagepass/internal/logger"
	"stagepass/internal/models"
)

// EventStore is the event repository surface the catalog service needs
type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	UpdateBannerURL(ctx context.Context, id int64, bannerURL string) error
	Delete(ctx context.Context, id int64) error
}

// EventSearcher serves full-text catalog queries. Optional: when nil, listing
// falls back to the database filter.
type EventSearcher interface {
	Search(ctx context.Context, query string, page, pageSize int) ([]int64, error)
}

// BannerUploader stores banner images and returns their public URL
type BannerUploader interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

type EventService struct {
	eventRepo EventStore
	searcher  EventSearcher
	uploader  BannerUploader
	publisher Publisher
}

func NewEventService(eventRepo EventStore, searcher EventSearcher, uploader BannerUploader, publisher Publisher) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		searcher:  searcher,
		uploader:  uploader,
		publisher: publisher,
	}
}

// List serves the storefront catalog. Text queries go through Elasticsearch
// when it is configured; otherwise the database filter handles them.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) (models.ListEventsResponse, error) {
	if filter.Query != "" && s.searcher != nil {
		return s.listViaSearch(ctx, filter)
	}

	events, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return toListResponse(events), nil
}

func (s *EventService) listViaSearch(ctx context.Context, filter models.EventFilter) (models.ListEventsResponse, error) {
	ids, err := s.searcher.Search(ctx, filter.Query, filter.Page, filter.PageSize)
	if err != nil {
		// Search being down should not take the catalog down with it
		logger.WithContext(ctx).Error("Search failed, falling back to database", "error", err)
		events, dbErr := s.eventRepo.List(ctx, filter)
		if dbErr != nil {
			return nil, fmt.Errorf("failed to list events: %w", dbErr)
		}
		return toListResponse(events), nil
	}

	result := make(models.ListEventsResponse, 0, len(ids))
	for _, id := range ids {
		event, err := s.eventRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil || (filter.PublishedOnly && !event.Published) {
			continue
		}
		if filter.FeaturedOnly && !event.Featured {
			continue
		}
		result = append(result, toListItem(*event))
	}

	return result, nil
}

// Get returns one event. Unpublished events are only visible when
// includeUnpublished is set (admin listings).
func (s *EventService) Get(ctx context.Context, id int64, includeUnpublished bool) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil || (!event.Published && !includeUnpublished) {
		return nil, apperrors.ErrEventNotFound
	}

	return event, nil
}

func (s *EventService) Create(ctx context.Context, req *models.CreateEventRequest) (*models.CreateEventResponse, error) {
	if req.Price < 0 {
		return nil, fmt.Errorf("price must not be negative")
	}
	if req.Qty < 0 {
		return nil, fmt.Errorf("quantity must not be negative")
	}
	if !req.StartAt.Before(req.EndAt) {
		return nil, fmt.Errorf("start time must be before end time")
	}

	event := &models.Event{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		BannerURL:   req.BannerURL,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Price:       req.Price,
		Qty:         req.Qty,
		Published:   req.Published,
		Featured:    req.Featured,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.publishChange(ctx, models.EventEventCreated, event.ID)

	return &models.CreateEventResponse{ID: event.ID}, nil
}

func (s *EventService) Update(ctx context.Context, id int64, req *models.UpdateEventRequest) error {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return apperrors.ErrEventNotFound
	}

	if req.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if req.Qty < 0 {
		return fmt.Errorf("quantity must not be negative")
	}
	if !req.StartAt.Before(req.EndAt) {
		return fmt.Errorf("start time must be before end time")
	}

	event.Title = req.Title
	event.Description = req.Description
	event.Location = req.Location
	event.BannerURL = req.BannerURL
	event.StartAt = req.StartAt
	event.EndAt = req.EndAt
	event.Price = req.Price
	event.Qty = req.Qty
	event.Published = req.Published
	event.Featured = req.Featured

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	s.publishChange(ctx, models.EventEventUpdated, event.ID)

	return nil
}

// Delete removes an event entirely. Existing orders keep rendering from their
// captured data; their event reference becomes NULL.
func (s *EventService) Delete(ctx context.Context, id int64) error {
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	eventData := models.EventDeletedEvent{EventID: id, Timestamp: time.Now()}
	if err := s.publisher.Publish(models.EventEventDeleted, eventData); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event deleted event",
			"error", err,
			"event_id", id,
			"event_type", "event.deleted")
	}

	return nil
}

// UploadBanner pushes the image to the external store and records the public
// URL on the event
func (s *EventService) UploadBanner(ctx context.Context, id int64, filename, contentType string, data []byte) (*models.UploadBannerResponse, error) {
	if s.uploader == nil {
		return nil, fmt.Errorf("image store is not configured")
	}

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, apperrors.ErrEventNotFound
	}

	url, err := s.uploader.Upload(ctx, filename, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to upload banner: %w", err)
	}

	if err := s.eventRepo.UpdateBannerURL(ctx, id, url); err != nil {
		return nil, fmt.Errorf("failed to store banner url: %w", err)
	}

	s.publishChange(ctx, models.EventEventUpdated, id)

	return &models.UploadBannerResponse{BannerURL: url}, nil
}

func (s *EventService) publishChange(ctx context.Context, subject string, eventID int64) {
	eventData := models.EventChangedEvent{EventID: eventID, Timestamp: time.Now()}
	if err := s.publisher.Publish(subject, eventData); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event change",
			"error", err,
			"event_id", eventID,
			"event_type", subject)
	}
}

func toListResponse(events []models.Event) models.ListEventsResponse {
	result := make(models.ListEventsResponse, len(events))
	for i, event := range events {
		result[i] = toListItem(event)
	}
	return result
}

func toListItem(event models.Event) models.ListEventsResponseItem {
	return models.ListEventsResponseItem{
		ID:        event.ID,
		Title:     event.Title,
		Location:  event.Location,
		BannerURL: event.BannerURL,
		StartAt:   event.StartAt,
		EndAt:     event.EndAt,
		Price:     event.Price,
		Qty:       event.Qty,
		Featured:  event.Featured,
	}
}
