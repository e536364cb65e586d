package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "stagepass/internal/errors"
	"stagepass/internal/models"
)

// fakeCatalogStore backs the catalog service tests; unlike fakeEventStore it
// implements the full EventStore surface.
type fakeCatalogStore struct {
	events map[int64]*models.Event
	nextID int64
}

func newFakeCatalogStore(events ...*models.Event) *fakeCatalogStore {
	store := &fakeCatalogStore{events: make(map[int64]*models.Event), nextID: 1}
	for _, e := range events {
		store.events[e.ID] = e
		if e.ID >= store.nextID {
			store.nextID = e.ID + 1
		}
	}
	return store
}

func (f *fakeCatalogStore) Create(ctx context.Context, event *models.Event) error {
	event.ID = f.nextID
	f.nextID++
	event.CreatedAt = saleTime
	event.UpdatedAt = saleTime
	copied := *event
	f.events[event.ID] = &copied
	return nil
}

func (f *fakeCatalogStore) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	event, ok := f.events[id]
	if !ok {
		return nil, nil
	}
	copied := *event
	return &copied, nil
}

func (f *fakeCatalogStore) List(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	var result []models.Event
	for _, event := range f.events {
		if filter.PublishedOnly && !event.Published {
			continue
		}
		if filter.FeaturedOnly && !event.Featured {
			continue
		}
		result = append(result, *event)
	}
	return result, nil
}

func (f *fakeCatalogStore) Update(ctx context.Context, event *models.Event) error {
	if _, ok := f.events[event.ID]; !ok {
		return errors.New("no rows updated")
	}
	copied := *event
	f.events[event.ID] = &copied
	return nil
}

func (f *fakeCatalogStore) UpdateBannerURL(ctx context.Context, id int64, bannerURL string) error {
	event, ok := f.events[id]
	if !ok {
		return errors.New("no rows updated")
	}
	event.BannerURL = &bannerURL
	return nil
}

func (f *fakeCatalogStore) Delete(ctx context.Context, id int64) error {
	delete(f.events, id)
	return nil
}

type fakeSearcher struct {
	ids []int64
	err error
}

func (f *fakeSearcher) Search(ctx context.Context, query string, page, pageSize int) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ids, nil
}

type fakeUploader struct {
	url string
	err error
}

func (f *fakeUploader) Upload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func TestEventListPublishedOnly(t *testing.T) {
	published := onSaleEvent(1, 5000, 10)
	hidden := onSaleEvent(2, 5000, 10)
	hidden.Published = false

	store := newFakeCatalogStore(published, hidden)
	svc := NewEventService(store, nil, nil, &fakePublisher{})

	list, err := svc.List(context.Background(), models.EventFilter{PublishedOnly: true, Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].ID)
}

func TestEventListViaSearch(t *testing.T) {
	jazz := onSaleEvent(1, 5000, 10)
	hidden := onSaleEvent(2, 5000, 10)
	hidden.Published = false

	store := newFakeCatalogStore(jazz, hidden)
	searcher := &fakeSearcher{ids: []int64{1, 2, 99}}
	svc := NewEventService(store, searcher, nil, &fakePublisher{})

	// Unpublished and vanished hits are filtered out of search results
	list, err := svc.List(context.Background(), models.EventFilter{
		Query:         "jazz",
		PublishedOnly: true,
		Page:          1,
		PageSize:      20,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].ID)
}

func TestEventListSearchFailureFallsBackToDatabase(t *testing.T) {
	store := newFakeCatalogStore(onSaleEvent(1, 5000, 10))
	searcher := &fakeSearcher{err: errors.New("cluster unavailable")}
	svc := NewEventService(store, searcher, nil, &fakePublisher{})

	list, err := svc.List(context.Background(), models.EventFilter{
		Query:         "jazz",
		PublishedOnly: true,
		Page:          1,
		PageSize:      20,
	})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEventGetVisibility(t *testing.T) {
	hidden := onSaleEvent(1, 5000, 10)
	hidden.Published = false
	store := newFakeCatalogStore(hidden)
	svc := NewEventService(store, nil, nil, &fakePublisher{})

	_, err := svc.Get(context.Background(), 1, false)
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)

	event, err := svc.Get(context.Background(), 1, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), event.ID)

	_, err = svc.Get(context.Background(), 404, true)
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
}

func TestEventCreateValidation(t *testing.T) {
	store := newFakeCatalogStore()
	publisher := &fakePublisher{}
	svc := NewEventService(store, nil, nil, publisher)

	valid := &models.CreateEventRequest{
		Title:    "Autumn Gala",
		Location: "Grand Theatre",
		StartAt:  saleTime.Add(24 * time.Hour),
		EndAt:    saleTime.Add(27 * time.Hour),
		Price:    150000,
		Qty:      300,
	}

	resp, err := svc.Create(context.Background(), valid)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, []string{models.EventEventCreated}, publisher.published())

	badPrice := *valid
	badPrice.Price = -1
	_, err = svc.Create(context.Background(), &badPrice)
	assert.Error(t, err)

	badQty := *valid
	badQty.Qty = -5
	_, err = svc.Create(context.Background(), &badQty)
	assert.Error(t, err)

	badWindow := *valid
	badWindow.StartAt = badWindow.EndAt
	_, err = svc.Create(context.Background(), &badWindow)
	assert.Error(t, err)
}

func TestEventUpdate(t *testing.T) {
	store := newFakeCatalogStore(onSaleEvent(1, 5000, 10))
	publisher := &fakePublisher{}
	svc := NewEventService(store, nil, nil, publisher)

	req := &models.UpdateEventRequest{
		Title:     "Summer Jazz Night (Rescheduled)",
		Location:  "Riverside Hall",
		StartAt:   saleTime.Add(72 * time.Hour),
		EndAt:     saleTime.Add(76 * time.Hour),
		Price:     6000,
		Qty:       8,
		Published: true,
	}
	require.NoError(t, svc.Update(context.Background(), 1, req))

	event, _ := store.GetByID(context.Background(), 1)
	assert.Equal(t, "Summer Jazz Night (Rescheduled)", event.Title)
	assert.Equal(t, int64(6000), event.Price)
	assert.Equal(t, []string{models.EventEventUpdated}, publisher.published())

	err := svc.Update(context.Background(), 404, req)
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
}

func TestEventDeletePublishes(t *testing.T) {
	store := newFakeCatalogStore(onSaleEvent(1, 5000, 10))
	publisher := &fakePublisher{}
	svc := NewEventService(store, nil, nil, publisher)

	require.NoError(t, svc.Delete(context.Background(), 1))
	_, err := svc.Get(context.Background(), 1, true)
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
	assert.Equal(t, []string{models.EventEventDeleted}, publisher.published())
}

func TestUploadBanner(t *testing.T) {
	store := newFakeCatalogStore(onSaleEvent(1, 5000, 10))
	uploader := &fakeUploader{url: "https://images.example.com/banners/abc.png"}
	svc := NewEventService(store, nil, uploader, &fakePublisher{})

	resp, err := svc.UploadBanner(context.Background(), 1, "poster.png", "image/png", []byte{0x89})
	require.NoError(t, err)
	assert.Equal(t, uploader.url, resp.BannerURL)

	event, _ := store.GetByID(context.Background(), 1)
	require.NotNil(t, event.BannerURL)
	assert.Equal(t, uploader.url, *event.BannerURL)
}

func TestUploadBannerWithoutStore(t *testing.T) {
	svc := NewEventService(newFakeCatalogStore(onSaleEvent(1, 5000, 10)), nil, nil, &fakePublisher{})

	_, err := svc.UploadBanner(context.Background(), 1, "poster.png", "image/png", []byte{0x89})
	assert.Error(t, err)
}

type fakeUserStore struct {
	byEmail map[string]*models.User
	created []*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: make(map[string]*models.User)}
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	f.byEmail[user.Email] = user
	f.created = append(f.created, user)
	return nil
}

func (f *fakeUserStore) List(ctx context.Context) ([]models.User, error) {
	result := make([]models.User, 0, len(f.created))
	for _, u := range f.created {
		result = append(result, *u)
	}
	return result, nil
}

func TestUserCreate(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store)

	resp, err := svc.Create(context.Background(), &models.CreateUserRequest{
		Email:    "alice@example.com",
		Password: "correct horse battery",
		FullName: "Alice Grey",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)

	user := store.byEmail["alice@example.com"]
	require.NotNil(t, user)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.True(t, user.IsActive)
	// Никогда не храним пароль открытым текстом
	assert.NotContains(t, user.PasswordHash, "correct horse")

	_, err = svc.Create(context.Background(), &models.CreateUserRequest{
		Email:    "alice@example.com",
		Password: "another password",
		FullName: "Alice Again",
	})
	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)
}

func TestUserCreateRejectsUnknownRole(t *testing.T) {
	svc := NewUserService(newFakeUserStore())

	_, err := svc.Create(context.Background(), &models.CreateUserRequest{
		Email:    "bob@example.com",
		Password: "some long password",
		FullName: "Bob",
		Role:     "superuser",
	})
	assert.Error(t, err)
}

type fakeAggregates struct {
	revenue  int64
	tickets  int64
	active   int64
	newUsers int64
}

func (f *fakeAggregates) SalesTotals(ctx context.Context) (int64, int64, error) {
	return f.revenue, f.tickets, nil
}

func (f *fakeAggregates) CountActive(ctx context.Context) (int64, error) {
	return f.active, nil
}

func (f *fakeAggregates) CountRegisteredSince(ctx context.Context, since time.Time) (int64, error) {
	return f.newUsers, nil
}

func TestStatsDashboard(t *testing.T) {
	agg := &fakeAggregates{revenue: 1250000, tickets: 47, active: 3, newUsers: 12}
	svc := NewStatsService(agg, agg, agg)

	stats, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1250000), stats.TotalRevenue)
	assert.Equal(t, int64(47), stats.TicketsSold)
	assert.Equal(t, int64(3), stats.ActiveEvents)
	assert.Equal(t, int64(12), stats.NewUsers)
}
