package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"admarket/internal/cache"
	"admarket/internal/model"
	"admarket/internal/queue"
)

const testPlaceholderURL = "https://cdn.example.com/placeholder.jpg"

type mockAdRepo struct {
	createFn       func(ctx context.Context, ad *model.Ad, images []model.AdImage) error
	getByIDFn      func(ctx context.Context, adID int64) (*model.Ad, error)
	listFn         func(ctx context.Context, category *int) ([]model.Ad, error)
	listBySellerFn func(ctx context.Context, sellerID int64) ([]model.Ad, error)
	updateFn       func(ctx context.Context, ad *model.Ad, sellerID int64, newImages []model.AdImage, replaceImages bool) ([]string, error)
	deleteFn       func(ctx context.Context, adID, sellerID int64) ([]string, error)
	existsFn       func(ctx context.Context, adID int64) (bool, error)
}

func (m *mockAdRepo) Create(ctx context.Context, ad *model.Ad, images []model.AdImage) error {
	if m.createFn == nil {
		return errors.New("unexpected Create call")
	}
	return m.createFn(ctx, ad, images)
}

func (m *mockAdRepo) GetByID(ctx context.Context, adID int64) (*model.Ad, error) {
	if m.getByIDFn == nil {
		return nil, errors.New("unexpected GetByID call")
	}
	return m.getByIDFn(ctx, adID)
}

func (m *mockAdRepo) List(ctx context.Context, category *int) ([]model.Ad, error) {
	if m.listFn == nil {
		return nil, errors.New("unexpected List call")
	}
	return m.listFn(ctx, category)
}

func (m *mockAdRepo) ListBySeller(ctx context.Context, sellerID int64) ([]model.Ad, error) {
	if m.listBySellerFn == nil {
		return nil, errors.New("unexpected ListBySeller call")
	}
	return m.listBySellerFn(ctx, sellerID)
}

func (m *mockAdRepo) Update(ctx context.Context, ad *model.Ad, sellerID int64, newImages []model.AdImage, replaceImages bool) ([]string, error) {
	if m.updateFn == nil {
		return nil, errors.New("unexpected Update call")
	}
	return m.updateFn(ctx, ad, sellerID, newImages, replaceImages)
}

func (m *mockAdRepo) Delete(ctx context.Context, adID, sellerID int64) ([]string, error) {
	if m.deleteFn == nil {
		return nil, errors.New("unexpected Delete call")
	}
	return m.deleteFn(ctx, adID, sellerID)
}

func (m *mockAdRepo) Exists(ctx context.Context, adID int64) (bool, error) {
	if m.existsFn == nil {
		return false, errors.New("unexpected Exists call")
	}
	return m.existsFn(ctx, adID)
}

// mockListingCache defaults to an always-miss cache that swallows writes.
type mockListingCache struct {
	getFn        func(ctx context.Context, key string) ([]model.AdListItem, bool, error)
	setFn        func(ctx context.Context, key string, items []model.AdListItem) error
	invalidated  int
	invalidateFn func(ctx context.Context) error
}

func (m *mockListingCache) Get(ctx context.Context, key string) ([]model.AdListItem, bool, error) {
	if m.getFn == nil {
		return nil, false, nil
	}
	return m.getFn(ctx, key)
}

func (m *mockListingCache) Set(ctx context.Context, key string, items []model.AdListItem) error {
	if m.setFn == nil {
		return nil
	}
	return m.setFn(ctx, key, items)
}

func (m *mockListingCache) Invalidate(ctx context.Context) error {
	m.invalidated++
	if m.invalidateFn == nil {
		return nil
	}
	return m.invalidateFn(ctx)
}

type mockPublisher struct {
	events  []queue.CleanupEvent
	streams []string
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.CleanupEvent) (string, error) {
	m.streams = append(m.streams, stream)
	m.events = append(m.events, event)
	return "1-1", nil
}

func testAdCommand() *model.AdCommand {
	return &model.AdCommand{
		Title:       "Wooden rocking horse",
		Description: "Lightly used, solid oak.",
		Price:       45.50,
		Category:    model.CategoryChildren,
	}
}

func TestCreateAdThumbnailFromFirstImage(t *testing.T) {
	var created *model.Ad
	repo := &mockAdRepo{
		createFn: func(ctx context.Context, ad *model.Ad, images []model.AdImage) error {
			created = ad
			ad.ID = 1
			return nil
		},
	}
	cacheMock := &mockListingCache{}
	svc := NewAdService(repo, cacheMock, &mockPublisher{}, testPlaceholderURL)

	images := []model.AdImage{
		{URL: "https://cdn.example.com/ads/a.jpg", StorageKey: "ads/a.jpg"},
		{URL: "https://cdn.example.com/ads/b.jpg", StorageKey: "ads/b.jpg"},
	}
	ad, err := svc.Create(context.Background(), 3, testAdCommand(), images)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ad.ThumbnailURL != images[0].URL {
		t.Errorf("ThumbnailURL = %q, want first image URL", ad.ThumbnailURL)
	}
	if created.SellerID != 3 {
		t.Errorf("SellerID = %d, want 3", created.SellerID)
	}
	if cacheMock.invalidated == 0 {
		t.Error("listing cache was not invalidated after create")
	}
}

func TestCreateAdThumbnailPlaceholder(t *testing.T) {
	repo := &mockAdRepo{
		createFn: func(ctx context.Context, ad *model.Ad, images []model.AdImage) error {
			return nil
		},
	}
	svc := NewAdService(repo, &mockListingCache{}, &mockPublisher{}, testPlaceholderURL)

	ad, err := svc.Create(context.Background(), 3, testAdCommand(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ad.ThumbnailURL != testPlaceholderURL {
		t.Errorf("ThumbnailURL = %q, want placeholder", ad.ThumbnailURL)
	}
}

func TestCreateAdTooManyImages(t *testing.T) {
	svc := NewAdService(&mockAdRepo{}, &mockListingCache{}, &mockPublisher{}, testPlaceholderURL)

	images := make([]model.AdImage, model.MaxAdImages+1)
	_, err := svc.Create(context.Background(), 3, testAdCommand(), images)
	if !errors.Is(err, model.ErrTooManyAdImages) {
		t.Fatalf("err = %v, want ErrTooManyAdImages", err)
	}
}

// A cache hit must serve the listing without touching the database; the mock
// repo has no listFn, so any query would fail the test.
func TestListServedFromCache(t *testing.T) {
	cached := []model.AdListItem{
		{Ad: model.Ad{ID: 1, Title: "Cached ad"}, Age: "2 hours ago"},
	}
	cacheMock := &mockListingCache{
		getFn: func(ctx context.Context, key string) ([]model.AdListItem, bool, error) {
			if key != cache.ListingKey(nil) {
				t.Errorf("cache key = %q, want %q", key, cache.ListingKey(nil))
			}
			return cached, true, nil
		},
	}
	svc := NewAdService(&mockAdRepo{}, cacheMock, &mockPublisher{}, testPlaceholderURL)

	items, err := svc.List(context.Background(), nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Cached ad" {
		t.Errorf("items = %+v, want cached listing", items)
	}
}

func TestListCacheMissFillsCache(t *testing.T) {
	repo := &mockAdRepo{
		listFn: func(ctx context.Context, category *int) ([]model.Ad, error) {
			if category == nil || *category != model.CategoryVintage {
				t.Errorf("category = %v, want vintage", category)
			}
			return []model.Ad{
				{ID: 1, Title: "Gramophone", CreatedAt: time.Now().Add(-2 * time.Hour)},
			}, nil
		},
	}
	var storedKey string
	var stored []model.AdListItem
	cacheMock := &mockListingCache{
		setFn: func(ctx context.Context, key string, items []model.AdListItem) error {
			storedKey = key
			stored = items
			return nil
		},
	}
	svc := NewAdService(repo, cacheMock, &mockPublisher{}, testPlaceholderURL)

	category := model.CategoryVintage
	items, err := svc.List(context.Background(), &category)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Age != "2 hours ago" {
		t.Errorf("Age = %q, want %q", items[0].Age, "2 hours ago")
	}
	if storedKey != cache.ListingKey(&category) {
		t.Errorf("cached under %q, want %q", storedKey, cache.ListingKey(&category))
	}
	if len(stored) != 1 {
		t.Errorf("cached %d items, want 1", len(stored))
	}
}

// Cache failures must degrade to the database, not surface to the caller.
func TestListCacheErrorFallsBack(t *testing.T) {
	repo := &mockAdRepo{
		listFn: func(ctx context.Context, category *int) ([]model.Ad, error) {
			return []model.Ad{{ID: 1, CreatedAt: time.Now()}}, nil
		},
	}
	cacheMock := &mockListingCache{
		getFn: func(ctx context.Context, key string) ([]model.AdListItem, bool, error) {
			return nil, false, errors.New("redis down")
		},
		setFn: func(ctx context.Context, key string, items []model.AdListItem) error {
			return errors.New("redis down")
		},
	}
	svc := NewAdService(repo, cacheMock, &mockPublisher{}, testPlaceholderURL)

	items, err := svc.List(context.Background(), nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("got %d items, want 1", len(items))
	}
}

func TestUpdateNotOwner(t *testing.T) {
	repo := &mockAdRepo{
		updateFn: func(ctx context.Context, ad *model.Ad, sellerID int64, newImages []model.AdImage, replaceImages bool) ([]string, error) {
			return nil, model.ErrNotAdOwner
		},
	}
	svc := NewAdService(repo, &mockListingCache{}, &mockPublisher{}, testPlaceholderURL)

	images := []model.AdImage{{URL: "https://cdn.example.com/ads/x.jpg"}}
	_, err := svc.Update(context.Background(), 99, 1, testAdCommand(), images)
	if !errors.Is(err, model.ErrNotAdOwner) {
		t.Fatalf("err = %v, want ErrNotAdOwner", err)
	}
}

// Updating without new images keeps the current image set and thumbnail.
func TestUpdateWithoutImagesKeepsCurrent(t *testing.T) {
	currentImages := []model.AdImage{{ID: 10, URL: "https://cdn.example.com/ads/old.jpg"}}
	repo := &mockAdRepo{
		getByIDFn: func(ctx context.Context, adID int64) (*model.Ad, error) {
			return &model.Ad{
				ID:           adID,
				ThumbnailURL: currentImages[0].URL,
				Images:       currentImages,
			}, nil
		},
		updateFn: func(ctx context.Context, ad *model.Ad, sellerID int64, newImages []model.AdImage, replaceImages bool) ([]string, error) {
			if replaceImages {
				t.Error("replaceImages = true, want false when no images uploaded")
			}
			return nil, nil
		},
	}
	publisher := &mockPublisher{}
	svc := NewAdService(repo, &mockListingCache{}, publisher, testPlaceholderURL)

	ad, err := svc.Update(context.Background(), 3, 1, testAdCommand(), nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if ad.ThumbnailURL != currentImages[0].URL {
		t.Errorf("ThumbnailURL = %q, want current thumbnail kept", ad.ThumbnailURL)
	}
	if len(publisher.events) != 0 {
		t.Error("no cleanup event expected when nothing was removed")
	}
}

func TestUpdateWithImagesQueuesCleanup(t *testing.T) {
	removed := []string{"ads/old1.jpg", "ads/old2.jpg"}
	repo := &mockAdRepo{
		updateFn: func(ctx context.Context, ad *model.Ad, sellerID int64, newImages []model.AdImage, replaceImages bool) ([]string, error) {
			if !replaceImages {
				t.Error("replaceImages = false, want true when images uploaded")
			}
			return removed, nil
		},
	}
	publisher := &mockPublisher{}
	svc := NewAdService(repo, &mockListingCache{}, publisher, testPlaceholderURL)

	images := []model.AdImage{{URL: "https://cdn.example.com/ads/new.jpg", StorageKey: "ads/new.jpg"}}
	ad, err := svc.Update(context.Background(), 3, 1, testAdCommand(), images)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if ad.ThumbnailURL != images[0].URL {
		t.Errorf("ThumbnailURL = %q, want new first image", ad.ThumbnailURL)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("published %d events, want 1", len(publisher.events))
	}
	if publisher.streams[0] != queue.StreamCleanup {
		t.Errorf("stream = %q, want %q", publisher.streams[0], queue.StreamCleanup)
	}
	event := publisher.events[0]
	if event.Type != queue.EventImagesDeleted {
		t.Errorf("event type = %q, want %q", event.Type, queue.EventImagesDeleted)
	}
	if len(event.Keys) != 2 {
		t.Errorf("event carries %d keys, want 2", len(event.Keys))
	}
}

func TestDeleteQueuesCleanupAndInvalidates(t *testing.T) {
	repo := &mockAdRepo{
		deleteFn: func(ctx context.Context, adID, sellerID int64) ([]string, error) {
			return []string{"ads/a.jpg"}, nil
		},
	}
	publisher := &mockPublisher{}
	cacheMock := &mockListingCache{}
	svc := NewAdService(repo, cacheMock, publisher, testPlaceholderURL)

	if err := svc.Delete(context.Background(), 3, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("published %d events, want 1", len(publisher.events))
	}
	if publisher.events[0].AdID != 1 {
		t.Errorf("event AdID = %d, want 1", publisher.events[0].AdID)
	}
	if cacheMock.invalidated == 0 {
		t.Error("listing cache was not invalidated after delete")
	}
}

func TestDeleteNotOwner(t *testing.T) {
	repo := &mockAdRepo{
		deleteFn: func(ctx context.Context, adID, sellerID int64) ([]string, error) {
			return nil, model.ErrNotAdOwner
		},
	}
	publisher := &mockPublisher{}
	svc := NewAdService(repo, &mockListingCache{}, publisher, testPlaceholderURL)

	err := svc.Delete(context.Background(), 99, 1)
	if !errors.Is(err, model.ErrNotAdOwner) {
		t.Fatalf("err = %v, want ErrNotAdOwner", err)
	}
	if len(publisher.events) != 0 {
		t.Error("no cleanup event expected on failed delete")
	}
}
