package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"admarket/internal/cache"
	"admarket/internal/model"
	"admarket/internal/queue"
	"admarket/internal/repository"
	"admarket/internal/timeago"
)

// AdService owns the ad lifecycle: creation with images, listings with the
// Redis cache in front, ownership-checked mutation, and queuing storage
// cleanup for detached images.
type AdService struct {
	adRepo         repository.AdRepository
	listingCache   cache.ListingCache
	publisher      queue.Publisher
	placeholderURL string
}

func NewAdService(
	adRepo repository.AdRepository,
	listingCache cache.ListingCache,
	publisher queue.Publisher,
	placeholderURL string,
) *AdService {
	return &AdService{
		adRepo:         adRepo,
		listingCache:   listingCache,
		publisher:      publisher,
		placeholderURL: placeholderURL,
	}
}

// Create persists a new ad with its images in one transaction. The thumbnail
// is the first image's reference, or the placeholder when no images came in.
func (s *AdService) Create(ctx context.Context, sellerID int64, cmd *model.AdCommand, images []model.AdImage) (*model.Ad, error) {
	if len(images) > model.MaxAdImages {
		return nil, model.ErrTooManyAdImages
	}

	ad := adFromCommand(cmd)
	ad.SellerID = sellerID
	ad.ThumbnailURL = s.thumbnailFor(images)

	if err := s.adRepo.Create(ctx, ad, images); err != nil {
		return nil, fmt.Errorf("create ad: %w", err)
	}

	s.invalidateListings(ctx)
	return ad, nil
}

// List returns the listing for a category (nil = all), served from the Redis
// cache when fresh. Cache trouble degrades to the database, never to an error.
func (s *AdService) List(ctx context.Context, category *int) ([]model.AdListItem, error) {
	key := cache.ListingKey(category)

	if items, hit, err := s.listingCache.Get(ctx, key); err == nil && hit {
		return items, nil
	} else if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("listing cache read")
	}

	ads, err := s.adRepo.List(ctx, category)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	items := make([]model.AdListItem, len(ads))
	for i, ad := range ads {
		items[i] = model.AdListItem{
			Ad:  ad,
			Age: timeago.Format(ad.CreatedAt, now),
		}
	}

	if err := s.listingCache.Set(ctx, key, items); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("listing cache write")
	}
	return items, nil
}

// Get returns a single ad with all images and the seller summary.
func (s *AdService) Get(ctx context.Context, adID int64) (*model.Ad, error) {
	return s.adRepo.GetByID(ctx, adID)
}

// MyAds returns the caller's own ads.
func (s *AdService) MyAds(ctx context.Context, sellerID int64) ([]model.Ad, error) {
	return s.adRepo.ListBySeller(ctx, sellerID)
}

// Update mutates an ad after the repository verifies ownership. When new
// images are supplied the full set is replaced and the detached storage
// objects are queued for async deletion.
func (s *AdService) Update(ctx context.Context, sellerID, adID int64, cmd *model.AdCommand, newImages []model.AdImage) (*model.Ad, error) {
	replaceImages := len(newImages) > 0
	if len(newImages) > model.MaxAdImages {
		return nil, model.ErrTooManyAdImages
	}

	ad := adFromCommand(cmd)
	ad.ID = adID
	ad.SellerID = sellerID
	if replaceImages {
		ad.ThumbnailURL = s.thumbnailFor(newImages)
	} else {
		current, err := s.adRepo.GetByID(ctx, adID)
		if err != nil {
			return nil, err
		}
		ad.ThumbnailURL = current.ThumbnailURL
		ad.Images = current.Images
	}

	removedKeys, err := s.adRepo.Update(ctx, ad, sellerID, newImages, replaceImages)
	if err != nil {
		return nil, err
	}

	s.queueCleanup(ctx, adID, removedKeys)
	s.invalidateListings(ctx)
	return ad, nil
}

// Delete removes an ad after the repository verifies ownership, then queues
// its storage objects for deletion.
func (s *AdService) Delete(ctx context.Context, sellerID, adID int64) error {
	removedKeys, err := s.adRepo.Delete(ctx, adID, sellerID)
	if err != nil {
		return err
	}

	s.queueCleanup(ctx, adID, removedKeys)
	s.invalidateListings(ctx)
	return nil
}

func (s *AdService) thumbnailFor(images []model.AdImage) string {
	if len(images) > 0 {
		return images[0].URL
	}
	return s.placeholderURL
}

// queueCleanup publishes detached storage keys, best effort: the rows are
// already gone, a leaked object costs pennies and shows up in logs.
func (s *AdService) queueCleanup(ctx context.Context, adID int64, keys []string) {
	if len(keys) == 0 {
		return
	}
	event := queue.NewImagesDeletedEvent(adID, keys)
	if _, err := s.publisher.Publish(ctx, queue.StreamCleanup, event); err != nil {
		log.Error().Err(err).Int64("ad_id", adID).Int("keys", len(keys)).Msg("publish cleanup event")
	}
}

func (s *AdService) invalidateListings(ctx context.Context) {
	if err := s.listingCache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("listing cache invalidate")
	}
}

func adFromCommand(cmd *model.AdCommand) *model.Ad {
	return &model.Ad{
		Title:       cmd.Title,
		Description: cmd.Description,
		Price:       cmd.Price,
		Category:    cmd.Category,
		SubCategory: cmd.SubCategory,
		AgeRange:    cmd.AgeRange,
		Brand:       cmd.Brand,
		Location:    cmd.Location,
		State:       cmd.State,
		Status:      cmd.Status,
	}
}
