package service

import (
	"context"

	"admarket/internal/model"
	"admarket/internal/repository"
)

// FavoriteService manages the user↔ad favorite edges.
type FavoriteService struct {
	favoriteRepo repository.FavoriteRepository
	adRepo       repository.AdRepository
}

func NewFavoriteService(favoriteRepo repository.FavoriteRepository, adRepo repository.AdRepository) *FavoriteService {
	return &FavoriteService{
		favoriteRepo: favoriteRepo,
		adRepo:       adRepo,
	}
}

// Add favorites an ad for the user. A missing ad is NotFound; a duplicate
// edge surfaces as ErrAlreadyFavorited straight from the primary key, so two
// concurrent adds can never both insert.
func (s *FavoriteService) Add(ctx context.Context, userID, adID int64) error {
	exists, err := s.adRepo.Exists(ctx, adID)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrAdNotFound
	}

	return s.favoriteRepo.Add(ctx, userID, adID)
}

// Remove deletes the edge; removing a non-favorite is NotFound.
func (s *FavoriteService) Remove(ctx context.Context, userID, adID int64) error {
	exists, err := s.adRepo.Exists(ctx, adID)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrAdNotFound
	}

	return s.favoriteRepo.Remove(ctx, userID, adID)
}

// List returns the user's favorited ads.
func (s *FavoriteService) List(ctx context.Context, userID int64) ([]model.Ad, error) {
	return s.favoriteRepo.ListForUser(ctx, userID)
}
