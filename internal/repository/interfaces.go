package repository

import (
	"context"

	"admarket/internal/model"
)

type UserRepository interface {
	// Create inserts a user, relying on the email unique constraint;
	// duplicates surface as model.ErrEmailExists.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, id int64, req *model.UpdateProfileRequest) (*model.User, error)
}

type RefreshTokenRepository interface {
	// Upsert writes the user's single refresh slot, overwriting any prior token.
	Upsert(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	DeleteForUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type AdRepository interface {
	// Create inserts the ad and its images in one transaction.
	Create(ctx context.Context, ad *model.Ad, images []model.AdImage) error
	GetByID(ctx context.Context, adID int64) (*model.Ad, error)
	// List returns ads newest first, optionally filtered by category,
	// with seller summaries attached.
	List(ctx context.Context, category *int) ([]model.Ad, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]model.Ad, error)
	// Update mutates an ad owned by sellerID; when replaceImages is set the
	// whole image set is swapped inside the same transaction. Returns the
	// storage keys of any removed images.
	Update(ctx context.Context, ad *model.Ad, sellerID int64, newImages []model.AdImage, replaceImages bool) (removedKeys []string, err error)
	// Delete removes an ad owned by sellerID and returns the storage keys of
	// its images (image and favorite rows go with the ad via FK cascade).
	Delete(ctx context.Context, adID, sellerID int64) (removedKeys []string, err error)
	Exists(ctx context.Context, adID int64) (bool, error)
}

type FavoriteRepository interface {
	// Add inserts the (user, ad) edge; the composite primary key turns a
	// duplicate into model.ErrAlreadyFavorited.
	Add(ctx context.Context, userID, adID int64) error
	Remove(ctx context.Context, userID, adID int64) error
	ListForUser(ctx context.Context, userID int64) ([]model.Ad, error)
}
