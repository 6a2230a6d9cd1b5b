package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"admarket/internal/model"
)

type adRepository struct {
	db *sqlx.DB
}

func NewAdRepository(db *sqlx.DB) AdRepository {
	return &adRepository{db: db}
}

const adColumns = `id, seller_id, title, description, price, category, sub_category,
	age_range, brand, location, state, status, thumbnail_url, created_at, updated_at`

// Create inserts the ad and its images in one transaction so a failing image
// insert never leaves an orphaned ad behind.
func (r *adRepository) Create(ctx context.Context, ad *model.Ad, images []model.AdImage) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO ads (seller_id, title, description, price, category, sub_category,
			age_range, brand, location, state, status, thumbnail_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRowxContext(ctx, query,
		ad.SellerID, ad.Title, ad.Description, ad.Price, ad.Category, ad.SubCategory,
		ad.AgeRange, ad.Brand, ad.Location, ad.State, ad.Status, ad.ThumbnailURL,
	).Scan(&ad.ID, &ad.CreatedAt, &ad.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert ad: %w", err)
	}

	if err := insertImages(ctx, tx, ad.ID, images); err != nil {
		return err
	}
	ad.Images = images

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertImages(ctx context.Context, tx *sqlx.Tx, adID int64, images []model.AdImage) error {
	query := `
		INSERT INTO ad_images (ad_id, url, storage_key, position)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for i := range images {
		images[i].AdID = adID
		images[i].Position = i
		err := tx.QueryRowxContext(ctx, query, adID, images[i].URL, images[i].StorageKey, i).Scan(&images[i].ID)
		if err != nil {
			return fmt.Errorf("insert image %d: %w", i, err)
		}
	}
	return nil
}

// GetByID retrieves a single ad with all its images and the seller summary.
func (r *adRepository) GetByID(ctx context.Context, adID int64) (*model.Ad, error) {
	query := `SELECT ` + adColumns + ` FROM ads WHERE id = $1`

	var ad model.Ad
	err := r.db.GetContext(ctx, &ad, query, adID)
	if err == sql.ErrNoRows {
		return nil, model.ErrAdNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ad: %w", err)
	}

	var images []model.AdImage
	err = r.db.SelectContext(ctx, &images,
		`SELECT id, ad_id, url, storage_key, position FROM ad_images WHERE ad_id = $1 ORDER BY position`, adID)
	if err != nil {
		return nil, fmt.Errorf("get ad images: %w", err)
	}
	ad.Images = images

	if err := r.attachSellers(ctx, []*model.Ad{&ad}); err != nil {
		return nil, err
	}
	return &ad, nil
}

// List returns ads newest first, optionally filtered by category. The first
// image reference is already denormalized as thumbnail_url, so listings only
// need the seller summaries joined in.
func (r *adRepository) List(ctx context.Context, category *int) ([]model.Ad, error) {
	var ads []model.Ad
	var err error
	if category == nil {
		err = r.db.SelectContext(ctx, &ads,
			`SELECT `+adColumns+` FROM ads ORDER BY created_at DESC`)
	} else {
		err = r.db.SelectContext(ctx, &ads,
			`SELECT `+adColumns+` FROM ads WHERE category = $1 ORDER BY created_at DESC`, *category)
	}
	if err != nil {
		return nil, fmt.Errorf("list ads: %w", err)
	}

	refs := make([]*model.Ad, len(ads))
	for i := range ads {
		refs[i] = &ads[i]
	}
	if err := r.attachSellers(ctx, refs); err != nil {
		return nil, err
	}
	return ads, nil
}

// ListBySeller returns all ads owned by a seller, newest first.
func (r *adRepository) ListBySeller(ctx context.Context, sellerID int64) ([]model.Ad, error) {
	var ads []model.Ad
	err := r.db.SelectContext(ctx, &ads,
		`SELECT `+adColumns+` FROM ads WHERE seller_id = $1 ORDER BY created_at DESC`, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list ads by seller: %w", err)
	}
	return ads, nil
}

// attachSellers batch-loads seller summaries to avoid an N+1 query.
func (r *adRepository) attachSellers(ctx context.Context, ads []*model.Ad) error {
	if len(ads) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(ads))
	seen := make(map[int64]struct{}, len(ads))
	for _, ad := range ads {
		if _, ok := seen[ad.SellerID]; !ok {
			seen[ad.SellerID] = struct{}{}
			ids = append(ids, ad.SellerID)
		}
	}

	var sellers []model.SellerSummary
	err := r.db.SelectContext(ctx, &sellers,
		`SELECT user_id, username, city FROM users WHERE user_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("get sellers: %w", err)
	}

	byID := make(map[int64]model.SellerSummary, len(sellers))
	for _, s := range sellers {
		byID[s.ID] = s
	}
	for _, ad := range ads {
		if s, ok := byID[ad.SellerID]; ok {
			seller := s
			ad.Seller = &seller
		}
	}
	return nil
}

// Update mutates an ad, enforcing ownership inside the UPDATE itself. When
// replaceImages is set, the whole image set is swapped (delete-then-reinsert)
// in the same transaction and the removed storage keys are returned.
func (r *adRepository) Update(ctx context.Context, ad *model.Ad, sellerID int64, newImages []model.AdImage, replaceImages bool) ([]string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE ads
		SET title = $3, description = $4, price = $5, category = $6, sub_category = $7,
			age_range = $8, brand = $9, location = $10, state = $11, status = $12,
			thumbnail_url = $13, updated_at = NOW()
		WHERE id = $1 AND seller_id = $2
		RETURNING created_at, updated_at
	`
	err = tx.QueryRowxContext(ctx, query,
		ad.ID, sellerID, ad.Title, ad.Description, ad.Price, ad.Category, ad.SubCategory,
		ad.AgeRange, ad.Brand, ad.Location, ad.State, ad.Status, ad.ThumbnailURL,
	).Scan(&ad.CreatedAt, &ad.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, r.classifyMissing(ctx, ad.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("update ad: %w", err)
	}

	var removedKeys []string
	if replaceImages {
		err = tx.SelectContext(ctx, &removedKeys,
			`DELETE FROM ad_images WHERE ad_id = $1 RETURNING storage_key`, ad.ID)
		if err != nil {
			return nil, fmt.Errorf("delete old images: %w", err)
		}
		if err := insertImages(ctx, tx, ad.ID, newImages); err != nil {
			return nil, err
		}
		ad.Images = newImages
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return removedKeys, nil
}

// Delete removes an ad owned by sellerID. Image and favorite rows cascade;
// the storage keys of the deleted images are returned for async cleanup.
func (r *adRepository) Delete(ctx context.Context, adID, sellerID int64) ([]string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var keys []string
	err = tx.SelectContext(ctx, &keys,
		`SELECT storage_key FROM ad_images WHERE ad_id = $1`, adID)
	if err != nil {
		return nil, fmt.Errorf("get image keys: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM ads WHERE id = $1 AND seller_id = $2`, adID, sellerID)
	if err != nil {
		return nil, fmt.Errorf("delete ad: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, r.classifyMissing(ctx, adID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return keys, nil
}

// classifyMissing distinguishes "someone else's ad" from "no such ad" after a
// zero-row ownership-scoped mutation.
func (r *adRepository) classifyMissing(ctx context.Context, adID int64) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM ads WHERE id = $1)`, adID); err != nil {
		return fmt.Errorf("check ad existence: %w", err)
	}
	if exists {
		return model.ErrNotAdOwner
	}
	return model.ErrAdNotFound
}

// Exists checks if an ad exists.
func (r *adRepository) Exists(ctx context.Context, adID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM ads WHERE id = $1)`, adID)
	if err != nil {
		return false, fmt.Errorf("check ad existence: %w", err)
	}
	return exists, nil
}
