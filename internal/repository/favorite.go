package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"admarket/internal/model"
)

type favoriteRepository struct {
	db *sqlx.DB
}

func NewFavoriteRepository(db *sqlx.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

// Add inserts the (user, ad) edge. The composite primary key turns concurrent
// duplicate requests into a constraint violation instead of a race.
func (r *favoriteRepository) Add(ctx context.Context, userID, adID int64) error {
	query := `INSERT INTO favorites (user_id, ad_id) VALUES ($1, $2)`
	_, err := r.db.ExecContext(ctx, query, userID, adID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // duplicate (user, ad) pair
				return model.ErrAlreadyFavorited
			case "23503": // ad no longer exists
				return model.ErrAdNotFound
			}
		}
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

// Remove deletes the edge. Returns ErrFavoriteNotFound when it wasn't there.
func (r *favoriteRepository) Remove(ctx context.Context, userID, adID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND ad_id = $2`, userID, adID)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrFavoriteNotFound
	}
	return nil
}

// ListForUser returns the user's favorited ads, newest favorite first.
func (r *favoriteRepository) ListForUser(ctx context.Context, userID int64) ([]model.Ad, error) {
	query := `
		SELECT a.id, a.seller_id, a.title, a.description, a.price, a.category, a.sub_category,
			a.age_range, a.brand, a.location, a.state, a.status, a.thumbnail_url, a.created_at, a.updated_at
		FROM favorites f
		JOIN ads a ON a.id = f.ad_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`
	var ads []model.Ad
	err := r.db.SelectContext(ctx, &ads, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	if len(ads) > 0 {
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
			return nil, fmt.Errorf("get sellers: %w", err)
		}
		byID := make(map[int64]model.SellerSummary, len(sellers))
		for _, s := range sellers {
			byID[s.ID] = s
		}
		for i := range ads {
			if s, ok := byID[ads[i].SellerID]; ok {
				seller := s
				ads[i].Seller = &seller
			}
		}
	}

	return ads, nil
}
