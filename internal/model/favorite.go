package model

import (
	"errors"
	"time"
)

// Favorite is a (user, ad) edge. Uniqueness is enforced by the composite
// primary key, not by a pre-insert check.
type Favorite struct {
	UserID    int64     `db:"user_id" json:"user_id"`
	AdID      int64     `db:"ad_id" json:"ad_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AddFavoriteRequest is the typed command for POST /favorites.
type AddFavoriteRequest struct {
	AdID int64 `json:"ad_id" validate:"required,gt=0"`
}

var (
	ErrAlreadyFavorited = errors.New("ad already favorited")
	ErrFavoriteNotFound = errors.New("favorite not found")
)
