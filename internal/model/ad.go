package model

import (
	"errors"
	"time"
)

// Category codes. Listing routes address them by slug.
const (
	CategoryChildren = 1
	CategoryAdult    = 2
	CategoryVintage  = 3
)

// CategoryFromSlug maps a route slug to its fixed category code.
func CategoryFromSlug(slug string) (int, bool) {
	switch slug {
	case "children":
		return CategoryChildren, true
	case "adult":
		return CategoryAdult, true
	case "vintage":
		return CategoryVintage, true
	}
	return 0, false
}

// Ad represents a classified ad owned by a single seller.
type Ad struct {
	ID           int64     `db:"id" json:"id"`
	SellerID     int64     `db:"seller_id" json:"seller_id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	Price        float64   `db:"price" json:"price"`
	Category     int       `db:"category" json:"category"`
	SubCategory  *string   `db:"sub_category" json:"sub_category"`
	AgeRange     *string   `db:"age_range" json:"age_range"`
	Brand        *string   `db:"brand" json:"brand"`
	Location     *string   `db:"location" json:"location"`
	State        *string   `db:"state" json:"state"`
	Status       *string   `db:"status" json:"status"`
	ThumbnailURL string    `db:"thumbnail_url" json:"thumbnail_url"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// Joined fields (not in ads table)
	Images []AdImage      `json:"images,omitempty"`
	Seller *SellerSummary `json:"seller,omitempty"`
}

// AdImage is a single stored image belonging to an ad.
type AdImage struct {
	ID         int64  `db:"id" json:"id"`
	AdID       int64  `db:"ad_id" json:"-"`
	URL        string `db:"url" json:"url"`
	StorageKey string `db:"storage_key" json:"-"`
	Position   int    `db:"position" json:"position"`
}

// AdListItem is one row of a listing: the ad (thumbnail already carries the
// first image reference, seller summary joined in) plus a human-readable age.
type AdListItem struct {
	Ad
	Age string `json:"age"`
}

// AdCommand carries validated ad fields from the boundary into the service
// layer. Images travel separately as uploads.
type AdCommand struct {
	Title       string  `validate:"required,max=120"`
	Description string  `validate:"required,max=5000"`
	Price       float64 `validate:"required,gt=0"`
	Category    int     `validate:"required,min=1,max=3"`
	SubCategory *string
	AgeRange    *string
	Brand       *string
	Location    *string
	State       *string
	Status      *string
}

const MaxAdImages = 8

// Ad errors
var (
	ErrAdNotFound      = errors.New("ad not found")
	ErrNotAdOwner      = errors.New("not the owner of this ad")
	ErrTooManyAdImages = errors.New("too many images")
)
