package model

import (
	"errors"
	"time"
)

// User represents a marketplace account.
type User struct {
	ID             int64     `db:"user_id" json:"user_id"`
	Username       string    `db:"username" json:"username"`
	Email          string    `db:"email" json:"email"`
	PasswordHashed string    `db:"password_hashed" json:"-"` // "-" hides from JSON output
	Street         *string   `db:"street" json:"street"`
	City           *string   `db:"city" json:"city"`
	PostalCode     *string   `db:"postal_code" json:"postal_code"`
	Country        *string   `db:"country" json:"country"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// SellerSummary is the public subset of a user attached to ad listings.
type SellerSummary struct {
	ID       int64   `db:"user_id" json:"user_id"`
	Username string  `db:"username" json:"username"`
	City     *string `db:"city" json:"city"`
}

// SignUpRequest is the typed command for POST /sign_up.
type SignUpRequest struct {
	Username   string `json:"username" validate:"required,min=2,max=50"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// SignInRequest is the typed command for POST /signin.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest is the typed command for PUT /profile.
type UpdateProfileRequest struct {
	Username   string `json:"username" validate:"required,min=2,max=50"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned when attempting to create a user with a taken email
	ErrEmailExists = errors.New("email already exists")

	// ErrInvalidCredentials is returned when sign-in credentials are incorrect.
	// Unknown email and wrong password both map here so callers cannot
	// enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
