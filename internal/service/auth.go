package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"admarket/internal/config"
	"admarket/internal/model"
	"admarket/internal/repository"
)

// AuthService issues and verifies access tokens and manages the per-user
// refresh token slot.
type AuthService struct {
	refreshTokenRepo repository.RefreshTokenRepository
	userRepo         repository.UserRepository
	config           *config.Config
}

func NewAuthService(refreshTokenRepo repository.RefreshTokenRepository, userRepo repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		refreshTokenRepo: refreshTokenRepo,
		userRepo:         userRepo,
		config:           cfg,
	}
}

// IssueTokens creates an access token and writes a fresh refresh token into
// the user's slot, invalidating whatever was there before.
func (s *AuthService) IssueTokens(ctx context.Context, user *model.User) (*model.TokenPair, error) {
	accessToken, err := s.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshTokenRaw := uuid.New().String()
	refreshToken := &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: s.hashToken(refreshTokenRaw),
		ExpiresAt: time.Now().Add(time.Duration(s.config.RefreshTokenMaxAge) * time.Second),
	}

	if err := s.refreshTokenRepo.Upsert(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenRaw,
		ExpiresIn:    s.config.AccessTokenMaxAge,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The stored
// refresh token stays in place until it expires or the user signs in again.
func (s *AuthService) Refresh(ctx context.Context, refreshTokenRaw string) (string, error) {
	token, err := s.refreshTokenRepo.FindByTokenHash(ctx, s.hashToken(refreshTokenRaw))
	if err != nil {
		return "", model.ErrRefreshTokenNotFound
	}

	if token.IsExpired() {
		return "", model.ErrRefreshTokenExpired
	}

	user, err := s.userRepo.GetByID(ctx, token.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to load user for refresh: %w", err)
	}

	accessToken, err := s.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return accessToken, nil
}

// RevokeRefreshToken clears the user's refresh slot (logout).
func (s *AuthService) RevokeRefreshToken(ctx context.Context, userID int64) error {
	return s.refreshTokenRepo.DeleteForUser(ctx, userID)
}

// GenerateAccessToken signs a short-lived HS256 token carrying the user
// identity.
func (s *AuthService) GenerateAccessToken(userID int64, username string) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"exp":      time.Now().Add(time.Duration(s.config.AccessTokenMaxAge) * time.Second).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// ParseAccessToken verifies a token and returns its claims. Expiry is a
// distinct failure (model.ErrTokenExpired) from a bad signature or malformed
// token (model.ErrTokenInvalid).
func (s *AuthService) ParseAccessToken(tokenString string) (*model.Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.ErrTokenExpired
		}
		return nil, model.ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, model.ErrTokenInvalid
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return nil, model.ErrTokenInvalid
	}
	username, _ := claims["username"].(string)

	return &model.Claims{
		UserID:   int64(userIDFloat),
		Username: username,
	}, nil
}

func (s *AuthService) hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
