package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"admarket/internal/config"
	"admarket/internal/model"
)

type mockRefreshTokenRepo struct {
	upsertFn          func(ctx context.Context, token *model.RefreshToken) error
	findByTokenHashFn func(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	deleteForUserFn   func(ctx context.Context, userID int64) error
	deleteExpiredFn   func(ctx context.Context) (int64, error)
}

func (m *mockRefreshTokenRepo) Upsert(ctx context.Context, token *model.RefreshToken) error {
	if m.upsertFn == nil {
		return errors.New("unexpected Upsert call")
	}
	return m.upsertFn(ctx, token)
}

func (m *mockRefreshTokenRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	if m.findByTokenHashFn == nil {
		return nil, errors.New("unexpected FindByTokenHash call")
	}
	return m.findByTokenHashFn(ctx, tokenHash)
}

func (m *mockRefreshTokenRepo) DeleteForUser(ctx context.Context, userID int64) error {
	if m.deleteForUserFn == nil {
		return errors.New("unexpected DeleteForUser call")
	}
	return m.deleteForUserFn(ctx, userID)
}

func (m *mockRefreshTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	if m.deleteExpiredFn == nil {
		return 0, errors.New("unexpected DeleteExpired call")
	}
	return m.deleteExpiredFn(ctx)
}

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		AccessTokenMaxAge:  3600,
		RefreshTokenMaxAge: 604800,
	}
}

func TestIssueTokensStoresHashedToken(t *testing.T) {
	var stored *model.RefreshToken
	tokenRepo := &mockRefreshTokenRepo{
		upsertFn: func(ctx context.Context, token *model.RefreshToken) error {
			stored = token
			return nil
		},
	}
	svc := NewAuthService(tokenRepo, &mockUserRepo{}, testAuthConfig())

	pair, err := svc.IssueTokens(context.Background(), &model.User{ID: 5, Username: "alice"})
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be set")
	}
	if pair.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %d, want 3600", pair.ExpiresIn)
	}

	if stored == nil {
		t.Fatal("refresh token was not stored")
	}
	if stored.UserID != 5 {
		t.Errorf("stored UserID = %d, want 5", stored.UserID)
	}
	if stored.TokenHash == pair.RefreshToken {
		t.Error("refresh token stored unhashed")
	}
	sum := sha256.Sum256([]byte(pair.RefreshToken))
	if want := hex.EncodeToString(sum[:]); stored.TokenHash != want {
		t.Errorf("stored TokenHash = %q, want sha256 of raw token", stored.TokenHash)
	}
	if !stored.ExpiresAt.After(time.Now()) {
		t.Error("stored refresh token already expired")
	}
}

func TestParseAccessTokenRoundTrip(t *testing.T) {
	svc := NewAuthService(&mockRefreshTokenRepo{}, &mockUserRepo{}, testAuthConfig())

	token, err := svc.GenerateAccessToken(9, "bob")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != 9 {
		t.Errorf("UserID = %d, want 9", claims.UserID)
	}
	if claims.Username != "bob" {
		t.Errorf("Username = %q, want %q", claims.Username, "bob")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := testAuthConfig()
	cfg.AccessTokenMaxAge = -60 // issue tokens already past their exp
	svc := NewAuthService(&mockRefreshTokenRepo{}, &mockUserRepo{}, cfg)

	token, err := svc.GenerateAccessToken(9, "bob")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	_, err = svc.ParseAccessToken(token)
	if !errors.Is(err, model.ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestParseAccessTokenWrongKey(t *testing.T) {
	issuer := NewAuthService(&mockRefreshTokenRepo{}, &mockUserRepo{}, testAuthConfig())
	token, err := issuer.GenerateAccessToken(9, "bob")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	otherCfg := testAuthConfig()
	otherCfg.JWTSecret = "a-different-secret"
	verifier := NewAuthService(&mockRefreshTokenRepo{}, &mockUserRepo{}, otherCfg)

	_, err = verifier.ParseAccessToken(token)
	if !errors.Is(err, model.ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestParseAccessTokenGarbage(t *testing.T) {
	svc := NewAuthService(&mockRefreshTokenRepo{}, &mockUserRepo{}, testAuthConfig())

	_, err := svc.ParseAccessToken("not-a-jwt")
	if !errors.Is(err, model.ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestRefreshUnknownToken(t *testing.T) {
	tokenRepo := &mockRefreshTokenRepo{
		findByTokenHashFn: func(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
			return nil, model.ErrRefreshTokenNotFound
		},
	}
	svc := NewAuthService(tokenRepo, &mockUserRepo{}, testAuthConfig())

	_, err := svc.Refresh(context.Background(), "no-such-token")
	if !errors.Is(err, model.ErrRefreshTokenNotFound) {
		t.Fatalf("err = %v, want ErrRefreshTokenNotFound", err)
	}
}

func TestRefreshExpiredToken(t *testing.T) {
	tokenRepo := &mockRefreshTokenRepo{
		findByTokenHashFn: func(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
			return &model.RefreshToken{
				UserID:    5,
				TokenHash: tokenHash,
				ExpiresAt: time.Now().Add(-time.Hour),
			}, nil
		},
	}
	svc := NewAuthService(tokenRepo, &mockUserRepo{}, testAuthConfig())

	_, err := svc.Refresh(context.Background(), "stale-token")
	if !errors.Is(err, model.ErrRefreshTokenExpired) {
		t.Fatalf("err = %v, want ErrRefreshTokenExpired", err)
	}
}

// Refresh issues a new access token but must not rotate the stored refresh
// token; the mock has no upsertFn, so any write would fail the test.
func TestRefreshIssuesNewAccessToken(t *testing.T) {
	tokenRepo := &mockRefreshTokenRepo{
		findByTokenHashFn: func(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
			return &model.RefreshToken{
				UserID:    5,
				TokenHash: tokenHash,
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}
	userRepo := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Username: "alice"}, nil
		},
	}
	svc := NewAuthService(tokenRepo, userRepo, testAuthConfig())

	accessToken, err := svc.Refresh(context.Background(), "valid-token")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	claims, err := svc.ParseAccessToken(accessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != 5 {
		t.Errorf("UserID = %d, want 5", claims.UserID)
	}
}

func TestRevokeRefreshToken(t *testing.T) {
	var revoked int64
	tokenRepo := &mockRefreshTokenRepo{
		deleteForUserFn: func(ctx context.Context, userID int64) error {
			revoked = userID
			return nil
		},
	}
	svc := NewAuthService(tokenRepo, &mockUserRepo{}, testAuthConfig())

	if err := svc.RevokeRefreshToken(context.Background(), 5); err != nil {
		t.Fatalf("RevokeRefreshToken: %v", err)
	}
	if revoked != 5 {
		t.Errorf("revoked user = %d, want 5", revoked)
	}
}
