package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"admarket/internal/model"
)

type mockVerifier struct {
	parseFn func(token string) (*model.Claims, error)
}

func (m *mockVerifier) ParseAccessToken(token string) (*model.Claims, error) {
	return m.parseFn(token)
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func runAuthMiddleware(t *testing.T, verifier TokenVerifier, authHeader string) (*httptest.ResponseRecorder, bool, int64) {
	t.Helper()

	var nextCalled bool
	var userID int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		userID, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()

	AuthMiddleware(verifier)(next).ServeHTTP(rec, req)
	return rec, nextCalled, userID
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	verifier := &mockVerifier{
		parseFn: func(token string) (*model.Claims, error) {
			t.Fatal("verifier should not be called without a token")
			return nil, nil
		},
	}

	rec, nextCalled, _ := runAuthMiddleware(t, verifier, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if nextCalled {
		t.Error("handler was called without authentication")
	}
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	verifier := &mockVerifier{
		parseFn: func(token string) (*model.Claims, error) {
			return nil, model.ErrTokenExpired
		},
	}

	rec, nextCalled, _ := runAuthMiddleware(t, verifier, "Bearer stale")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if nextCalled {
		t.Error("handler was called with an expired token")
	}
	if body := decodeErrorBody(t, rec); body.Error.Code != model.CodeTokenExpired {
		t.Errorf("error code = %q, want %q", body.Error.Code, model.CodeTokenExpired)
	}
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	verifier := &mockVerifier{
		parseFn: func(token string) (*model.Claims, error) {
			return nil, model.ErrTokenInvalid
		},
	}

	rec, nextCalled, _ := runAuthMiddleware(t, verifier, "Bearer garbage")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if nextCalled {
		t.Error("handler was called with an invalid token")
	}
	if body := decodeErrorBody(t, rec); body.Error.Code != model.CodeTokenInvalid {
		t.Errorf("error code = %q, want %q", body.Error.Code, model.CodeTokenInvalid)
	}
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	verifier := &mockVerifier{
		parseFn: func(token string) (*model.Claims, error) {
			if token != "good-token" {
				t.Errorf("token = %q, want %q", token, "good-token")
			}
			return &model.Claims{UserID: 9, Username: "bob"}, nil
		},
	}

	rec, nextCalled, userID := runAuthMiddleware(t, verifier, "Bearer good-token")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !nextCalled {
		t.Fatal("handler was not called")
	}
	if userID != 9 {
		t.Errorf("user ID in context = %d, want 9", userID)
	}
}
