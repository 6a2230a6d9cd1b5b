package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"admarket/internal/httputil"
	"admarket/internal/model"
	"admarket/internal/service"
	"admarket/internal/transport/http/middleware"
	"admarket/internal/validate"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(userService *service.UserService, authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
	}
}

// SignUp handles POST /sign_up
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req model.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrEmailExists) {
			httputil.WriteConflict(w, "Email already registered")
			return
		}
		log.Error().Err(err).Str("email", req.Email).Msg("sign up")
		httputil.WriteInternalError(w, "Failed to create account")
		return
	}

	tokenPair, err := h.authService.IssueTokens(r.Context(), user)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("issue tokens after sign up")
		httputil.WriteInternalError(w, "Failed to generate tokens")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, model.AuthResponse{
		User:         user,
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	})
}

// SignIn handles POST /signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req model.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			// Same status and message for unknown email and wrong password
			httputil.WriteUnauthorized(w, "Invalid email or password")
			return
		}
		log.Error().Err(err).Msg("sign in")
		httputil.WriteInternalError(w, "Failed to sign in")
		return
	}

	tokenPair, err := h.authService.IssueTokens(r.Context(), user)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("issue tokens after sign in")
		httputil.WriteInternalError(w, "Failed to generate tokens")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.AuthResponse{
		User:         user,
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	})
}

// Refresh handles POST /refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req model.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	accessToken, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrRefreshTokenNotFound):
			httputil.WriteUnauthorized(w, "Invalid refresh token")
		case errors.Is(err, model.ErrRefreshTokenExpired):
			httputil.WriteUnauthorizedWithCode(w, model.CodeTokenExpired, "Refresh token has expired")
		default:
			log.Error().Err(err).Msg("refresh")
			httputil.WriteInternalError(w, "Failed to refresh token")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"access_token": accessToken,
	})
}

// Logout handles POST /logout. Clears the caller's refresh slot.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	if err := h.authService.RevokeRefreshToken(r.Context(), userID); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("logout")
		httputil.WriteInternalError(w, "Failed to log out")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

// ProtectedRoute handles GET /protected_route, a token sanity check.
func (h *AuthHandler) ProtectedRoute(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Protected route accessed by user %d", userID),
		"user_id": userID,
	})
}

// writeValidationError translates validator failures into a 400 naming the
// first offending field, without echoing submitted values.
func writeValidationError(w http.ResponseWriter, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		httputil.WriteBadRequest(w, fmt.Sprintf("Invalid or missing field: %s", ve[0].Field()))
		return
	}
	httputil.WriteBadRequest(w, "Invalid request")
}
