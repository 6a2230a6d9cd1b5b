package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"admarket/internal/httputil"
	"admarket/internal/model"
	"admarket/internal/service"
	"admarket/internal/transport/http/middleware"
	"admarket/internal/validate"
)

type FavoriteHandler struct {
	favoriteService *service.FavoriteService
}

func NewFavoriteHandler(favoriteService *service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService}
}

// Add handles POST /favorites.
func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.AddFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	err := h.favoriteService.Add(r.Context(), userID, req.AdID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrAdNotFound):
			httputil.WriteNotFound(w, "Ad not found")
		case errors.Is(err, model.ErrAlreadyFavorited):
			httputil.WriteConflict(w, "Ad already favorited")
		default:
			log.Error().Err(err).Int64("user_id", userID).Int64("ad_id", req.AdID).Msg("add favorite")
			httputil.WriteInternalError(w, "Failed to add favorite")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]string{
		"message": "Favorite added",
	})
}

// Remove handles DELETE /favorites/{adId}.
func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	adID, ok := parseAdID(w, r, "adId")
	if !ok {
		return
	}

	err := h.favoriteService.Remove(r.Context(), userID, adID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrAdNotFound):
			httputil.WriteNotFound(w, "Ad not found")
		case errors.Is(err, model.ErrFavoriteNotFound):
			httputil.WriteNotFound(w, "Favorite not found")
		default:
			log.Error().Err(err).Int64("user_id", userID).Int64("ad_id", adID).Msg("remove favorite")
			httputil.WriteInternalError(w, "Failed to remove favorite")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Favorite removed",
	})
}

// List handles GET /favorites.
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	ads, err := h.favoriteService.List(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("list favorites")
		httputil.WriteInternalError(w, "Failed to list favorites")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ads)
}
