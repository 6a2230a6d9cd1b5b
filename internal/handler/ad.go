package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"admarket/internal/httputil"
	"admarket/internal/model"
	"admarket/internal/service"
	"admarket/internal/transport/http/middleware"
	"admarket/internal/validate"
)

type AdHandler struct {
	adService    *service.AdService
	mediaService *service.MediaService
}

func NewAdHandler(adService *service.AdService, mediaService *service.MediaService) *AdHandler {
	return &AdHandler{
		adService:    adService,
		mediaService: mediaService,
	}
}

// Create handles POST /ads (multipart). Image files are uploaded to object
// storage and their URLs recorded; the ad and image rows land in one
// transaction.
func (h *AdHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	cmd, ok := h.parseAdForm(w, r)
	if !ok {
		return
	}
	images, ok := h.uploadImages(w, r)
	if !ok {
		return
	}

	ad, err := h.adService.Create(r.Context(), userID, cmd, images)
	if err != nil {
		if errors.Is(err, model.ErrTooManyAdImages) {
			httputil.WriteBadRequest(w, "Too many images (max 8)")
			return
		}
		log.Error().Err(err).Int64("user_id", userID).Msg("create ad")
		httputil.WriteInternalError(w, "Failed to create ad")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, ad)
}

// List handles GET /ads and GET /ads/{children|adult|vintage}.
func (h *AdHandler) List(w http.ResponseWriter, r *http.Request) {
	var category *int
	if slug := chi.URLParam(r, "category"); slug != "" {
		code, ok := model.CategoryFromSlug(slug)
		if !ok {
			httputil.WriteNotFound(w, "Unknown category")
			return
		}
		category = &code
	}

	items, err := h.adService.List(r.Context(), category)
	if err != nil {
		log.Error().Err(err).Msg("list ads")
		httputil.WriteInternalError(w, "Failed to list ads")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, items)
}

// GetByID handles GET /ads/{id}.
func (h *AdHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	adID, ok := parseAdID(w, r, "id")
	if !ok {
		return
	}

	ad, err := h.adService.Get(r.Context(), adID)
	if err != nil {
		if errors.Is(err, model.ErrAdNotFound) {
			httputil.WriteNotFound(w, "Ad not found")
			return
		}
		log.Error().Err(err).Int64("ad_id", adID).Msg("get ad")
		httputil.WriteInternalError(w, "Failed to get ad")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ad)
}

// MyAds handles GET /my_ads.
func (h *AdHandler) MyAds(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	ads, err := h.adService.MyAds(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("list my ads")
		httputil.WriteInternalError(w, "Failed to list ads")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ads)
}

// Update handles PUT /ads/{id} (multipart). Supplying image files replaces
// the whole image set; omitting them keeps the current one.
func (h *AdHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	adID, ok := parseAdID(w, r, "id")
	if !ok {
		return
	}

	cmd, ok := h.parseAdForm(w, r)
	if !ok {
		return
	}
	images, ok := h.uploadImages(w, r)
	if !ok {
		return
	}

	ad, err := h.adService.Update(r.Context(), userID, adID, cmd, images)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrAdNotFound):
			httputil.WriteNotFound(w, "Ad not found")
		case errors.Is(err, model.ErrNotAdOwner):
			httputil.WriteForbidden(w, "You do not own this ad")
		case errors.Is(err, model.ErrTooManyAdImages):
			httputil.WriteBadRequest(w, "Too many images (max 8)")
		default:
			log.Error().Err(err).Int64("ad_id", adID).Int64("user_id", userID).Msg("update ad")
			httputil.WriteInternalError(w, "Failed to update ad")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ad)
}

// Delete handles DELETE /ads/{id}. Ownership is always checked.
func (h *AdHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	adID, ok := parseAdID(w, r, "id")
	if !ok {
		return
	}

	err := h.adService.Delete(r.Context(), userID, adID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrAdNotFound):
			httputil.WriteNotFound(w, "Ad not found")
		case errors.Is(err, model.ErrNotAdOwner):
			httputil.WriteForbidden(w, "You do not own this ad")
		default:
			log.Error().Err(err).Int64("ad_id", adID).Int64("user_id", userID).Msg("delete ad")
			httputil.WriteInternalError(w, "Failed to delete ad")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Ad deleted",
	})
}

// parseAdForm reads and validates the multipart ad fields into a typed
// command. Writes the error response and returns false on failure.
func (h *AdHandler) parseAdForm(w http.ResponseWriter, r *http.Request) (*model.AdCommand, bool) {
	maxFormSize := int64(model.MaxAdImages)*model.MaxImageSizeBytes + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return nil, false
		}
		if strings.Contains(err.Error(), "request body too large") {
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Upload exceeds size limit")
			return nil, false
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return nil, false
	}

	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid or missing field: price")
		return nil, false
	}

	category, ok := model.CategoryFromSlug(r.FormValue("category"))
	if !ok {
		httputil.WriteBadRequest(w, "Invalid or missing field: category")
		return nil, false
	}

	cmd := &model.AdCommand{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Price:       price,
		Category:    category,
		SubCategory: optionalField(r, "sub_category"),
		AgeRange:    optionalField(r, "age_range"),
		Brand:       optionalField(r, "brand"),
		Location:    optionalField(r, "location"),
		State:       optionalField(r, "state"),
		Status:      optionalField(r, "status"),
	}
	if err := validate.Struct(cmd); err != nil {
		writeValidationError(w, err)
		return nil, false
	}
	return cmd, true
}

// uploadImages uploads each "images" file to object storage in submission
// order. Writes the error response and returns false on failure.
func (h *AdHandler) uploadImages(w http.ResponseWriter, r *http.Request) ([]model.AdImage, bool) {
	if r.MultipartForm == nil {
		return nil, true
	}
	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		return nil, true
	}
	if len(files) > model.MaxAdImages {
		httputil.WriteBadRequest(w, "Too many images (max 8)")
		return nil, false
	}

	images := make([]model.AdImage, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			httputil.WriteBadRequest(w, "Invalid image upload")
			return nil, false
		}

		upload, err := h.mediaService.UploadAdImage(r.Context(), file, header)
		file.Close()
		if err != nil {
			switch {
			case errors.Is(err, model.ErrFileTooLarge):
				httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds 10MB limit")
			case errors.Is(err, model.ErrInvalidImageType):
				httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
			default:
				log.Error().Err(err).Str("filename", header.Filename).Msg("upload ad image")
				httputil.WriteInternalError(w, "Failed to upload image")
			}
			return nil, false
		}

		images = append(images, model.AdImage{
			URL:        upload.URL,
			StorageKey: upload.Key,
		})
	}
	return images, true
}

func parseAdID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteBadRequest(w, "Invalid ad id")
		return 0, false
	}
	return id, true
}

func optionalField(r *http.Request, name string) *string {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return nil
	}
	return &v
}
