package worker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"admarket/internal/queue"
)

// ObjectDeleter abstracts the storage layer so workers don't depend on the
// media service directly.
type ObjectDeleter interface {
	// DeleteObject removes one object by key. Empty keys are ignored.
	DeleteObject(ctx context.Context, key string) error
}

// Handler processes cleanup events from the queue.
type Handler struct {
	deleter ObjectDeleter
}

// NewHandler creates a new event handler.
func NewHandler(deleter ObjectDeleter) *Handler {
	return &Handler{deleter: deleter}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.CleanupEvent) error {
	switch event.Type {
	case queue.EventImagesDeleted:
		return h.handleImagesDeleted(ctx, event)
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}
}

// handleImagesDeleted removes orphaned objects from storage. Deletion is
// best-effort per key: one failing key must not block the others, and a
// re-delivered event re-deleting an already-gone key is harmless.
func (h *Handler) handleImagesDeleted(ctx context.Context, event queue.CleanupEvent) error {
	var failCount int
	for _, key := range event.Keys {
		if err := h.deleter.DeleteObject(ctx, key); err != nil {
			log.Error().Err(err).Int64("ad_id", event.AdID).Str("key", key).Msg("delete storage object")
			failCount++
		}
	}

	log.Info().Int64("ad_id", event.AdID).
		Int("deleted", len(event.Keys)-failCount).Int("failed", failCount).
		Msg("storage cleanup done")

	if failCount == len(event.Keys) && len(event.Keys) > 0 {
		return fmt.Errorf("all %d deletions failed", failCount)
	}
	return nil
}
