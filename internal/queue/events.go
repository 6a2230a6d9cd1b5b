package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the cleanup stream
const (
	EventImagesDeleted = "images_deleted"
)

// Stream names
const (
	StreamCleanup = "stream:cleanup"
)

// Consumer group name for cleanup workers
const (
	ConsumerGroupCleanup = "cleanup_workers"
)

// CleanupEvent is published when ad mutations leave orphaned objects in
// storage. Workers delete the listed keys asynchronously so the request path
// never waits on object storage.
type CleanupEvent struct {
	Type      string   `json:"type"`
	Timestamp int64    `json:"timestamp"` // Unix timestamp when event occurred
	AdID      int64    `json:"ad_id,omitempty"`
	Keys      []string `json:"keys"` // storage keys to delete
}

// NewImagesDeletedEvent creates an event for storage keys detached from an ad
// (deleted ad, or images replaced during update).
func NewImagesDeletedEvent(adID int64, keys []string) CleanupEvent {
	return CleanupEvent{
		Type:      EventImagesDeleted,
		Timestamp: time.Now().Unix(),
		AdID:      adID,
		Keys:      keys,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e CleanupEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseCleanupEvent parses a CleanupEvent from Redis stream message values.
func ParseCleanupEvent(values map[string]interface{}) (CleanupEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return CleanupEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event CleanupEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return CleanupEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
