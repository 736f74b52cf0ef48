package models

import "time"

// CleanupTask enumerates everything that must be removed for a presentation.
// It is published to the cleanup queue, which delivers at least once, so the
// worker processing it must be idempotent.
type CleanupTask struct {
	TaskID         string           `json:"task_id"`
	PresentationID string           `json:"presentation_id"`
	CreatedAt      time.Time        `json:"created_at"`
	Resources      CleanupResources `json:"resources"`
}

// CleanupResources lists the dependent resources of a presentation by the
// store that owns them.
type CleanupResources struct {
	BlobPrefix string   `json:"blob_prefix"`
	RecordKey  string   `json:"record_key"`
	TaskKeys   []string `json:"task_keys"`
	LogIDs     []string `json:"log_ids"`
}
