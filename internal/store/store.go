// Package store defines the narrow capability interfaces the lifecycle
// controller needs from its backing infrastructure, with one implementation
// per GCP service and in-memory implementations for tests. Splitting the
// capabilities keeps each one independently swappable and mockable.
package store

import (
	"context"

	"github.com/yincma/presentationflow/internal/models"
)

// RecordStore is the key-value view of presentation records and their
// related task records. Mutate must be atomic: the read, the mutation
// function, and the write happen as one conditional operation, and an error
// returned by the mutation function aborts the write and is returned
// unchanged. This is the primitive the advisory lock and the optimistic
// concurrency check are built on.
type RecordStore interface {
	// GetPresentation loads a record, or a not-found fault.
	GetPresentation(ctx context.Context, id string) (*models.Presentation, error)
	// MutatePresentation runs a transactional read-modify-write and returns
	// the record as written.
	MutatePresentation(ctx context.Context, id string, mutate func(*models.Presentation) error) (*models.Presentation, error)
	// DeletePresentation removes the record. Deleting an absent record is
	// not an error.
	DeletePresentation(ctx context.Context, id string) error
	// ListRelatedTaskKeys returns the keys of secondary task records
	// referencing the presentation.
	ListRelatedTaskKeys(ctx context.Context, presentationID string) ([]string, error)
	// DeleteTaskRecord removes one secondary record by key; absent is fine.
	DeleteTaskRecord(ctx context.Context, key string) error
}

// BlobStore lists and deletes the blob artifacts of a presentation.
type BlobStore interface {
	// ListPage returns up to one page of object names under the prefix and
	// the token for the next page ("" when exhausted).
	ListPage(ctx context.Context, prefix, pageToken string) (names []string, next string, err error)
	// Delete removes one object. Deleting an absent object is not an error.
	Delete(ctx context.Context, name string) error
}

// MessageQueue publishes cleanup tasks. Delivery is at least once; callers
// make a single publish attempt and fall back to inline processing when it
// fails.
type MessageQueue interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}

// LogStore deletes per-presentation log resources. An already-absent log is
// treated as successfully deleted.
type LogStore interface {
	DeleteLog(ctx context.Context, logID string) error
}
