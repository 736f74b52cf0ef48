package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/yincma/presentationflow/internal/gcp"
	"github.com/yincma/presentationflow/internal/models"
	"github.com/yincma/presentationflow/internal/store"
)

// cleanupDeleteConcurrency bounds the fan-out of blob deletes per page.
const cleanupDeleteConcurrency = 10

// Cleaner deletes every dependent resource of a presentation: blob
// artifacts, the primary and related records, and log resources. Processing
// is idempotent; the queue delivers at least once and the synchronous
// fallback may have already run the same task.
type Cleaner struct {
	records store.RecordStore
	blobs   store.BlobStore
	logs    store.LogStore
}

// NewCleaner creates a Cleaner over the given stores.
func NewCleaner(records store.RecordStore, blobs store.BlobStore, logs store.LogStore) *Cleaner {
	return &Cleaner{records: records, blobs: blobs, logs: logs}
}

// NewCleanerFromEnv builds a Cleaner from environment configuration and real
// GCP clients, for the queue-driven worker entry point.
func NewCleanerFromEnv(ctx context.Context) (*Cleaner, error) {
	projectID := gcp.GetEnv("GOOGLE_CLOUD_PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID environment variable must be set")
	}
	assetBucket := gcp.GetEnv("ASSET_BUCKET", "")
	if assetBucket == "" {
		return nil, fmt.Errorf("ASSET_BUCKET environment variable must be set")
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := gcp.NewStorageClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	logClient, err := gcp.NewLogAdminClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create logadmin client: %w", err)
	}

	records := store.NewFirestoreRecords(firestoreClient,
		gcp.GetEnv("FIRESTORE_COLLECTION", "presentations"),
		gcp.GetEnv("TASK_COLLECTION", "generation_tasks"))
	blobs := store.NewGCSBlobs(storageClient, assetBucket)
	logs := store.NewLogAdminStore(logClient)

	return NewCleaner(records, blobs, logs), nil
}

// Process tears down all resources named by the task. Per-resource failures
// are logged and counted but never abort the remaining work; the returned
// error reports only that some resources are left for a redelivery to
// retry. The user-visible deletion was acknowledged before this ran.
func (c *Cleaner) Process(ctx context.Context, task *models.CleanupTask) error {
	logCtx := slog.With("taskId", task.TaskID, "presentationId", task.PresentationID)
	logCtx.Info("Starting cleanup.", "blobPrefix", task.Resources.BlobPrefix)

	failures := c.deleteBlobs(ctx, logCtx, task.Resources.BlobPrefix)
	failures += c.deleteRecords(ctx, logCtx, task.Resources)
	failures += c.deleteLogs(ctx, logCtx, task.Resources.LogIDs)

	if failures > 0 {
		logCtx.Warn("Cleanup finished with failures.", "failureCount", failures)
		return fmt.Errorf("cleanup of presentation %s left %d resources behind", task.PresentationID, failures)
	}
	logCtx.Info("Cleanup complete.")
	return nil
}

// deleteBlobs pages through the prefix listing and deletes each page with
// bounded concurrency. An empty prefix listing is a clean no-op.
func (c *Cleaner) deleteBlobs(ctx context.Context, logCtx *slog.Logger, prefix string) int {
	failures := 0
	pageToken := ""
	for {
		names, next, err := c.blobs.ListPage(ctx, prefix, pageToken)
		if err != nil {
			logCtx.Warn("Failed to list blobs for cleanup.", "prefix", prefix, "error", err)
			return failures + 1
		}
		if len(names) == 0 && next == "" {
			return failures
		}

		// A failed delete must not cancel its siblings, so the group has no
		// shared context; failures are counted per object.
		var pageFailures atomic.Int64
		var eg errgroup.Group
		eg.SetLimit(cleanupDeleteConcurrency)
		for _, name := range names {
			eg.Go(func() error {
				if err := c.blobs.Delete(ctx, name); err != nil {
					logCtx.Warn("Failed to delete blob.", "object", name, "error", err)
					pageFailures.Add(1)
				}
				return nil
			})
		}
		_ = eg.Wait()
		failures += int(pageFailures.Load())

		if next == "" {
			return failures
		}
		pageToken = next
	}
}

func (c *Cleaner) deleteRecords(ctx context.Context, logCtx *slog.Logger, res models.CleanupResources) int {
	failures := 0
	if err := c.records.DeletePresentation(ctx, res.RecordKey); err != nil {
		logCtx.Warn("Failed to delete primary record.", "key", res.RecordKey, "error", err)
		failures++
	}
	for _, key := range res.TaskKeys {
		if err := c.records.DeleteTaskRecord(ctx, key); err != nil {
			logCtx.Warn("Failed to delete related task record.", "key", key, "error", err)
			failures++
		}
	}
	return failures
}

func (c *Cleaner) deleteLogs(ctx context.Context, logCtx *slog.Logger, logIDs []string) int {
	failures := 0
	for _, logID := range logIDs {
		if err := c.logs.DeleteLog(ctx, logID); err != nil {
			logCtx.Warn("Failed to delete log resource.", "logId", logID, "error", err)
			failures++
		}
	}
	return failures
}
