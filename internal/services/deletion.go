package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yincma/presentationflow/internal/fault"
	"github.com/yincma/presentationflow/internal/models"
	"github.com/yincma/presentationflow/internal/store"
)

// Message attributes attached to every cleanup task publish.
const (
	attrTaskType    = "taskType"
	attrPriority    = "priority"
	cleanupTaskType = "presentation_cleanup"
	cleanupPriority = "low"
)

// Deleter orchestrates presentation deletion: eligibility checks, the
// advisory deleting marker, and dispatch of the cleanup task with an
// asynchronous primary path and a synchronous compensating fallback.
type Deleter struct {
	records store.RecordStore
	queue   store.MessageQueue
	locks   *LockManager
	cleaner *Cleaner
	now     func() time.Time
}

// NewDeleter creates a Deleter. The cleaner is invoked in-process only when
// the queue publish fails.
func NewDeleter(records store.RecordStore, queue store.MessageQueue, locks *LockManager, cleaner *Cleaner) *Deleter {
	return &Deleter{
		records: records,
		queue:   queue,
		locks:   locks,
		cleaner: cleaner,
		now:     time.Now,
	}
}

// Delete accepts the deletion of a presentation and returns the cleanup task
// id. Acceptance does not imply completion except when the publish failed
// and the fallback ran inline. Calling Delete again for an already-deleting
// record is satisfied with a fresh task rather than rejected.
func (d *Deleter) Delete(ctx context.Context, id string, force bool) (string, error) {
	if err := ValidatePresentationID(id); err != nil {
		return "", err
	}

	rec, err := d.records.GetPresentation(ctx, id)
	if err != nil {
		return "", err
	}
	logCtx := slog.With("presentationId", id, "status", rec.Status, "force", force)

	if !force && rec.Status != models.StatusDeleting {
		if models.ActiveStatuses[rec.Status] {
			return "", fault.Conflict("presentation is mid-generation; retry later or use force")
		}
		if d.locks.Held(rec) {
			return "", fault.Conflict("presentation is locked by an in-flight edit")
		}
	}

	d.markDeleting(ctx, logCtx, id)

	task := d.enumerateTask(ctx, logCtx, id)
	data, err := json.Marshal(task)
	if err != nil {
		return "", fault.Internal(err, "failed to encode cleanup task")
	}

	attrs := map[string]string{attrTaskType: cleanupTaskType, attrPriority: cleanupPriority}
	if _, err := d.queue.Publish(ctx, data, attrs); err != nil {
		// Compensating fallback: run the cleanup inline so the accepted
		// deletion still happens. Errors are collected by the worker and
		// logged, never raised to the caller.
		logCtx.Warn("Cleanup enqueue failed; running cleanup synchronously.", "error", err)
		if cleanupErr := d.cleaner.Process(ctx, task); cleanupErr != nil {
			logCtx.Warn("Synchronous cleanup left resources behind.", "error", cleanupErr)
		}
	} else {
		logCtx.Info("Cleanup task enqueued.", "taskId", task.TaskID)
	}

	return task.TaskID, nil
}

// markDeleting writes the advisory deleting marker. The marker is
// best-effort: cleanup is idempotent and succeeds without it, so a write
// failure is logged and swallowed.
func (d *Deleter) markDeleting(ctx context.Context, logCtx *slog.Logger, id string) {
	now := d.now()
	_, err := d.records.MutatePresentation(ctx, id, func(rec *models.Presentation) error {
		rec.Status = models.StatusDeleting
		rec.DeletedAt = now
		rec.Version++
		rec.UpdatedAt = now
		rec.ConcurrencyToken = NextToken(rec)
		return nil
	})
	if err != nil {
		logCtx.Warn("Failed to mark presentation as deleting; continuing.", "error", err)
	}
}

// enumerateTask builds the cleanup task. Related-task enumeration failure
// narrows the scope to an empty list rather than aborting; the blob prefix
// and log identifiers are derived deterministically from the id.
func (d *Deleter) enumerateTask(ctx context.Context, logCtx *slog.Logger, id string) *models.CleanupTask {
	taskKeys, err := d.records.ListRelatedTaskKeys(ctx, id)
	if err != nil {
		logCtx.Warn("Failed to enumerate related task records; cleaning without them.", "error", err)
		taskKeys = nil
	}

	return &models.CleanupTask{
		TaskID:         uuid.NewString(),
		PresentationID: id,
		CreatedAt:      d.now(),
		Resources: models.CleanupResources{
			BlobPrefix: BlobPrefix(id),
			RecordKey:  id,
			TaskKeys:   taskKeys,
			LogIDs:     LogResourceIDs(id),
		},
	}
}

// BlobPrefix is the storage prefix holding every artifact of a presentation.
func BlobPrefix(id string) string {
	return fmt.Sprintf("presentations/%s/", id)
}

// LogResourceIDs are the log resources written for a presentation, derived
// from the id alone so cleanup never depends on a lookup.
func LogResourceIDs(id string) []string {
	return []string{
		fmt.Sprintf("presentations/%s/generation", id),
		fmt.Sprintf("presentations/%s/compile", id),
	}
}
