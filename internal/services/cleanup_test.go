package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yincma/presentationflow/internal/models"
	"github.com/yincma/presentationflow/internal/store"
)

func newCleanupTask() *models.CleanupTask {
	return &models.CleanupTask{
		TaskID:         "cleanup-1",
		PresentationID: testPresentationID,
		CreatedAt:      time.Unix(1700000000, 0),
		Resources: models.CleanupResources{
			BlobPrefix: BlobPrefix(testPresentationID),
			RecordKey:  testPresentationID,
			TaskKeys:   []string{"task-a", "task-b"},
			LogIDs:     LogResourceIDs(testPresentationID),
		},
	}
}

func TestCleanupRemovesEverything(t *testing.T) {
	records := store.NewMemoryRecords()
	blobs := store.NewMemoryBlobs()
	logs := store.NewMemoryLogs()
	seedRecord(records, models.StatusDeleting)
	records.AddTask("task-a", testPresentationID)
	records.AddTask("task-b", testPresentationID)
	for i := 0; i < 25; i++ {
		blobs.Put(fmt.Sprintf("%sslides/%03d.png", BlobPrefix(testPresentationID), i))
	}
	blobs.Put("presentations/other-presentation/deck.bin")

	cleaner := NewCleaner(records, blobs, logs)
	require.NoError(t, cleaner.Process(context.Background(), newCleanupTask()))

	assert.False(t, records.Has(testPresentationID))
	assert.Equal(t, 0, records.TaskCount())
	// Objects outside the prefix are untouched.
	assert.Equal(t, 1, blobs.Len())
	assert.Equal(t, LogResourceIDs(testPresentationID), logs.Deleted())
}

func TestCleanupPaginatesBlobListing(t *testing.T) {
	records := store.NewMemoryRecords()
	blobs := store.NewMemoryBlobs()
	blobs.PageSize = 10
	logs := store.NewMemoryLogs()
	seedRecord(records, models.StatusDeleting)
	for i := 0; i < 35; i++ {
		blobs.Put(fmt.Sprintf("%sassets/%04d.png", BlobPrefix(testPresentationID), i))
	}

	cleaner := NewCleaner(records, blobs, logs)
	require.NoError(t, cleaner.Process(context.Background(), newCleanupTask()))
	assert.Equal(t, 0, blobs.Len())
}

func TestCleanupEmptyPrefixSucceeds(t *testing.T) {
	records := store.NewMemoryRecords()
	seedRecord(records, models.StatusDeleting)
	cleaner := NewCleaner(records, store.NewMemoryBlobs(), store.NewMemoryLogs())

	task := newCleanupTask()
	task.Resources.TaskKeys = nil
	assert.NoError(t, cleaner.Process(context.Background(), task))
}

func TestCleanupIsIdempotent(t *testing.T) {
	records := store.NewMemoryRecords()
	blobs := store.NewMemoryBlobs()
	logs := store.NewMemoryLogs()
	seedRecord(records, models.StatusDeleting)
	records.AddTask("task-a", testPresentationID)
	records.AddTask("task-b", testPresentationID)
	blobs.Put(BlobPrefix(testPresentationID) + "deck.bin")

	cleaner := NewCleaner(records, blobs, logs)
	task := newCleanupTask()
	require.NoError(t, cleaner.Process(context.Background(), task))

	// At-least-once delivery: the same task arrives again.
	require.NoError(t, cleaner.Process(context.Background(), task))
	assert.False(t, records.Has(testPresentationID))
	assert.Equal(t, 0, blobs.Len())
}

func TestCleanupPerKeyFailureDoesNotAbortRemainingWork(t *testing.T) {
	records := store.NewMemoryRecords()
	blobs := store.NewMemoryBlobs()
	logs := store.NewMemoryLogs()
	seedRecord(records, models.StatusDeleting)
	records.AddTask("task-a", testPresentationID)
	records.AddTask("task-b", testPresentationID)
	records.FailDeleteTask = map[string]error{"task-a": errors.New("contention")}
	blobs.Put(BlobPrefix(testPresentationID) + "deck.bin")

	cleaner := NewCleaner(records, blobs, logs)
	err := cleaner.Process(context.Background(), newCleanupTask())
	require.Error(t, err)

	// Everything except the failing key was still processed.
	assert.False(t, records.Has(testPresentationID))
	assert.Equal(t, 1, records.TaskCount())
	assert.Equal(t, 0, blobs.Len())
	assert.Len(t, logs.Deleted(), 2)
}

func TestCleanupBlobFailureDoesNotAbortSiblingDeletes(t *testing.T) {
	records := store.NewMemoryRecords()
	blobs := store.NewMemoryBlobs()
	logs := store.NewMemoryLogs()
	seedRecord(records, models.StatusDeleting)

	failing := []string{
		BlobPrefix(testPresentationID) + "assets/0003.png",
		BlobPrefix(testPresentationID) + "assets/0011.png",
	}
	blobs.FailDelete = map[string]error{}
	for _, name := range failing {
		blobs.FailDelete[name] = errors.New("permission denied")
	}
	for i := 0; i < 20; i++ {
		blobs.Put(fmt.Sprintf("%sassets/%04d.png", BlobPrefix(testPresentationID), i))
	}

	cleaner := NewCleaner(records, blobs, logs)
	err := cleaner.Process(context.Background(), newCleanupTask())
	require.Error(t, err)

	// Only the two failing objects survive; their page-mates were all
	// deleted despite the failures.
	assert.Equal(t, len(failing), blobs.Len())
	assert.False(t, records.Has(testPresentationID))
	assert.Len(t, logs.Deleted(), 2)
}

func TestCleanupListFailureReportsError(t *testing.T) {
	records := store.NewMemoryRecords()
	blobs := store.NewMemoryBlobs()
	blobs.FailList = errors.New("storage offline")
	seedRecord(records, models.StatusDeleting)

	cleaner := NewCleaner(records, blobs, store.NewMemoryLogs())
	err := cleaner.Process(context.Background(), newCleanupTask())
	require.Error(t, err)

	// Record and log deletion still ran despite the blob failure.
	assert.False(t, records.Has(testPresentationID))
}
