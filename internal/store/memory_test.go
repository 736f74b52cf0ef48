package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yincma/presentationflow/internal/fault"
	"github.com/yincma/presentationflow/internal/models"
)

func TestMemoryRecordsMutateIsAllOrNothing(t *testing.T) {
	records := NewMemoryRecords()
	records.Put(&models.Presentation{ID: "p-1", Status: models.StatusCompleted, Version: 1})

	_, err := records.MutatePresentation(context.Background(), "p-1", func(rec *models.Presentation) error {
		rec.Version = 99
		return errors.New("abort")
	})
	require.Error(t, err)

	rec, err := records.GetPresentation(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Version, "aborted mutation must not persist")
}

func TestMemoryRecordsGetReturnsCopy(t *testing.T) {
	records := NewMemoryRecords()
	records.Put(&models.Presentation{
		ID:     "p-1",
		Status: models.StatusCompleted,
		Slides: []models.Slide{{Number: 1, Title: "original"}},
	})

	rec, err := records.GetPresentation(context.Background(), "p-1")
	require.NoError(t, err)
	rec.Slides[0].Title = "mutated aliasing"

	fresh, err := records.GetPresentation(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "original", fresh.Slides[0].Title)
}

func TestMemoryRecordsNotFoundKind(t *testing.T) {
	records := NewMemoryRecords()
	_, err := records.GetPresentation(context.Background(), "absent")
	require.Error(t, err)
	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
}

func TestMemoryBlobsPaginationSurvivesDeletes(t *testing.T) {
	blobs := NewMemoryBlobs()
	blobs.PageSize = 4
	for i := 0; i < 11; i++ {
		blobs.Put(fmt.Sprintf("pfx/%02d", i))
	}
	blobs.Put("other/00")

	seen := 0
	token := ""
	for {
		names, next, err := blobs.ListPage(context.Background(), "pfx/", token)
		require.NoError(t, err)
		for _, name := range names {
			require.NoError(t, blobs.Delete(context.Background(), name))
			seen++
		}
		if next == "" {
			break
		}
		token = next
	}
	assert.Equal(t, 11, seen)
	assert.Equal(t, 1, blobs.Len())
}
