package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yincma/presentationflow/internal/fault"
	"github.com/yincma/presentationflow/internal/models"
	"github.com/yincma/presentationflow/internal/store"
)

func strPtr(s string) *string { return &s }

func newTestUpdater(records *store.MemoryRecords) *SlideUpdater {
	return NewSlideUpdater(records, NewLockManager(records, DefaultLockTTL))
}

func TestSlideUpdateHappyPath(t *testing.T) {
	records := store.NewMemoryRecords()
	rec := seedRecord(records, models.StatusCompleted)
	updater := newTestUpdater(records)

	patch := &models.SlidePatch{
		Title:  strPtr("Quarterly results"),
		Layout: strPtr(models.LayoutBullets),
		StyleOverrides: map[string]string{
			"background_color": "1a2b3c",
			"font_size":        "24",
		},
	}
	result, err := updater.Update(context.Background(), testPresentationID, 3, patch, rec.ConcurrencyToken)
	require.NoError(t, err)

	assert.NotEqual(t, rec.ConcurrencyToken, result.ETag)
	assert.Equal(t, rec.Version+1, result.Record.Version)
	assert.Contains(t, result.PreviewURL, "/slides/3/preview")

	stored, err := records.GetPresentation(context.Background(), testPresentationID)
	require.NoError(t, err)
	require.Len(t, stored.Slides, 1)
	assert.Equal(t, 3, stored.Slides[0].Number)
	assert.Equal(t, "Quarterly results", stored.Slides[0].Title)
	assert.Equal(t, models.LayoutBullets, stored.Slides[0].Layout)
	assert.Equal(t, "24", stored.Slides[0].StyleOverrides["font_size"])

	// Lock released: the next edit acquires it without conflict.
	_, err = updater.Update(context.Background(), testPresentationID, 3, patch, result.ETag)
	assert.NoError(t, err)
}

func TestSlideUpdateSparseExtensionKeepsOrder(t *testing.T) {
	records := store.NewMemoryRecords()
	rec := seedRecord(records, models.StatusCompleted)
	updater := newTestUpdater(records)

	result, err := updater.Update(context.Background(), testPresentationID, 5, &models.SlidePatch{Title: strPtr("five")}, rec.ConcurrencyToken)
	require.NoError(t, err)
	result, err = updater.Update(context.Background(), testPresentationID, 2, &models.SlidePatch{Title: strPtr("two")}, result.ETag)
	require.NoError(t, err)

	stored, err := records.GetPresentation(context.Background(), testPresentationID)
	require.NoError(t, err)
	require.Len(t, stored.Slides, 2)
	assert.Equal(t, 2, stored.Slides[0].Number)
	assert.Equal(t, 5, stored.Slides[1].Number)
}

func TestSlideUpdateStaleTokenFailsRegardlessOfPatch(t *testing.T) {
	records := store.NewMemoryRecords()
	seedRecord(records, models.StatusCompleted)
	updater := newTestUpdater(records)

	patches := []*models.SlidePatch{
		{Title: strPtr("valid")},
		{Content: strPtr("also valid")},
		{},
	}
	for _, patch := range patches {
		_, err := updater.Update(context.Background(), testPresentationID, 1, patch, "stale-token")
		require.Error(t, err)
		assert.Equal(t, fault.KindPreconditionFailed, fault.KindOf(err))
	}
}

func TestSlideUpdateMissingTokenSkipsCheck(t *testing.T) {
	records := store.NewMemoryRecords()
	seedRecord(records, models.StatusCompleted)
	updater := newTestUpdater(records)

	_, err := updater.Update(context.Background(), testPresentationID, 1, &models.SlidePatch{Title: strPtr("t")}, "")
	assert.NoError(t, err)
}

func TestSlideUpdateRejectedBeforeCompletion(t *testing.T) {
	for _, status := range []models.Status{
		models.StatusCreated,
		models.StatusOutlining,
		models.StatusContentGeneration,
		models.StatusImageGeneration,
		models.StatusCompiling,
		models.StatusFailed,
	} {
		t.Run(string(status), func(t *testing.T) {
			records := store.NewMemoryRecords()
			rec := seedRecord(records, status)
			updater := newTestUpdater(records)

			_, err := updater.Update(context.Background(), testPresentationID, 1, &models.SlidePatch{Title: strPtr("t")}, rec.ConcurrencyToken)
			require.Error(t, err)
			assert.Equal(t, fault.KindConflict, fault.KindOf(err))
		})
	}
}

func TestSlideUpdateValidation(t *testing.T) {
	records := store.NewMemoryRecords()
	rec := seedRecord(records, models.StatusCompleted)
	updater := newTestUpdater(records)

	cases := []struct {
		name  string
		id    string
		n     int
		patch *models.SlidePatch
	}{
		{"bad id", "not-a-uuid", 1, &models.SlidePatch{}},
		{"slide number zero", testPresentationID, 0, &models.SlidePatch{}},
		{"slide number above cap", testPresentationID, 101, &models.SlidePatch{}},
		{"slide number above page count", testPresentationID, 11, &models.SlidePatch{}},
		{"title too long", testPresentationID, 1, &models.SlidePatch{Title: strPtr(strings.Repeat("x", 101))}},
		{"content too long", testPresentationID, 1, &models.SlidePatch{Content: strPtr(strings.Repeat("x", 2001))}},
		{"notes too long", testPresentationID, 1, &models.SlidePatch{SpeakerNotes: strPtr(strings.Repeat("x", 1001))}},
		{"unknown layout", testPresentationID, 1, &models.SlidePatch{Layout: strPtr("freeform")}},
		{"bad color", testPresentationID, 1, &models.SlidePatch{StyleOverrides: map[string]string{"background_color": "red"}}},
		{"font size out of range", testPresentationID, 1, &models.SlidePatch{StyleOverrides: map[string]string{"font_size": "73"}}},
		{"unknown override", testPresentationID, 1, &models.SlidePatch{StyleOverrides: map[string]string{"margin": "3"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := updater.Update(context.Background(), tc.id, tc.n, tc.patch, rec.ConcurrencyToken)
			require.Error(t, err)
			assert.Equal(t, fault.KindValidation, fault.KindOf(err))
		})
	}

	// No mutation leaked from any rejected request.
	stored, err := records.GetPresentation(context.Background(), testPresentationID)
	require.NoError(t, err)
	assert.Equal(t, rec.Version, stored.Version)
}

func TestSlideUpdateConflictsWhileLockHeld(t *testing.T) {
	records := store.NewMemoryRecords()
	rec := seedRecord(records, models.StatusCompleted)
	locks := NewLockManager(records, DefaultLockTTL)
	updater := NewSlideUpdater(records, locks)

	_, err := locks.Acquire(context.Background(), testPresentationID)
	require.NoError(t, err)

	_, err = updater.Update(context.Background(), testPresentationID, 1, &models.SlidePatch{Title: strPtr("t")}, rec.ConcurrencyToken)
	require.Error(t, err)
	assert.Equal(t, fault.KindConflict, fault.KindOf(err))
}

func TestSlideUpdateNotFound(t *testing.T) {
	records := store.NewMemoryRecords()
	updater := newTestUpdater(records)

	_, err := updater.Update(context.Background(), testPresentationID, 1, &models.SlidePatch{Title: strPtr("t")}, "")
	require.Error(t, err)
	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
}

func TestSlideUpdateTokenRotationIsVisible(t *testing.T) {
	records := store.NewMemoryRecords()
	rec := seedRecord(records, models.StatusCompleted)
	updater := newTestUpdater(records)
	updater.now = func() time.Time { return time.Unix(1700000100, 0) }

	result, err := updater.Update(context.Background(), testPresentationID, 1, &models.SlidePatch{Title: strPtr("t")}, rec.ConcurrencyToken)
	require.NoError(t, err)

	// The stale original token is now rejected.
	_, err = updater.Update(context.Background(), testPresentationID, 1, &models.SlidePatch{Title: strPtr("u")}, rec.ConcurrencyToken)
	require.Error(t, err)
	assert.Equal(t, fault.KindPreconditionFailed, fault.KindOf(err))

	// The fresh token is accepted.
	_, err = updater.Update(context.Background(), testPresentationID, 1, &models.SlidePatch{Title: strPtr("u")}, result.ETag)
	assert.NoError(t, err)
}
