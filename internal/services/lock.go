package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yincma/presentationflow/internal/fault"
	"github.com/yincma/presentationflow/internal/models"
	"github.com/yincma/presentationflow/internal/store"
)

// DefaultLockTTL bounds how long a crashed lock holder can block other
// writers before the lock fails open.
const DefaultLockTTL = 30 * time.Second

// errReleaseSkipped aborts the release transaction without writing when the
// stored token no longer matches the caller's.
var errReleaseSkipped = errors.New("lock release skipped")

// LockManager serializes concurrent slide edits on one presentation via an
// advisory lock stored as fields on the record itself. Acquisition is a
// compare-and-swap inside a store transaction: any number of callers may
// race, exactly one wins.
type LockManager struct {
	records store.RecordStore
	ttl     time.Duration
	now     func() time.Time
}

// NewLockManager creates a LockManager with the given TTL. A non-positive
// TTL selects DefaultLockTTL.
func NewLockManager(records store.RecordStore, ttl time.Duration) *LockManager {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &LockManager{records: records, ttl: ttl, now: time.Now}
}

// Acquire takes the lock for the record, returning the holder token. It
// fails with a conflict fault if the lock is held and unexpired; there is no
// blocking or retry at this layer.
func (m *LockManager) Acquire(ctx context.Context, id string) (string, error) {
	token := uuid.NewString()
	now := m.now()

	_, err := m.records.MutatePresentation(ctx, id, func(rec *models.Presentation) error {
		if rec.LockHeld(now) {
			return fault.Conflict("presentation is locked by another edit")
		}
		rec.LockToken = token
		rec.LockExpires = now.Add(m.ttl)
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Release clears the lock if the caller still holds it. A mismatched token
// (expired and reacquired, or already released) is a silent no-op, and store
// failures are logged and swallowed: release runs in guaranteed-cleanup
// paths where the TTL is the backstop.
func (m *LockManager) Release(ctx context.Context, id, token string) {
	_, err := m.records.MutatePresentation(ctx, id, func(rec *models.Presentation) error {
		if rec.LockToken != token {
			return errReleaseSkipped
		}
		rec.LockToken = ""
		rec.LockExpires = time.Time{}
		return nil
	})
	if err != nil && !errors.Is(err, errReleaseSkipped) && fault.KindOf(err) != fault.KindNotFound {
		slog.Warn("Failed to release presentation lock; TTL expiry will reclaim it.",
			"presentationId", id, "error", err)
	}
}

// Held reports whether the record's lock is live at the manager's clock.
func (m *LockManager) Held(rec *models.Presentation) bool {
	return rec.LockHeld(m.now())
}
