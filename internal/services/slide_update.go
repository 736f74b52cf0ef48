package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/yincma/presentationflow/internal/fault"
	"github.com/yincma/presentationflow/internal/models"
	"github.com/yincma/presentationflow/internal/store"
)

// maxSlideNumber bounds the addressable slide range independent of any
// record, so malformed requests are rejected before touching shared state.
const maxSlideNumber = 100

var hexColorPattern = regexp.MustCompile(`^[0-9a-fA-F]{6}$`)

// SlideUpdater coordinates single-slide edits: validation, the optimistic
// concurrency check, lock acquisition, the mutation itself, and guaranteed
// lock release.
type SlideUpdater struct {
	records  store.RecordStore
	locks    *LockManager
	validate *validator.Validate
	now      func() time.Time
}

// NewSlideUpdater creates a SlideUpdater on the given record store and lock
// manager.
func NewSlideUpdater(records store.RecordStore, locks *LockManager) *SlideUpdater {
	return &SlideUpdater{
		records:  records,
		locks:    locks,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

// SlideUpdateResult is the outcome of a successful edit.
type SlideUpdateResult struct {
	Record     *models.Presentation
	ETag       string
	PreviewURL string
}

// Update applies a patch to one slide of a completed presentation.
// On success exactly one mutation is persisted and a fresh concurrency token
// is returned; once acquired, the lock is released on every exit path.
func (u *SlideUpdater) Update(ctx context.Context, presentationID string, slideNumber int, patch *models.SlidePatch, ifMatch string) (*SlideUpdateResult, error) {
	if err := ValidatePresentationID(presentationID); err != nil {
		return nil, err
	}
	if slideNumber < 1 || slideNumber > maxSlideNumber {
		return nil, fault.Validation("slide number must be between 1 and %d", maxSlideNumber)
	}
	if err := u.validatePatch(patch); err != nil {
		return nil, err
	}

	rec, err := u.records.GetPresentation(ctx, presentationID)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.StatusCompleted {
		return nil, fault.Conflict("presentation is not editable while status is %s", rec.Status)
	}
	if slideNumber > rec.PageCount {
		return nil, fault.Validation("slide number %d exceeds page count %d", slideNumber, rec.PageCount)
	}
	if err := CheckToken(rec, ifMatch); err != nil {
		return nil, err
	}

	token, err := u.locks.Acquire(ctx, presentationID)
	if err != nil {
		return nil, err
	}
	// Release must run even when the request context is already gone.
	defer u.locks.Release(context.WithoutCancel(ctx), presentationID, token)

	now := u.now()
	updated, err := u.records.MutatePresentation(ctx, presentationID, func(rec *models.Presentation) error {
		// Re-checked inside the transaction: the external pipeline cannot
		// leave completed, but the token may have rotated since the load.
		if rec.Status != models.StatusCompleted {
			return fault.Conflict("presentation is not editable while status is %s", rec.Status)
		}
		if err := CheckToken(rec, ifMatch); err != nil {
			return err
		}
		applyPatch(rec, slideNumber, patch, now)
		rec.Version++
		rec.UpdatedAt = now
		rec.ConcurrencyToken = NextToken(rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Slide updated.",
		"presentationId", presentationID, "slideNumber", slideNumber, "version", updated.Version)

	return &SlideUpdateResult{
		Record:     updated,
		ETag:       updated.ConcurrencyToken,
		PreviewURL: fmt.Sprintf("/presentations/%s/slides/%d/preview?v=%d", presentationID, slideNumber, updated.Version),
	}, nil
}

// ValidatePresentationID rejects ids that are not well-formed UUIDs.
func ValidatePresentationID(id string) error {
	if uuid.Validate(id) != nil {
		return fault.Validation("presentation id must be a valid UUID")
	}
	return nil
}

func (u *SlideUpdater) validatePatch(patch *models.SlidePatch) error {
	if patch == nil {
		return fault.Validation("request body is required")
	}
	if err := u.validate.Struct(patch); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return fault.Validation("invalid field %s (%s)", errs[0].Field(), errs[0].Tag())
		}
		return fault.Validation("invalid patch")
	}
	for key, value := range patch.StyleOverrides {
		if err := validateStyleOverride(key, value); err != nil {
			return err
		}
	}
	return nil
}

func validateStyleOverride(key, value string) error {
	switch key {
	case "background_color", "text_color":
		if !hexColorPattern.MatchString(value) {
			return fault.Validation("style override %s must be a 6-hex-digit color", key)
		}
	case "font_size":
		size, err := strconv.Atoi(value)
		if err != nil || size < 8 || size > 72 {
			return fault.Validation("style override font_size must be an integer between 8 and 72")
		}
	case "font_family":
		if len(value) == 0 || len(value) > 50 {
			return fault.Validation("style override font_family must be 1-50 characters")
		}
	default:
		return fault.Validation("unrecognized style override %q", key)
	}
	return nil
}

// applyPatch updates the addressed slide in place, sparse-extending the
// slide sequence when the number was never populated.
func applyPatch(rec *models.Presentation, slideNumber int, patch *models.SlidePatch, now time.Time) {
	idx := -1
	for i := range rec.Slides {
		if rec.Slides[i].Number == slideNumber {
			idx = i
			break
		}
	}
	if idx == -1 {
		rec.Slides = append(rec.Slides, models.Slide{Number: slideNumber})
		sort.Slice(rec.Slides, func(i, j int) bool { return rec.Slides[i].Number < rec.Slides[j].Number })
		for i := range rec.Slides {
			if rec.Slides[i].Number == slideNumber {
				idx = i
				break
			}
		}
	}

	slide := &rec.Slides[idx]
	if patch.Title != nil {
		slide.Title = *patch.Title
	}
	if patch.Content != nil {
		slide.Content = *patch.Content
	}
	if patch.SpeakerNotes != nil {
		slide.SpeakerNotes = *patch.SpeakerNotes
	}
	if patch.Layout != nil {
		slide.Layout = *patch.Layout
	}
	if len(patch.StyleOverrides) > 0 {
		if slide.StyleOverrides == nil {
			slide.StyleOverrides = make(map[string]string, len(patch.StyleOverrides))
		}
		for k, v := range patch.StyleOverrides {
			slide.StyleOverrides[k] = v
		}
	}
	slide.UpdatedAt = now
}
