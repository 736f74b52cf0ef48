// Package services implements the presentation lifecycle controller: status
// calculation, the advisory record lock, optimistic concurrency, slide
// edits, deletion orchestration, and idempotent cleanup.
package services

import "github.com/yincma/presentationflow/internal/models"

// Base progress per pipeline state. The two generation stages each span a
// 20-point band filled in by their counters; speaker_notes shares the
// compiling base so progress never dips below a fully counted
// image_generation stage.
var baseProgress = map[models.Status]int{
	models.StatusCreated:           0,
	models.StatusOutlining:         20,
	models.StatusContentGeneration: 40,
	models.StatusImageGeneration:   60,
	models.StatusSpeakerNotes:      80,
	models.StatusCompiling:         80,
	models.StatusCompleted:         100,
}

var statusMessages = map[models.Status]string{
	models.StatusCreated:           "Presentation request received",
	models.StatusOutlining:         "Generating outline",
	models.StatusContentGeneration: "Generating slide content",
	models.StatusImageGeneration:   "Generating images",
	models.StatusSpeakerNotes:      "Writing speaker notes",
	models.StatusCompiling:         "Compiling presentation",
	models.StatusCompleted:         "Presentation ready",
	models.StatusFailed:            "Generation failed",
	models.StatusDeleting:          "Deletion in progress",
}

// CalculateProgress maps a record snapshot to a 0-100 progress value.
// A failed or deleting record reports its last stored progress verbatim, so
// progress never appears to advance after the pipeline stopped. A zero
// denominator contributes no sub-progress.
func CalculateProgress(rec *models.Presentation) int {
	switch rec.Status {
	case models.StatusFailed, models.StatusDeleting:
		return clampProgress(rec.Progress)
	}

	progress := baseProgress[rec.Status]
	switch rec.Status {
	case models.StatusContentGeneration:
		progress += subProgress(rec.SlidesCompleted, rec.PageCount)
	case models.StatusImageGeneration:
		progress += subProgress(rec.ImagesCompleted, rec.ImagesTotal)
	}
	return clampProgress(progress)
}

// StatusMessage maps a status to its fixed human-readable message.
func StatusMessage(status models.Status) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return "Unknown status"
}

func subProgress(done, total int) int {
	if total <= 0 || done <= 0 {
		return 0
	}
	return done * 20 / total
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
