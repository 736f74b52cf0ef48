package models

import "time"

// Status is the pipeline state of a presentation job. Stage workers advance
// it along the pipeline order; only failed and deleting may be entered out
// of order.
type Status string

const (
	StatusCreated           Status = "created"
	StatusOutlining         Status = "outlining"
	StatusContentGeneration Status = "content_generation"
	StatusImageGeneration   Status = "image_generation"
	StatusSpeakerNotes      Status = "speaker_notes"
	StatusCompiling         Status = "compiling"
	StatusCompleted         Status = "completed"
	StatusFailed            Status = "failed"
	StatusDeleting          Status = "deleting"
)

// ActiveStatuses are the states during which a non-forced deletion is
// rejected: a stage worker is actively writing the record.
var ActiveStatuses = map[Status]bool{
	StatusContentGeneration: true,
	StatusCompiling:         true,
}

// Presentation is the main record for a generation job in Firestore.
// It is the single shared mutable resource of the system: pipeline stage
// workers advance status and counters, the slide-update path edits slides,
// and the deletion path marks it deleting before tearing it down.
type Presentation struct {
	ID               string    `firestore:"-" json:"presentation_id"`
	Status           Status    `firestore:"status" json:"status"`
	Stage            string    `firestore:"stage,omitempty" json:"stage,omitempty"`
	ErrorCode        string    `firestore:"errorCode,omitempty" json:"error_code,omitempty"`
	ErrorMessage     string    `firestore:"errorMessage,omitempty" json:"error_message,omitempty"`
	PageCount        int       `firestore:"pageCount" json:"page_count"`
	SlidesCompleted  int       `firestore:"slidesCompleted" json:"slides_completed"`
	ImagesTotal      int       `firestore:"imagesTotal" json:"images_total"`
	ImagesCompleted  int       `firestore:"imagesCompleted" json:"images_completed"`
	Progress         int       `firestore:"progress" json:"progress"`
	Slides           []Slide   `firestore:"slides,omitempty" json:"slides,omitempty"`
	Version          int64     `firestore:"version" json:"version"`
	ConcurrencyToken string    `firestore:"concurrencyToken" json:"etag"`
	LockToken        string    `firestore:"lockToken,omitempty" json:"-"`
	LockExpires      time.Time `firestore:"lockExpires,omitempty" json:"-"`
	CreatedAt        time.Time `firestore:"createdAt" json:"created_at"`
	UpdatedAt        time.Time `firestore:"updatedAt" json:"updated_at"`
	DeletedAt        time.Time `firestore:"deletedAt,omitempty" json:"deleted_at,omitempty"`
}

// LockHeld reports whether the advisory lock is live at the given instant.
// An expired lock is logically absent even if its fields were never cleared.
func (p *Presentation) LockHeld(now time.Time) bool {
	return p.LockToken != "" && p.LockExpires.After(now)
}

// Slide is a single slide of a presentation. Slides are kept ordered by
// Number (1-based) and the sequence may be sparse until the pipeline or an
// edit populates a given number.
type Slide struct {
	Number         int               `firestore:"number" json:"number"`
	Title          string            `firestore:"title,omitempty" json:"title,omitempty"`
	Content        string            `firestore:"content,omitempty" json:"content,omitempty"`
	SpeakerNotes   string            `firestore:"speakerNotes,omitempty" json:"speaker_notes,omitempty"`
	Layout         string            `firestore:"layout,omitempty" json:"layout,omitempty"`
	StyleOverrides map[string]string `firestore:"styleOverrides,omitempty" json:"style_overrides,omitempty"`
	UpdatedAt      time.Time         `firestore:"updatedAt" json:"updated_at"`
}

// Slide layouts accepted by the edit path.
const (
	LayoutTitle      = "title"
	LayoutBullets    = "bullets"
	LayoutTwoColumn  = "two_column"
	LayoutImageLeft  = "image_left"
	LayoutImageRight = "image_right"
	LayoutQuote      = "quote"
	LayoutBlank      = "blank"
)
