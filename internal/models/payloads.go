package models

// These structs define the JSON payloads exchanged over the HTTP surface of
// the lifecycle API.

// SlidePatch is the body of a PATCH on a single slide. All fields are
// optional; absent fields leave the stored value untouched.
type SlidePatch struct {
	Title          *string           `json:"title,omitempty" validate:"omitempty,max=100"`
	Content        *string           `json:"content,omitempty" validate:"omitempty,max=2000"`
	SpeakerNotes   *string           `json:"speaker_notes,omitempty" validate:"omitempty,max=1000"`
	Layout         *string           `json:"layout,omitempty" validate:"omitempty,oneof=title bullets two_column image_left image_right quote blank"`
	StyleOverrides map[string]string `json:"style_overrides,omitempty" validate:"omitempty,max=8"`
}

// SlideUpdateResponse is returned on a successful slide edit.
type SlideUpdateResponse struct {
	PresentationID string `json:"presentation_id"`
	SlideNumber    int    `json:"slide_number"`
	UpdatedAt      string `json:"updated_at"`
	ETag           string `json:"etag"`
	PreviewURL     string `json:"preview_url"`
}

// StatusResponse is the progress view of a generation job.
type StatusResponse struct {
	TaskID   string            `json:"task_id"`
	Status   Status            `json:"status"`
	Progress int               `json:"progress"`
	Message  string            `json:"message"`
	Stage    string            `json:"stage,omitempty"`
	Error    *StatusError      `json:"error,omitempty"`
	Result   *StatusResult     `json:"result,omitempty"`
	Links    map[string]string `json:"_links"`
	Metadata *StatusMetadata   `json:"metadata,omitempty"`
}

// StatusError carries the diagnostic detail of a failed job.
type StatusError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// StatusResult is present once the pipeline has completed.
type StatusResult struct {
	PresentationID string `json:"presentation_id"`
	SlideCount     int    `json:"slide_count"`
}

// StatusMetadata carries record timestamps and sizing.
type StatusMetadata struct {
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	PageCount int    `json:"page_count"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id"`
}
