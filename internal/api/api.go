// Package api is the HTTP boundary of the lifecycle controller. It decodes
// requests, delegates to the services, and maps fault kinds to status codes;
// no business rules live here.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yincma/presentationflow/internal/fault"
	"github.com/yincma/presentationflow/internal/models"
	"github.com/yincma/presentationflow/internal/services"
	"github.com/yincma/presentationflow/internal/store"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// Handler serves the presentation lifecycle endpoints.
type Handler struct {
	records store.RecordStore
	updater *services.SlideUpdater
	deleter *services.Deleter
}

// NewHandler creates the HTTP handler over the given services.
func NewHandler(records store.RecordStore, updater *services.SlideUpdater, deleter *services.Deleter) *Handler {
	return &Handler{records: records, updater: updater, deleter: deleter}
}

// Routes returns the routed handler with CORS and request-id middleware
// applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /presentations/{id}", h.handleDelete)
	mux.HandleFunc("PATCH /presentations/{id}/slides/{n}", h.handleSlidePatch)
	mux.HandleFunc("GET /presentations/{id}/status", h.handleStatus)
	mux.HandleFunc("GET /tasks/{id}", h.handleStatus)
	mux.HandleFunc("GET /tasks/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, fault.Validation("task id is required"))
	})
	mux.HandleFunc("OPTIONS /", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return withRequestID(withCORS(mux))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	taskID, err := h.deleter.Delete(r.Context(), id, force)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("X-Cleanup-Task-Id", taskID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSlidePatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	slideNumber, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		writeError(w, r, fault.Validation("slide number must be an integer"))
		return
	}

	var patch models.SlidePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, r, fault.Validation("could not parse request body as JSON"))
		return
	}
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	result, err := h.updater.Update(r.Context(), id, slideNumber, &patch, ifMatch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("ETag", `"`+result.ETag+`"`)
	writeJSON(w, r, http.StatusOK, models.SlideUpdateResponse{
		PresentationID: id,
		SlideNumber:    slideNumber,
		UpdatedAt:      result.Record.UpdatedAt.UTC().Format(time.RFC3339),
		ETag:           result.ETag,
		PreviewURL:     result.PreviewURL,
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	rec, err := h.records.GetPresentation(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := models.StatusResponse{
		TaskID:   id,
		Status:   rec.Status,
		Progress: services.CalculateProgress(rec),
		Message:  services.StatusMessage(rec.Status),
		Stage:    rec.Stage,
		Links: map[string]string{
			"self":   "/tasks/" + id,
			"status": "/presentations/" + id + "/status",
		},
		Metadata: &models.StatusMetadata{
			CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt: rec.UpdatedAt.UTC().Format(time.RFC3339),
			PageCount: rec.PageCount,
		},
	}
	if rec.Status == models.StatusFailed {
		resp.Error = &models.StatusError{Code: rec.ErrorCode, Message: rec.ErrorMessage}
	}
	if rec.Status == models.StatusCompleted {
		resp.Result = &models.StatusResult{PresentationID: id, SlideCount: rec.PageCount}
	}

	writeJSON(w, r, http.StatusOK, resp)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, If-Match")
		next.ServeHTTP(w, r)
	})
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to write response.", "error", err, "path", r.URL.Path)
	}
}

// writeError maps a fault kind to its HTTP status and the shared error body.
// Internal detail is logged, never echoed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := fault.KindOf(err)
	requestID := requestIDFrom(r.Context())
	if kind == fault.KindInternal {
		slog.Error("Request failed.", "error", err, "path", r.URL.Path, "requestId", requestID)
	} else {
		slog.Info("Request rejected.", "error", err, "path", r.URL.Path, "requestId", requestID, "status", kind.HTTPStatus())
	}

	writeJSON(w, r, kind.HTTPStatus(), models.ErrorResponse{
		Error:     kind.Code(),
		Message:   fault.MessageOf(err),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
	})
}
