package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/yincma/presentationflow/internal/models"
	"github.com/yincma/presentationflow/internal/services"
)

var (
	cleanerInstance *services.Cleaner
	once            sync.Once
	initErr         error
)

// pubSubEnvelope is the Pub/Sub message wrapper inside the CloudEvent
// payload. Data is base64-decoded by the JSON unmarshal.
type pubSubEnvelope struct {
	Message struct {
		Data       []byte            `json:"data"`
		Attributes map[string]string `json:"attributes"`
	} `json:"message"`
}

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("ProcessCleanupTask", processCleanupTask)
}

// main is required by the Go Functions Framework.
func main() {}

// processCleanupTask is the CloudEvent entry point for queued cleanup tasks.
// The subscription delivers at least once; the cleaner is idempotent, so a
// redelivered task is safe to run again.
func processCleanupTask(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		cleanerInstance, initErr = services.NewCleanerFromEnv(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var envelope pubSubEnvelope
	if err := json.Unmarshal(e.Data(), &envelope); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	var task models.CleanupTask
	if err := json.Unmarshal(envelope.Message.Data, &task); err != nil {
		// A malformed task can never succeed; drop it rather than loop.
		slog.Error("Discarding malformed cleanup task", "error", err, "data", string(envelope.Message.Data))
		return nil
	}

	// Returning the error marks the invocation failed so the queue redelivers.
	return cleanerInstance.Process(ctx, &task)
}
