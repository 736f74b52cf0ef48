package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/yincma/presentationflow/internal/api"
)

var (
	routesInstance http.Handler
	once           sync.Once
	initErr        error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("PresentationLifecycle", presentationLifecycle)
}

// main is required by the Go Functions Framework.
func main() {}

// presentationLifecycle is the HTTP entry point for the lifecycle API.
func presentationLifecycle(w http.ResponseWriter, r *http.Request) {
	// Use sync.Once for robust, one-time initialization of clients and the
	// routing table.
	once.Do(func() {
		var handler *api.Handler
		handler, initErr = api.NewFromEnv(context.Background())
		if initErr == nil {
			routesInstance = handler.Routes()
		}
	})
	if initErr != nil {
		slog.Error("Critical: lifecycle API initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	routesInstance.ServeHTTP(w, r)
}
