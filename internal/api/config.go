package api

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/yincma/presentationflow/internal/gcp"
	"github.com/yincma/presentationflow/internal/services"
	"github.com/yincma/presentationflow/internal/store"
)

// Config holds all configuration for the lifecycle API.
type Config struct {
	ProjectID      string
	Collection     string
	TaskCollection string
	AssetBucket    string
	CleanupTopic   string
	LockTTL        time.Duration
}

// loadConfig loads and validates all necessary environment variables for this service.
func loadConfig() (*Config, error) {
	projectID := gcp.GetEnv("GOOGLE_CLOUD_PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID environment variable must be set")
	}
	assetBucket := gcp.GetEnv("ASSET_BUCKET", "")
	if assetBucket == "" {
		return nil, fmt.Errorf("ASSET_BUCKET environment variable must be set")
	}
	cleanupTopic := gcp.GetEnv("CLEANUP_TOPIC", "")
	if cleanupTopic == "" {
		return nil, fmt.Errorf("CLEANUP_TOPIC environment variable must be set")
	}

	lockTTL := services.DefaultLockTTL
	if raw := gcp.GetEnv("LOCK_TTL_SECONDS", ""); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return nil, fmt.Errorf("LOCK_TTL_SECONDS must be a positive integer, got %q", raw)
		}
		lockTTL = time.Duration(seconds) * time.Second
	}

	return &Config{
		ProjectID:      projectID,
		Collection:     gcp.GetEnv("FIRESTORE_COLLECTION", "presentations"),
		TaskCollection: gcp.GetEnv("TASK_COLLECTION", "generation_tasks"),
		AssetBucket:    assetBucket,
		CleanupTopic:   cleanupTopic,
		LockTTL:        lockTTL,
	}, nil
}

// NewFromEnv builds the fully wired HTTP handler from environment
// configuration and real GCP clients.
func NewFromEnv(ctx context.Context) (*Handler, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := gcp.NewStorageClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	topic, err := gcp.NewPubSubTopic(ctx, config.ProjectID, config.CleanupTopic)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub topic: %w", err)
	}
	logClient, err := gcp.NewLogAdminClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create logadmin client: %w", err)
	}

	records := store.NewFirestoreRecords(firestoreClient, config.Collection, config.TaskCollection)
	blobs := store.NewGCSBlobs(storageClient, config.AssetBucket)
	queue := store.NewPubSubQueue(topic, 0)
	logs := store.NewLogAdminStore(logClient)

	locks := services.NewLockManager(records, config.LockTTL)
	updater := services.NewSlideUpdater(records, locks)
	cleaner := services.NewCleaner(records, blobs, logs)
	deleter := services.NewDeleter(records, queue, locks, cleaner)

	return NewHandler(records, updater, deleter), nil
}
