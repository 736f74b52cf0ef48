package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/logging/logadmin"
)

// NewLogAdminClient creates a Cloud Logging admin client, used to delete the
// per-presentation log resources during cleanup.
func NewLogAdminClient(ctx context.Context, projectID string) (*logadmin.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a logadmin client")
	}

	client, err := logadmin.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create logadmin client: %w", err)
	}

	return client, nil
}
