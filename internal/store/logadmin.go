package store

import (
	"context"

	"cloud.google.com/go/logging/logadmin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yincma/presentationflow/internal/fault"
)

// LogAdminStore implements LogStore on the Cloud Logging admin API.
type LogAdminStore struct {
	client *logadmin.Client
}

// NewLogAdminStore wires a LogStore over the given admin client.
func NewLogAdminStore(client *logadmin.Client) *LogAdminStore {
	return &LogAdminStore{client: client}
}

func (s *LogAdminStore) DeleteLog(ctx context.Context, logID string) error {
	err := s.client.DeleteLog(ctx, logID)
	if err != nil && status.Code(err) != codes.NotFound {
		return fault.Internal(err, "failed to delete log %s", logID)
	}
	return nil
}
