package store

import (
	"context"
	"errors"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/yincma/presentationflow/internal/fault"
)

// maxListPage is the largest page requested from the object listing, which
// bounds how many deletes one cleanup batch fans out.
const maxListPage = 1000

// GCSBlobs implements BlobStore on a single Cloud Storage bucket.
type GCSBlobs struct {
	client *storage.Client
	bucket string
}

// NewGCSBlobs wires a BlobStore over the given bucket.
func NewGCSBlobs(client *storage.Client, bucket string) *GCSBlobs {
	return &GCSBlobs{client: client, bucket: bucket}
}

func (s *GCSBlobs) ListPage(ctx context.Context, prefix, pageToken string) ([]string, string, error) {
	query := &storage.Query{Prefix: prefix}
	it := s.client.Bucket(s.bucket).Objects(ctx, query)

	var attrs []*storage.ObjectAttrs
	pager := iterator.NewPager(it, maxListPage, pageToken)
	next, err := pager.NextPage(&attrs)
	if err != nil {
		return nil, "", fault.Internal(err, "failed to list objects under %s", prefix)
	}

	names := make([]string, 0, len(attrs))
	for _, a := range attrs {
		names = append(names, a.Name)
	}
	return names, next, nil
}

func (s *GCSBlobs) Delete(ctx context.Context, name string) error {
	err := s.client.Bucket(s.bucket).Object(name).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fault.Internal(err, "failed to delete object %s", name)
	}
	return nil
}
