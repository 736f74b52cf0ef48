package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yincma/presentationflow/internal/fault"
	"github.com/yincma/presentationflow/internal/models"
)

// FirestoreRecords implements RecordStore on two Firestore collections: one
// for presentation records and one for the secondary task records created by
// the generation pipeline. Firestore transactions provide the atomic
// conditional write that Mutate promises.
type FirestoreRecords struct {
	client         *firestore.Client
	collection     string
	taskCollection string
}

// NewFirestoreRecords wires a RecordStore over the given collections.
func NewFirestoreRecords(client *firestore.Client, collection, taskCollection string) *FirestoreRecords {
	return &FirestoreRecords{
		client:         client,
		collection:     collection,
		taskCollection: taskCollection,
	}
}

func (s *FirestoreRecords) doc(id string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(id)
}

func (s *FirestoreRecords) GetPresentation(ctx context.Context, id string) (*models.Presentation, error) {
	snap, err := s.doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fault.NotFound("presentation %s not found", id)
	}
	if err != nil {
		return nil, fault.Internal(err, "failed to load presentation")
	}

	var rec models.Presentation
	if err := snap.DataTo(&rec); err != nil {
		return nil, fault.Internal(err, "failed to decode presentation")
	}
	rec.ID = id
	return &rec, nil
}

func (s *FirestoreRecords) MutatePresentation(ctx context.Context, id string, mutate func(*models.Presentation) error) (*models.Presentation, error) {
	docRef := s.doc(id)
	var updated models.Presentation

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if status.Code(err) == codes.NotFound {
			return fault.NotFound("presentation %s not found", id)
		}
		if err != nil {
			return fmt.Errorf("failed to read presentation in transaction: %w", err)
		}

		var rec models.Presentation
		if err := snap.DataTo(&rec); err != nil {
			return fmt.Errorf("failed to decode presentation in transaction: %w", err)
		}
		rec.ID = id

		if err := mutate(&rec); err != nil {
			return err
		}
		updated = rec
		return tx.Set(docRef, &rec)
	})
	if err != nil {
		// Mutation-function faults pass through untouched so callers can
		// distinguish their own abort conditions from store failures.
		if fault.IsTagged(err) {
			return nil, err
		}
		return nil, fault.Internal(err, "failed to update presentation")
	}
	return &updated, nil
}

func (s *FirestoreRecords) DeletePresentation(ctx context.Context, id string) error {
	if _, err := s.doc(id).Delete(ctx); err != nil {
		return fault.Internal(err, "failed to delete presentation record")
	}
	return nil
}

func (s *FirestoreRecords) ListRelatedTaskKeys(ctx context.Context, presentationID string) ([]string, error) {
	docs, err := s.client.Collection(s.taskCollection).
		Where("presentationId", "==", presentationID).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fault.Internal(err, "failed to query related tasks")
	}

	keys := make([]string, 0, len(docs))
	for _, doc := range docs {
		keys = append(keys, doc.Ref.ID)
	}
	return keys, nil
}

func (s *FirestoreRecords) DeleteTaskRecord(ctx context.Context, key string) error {
	if _, err := s.client.Collection(s.taskCollection).Doc(key).Delete(ctx); err != nil {
		return fault.Internal(err, "failed to delete task record %s", key)
	}
	return nil
}
