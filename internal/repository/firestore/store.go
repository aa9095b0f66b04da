// Package firestore stores the inventory in Cloud Firestore: one document per item, the
// document id being the item name.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	gfs "cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mamadbah2/pantry/internal/domain/models"
)

const quantityField = "quantity"

// ErrInvalidDocumentID reports a name Firestore cannot use as a document id.
var ErrInvalidDocumentID = errors.New("firestore: invalid document id")

// Store implements the document store on top of a Firestore client.
type Store struct {
	client *gfs.Client
	logger *zap.Logger
}

// New initializes the Firestore client. An empty credentialsFile uses Application Default
// Credentials; FIRESTORE_EMULATOR_HOST is honoured by the client library.
func New(ctx context.Context, projectID, credentialsFile string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := gfs.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	logger.Info("firestore connected", zap.String("project", projectID))
	return &Store{client: client, logger: logger}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *gfs.Client, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, logger: logger}
}

// Ping lists the root collections; Firestore has no dedicated ping call.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.Collections(ctx).GetAll(); err != nil {
		return fmt.Errorf("firestore ping failed: %w", err)
	}
	return nil
}

func (s *Store) doc(collection, key string) (*gfs.DocumentRef, error) {
	if key == "" || key == "." || key == ".." || strings.Contains(key, "/") ||
		(strings.HasPrefix(key, "__") && strings.HasSuffix(key, "__")) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDocumentID, key)
	}
	return s.client.Collection(collection).Doc(key), nil
}

// ListAll streams every document of the collection ordered by id.
func (s *Store) ListAll(ctx context.Context, collection string) ([]models.Document, error) {
	iter := s.client.Collection(collection).OrderBy(gfs.DocumentID, gfs.Asc).Documents(ctx)
	defer iter.Stop()

	var docs []models.Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", collection, err)
		}

		fields, err := fieldsFromSnapshot(snap)
		if err != nil {
			s.logger.Warn("skip malformed document", zap.String("id", snap.Ref.ID), zap.Error(err))
			continue
		}
		docs = append(docs, models.Document{Key: snap.Ref.ID, Fields: fields})
	}
	return docs, nil
}

func (s *Store) Get(ctx context.Context, collection, key string) (models.Fields, bool, error) {
	ref, err := s.doc(collection, key)
	if err != nil {
		return models.Fields{}, false, err
	}

	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return models.Fields{}, false, nil
	}
	if err != nil {
		return models.Fields{}, false, fmt.Errorf("get %s/%s: %w", collection, key, err)
	}

	fields, err := fieldsFromSnapshot(snap)
	if err != nil {
		return models.Fields{}, false, err
	}
	return fields, true, nil
}

// Put overwrites the full document.
func (s *Store) Put(ctx context.Context, collection, key string, fields models.Fields) error {
	ref, err := s.doc(collection, key)
	if err != nil {
		return err
	}
	if _, err := ref.Set(ctx, map[string]any{quantityField: fields.Quantity}); err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, key string) error {
	ref, err := s.doc(collection, key)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, key, err)
	}
	return nil
}

// Adjust runs the read-modify-write inside a transaction, which Firestore retries on
// contention.
func (s *Store) Adjust(ctx context.Context, collection, key string, delta int) (models.Adjustment, error) {
	ref, err := s.doc(collection, key)
	if err != nil {
		return models.Adjustment{}, err
	}

	var result models.Adjustment
	err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		var (
			current models.Fields
			exists  bool
		)
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			if current, err = fieldsFromSnapshot(snap); err != nil {
				return err
			}
			exists = true
		}

		var next models.Fields
		next, result = models.ApplyDelta(current, exists, delta)
		switch {
		case result.Deleted:
			return tx.Delete(ref)
		case result.Quantity > 0:
			return tx.Set(ref, map[string]any{quantityField: next.Quantity})
		}
		return nil
	})
	if err != nil {
		return models.Adjustment{}, fmt.Errorf("adjust %s/%s: %w", collection, key, err)
	}
	return result, nil
}

// Close releases the client.
func (s *Store) Close(context.Context) error {
	return s.client.Close()
}

// fieldsFromSnapshot reads quantity from raw data so documents written by web clients as
// doubles still decode.
func fieldsFromSnapshot(snap *gfs.DocumentSnapshot) (models.Fields, error) {
	return decodeFields(snap.Ref.ID, snap.Data())
}

func decodeFields(id string, data map[string]any) (models.Fields, error) {
	raw, ok := data[quantityField]
	if !ok {
		return models.Fields{}, fmt.Errorf("document %s has no %s", id, quantityField)
	}

	switch v := raw.(type) {
	case int64:
		return models.Fields{Quantity: int(v)}, nil
	case float64:
		if v != math.Trunc(v) {
			return models.Fields{}, fmt.Errorf("document %s: quantity %v is not an integer", id, v)
		}
		return models.Fields{Quantity: int(v)}, nil
	default:
		return models.Fields{}, fmt.Errorf("document %s: unexpected quantity type %T", id, raw)
	}
}
