package scopedb

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchbase/gocb/v2"

	scopekitErrors "github.com/scopekit/scopekit/pkg/errors"
)

// rawJSON stores and fetches documents as raw JSON bytes, leaving encoding
// decisions to the mapping layer.
var rawJSON = gocb.NewRawJSONTranscoder()

// Store is the key-value surface of one collection.
type Store struct {
	collection *gocb.Collection
}

// NewStore wraps a collection handle.
func NewStore(collection *gocb.Collection) *Store {
	return &Store{collection: collection}
}

// Get returns the raw document payload.
func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	res, err := s.collection.Get(id, &gocb.GetOptions{Context: ctx, Transcoder: rawJSON})
	if err != nil {
		return nil, translateKVError("get", id, err)
	}

	var payload []byte
	if err := res.Content(&payload); err != nil {
		return nil, translateKVError("get", id, err)
	}
	return payload, nil
}

// Insert stores a new document and fails if the ID is taken.
func (s *Store) Insert(ctx context.Context, id string, payload []byte) error {
	_, err := s.collection.Insert(id, payload, &gocb.InsertOptions{Context: ctx, Transcoder: rawJSON})
	return translateKVError("insert", id, err)
}

// Replace overwrites an existing document and fails if it is missing.
func (s *Store) Replace(ctx context.Context, id string, payload []byte) error {
	_, err := s.collection.Replace(id, payload, &gocb.ReplaceOptions{Context: ctx, Transcoder: rawJSON})
	return translateKVError("replace", id, err)
}

// Upsert stores a document regardless of whether it already exists.
func (s *Store) Upsert(ctx context.Context, id string, payload []byte) error {
	_, err := s.collection.Upsert(id, payload, &gocb.UpsertOptions{Context: ctx, Transcoder: rawJSON})
	return translateKVError("upsert", id, err)
}

// Remove deletes a document and fails if it is missing.
func (s *Store) Remove(ctx context.Context, id string) error {
	_, err := s.collection.Remove(id, &gocb.RemoveOptions{Context: ctx})
	return translateKVError("remove", id, err)
}

// Exists reports whether a document with the ID is present.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	res, err := s.collection.Exists(id, &gocb.ExistsOptions{Context: ctx})
	if err != nil {
		return false, translateKVError("exists", id, err)
	}
	return res.Exists(), nil
}

// translateKVError maps SDK sentinels onto the package's own so callers can
// use errors.Is without importing gocb. Other errors keep the op and ID
// annotation only.
func translateKVError(op, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gocb.ErrDocumentNotFound):
		return fmt.Errorf("%s %q: %w", op, id, scopekitErrors.ErrDocumentNotFound)
	case errors.Is(err, gocb.ErrDocumentExists):
		return fmt.Errorf("%s %q: %w", op, id, scopekitErrors.ErrDocumentExists)
	default:
		return fmt.Errorf("%s %q: %w", op, id, err)
	}
}
