package scopekit

import (
	"context"

	"github.com/google/uuid"

	"github.com/scopekit/scopekit/pkg/core"
	scopekitErrors "github.com/scopekit/scopekit/pkg/errors"
	"github.com/scopekit/scopekit/pkg/mapping"
)

// GetDocument fetches a document by ID and maps it into T. A missing
// document returns nil with no error; that translation happens only here,
// mutating operations keep their not-found errors.
func GetDocument[T any](ctx context.Context, store core.KeyValueStore, id string) (*T, error) {
	payload, err := store.Get(ctx, id)
	if err != nil {
		if scopekitErrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return mapping.Map[T](payload)
}

// InsertDocument encodes doc and stores it under id, generating a UUID when
// id is empty. The stored ID is returned either way.
func InsertDocument(ctx context.Context, store core.KeyValueStore, id string, doc any) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}

	payload, err := mapping.Encode(doc)
	if err != nil {
		return "", err
	}
	if err := store.Insert(ctx, id, payload); err != nil {
		return "", err
	}
	return id, nil
}

// ReplaceDocument encodes doc and overwrites the document under id; it
// fails if the document is missing.
func ReplaceDocument(ctx context.Context, store core.KeyValueStore, id string, doc any) error {
	payload, err := mapping.Encode(doc)
	if err != nil {
		return err
	}
	return store.Replace(ctx, id, payload)
}

// UpsertDocument encodes doc and stores it under id regardless of whether
// the document exists.
func UpsertDocument(ctx context.Context, store core.KeyValueStore, id string, doc any) error {
	payload, err := mapping.Encode(doc)
	if err != nil {
		return err
	}
	return store.Upsert(ctx, id, payload)
}

// RemoveDocument deletes the document under id; it fails if the document is
// missing.
func RemoveDocument(ctx context.Context, store core.KeyValueStore, id string) error {
	return store.Remove(ctx, id)
}

// DocumentExists reports whether a document with the ID is present.
func DocumentExists(ctx context.Context, store core.KeyValueStore, id string) (bool, error) {
	return store.Exists(ctx, id)
}
