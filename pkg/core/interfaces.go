// Package core defines the core interfaces and types for scopekit
package core

import "context"

// QueryRunner executes a single N1QL statement with named parameters bound
// server-side. The production implementation wraps a Couchbase scope; tests
// substitute mocks.
type QueryRunner interface {
	// RunQuery issues the statement and returns a reader over its rows
	RunQuery(ctx context.Context, statement string, params map[string]any) (ResultReader, error)
}

// ResultReader iterates the rows of a query result. It mirrors the SDK's
// streaming surface: Next advances, Row decodes the current row, Err reports
// a streaming failure once iteration stops, Close releases the stream.
type ResultReader interface {
	Next() bool
	Row(valuePtr any) error
	Err() error
	Close() error
}

// KeyValueStore is the key-value surface of a collection: raw JSON documents
// addressed by ID. Implementations translate the SDK's missing-document
// error into errors.ErrDocumentNotFound.
type KeyValueStore interface {
	// Get returns the raw document payload
	Get(ctx context.Context, id string) ([]byte, error)

	// Insert stores a new document and fails if the ID is taken
	Insert(ctx context.Context, id string, payload []byte) error

	// Replace overwrites an existing document and fails if it is missing
	Replace(ctx context.Context, id string, payload []byte) error

	// Upsert stores a document regardless of whether it already exists
	Upsert(ctx context.Context, id string, payload []byte) error

	// Remove deletes a document and fails if it is missing
	Remove(ctx context.Context, id string) error

	// Exists reports whether a document with the ID is present
	Exists(ctx context.Context, id string) (bool, error)
}
