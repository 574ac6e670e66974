// Package scopekit is a convenience layer over Couchbase N1QL queries:
// fluent parameterized filters, offset pagination with optional concurrent
// total counts, and JSON document mapping with fixed conventions.
//
// Import path:
//
//	import "github.com/scopekit/scopekit"
//
// Implementation lives in `internal/scopedb` so the repo root stays minimal.
package scopekit

import (
	internalscopedb "github.com/scopekit/scopekit/internal/scopedb"
	"github.com/scopekit/scopekit/pkg/core"
	"github.com/scopekit/scopekit/pkg/filter"
	"github.com/scopekit/scopekit/pkg/page"
	"github.com/scopekit/scopekit/pkg/session"
)

type (
	DB     = internalscopedb.DB
	Option = internalscopedb.Option

	// Re-export types for convenience.
	Config          = session.Config
	CouchbaseConfig = session.CouchbaseConfig
	Session         = session.Session
	Filter          = filter.Filter
	KeyValueStore   = core.KeyValueStore
	Request         = page.Request
	PageConfig      = page.Config
	Page[T any]     = page.Page[T]
)

// Re-export DB options for convenience.
var (
	WithLogger            = internalscopedb.WithLogger
	WithReadonlyQueries   = internalscopedb.WithReadonlyQueries
	WithReadYourOwnWrites = internalscopedb.WithReadYourOwnWrites
)

// Connect validates the configuration, opens a session and returns a ready
// DB.
func Connect(cfg *Config, opts ...Option) (*DB, error) {
	return internalscopedb.New(cfg, opts...)
}

// ConnectWithSession wires a DB on top of an already open session.
func ConnectWithSession(sess *Session, opts ...Option) (*DB, error) {
	return internalscopedb.NewWithSession(sess, opts...)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return session.DefaultConfig()
}

// LoadConfig builds a configuration from defaults, an optional YAML file and
// SCOPEKIT_* environment variables. An empty path skips the file layer.
func LoadConfig(path string) (*Config, error) {
	return session.Load(path)
}

// NewFilter starts an empty fluent filter.
func NewFilter() *Filter {
	return filter.New()
}
