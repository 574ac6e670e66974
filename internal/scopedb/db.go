package scopedb

import (
	"github.com/rs/zerolog"

	"github.com/scopekit/scopekit/pkg/core"
	"github.com/scopekit/scopekit/pkg/page"
	"github.com/scopekit/scopekit/pkg/query"
	"github.com/scopekit/scopekit/pkg/session"
)

// DB is a connected scopekit instance: one session plus the query executor
// bound to its scope. It is safe for concurrent use.
type DB struct {
	session    *session.Session
	executor   *query.Executor
	logger     zerolog.Logger
	runnerOpts []RunnerOption
}

// Option configures a DB.
type Option func(*DB)

// WithLogger attaches a logger to the DB and its executor; the default
// discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(db *DB) {
		db.logger = logger
	}
}

// WithReadonlyQueries marks every statement the executor issues as
// read-only.
func WithReadonlyQueries() Option {
	return func(db *DB) {
		db.runnerOpts = append(db.runnerOpts, Readonly())
	}
}

// WithReadYourOwnWrites runs every query at request_plus scan consistency,
// so queries observe the mutations issued before them.
func WithReadYourOwnWrites() Option {
	return func(db *DB) {
		db.runnerOpts = append(db.runnerOpts, RequestPlus())
	}
}

// New connects a session from the configuration and wires the executor.
func New(cfg *session.Config, opts ...Option) (*DB, error) {
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}

	db, err := NewWithSession(sess, opts...)
	if err != nil {
		_ = sess.Close()
		return nil, err
	}
	return db, nil
}

// NewWithSession wires a DB on top of an already connected session.
func NewWithSession(sess *session.Session, opts ...Option) (*DB, error) {
	scope, err := sess.Scope()
	if err != nil {
		return nil, err
	}

	db := &DB{
		session: sess,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(db)
	}
	db.executor = query.NewExecutor(NewRunner(scope, db.runnerOpts...), query.WithLogger(db.logger))
	return db, nil
}

// Executor returns the query executor bound to the session's scope.
func (db *DB) Executor() *query.Executor {
	return db.executor
}

// Session returns the underlying session.
func (db *DB) Session() *session.Session {
	return db.session
}

// Collection returns the key-value surface of a collection in the session's
// scope. An empty name selects the default collection.
func (db *DB) Collection(name string) (core.KeyValueStore, error) {
	col, err := db.session.Collection(name)
	if err != nil {
		return nil, err
	}
	return NewStore(col), nil
}

// PageRequest builds a page request, normalizing the size against the
// configured default and cap. The page number passes through; validation
// happens when the request is executed.
func (db *DB) PageRequest(number, size int) page.Request {
	return page.Request{
		Number: number,
		Size:   db.session.Config().Pages.Effective(size),
	}
}

// Close shuts down the underlying session.
func (db *DB) Close() error {
	return db.session.Close()
}
