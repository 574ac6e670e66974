package session

import (
	"context"
	"fmt"

	"github.com/couchbase/gocb/v2"
)

// Session holds an open cluster connection plus the bucket and scope handles
// every query and key-value operation goes through. It is safe for
// concurrent use; the SDK handles connection multiplexing internally.
type Session struct {
	config  *Config
	cluster *gocb.Cluster
	bucket  *gocb.Bucket
	scope   *gocb.Scope
}

// NewSession validates the configuration, connects to the cluster and waits
// for the bucket to come up. A nil config uses defaults, which will fail
// validation until credentials and a bucket name are set.
func NewSession(cfg *Config) (*Session, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cb := cfg.Couchbase
	cluster, err := gocb.Connect(cb.ConnectionString, gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: cb.Username,
			Password: cb.Password,
		},
		TimeoutsConfig: gocb.TimeoutsConfig{
			ConnectTimeout: cb.ConnectTimeout,
			QueryTimeout:   cb.QueryTimeout,
			KVTimeout:      cb.KVTimeout,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cluster: %w", err)
	}

	bucket := cluster.Bucket(cb.Bucket)
	if err := bucket.WaitUntilReady(cb.ConnectTimeout, nil); err != nil {
		_ = cluster.Close(nil)
		return nil, fmt.Errorf("bucket %q not ready: %w", cb.Bucket, err)
	}

	scope := bucket.DefaultScope()
	if cb.Scope != "" {
		scope = bucket.Scope(cb.Scope)
	}

	return &Session{
		config:  cfg,
		cluster: cluster,
		bucket:  bucket,
		scope:   scope,
	}, nil
}

// Cluster returns the underlying cluster handle.
func (s *Session) Cluster() (*gocb.Cluster, error) {
	if s == nil || s.cluster == nil {
		return nil, fmt.Errorf("session is not connected")
	}
	return s.cluster, nil
}

// Bucket returns the opened bucket handle.
func (s *Session) Bucket() (*gocb.Bucket, error) {
	if s == nil || s.bucket == nil {
		return nil, fmt.Errorf("session is not connected")
	}
	return s.bucket, nil
}

// Scope returns the scope queries run against.
func (s *Session) Scope() (*gocb.Scope, error) {
	if s == nil || s.scope == nil {
		return nil, fmt.Errorf("session is not connected")
	}
	return s.scope, nil
}

// Collection returns a collection handle within the session's scope. An
// empty name selects the default collection.
func (s *Session) Collection(name string) (*gocb.Collection, error) {
	scope, err := s.Scope()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = "_default"
	}
	return scope.Collection(name), nil
}

// EnsurePrimaryIndex creates a primary index on a collection in the
// session's scope when none exists yet, so ad hoc N1QL works on a fresh
// bucket. An empty name targets the default collection. Already-indexed
// collections are left alone.
func (s *Session) EnsurePrimaryIndex(ctx context.Context, collection string) error {
	cluster, err := s.Cluster()
	if err != nil {
		return err
	}

	opts := &gocb.CreatePrimaryQueryIndexOptions{
		IgnoreIfExists: true,
		Context:        ctx,
	}
	cb := s.config.Couchbase
	if cb.Scope != "" || collection != "" {
		opts.ScopeName = cb.Scope
		opts.CollectionName = collection
		if opts.ScopeName == "" {
			opts.ScopeName = "_default"
		}
		if opts.CollectionName == "" {
			opts.CollectionName = "_default"
		}
	}

	if err := cluster.QueryIndexes().CreatePrimaryIndex(cb.Bucket, opts); err != nil {
		return fmt.Errorf("create primary index on %q: %w", cb.Bucket, err)
	}
	return nil
}

// Config returns the session configuration.
func (s *Session) Config() *Config {
	if s == nil {
		return nil
	}
	return s.config
}

// Close shuts down the cluster connection and invalidates all handles.
func (s *Session) Close() error {
	if s == nil || s.cluster == nil {
		return nil
	}
	return s.cluster.Close(nil)
}
