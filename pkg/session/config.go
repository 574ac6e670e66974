// Package session manages Couchbase cluster configuration and connections.
//
// Configuration is layered: struct defaults, then an optional YAML file,
// then SCOPEKIT_* environment variables, each layer overriding the one
// below it.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	scopekitErrors "github.com/scopekit/scopekit/pkg/errors"
	"github.com/scopekit/scopekit/pkg/page"
)

// EnvPrefix is the prefix shared by all configuration environment variables.
const EnvPrefix = "SCOPEKIT_"

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Config holds everything needed to open a session.
type Config struct {
	Couchbase CouchbaseConfig `koanf:"couchbase" yaml:"couchbase"`
	Pages     page.Config     `koanf:"pages" yaml:"pages"`
}

// CouchbaseConfig describes the cluster, the bucket to open and the scope
// queries run against. An empty Scope selects the bucket's default scope.
type CouchbaseConfig struct {
	ConnectionString string        `koanf:"connection_string" yaml:"connection_string" validate:"required"`
	Username         string        `koanf:"username" yaml:"username" validate:"required"`
	Password         string        `koanf:"password" yaml:"password" validate:"required"`
	Bucket           string        `koanf:"bucket" yaml:"bucket" validate:"required"`
	Scope            string        `koanf:"scope" yaml:"scope"`
	ConnectTimeout   time.Duration `koanf:"connect_timeout" yaml:"connect_timeout" validate:"gte=0"`
	QueryTimeout     time.Duration `koanf:"query_timeout" yaml:"query_timeout" validate:"gte=0"`
	KVTimeout        time.Duration `koanf:"kv_timeout" yaml:"kv_timeout" validate:"gte=0"`
}

// DefaultConfig returns the default configuration. The timeouts match the
// SDK's own defaults.
func DefaultConfig() *Config {
	return &Config{
		Couchbase: CouchbaseConfig{
			ConnectionString: "couchbase://127.0.0.1",
			Scope:            "",
			ConnectTimeout:   10 * time.Second,
			QueryTimeout:     75 * time.Second,
			KVTimeout:        2500 * time.Millisecond,
		},
		Pages: page.DefaultConfig(),
	}
}

// Load builds a Config from the layered sources. An empty path skips the
// file layer; a non-empty path must point at a readable YAML file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("%w: loading defaults: %v", scopekitErrors.ErrInvalidConfig, err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: loading %s: %v", scopekitErrors.ErrInvalidConfig, path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("%w: loading environment: %v", scopekitErrors.ErrInvalidConfig, err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling: %v", scopekitErrors.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// envTransform maps SCOPEKIT_* variables onto config paths. Unknown
// variables map to "" and are skipped, so unrelated environment noise can
// not leak into the configuration.
func envTransform(key string) string {
	mappings := map[string]string{
		"SCOPEKIT_CONNECTION_STRING": "couchbase.connection_string",
		"SCOPEKIT_USERNAME":          "couchbase.username",
		"SCOPEKIT_PASSWORD":          "couchbase.password",
		"SCOPEKIT_BUCKET":            "couchbase.bucket",
		"SCOPEKIT_SCOPE":             "couchbase.scope",
		"SCOPEKIT_CONNECT_TIMEOUT":   "couchbase.connect_timeout",
		"SCOPEKIT_QUERY_TIMEOUT":     "couchbase.query_timeout",
		"SCOPEKIT_KV_TIMEOUT":        "couchbase.kv_timeout",
		"SCOPEKIT_PAGE_DEFAULT_SIZE": "pages.default_size",
		"SCOPEKIT_PAGE_MAX_SIZE":     "pages.max_size",
	}

	if mapped, ok := mappings[key]; ok {
		return mapped
	}
	return ""
}

// Validate checks the configuration against its struct tags. It is called
// by NewSession; standalone use is handy for fail-fast startup checks.
func (c *Config) Validate() error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", scopekitErrors.ErrInvalidConfig, err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", scopekitErrors.ErrInvalidConfig, strings.Join(messages, "; "))
}

// DumpYAML renders the configuration as YAML with the password masked, for
// startup logging.
func (c *Config) DumpYAML() (string, error) {
	masked := *c
	if masked.Couchbase.Password != "" {
		masked.Couchbase.Password = "********"
	}

	out, err := yamlv3.Marshal(&masked)
	if err != nil {
		return "", fmt.Errorf("%w: rendering: %v", scopekitErrors.ErrInvalidConfig, err)
	}
	return string(out), nil
}
