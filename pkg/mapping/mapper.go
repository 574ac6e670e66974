// Package mapping converts raw JSON documents into typed Go values.
//
// The conventions are fixed rather than configurable: document keys match
// struct fields case-insensitively, untagged fields map to their camelCase
// name, numbers are accepted from JSON strings, timestamps are RFC 3339
// strings, and enumerations round-trip by name through string-typed
// constants. `json` struct tags override the name convention per field.
package mapping

import (
	"bytes"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
	json "github.com/goccy/go-json"

	scopekitErrors "github.com/scopekit/scopekit/pkg/errors"
)

var nullPayload = []byte("null")

// Map decodes a raw JSON payload into a freshly allocated T. A null or
// blank payload yields (nil, nil) so "no document" flows through without a
// sentinel check; malformed JSON and convention violations surface as a
// *errors.MappingError.
func Map[T any](payload []byte) (*T, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, nullPayload) {
		return nil, nil
	}

	var tree any
	if err := json.Unmarshal(trimmed, &tree); err != nil {
		return nil, scopekitErrors.NewMappingError(typeName[T](), "", err)
	}

	return MapValue[T](tree)
}

// MapString decodes a JSON payload held in a string.
func MapString[T any](payload string) (*T, error) {
	return Map[T]([]byte(payload))
}

// MapValue applies the decode conventions to an already-parsed JSON tree,
// as produced by the query result stream. A nil tree yields (nil, nil).
func MapValue[T any](tree any) (*T, error) {
	if tree == nil {
		return nil, nil
	}

	out := new(T)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return nil, scopekitErrors.NewMappingError(typeName[T](), "", err)
	}

	if err := decoder.Decode(tree); err != nil {
		return nil, scopekitErrors.NewMappingError(typeName[T](), "", err)
	}
	return out, nil
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
