package mapping

import (
	"encoding"
	"fmt"
	"reflect"
	"time"

	json "github.com/goccy/go-json"

	"github.com/scopekit/scopekit/internal/naming"
	scopekitErrors "github.com/scopekit/scopekit/pkg/errors"
)

var (
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	timeType          = reflect.TypeFor[time.Time]()
)

// Encode marshals a value the way Map reads it back: `json` tags win and
// untagged exported fields use their camelCase document name, so
// Map(Encode(v)) round-trips.
func Encode(v any) ([]byte, error) {
	tree, err := encodeValue(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}

// encodeValue lowers a Go value into a JSON-ready tree, applying the field
// name convention at every struct it passes through.
func encodeValue(rv reflect.Value) (any, error) {
	if !rv.IsValid() {
		return nil, nil
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return encodeValue(rv.Elem())

	case reflect.Struct:
		if rv.Type() == timeType {
			return rv.Interface().(time.Time).Format(time.RFC3339Nano), nil
		}
		// Self-marshaling types keep their own representation
		if rv.Type().Implements(jsonMarshalerType) || rv.Type().Implements(textMarshalerType) {
			return rv.Interface(), nil
		}
		return encodeStruct(rv)

	case reflect.Map:
		if rv.IsNil() {
			return nil, nil
		}
		if rv.Type().Key().Kind() != reflect.String {
			return nil, scopekitErrors.NewMappingError(rv.Type().String(), "", fmt.Errorf("%w: map keys must be strings", scopekitErrors.ErrNotConstructible))
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			encoded, err := encodeValue(iter.Value())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = encoded
		}
		return out, nil

	case reflect.Slice:
		if rv.IsNil() {
			return nil, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			// []byte keeps the codec's base64 form
			return rv.Interface(), nil
		}
		return encodeSequence(rv)

	case reflect.Array:
		return encodeSequence(rv)

	default:
		return rv.Interface(), nil
	}
}

func encodeStruct(rv reflect.Value) (map[string]any, error) {
	t := rv.Type()
	out := make(map[string]any, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, omitEmpty, skip := naming.JSONFieldName(field)
		if skip {
			continue
		}

		value := rv.Field(i)

		// Untagged embedded structs flatten into the parent document
		if field.Anonymous && field.Tag.Get("json") == "" {
			embedded := value
			for embedded.Kind() == reflect.Pointer {
				if embedded.IsNil() {
					embedded = reflect.Value{}
					break
				}
				embedded = embedded.Elem()
			}
			if embedded.IsValid() && embedded.Kind() == reflect.Struct && embedded.Type() != timeType {
				flattened, err := encodeStruct(embedded)
				if err != nil {
					return nil, err
				}
				for k, v := range flattened {
					if _, taken := out[k]; !taken {
						out[k] = v
					}
				}
				continue
			}
		}

		if omitEmpty && isEmptyValue(value) {
			continue
		}

		encoded, err := encodeValue(value)
		if err != nil {
			return nil, err
		}
		out[name] = encoded
	}

	return out, nil
}

func encodeSequence(rv reflect.Value) ([]any, error) {
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		encoded, err := encodeValue(rv.Index(i))
		if err != nil {
			return nil, err
		}
		out[i] = encoded
	}
	return out, nil
}

// isEmptyValue matches the omitempty semantics of encoding/json.
func isEmptyValue(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return rv.Len() == 0
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
