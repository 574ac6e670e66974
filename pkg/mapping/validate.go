package mapping

import (
	"fmt"
	"reflect"

	scopekitErrors "github.com/scopekit/scopekit/pkg/errors"
)

// ValidateType reports whether Map can populate a T: after pointer
// indirection it must be a struct with at least one exported field, or a
// string-keyed map. Wire-up code calls this once per mapped type to fail
// fast at startup instead of at the first decode.
func ValidateType[T any]() error {
	t := reflect.TypeFor[T]()

	base := t
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}

	switch base.Kind() {
	case reflect.Struct:
		for i := 0; i < base.NumField(); i++ {
			if base.Field(i).IsExported() {
				return nil
			}
		}
		return scopekitErrors.NewMappingError(t.String(), "", fmt.Errorf("%w: struct has no exported fields", scopekitErrors.ErrNotConstructible))
	case reflect.Map:
		if base.Key().Kind() == reflect.String {
			return nil
		}
		return scopekitErrors.NewMappingError(t.String(), "", fmt.Errorf("%w: map keys must be strings", scopekitErrors.ErrNotConstructible))
	default:
		return scopekitErrors.NewMappingError(t.String(), "", fmt.Errorf("%w: kind %s is not mappable", scopekitErrors.ErrNotConstructible, base.Kind()))
	}
}
