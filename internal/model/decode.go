package model

import (
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"

	"github.com/deppfellow/lodging/internal/errs"
	"github.com/go-viper/mapstructure/v2"
)

// reservedFields are stamped by the repository and never taken from payloads.
var reservedFields = []string{"id", "created_at", "updated_at"}

// Decode builds an entity of kind from a payload map keyed by the entity's
// JSON field names. Absent fields keep their zero value. Numbers and
// strings are converted weakly ("3" → 3, 2.0 → 2; 2.5 into an integer
// field is rejected) and UUIDs are parsed
// from their text form. Unknown or reserved keys fail with a validation
// error.
//
// Decode does not run field validation; see Validate.
func Decode(kind Kind, payload map[string]any) (Entity, error) {
	e, err := New(kind)
	if err != nil {
		return nil, err
	}

	if err := checkReserved(payload); err != nil {
		return nil, err
	}

	if err := decodeInto(e, payload); err != nil {
		return nil, err
	}

	return e, nil
}

// ApplyPatch merges a partial payload into e, touching only the keys
// present. It returns the sorted list of fields the patch named.
//
// "password_hash" is accepted for users so the service layer can pass
// an already hashed password; it is never read from Decode payloads.
func ApplyPatch(e Entity, patch map[string]any) ([]string, error) {
	if err := checkReserved(patch); err != nil {
		return nil, err
	}

	changed := slices.Sorted(maps.Keys(patch))
	rest := patch

	if user, ok := e.(*User); ok {
		if raw, present := patch["password_hash"]; present {
			hash, isString := raw.(string)
			if !isString {
				return nil, errs.NewFieldValidationError("password_hash", "must be a string")
			}
			user.PasswordHash = hash

			rest = maps.Clone(patch)
			delete(rest, "password_hash")
		}
	}

	if err := decodeInto(e, rest); err != nil {
		return nil, err
	}

	return changed, nil
}

func checkReserved(payload map[string]any) error {
	var fieldErrors []errs.FieldError
	for _, field := range reservedFields {
		if _, ok := payload[field]; ok {
			fieldErrors = append(fieldErrors, errs.FieldError{Field: field, Error: "is read-only"})
		}
	}
	if fieldErrors != nil {
		return errs.NewValidationError("Validation failed", fieldErrors)
	}
	return nil
}

func decodeInto(e Entity, payload map[string]any) error {
	if len(payload) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			wholeNumberHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
		),
		ErrorUnused:      true,
		Squash:           true,
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           e,
	})
	if err != nil {
		return fmt.Errorf("building %s decoder: %w", e.Kind(), err)
	}

	if err := decoder.Decode(payload); err != nil {
		return errs.Wrap(errs.NewValidationError(fmt.Sprintf("invalid %s payload: %v", e.Kind(), err), nil), err)
	}

	return nil
}

// wholeNumberHookFunc refuses to truncate fractional floats into integer
// fields; weak typing would otherwise turn 2.7 into 2.
func wholeNumberHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		switch to.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		default:
			return data, nil
		}

		var f float64
		switch from.Kind() {
		case reflect.Float32, reflect.Float64:
			f = reflect.ValueOf(data).Float()
		default:
			return data, nil
		}

		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return nil, fmt.Errorf("%v is not a whole number", data)
		}
		return data, nil
	}
}
