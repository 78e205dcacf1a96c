package parse

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/kaptinlin/jsonrepair"
)

// StringAs parses a string into the target type T. Primitive targets use
// direct conversion; structs, maps and slices go through JSON unmarshaling
// with a jsonrepair retry for malformed payloads.
//
// StringAs is idempotent with respect to JSON round-trips: content produced
// by marshaling a T decodes back to an equal T.
func StringAs[T any](content string) (T, error) {
	var result T

	switch reflect.TypeFor[T]().Kind() {
	case reflect.String:
		reflect.ValueOf(&result).Elem().SetString(content)
		return result, nil

	case reflect.Bool:
		v, err := strconv.ParseBool(content)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as bool: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetBool(v)
		return result, nil

	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(content, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as float: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetFloat(v)
		return result, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(content, 10, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as int: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetInt(v)
		return result, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(content, 10, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as uint: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetUint(v)
		return result, nil

	default:
		if err := json.Unmarshal([]byte(content), &result); err != nil {
			repaired, repairErr := jsonrepair.JSONRepair(content)
			if repairErr != nil {
				return result, fmt.Errorf(
					"failed to unmarshal content as %T and failed to repair JSON: unmarshal error: %w, repair error: %v",
					result, err, repairErr)
			}
			if err := json.Unmarshal([]byte(repaired), &result); err != nil {
				return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w", result, err)
			}
		}
		return result, nil
	}
}

// AnyJSON decodes content into generic JSON values (map[string]any,
// []any, primitives), repairing malformed payloads when possible. Returns an
// error only when the payload cannot be decoded even after repair.
func AnyJSON(content string) (any, error) {
	var value any
	if err := json.Unmarshal([]byte(content), &value); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(content)
		if repairErr != nil {
			return nil, fmt.Errorf("failed to decode JSON content: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &value); err != nil {
			return nil, fmt.Errorf("failed to decode repaired JSON content: %w", err)
		}
	}
	return value, nil
}
