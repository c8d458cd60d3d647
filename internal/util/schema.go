package util

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ValidationError names the field and constraint a value violated.
type ValidationError struct {
	Field      string `json:"field"`                // Dotted path of the offending field
	Constraint string `json:"constraint,omitempty"` // Violated keyword (required, type, minItems, ...)
	Value      any    `json:"value"`                // Value that was provided
	Message    string `json:"message"`              // Human-readable error message
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// CreateSchema creates a JSON schema from a Go struct using reflection.
//
// Supported struct tags besides json:
//
//	description:"..."   field description shown to models
//	minLength:"1"       minimum string length (whitespace-only counts as empty)
//	minItems / maxItems bounds on slice length
//	minimum / maximum   numeric bounds
//	enum:"a,b,c"        allowed string values
//
// Nested structs and slices of structs produce nested object schemas.
func CreateSchema(structType any) map[string]any {
	t := reflect.TypeOf(structType)
	if t == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	return objectSchema(t)
}

func objectSchema(t reflect.Type) map[string]any {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
	}

	properties := make(map[string]any)
	required := make([]string, 0)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		fieldName := field.Name
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				fieldName = parts[0]
			}
		}

		fieldSchema := typeSchema(field.Type)
		applyConstraintTags(fieldSchema, field.Tag)
		properties[fieldName] = fieldSchema

		if !hasOmitEmpty(jsonTag) && !isPointer(field.Type) {
			required = append(required, fieldName)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

func typeSchema(t reflect.Type) map[string]any {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
		return objectSchema(t)
	case reflect.Slice, reflect.Array:
		return map[string]any{
			"type":  "array",
			"items": typeSchema(t.Elem()),
		}
	default:
		return map[string]any{"type": getJSONType(t)}
	}
}

func applyConstraintTags(schema map[string]any, tag reflect.StructTag) {
	if description := tag.Get("description"); description != "" {
		schema["description"] = description
	}

	for _, key := range []string{"minLength", "minItems", "maxItems"} {
		if v := tag.Get(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				schema[key] = n
			}
		}
	}

	for _, key := range []string{"minimum", "maximum"} {
		if v := tag.Get(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				schema[key] = f
			}
		}
	}

	if v := tag.Get("enum"); v != "" {
		values := strings.Split(v, ",")
		enum := make([]any, len(values))
		for i, e := range values {
			enum[i] = strings.TrimSpace(e)
		}
		schema["enum"] = enum
	}
}

// ValidateParameters validates parameters against a JSON schema. Nested
// objects and array items are validated recursively; the first violation is
// returned as *ValidationError with a dotted field path.
func ValidateParameters(params map[string]any, schema map[string]any) error {
	return validateObject("", params, schema)
}

func validateObject(path string, params map[string]any, schema map[string]any) error {
	for _, fieldName := range requiredFields(schema["required"]) {
		if _, exists := params[fieldName]; !exists {
			return &ValidationError{
				Field:      joinPath(path, fieldName),
				Constraint: "required",
				Message:    "required field is missing",
			}
		}
	}

	properties, _ := schema["properties"].(map[string]any)
	for fieldName, value := range params {
		propMap, ok := properties[fieldName].(map[string]any)
		if !ok {
			continue // Allow extra fields
		}

		if err := validateValue(joinPath(path, fieldName), value, propMap); err != nil {
			return err
		}
	}

	return nil
}

func validateValue(path string, value any, schema map[string]any) error {
	expectedType, _ := schema["type"].(string)
	if !isValidType(value, expectedType) {
		return &ValidationError{
			Field:      path,
			Constraint: "type",
			Value:      value,
			Message:    fmt.Sprintf("expected type %s, got %T", expectedType, value),
		}
	}

	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case string:
		if n, ok := toFloat(schema["minLength"]); ok && float64(utf8.RuneCountInString(strings.TrimSpace(v))) < n {
			return &ValidationError{Field: path, Constraint: "minLength", Value: v, Message: fmt.Sprintf("must be at least %d characters", int(n))}
		}
		if enum, ok := schema["enum"].([]any); ok && len(enum) > 0 && !containsValue(enum, v) {
			return &ValidationError{Field: path, Constraint: "enum", Value: v, Message: fmt.Sprintf("must be one of %v", enum)}
		}
	case []any:
		if n, ok := toFloat(schema["minItems"]); ok && float64(len(v)) < n {
			return &ValidationError{Field: path, Constraint: "minItems", Value: len(v), Message: fmt.Sprintf("must contain at least %d items, got %d", int(n), len(v))}
		}
		if n, ok := toFloat(schema["maxItems"]); ok && float64(len(v)) > n {
			return &ValidationError{Field: path, Constraint: "maxItems", Value: len(v), Message: fmt.Sprintf("must contain at most %d items, got %d", int(n), len(v))}
		}
		if items, ok := schema["items"].(map[string]any); ok {
			for i, item := range v {
				if err := validateValue(fmt.Sprintf("%s[%d]", path, i), item, items); err != nil {
					return err
				}
			}
		}
	case map[string]any:
		if _, hasProps := schema["properties"]; hasProps {
			return validateObject(path, v, schema)
		}
	default:
		if f, ok := toFloat(v); ok {
			if n, ok := toFloat(schema["minimum"]); ok && f < n {
				return &ValidationError{Field: path, Constraint: "minimum", Value: v, Message: fmt.Sprintf("must be >= %v", n)}
			}
			if n, ok := toFloat(schema["maximum"]); ok && f > n {
				return &ValidationError{Field: path, Constraint: "maximum", Value: v, Message: fmt.Sprintf("must be <= %v", n)}
			}
		}
	}

	return nil
}

// requiredFields accepts both []string (reflected schemas) and []any
// (schemas decoded from JSON).
func requiredFields(v any) []string {
	switch req := v.(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}

	return parent + "." + child
}

func containsValue(enum []any, v string) bool {
	for _, e := range enum {
		if s, ok := e.(string); ok && s == v {
			return true
		}
	}

	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// getJSONType returns the JSON schema type for a given Go type.
func getJSONType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return getJSONType(t.Elem())
	default:
		return "string"
	}
}

// hasOmitEmpty checks if a JSON tag has the "omitempty" option.
func hasOmitEmpty(tag string) bool {
	parts := strings.Split(tag, ",")
	for _, part := range parts[1:] {
		if strings.TrimSpace(part) == "omitempty" {
			return true
		}
	}
	return false
}

// isPointer checks if a type is a pointer.
func isPointer(t reflect.Type) bool {
	return t.Kind() == reflect.Ptr
}

// isValidType checks if a value is valid according to the expected JSON schema type.
func isValidType(value any, expectedType string) bool {
	if value == nil {
		return true // nil is valid for any type
	}

	switch expectedType {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64: // JSON unmarshaling often produces float64 for numbers
			return v == float64(int64(v))
		}
		return false
	case "number":
		_, ok := toFloat(value)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true // Unknown types are assumed valid
	}
}
