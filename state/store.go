package state

import (
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/hupe1980/researchmesh/core"
)

var (
	// ErrUnknownField is returned when an update names a field the schema does not declare.
	ErrUnknownField = errors.New("unknown state field")
	// ErrDuplicateField is returned by NewSchema when two fields share a name.
	ErrDuplicateField = errors.New("duplicate state field")
)

// Update is a partial state update keyed by field name.
type Update map[string]any

// Field declares a named state slot with a default and a merge policy.
// Default is called once per store so mutable defaults are never shared.
type Field struct {
	Name    string
	Default func() any
	Merge   MergeFunc
}

// ReplaceField declares a field using the Replace policy.
func ReplaceField(name string, def any) Field {
	return Field{Name: name, Default: func() any { return def }, Merge: Replace}
}

// AppendField declares a field using the Append policy. newEmpty builds the
// empty slice used as default.
func AppendField(name string, newEmpty func() any) Field {
	return Field{Name: name, Default: newEmpty, Merge: Append}
}

// MessagesField declares a message history field using the Messages policy.
func MessagesField(name string) Field {
	return Field{Name: name, Default: func() any { return []core.Message{} }, Merge: Messages}
}

// Schema is an ordered, immutable set of field declarations.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema validates and builds a schema. A nil Merge defaults to Replace.
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{index: make(map[string]int, len(fields))}

	for _, f := range fields {
		if f.Name == "" {
			return nil, errors.New("state field without name")
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateField, f.Name)
		}
		if f.Merge == nil {
			f.Merge = Replace
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}

	return s, nil
}

// MustSchema is NewSchema that panics on error. Intended for package-level
// schema declarations.
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}

	return s
}

// Fields returns the declared field names in declaration order.
func (s *Schema) Fields() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}

	return names
}

// Has reports whether the schema declares name.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// View is read-only access to state, handed to graph stages.
type View interface {
	Get(name string) (any, bool)
}

// Store holds the current value of every schema field.
type Store struct {
	schema  *Schema
	values  map[string]any
	version int
	mu      sync.RWMutex
}

// NewStore creates a store with every field at its default.
func NewStore(schema *Schema) *Store {
	values := make(map[string]any, len(schema.fields))
	for _, f := range schema.fields {
		var v any
		if f.Default != nil {
			v = f.Default()
		}
		values[f.Name] = v
	}

	return &Store{schema: schema, values: values}
}

// CopyOf creates a store over schema holding the values visible through
// view. Fields the view does not report keep their defaults. It is used to
// give nested work a private copy of a stage's state.
func CopyOf(schema *Schema, view View) *Store {
	s := NewStore(schema)

	for _, f := range schema.fields {
		if v, ok := view.Get(f.Name); ok {
			s.values[f.Name] = v
		}
	}

	return s
}

// Schema returns the store's schema.
func (s *Store) Schema() *Schema { return s.schema }

// Get returns the current value of name.
func (s *Store) Get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[name]

	return v, ok
}

// Version increases by one for every successful Merge or MergeField.
func (s *Store) Version() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.version
}

// MergeField merges a single value into name using the field's policy.
func (s *Store) MergeField(name string, value any) error {
	return s.Merge(Update{name: value})
}

// Merge applies a partial update. Fields are merged in schema order. The
// update is all-or-nothing: if any field fails, the store is unchanged.
func (s *Store) Merge(update Update) error {
	if len(update) == 0 {
		return nil
	}

	for name := range update {
		if !s.schema.Has(name) {
			return fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make(map[string]any, len(update))
	for _, f := range s.schema.fields {
		u, ok := update[f.Name]
		if !ok {
			continue
		}

		v, err := f.Merge(s.values[f.Name], u)
		if err != nil {
			return fmt.Errorf("merge field %s: %w", f.Name, err)
		}
		merged[f.Name] = v
	}

	maps.Copy(s.values, merged)
	s.version++

	return nil
}

// Clone returns an independent store with the same schema and values.
// Merge policies never mutate values in place, so a shallow copy suffices.
func (s *Store) Clone() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make(map[string]any, len(s.values))
	maps.Copy(values, s.values)

	return &Store{schema: s.schema, values: values, version: s.version}
}

// Snapshot returns a shallow copy of all field values.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.values))
	maps.Copy(out, s.values)

	return out
}

// Lookup returns the value of name as T. ok is false when the field is
// missing, nil, or holds another type.
func Lookup[T any](v View, name string) (T, bool) {
	var zero T

	raw, ok := v.Get(name)
	if !ok || raw == nil {
		return zero, false
	}

	t, ok := raw.(T)

	return t, ok
}

// Value returns the value of name as T, or T's zero value.
func Value[T any](v View, name string) T {
	t, _ := Lookup[T](v, name)
	return t
}
