package tool

import (
	"errors"
	"fmt"
)

var (
	// ErrToolNotFound is returned by Registry.Lookup for undeclared names.
	ErrToolNotFound = errors.New("tool not found")
	// ErrDuplicateTool is returned by NewRegistry when two tools share a name.
	ErrDuplicateTool = errors.New("duplicate tool name")
)

// Definition is the model-facing declaration of a tool.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Registry is a closed, ordered set of tools resolved once at construction.
// It is read-only afterwards and safe for concurrent use.
type Registry struct {
	tools []Tool
	index map[string]Tool
}

// NewRegistry builds a registry. Empty or duplicate names are rejected.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{index: make(map[string]Tool, len(tools))}

	for _, t := range tools {
		if t == nil {
			return nil, errors.New("nil tool")
		}

		name := t.Name()
		if name == "" {
			return nil, errors.New("tool without name")
		}

		if _, dup := r.index[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTool, name)
		}

		r.index[name] = t
		r.tools = append(r.tools, t)
	}

	return r, nil
}

// MustRegistry is NewRegistry that panics on error.
func MustRegistry(tools ...Tool) *Registry {
	r, err := NewRegistry(tools...)
	if err != nil {
		panic(err)
	}

	return r
}

// Lookup resolves a tool by name.
func (r *Registry) Lookup(name string) (Tool, error) {
	t, ok := r.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	return t, nil
}

// Has reports whether a tool with name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Name()
	}

	return names
}

// Definitions returns the model-facing declarations in registration order.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, len(r.tools))
	for i, t := range r.tools {
		defs[i] = Definition{Name: t.Name(), Description: t.Description(), Parameters: t.Parameters()}
	}

	return defs
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }
