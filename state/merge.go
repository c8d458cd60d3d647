package state

import (
	"fmt"
	"reflect"

	"github.com/hupe1980/researchmesh/core"
)

// MergeFunc combines the current value of a field with an incoming update.
// Implementations must be pure: they may not mutate current or update.
type MergeFunc func(current, update any) (any, error)

// Override tags an update for a Messages field so that it replaces the
// accumulated history instead of being appended to it.
type Override struct {
	Value []core.Message
}

// Replace returns the update unchanged.
func Replace(_, update any) (any, error) { return update, nil }

// Append concatenates slice values, preserving arrival order. A non-slice
// update is appended as a single element. The result is always a freshly
// allocated slice so stores cloned earlier never observe the change.
func Append(current, update any) (any, error) {
	if update == nil {
		return current, nil
	}

	uv := reflect.ValueOf(update)
	if current == nil {
		if uv.Kind() == reflect.Slice {
			return copySlice(uv).Interface(), nil
		}
		s := reflect.MakeSlice(reflect.SliceOf(uv.Type()), 0, 1)
		return reflect.Append(s, uv).Interface(), nil
	}

	cv := reflect.ValueOf(current)
	if cv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("append: current value is %T, not a slice", current)
	}

	out := reflect.MakeSlice(cv.Type(), 0, cv.Len()+sliceLen(uv))
	out = reflect.AppendSlice(out, cv)

	switch {
	case uv.Kind() == reflect.Slice && uv.Type().AssignableTo(cv.Type()):
		out = reflect.AppendSlice(out, uv)
	case uv.Type().AssignableTo(cv.Type().Elem()):
		out = reflect.Append(out, uv)
	case uv.Kind() == reflect.Slice && uv.Type().Elem().AssignableTo(cv.Type().Elem()):
		for i := 0; i < uv.Len(); i++ {
			out = reflect.Append(out, uv.Index(i))
		}
	default:
		return nil, fmt.Errorf("append: cannot append %T to %T", update, current)
	}

	return out.Interface(), nil
}

// Messages appends message histories. Accepted updates are a single
// core.Message, a []core.Message, or an Override whose value replaces the
// current history.
func Messages(current, update any) (any, error) {
	var cur []core.Message
	if current != nil {
		c, ok := current.([]core.Message)
		if !ok {
			return nil, fmt.Errorf("messages: current value is %T", current)
		}
		cur = c
	}

	switch u := update.(type) {
	case nil:
		return cur, nil
	case Override:
		return append([]core.Message(nil), u.Value...), nil
	case *Override:
		return append([]core.Message(nil), u.Value...), nil
	case core.Message:
		return append(append(make([]core.Message, 0, len(cur)+1), cur...), u), nil
	case []core.Message:
		return append(append(make([]core.Message, 0, len(cur)+len(u)), cur...), u...), nil
	default:
		return nil, fmt.Errorf("messages: unsupported update %T", update)
	}
}

func copySlice(v reflect.Value) reflect.Value {
	out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
	reflect.Copy(out, v)

	return out
}

func sliceLen(v reflect.Value) int {
	if v.Kind() == reflect.Slice {
		return v.Len()
	}

	return 1
}
