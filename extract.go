package morphon

import (
	"fmt"
	"math"
)

// As extracts v as T. Supported targets are bool, the signed integer widths,
// float32, float64, string, []string, []Value, *Map, Value and any. Any other
// T matches a handle whose concrete value is assignable to T. Mismatched
// shapes fail with ErrTypeMismatch.
func As[T any](v Value) (T, error) {
	var out T
	var err error

	switch target := any(&out).(type) {
	case *Value:
		*target = v
	case *any:
		*target = v.Interface()
	case *bool:
		*target, err = v.AsBool()
	case *string:
		*target, err = v.AsString()
	case *int64:
		*target, err = v.AsInt()
	case *int:
		*target, err = asSizedInt[int](v, math.MinInt, math.MaxInt)
	case *int32:
		*target, err = asSizedInt[int32](v, math.MinInt32, math.MaxInt32)
	case *int16:
		*target, err = asSizedInt[int16](v, math.MinInt16, math.MaxInt16)
	case *int8:
		*target, err = asSizedInt[int8](v, math.MinInt8, math.MaxInt8)
	case *float64:
		*target, err = v.AsFloat()
	case *float32:
		var f float64
		f, err = v.AsFloat()
		*target = float32(f)
	case *[]Value:
		*target, err = v.AsList()
	case **Map:
		*target, err = v.AsMap()
	case *[]string:
		*target, err = asStrings(v)
	default:
		// A nil handle is written as null.
		if v.kind == KindNull {
			return out, nil
		}
		if v.kind != KindHandle {
			return out, kindError(ErrTypeMismatch, "cannot extract %T from %s", out, v.kind)
		}
		typed, ok := v.handle.(T)
		if !ok {
			return out, kindError(ErrTypeMismatch, "handle %T is not %T", v.handle, out)
		}
		out = typed
	}

	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func asSizedInt[N int | int8 | int16 | int32](v Value, lo, hi int64) (N, error) {
	i, err := v.AsInt()
	if err != nil {
		return 0, err
	}
	if i < lo || i > hi {
		return 0, kindError(ErrTypeMismatch, "int %d overflows %T", i, N(0))
	}
	return N(i), nil
}

func asStrings(v Value) ([]string, error) {
	items, err := v.AsList()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, err := item.AsString()
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// Required extracts key from m. An absent key fails with ErrMissingField, a
// present key of the wrong shape with ErrTypeMismatch.
func Required[T any](m *Map, key string) (T, error) {
	var zero T
	v, ok := m.Get(key)
	if !ok {
		return zero, &Error{Op: "field", Key: key, Err: ErrMissingField}
	}
	out, err := As[T](v)
	if err != nil {
		return zero, &Error{Op: "field", Key: key, Err: err}
	}
	return out, nil
}

// Optional extracts key from m, returning def when the key is absent. A
// present key of the wrong shape still fails with ErrTypeMismatch.
func Optional[T any](m *Map, key string, def T) (T, error) {
	v, ok := m.Get(key)
	if !ok {
		return def, nil
	}
	out, err := As[T](v)
	if err != nil {
		return def, &Error{Op: "field", Key: key, Err: err}
	}
	return out, nil
}
