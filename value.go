package morphon

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Kind identifies the variant stored in a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	// KindHandle holds a live resource handle. Handles exist only in memory:
	// write-side reference resolution replaces them before encoding and
	// read-side resolution produces them from reference strings.
	KindHandle
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindHandle:
		return "handle"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// FloatTolerance is the relative tolerance Equal applies to floats.
const FloatTolerance = 1e-12

// Value is a tagged union over null, bool, int, float, string, list and map.
// The zero Value is Null.
type Value struct {
	kind   Kind
	b      bool
	i      int64
	f      float64
	s      string
	list   []Value
	m      *Map
	handle any
}

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Int(i int64) Value { return Value{kind: KindInt, i: i} }

func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

func String(s string) Value { return Value{kind: KindString, s: s} }

// Handle wraps a live resource handle.
func Handle(handle any) Value { return Value{kind: KindHandle, handle: handle} }

// List builds a list Value from a copy of items.
func List(items ...Value) Value {
	return Value{kind: KindList, list: append([]Value(nil), items...)}
}

// MapValue wraps m. A nil map becomes an empty one.
func MapValue(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: KindMap, m: m}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindHandle:
		return fmt.Sprintf("<handle %T>", v.handle)
	default:
		out, err := Encode(v)
		if err != nil {
			return "<" + v.kind.String() + ">"
		}
		return string(out)
	}
}

func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, mismatch("bool", v.kind)
	}
	return v.b, nil
}

func (v Value) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, mismatch("int", v.kind)
	}
	return v.i, nil
}

// AsFloat returns floats as stored and widens ints.
func (v Value) AsFloat() (float64, error) {
	switch v.kind {
	case KindFloat:
		return v.f, nil
	case KindInt:
		return float64(v.i), nil
	default:
		return 0, mismatch("float", v.kind)
	}
}

func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", mismatch("string", v.kind)
	}
	return v.s, nil
}

// AsList returns a copy of the list items.
func (v Value) AsList() ([]Value, error) {
	if v.kind != KindList {
		return nil, mismatch("list", v.kind)
	}
	return append([]Value(nil), v.list...), nil
}

// AsMap returns the underlying map. Mutating it mutates v.
func (v Value) AsMap() (*Map, error) {
	if v.kind != KindMap {
		return nil, mismatch("map", v.kind)
	}
	return v.m, nil
}

func (v Value) AsHandle() (any, error) {
	if v.kind != KindHandle {
		return nil, mismatch("handle", v.kind)
	}
	return v.handle, nil
}

// Len returns the number of list items or map entries, zero otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return v.m.Len()
	default:
		return 0
	}
}

// Clone returns a deep copy. Handles are copied by reference.
func (v Value) Clone() Value {
	switch v.kind {
	case KindList:
		items := make([]Value, len(v.list))
		for i, item := range v.list {
			items[i] = item.Clone()
		}
		return Value{kind: KindList, list: items}
	case KindMap:
		return Value{kind: KindMap, m: v.m.Clone()}
	default:
		return v
	}
}

// Equal compares values structurally. Lists compare in order, maps ignore
// key order, floats compare within FloatTolerance.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return floatsEqual(v.f, other.f)
	case KindString:
		return v.s == other.s
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return v.m.Equal(other.m)
	case KindHandle:
		return handlesEqual(v.handle, other.handle)
	default:
		return false
	}
}

func floatsEqual(a, b float64) bool {
	if a == b {
		return true
	}
	diff := math.Abs(a - b)
	scale := math.Max(math.Abs(a), math.Abs(b))
	return diff <= FloatTolerance*scale
}

func handlesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// Interface returns the native Go form of v: nil, bool, int64, float64,
// string, []any, map[string]any or the handle itself.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, v.m.Len())
		for key, item := range v.m.All() {
			out[key] = item.Interface()
		}
		return out
	case KindHandle:
		return v.handle
	default:
		return nil
	}
}

// ValueOf converts a Go value into a Value. Resources become handles, structs
// are converted through their JSON form.
func ValueOf(in any) (Value, error) {
	switch t := in.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case *Map:
		return MapValue(t), nil
	case []Value:
		return List(t...), nil
	case Resource:
		return Handle(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return numberValue(string(t))
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			converted, err := ValueOf(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = converted
		}
		return Value{kind: KindList, list: items}, nil
	case map[string]any:
		m := NewMap()
		for _, key := range sortedKeys(t) {
			converted, err := ValueOf(t[key])
			if err != nil {
				return Value{}, err
			}
			m.Set(key, converted)
		}
		return MapValue(m), nil
	}
	return reflectValueOf(reflect.ValueOf(in))
}

func reflectValueOf(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		if rv.Kind() == reflect.Pointer && rv.Elem().Kind() != reflect.Struct {
			return ValueOf(rv.Elem().Interface())
		}
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Value{}, kindError(ErrInvalidData, "unsigned value %d overflows int64", u)
		}
		return Int(int64(u)), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return List(), nil
		}
		items := make([]Value, rv.Len())
		for i := range items {
			converted, err := ValueOf(rv.Index(i).Interface())
			if err != nil {
				return Value{}, err
			}
			items[i] = converted
		}
		return Value{kind: KindList, list: items}, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, kindError(ErrInvalidData, "map key type %s is not a string", rv.Type().Key())
		}
		native := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			native[iter.Key().String()] = iter.Value().Interface()
		}
		return ValueOf(native)
	case reflect.Invalid:
		return Null(), nil
	}

	if rv.Kind() == reflect.Struct || (rv.Kind() == reflect.Pointer && rv.Elem().Kind() == reflect.Struct) {
		payload, err := json.Marshal(rv.Interface())
		if err != nil {
			return Value{}, kindError(ErrInvalidData, "marshal %s: %v", rv.Type(), err)
		}
		return Decode(payload)
	}
	return Value{}, kindError(ErrInvalidData, "unsupported type %s", rv.Type())
}
