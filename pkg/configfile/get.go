package configfile

import (
	"reflect"

	morphon "github.com/goliatone/go-morphon"
	"github.com/goliatone/go-morphon/internal/hydrate"
)

var serializableType = reflect.TypeFor[morphon.Serializable]()

// Get reads section/key as T, returning def when the key is absent.
//
// Serializable targets are rebuilt from their attribute map and must match
// T. string and morphon.Value targets get a copy of the stored value. Every
// other target first has reference paths resolved through the asset loader;
// a reference that cannot be resolved yields def. Plain structs are decoded
// from the stored attribute map by their json tags.
func Get[T any](f *File, section, key string, def T) (T, error) {
	v, ok := f.lookup(section, key)
	if !ok {
		return def, nil
	}
	v = v.Clone()

	var zero T
	target := reflect.TypeFor[T]()

	if target.Implements(serializableType) {
		if v.IsNull() {
			return zero, nil
		}
		out, err := morphon.DeserializeAs[T](f.cfg.serializer, v)
		if err != nil {
			return zero, &morphon.Error{Op: "get", Key: key, Err: err}
		}
		return out, nil
	}

	switch any(zero).(type) {
	case string, morphon.Value:
		return extract[T](key, v)
	}

	resolved := f.cfg.serializer.Resolve(v)
	if f.cfg.serializer.IsReference(resolved) {
		return def, nil
	}
	out, err := extract[T](key, resolved)
	if err == nil || resolved.Kind() != morphon.KindMap || !isStruct(target) {
		return out, err
	}
	payload, _ := resolved.Interface().(map[string]any)
	out, err = hydrate.NewDecoder[T]().Decode(hydrate.Context{Document: f.name, Section: section, Key: key}, payload)
	if err != nil {
		return zero, &morphon.Error{Op: "get", Key: key, Err: err}
	}
	return out, nil
}

// GetList reads section/key as a list of T, returning def when the key is
// absent. Elements that cannot be rebuilt or are not a T are skipped and
// reported to the diagnostic logger. The error is non-nil only when the
// stored value is not a list.
func GetList[T any](f *File, section, key string, def []T) ([]T, error) {
	v, ok := f.lookup(section, key)
	if !ok {
		return def, nil
	}
	v = v.Clone()

	if reflect.TypeFor[T]().Implements(serializableType) {
		out, _, err := morphon.DeserializeSlice[T](f.cfg.serializer, v)
		if err != nil {
			return nil, &morphon.Error{Op: "get", Key: key, Err: err}
		}
		return out, nil
	}

	items, err := f.cfg.serializer.Resolve(v).AsList()
	if err != nil {
		return nil, &morphon.Error{Op: "get", Key: key, Err: err}
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		typed, err := morphon.As[T](item)
		if err != nil {
			f.cfg.logger.LogDiagnostic(morphon.Diagnostic{Op: "get", Key: key, Index: i, Err: err})
			continue
		}
		out = append(out, typed)
	}
	return out, nil
}

func extract[T any](key string, v morphon.Value) (T, error) {
	out, err := morphon.As[T](v)
	if err != nil {
		var zero T
		return zero, &morphon.Error{Op: "get", Key: key, Err: err}
	}
	return out, nil
}

func isStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}
