package morphon

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultReferencePrefix marks strings that denote external resources.
const DefaultReferencePrefix = "res://"

// ErrAssetNotFound is returned by asset loaders when nothing lives at a path.
var ErrAssetNotFound = errors.New("morphon: asset not found")

// SharedPredicate reports whether handle refers to shared external content
// and, if so, the path it is stored under.
type SharedPredicate func(handle any) (path string, shared bool)

// AssetLoader resolves a reference path to a live handle.
type AssetLoader interface {
	LoadAsset(path string) (any, error)
}

// AssetLoaderFunc adapts a function to AssetLoader.
type AssetLoaderFunc func(path string) (any, error)

// LoadAsset implements AssetLoader.
func (f AssetLoaderFunc) LoadAsset(path string) (any, error) {
	if f == nil {
		return nil, ErrAssetNotFound
	}
	return f(path)
}

// DefaultSharedPredicate treats every Resource with a non-empty path as
// shared unless it reports being local to the document.
func DefaultSharedPredicate(handle any) (string, bool) {
	res, ok := handle.(Resource)
	if !ok || isNil(handle) {
		return "", false
	}
	if local, ok := handle.(LocalResource); ok && local.LocalToDocument() {
		return "", false
	}
	path := res.ResourcePath()
	return path, path != ""
}

// ReferenceResolver swaps handles for path strings on write and path strings
// for loaded handles on read. It only looks at top-level attribute values and
// the direct items of top-level lists; it never descends into loaded content.
type ReferenceResolver struct {
	prefix string
	shared SharedPredicate
	loader AssetLoader
}

// NewReferenceResolver constructs a resolver. Empty arguments fall back to
// DefaultReferencePrefix and DefaultSharedPredicate; a nil loader leaves every
// reference unresolved.
func NewReferenceResolver(prefix string, shared SharedPredicate, loader AssetLoader) *ReferenceResolver {
	if prefix == "" {
		prefix = DefaultReferencePrefix
	}
	if shared == nil {
		shared = DefaultSharedPredicate
	}
	return &ReferenceResolver{prefix: prefix, shared: shared, loader: loader}
}

// Prefix returns the reference namespace prefix.
func (r *ReferenceResolver) Prefix() string {
	return r.prefix
}

// IsReference reports whether s lives in the reference namespace.
func (r *ReferenceResolver) IsReference(s string) bool {
	return strings.HasPrefix(s, r.prefix)
}

// ResolveWrite returns a copy of attrs where handles are replaced by their
// path (shared content), their inlined attribute map (serializable local
// content) or null (nil handles).
func (r *ReferenceResolver) ResolveWrite(s *Serializer, attrs *Map) (*Map, error) {
	out := NewMap()
	for key, value := range attrs.All() {
		resolved, err := r.writeValue(s, value)
		if err != nil {
			return nil, wrapError("serialize", "", key, err)
		}
		out.Set(key, resolved)
	}
	return out, nil
}

func (r *ReferenceResolver) writeValue(s *Serializer, value Value) (Value, error) {
	switch value.kind {
	case KindHandle:
		return r.writeHandle(s, value.handle)
	case KindList:
		items := make([]Value, len(value.list))
		for i, item := range value.list {
			if item.kind != KindHandle {
				items[i] = item
				continue
			}
			resolved, err := r.writeHandle(s, item.handle)
			if err != nil {
				return Value{}, fmt.Errorf("item %d: %w", i, err)
			}
			items[i] = resolved
		}
		return Value{kind: KindList, list: items}, nil
	default:
		return value, nil
	}
}

func (r *ReferenceResolver) writeHandle(s *Serializer, handle any) (Value, error) {
	if isNil(handle) {
		return Null(), nil
	}
	if path, shared := r.shared(handle); shared {
		if !r.IsReference(path) {
			return Value{}, kindError(ErrInvalidData, "resource path %q is outside %q", path, r.prefix)
		}
		return String(path), nil
	}
	if obj, ok := handle.(Serializable); ok && s != nil {
		attrs, err := s.SerializeOne(obj)
		if err != nil {
			return Value{}, err
		}
		return MapValue(attrs), nil
	}
	return Value{}, kindError(ErrInvalidData, "%T is neither shared nor serializable", handle)
}

// ResolveRead returns a copy of attrs where reference strings are replaced by
// the handles the loader returns. References that cannot be loaded keep their
// raw path and are reported as ErrUnresolvedReference diagnostics.
func (r *ReferenceResolver) ResolveRead(attrs *Map) (*Map, []Diagnostic) {
	out := NewMap()
	var diags []Diagnostic
	for key, value := range attrs.All() {
		resolved, valueDiags := r.readValue(key, value)
		diags = append(diags, valueDiags...)
		out.Set(key, resolved)
	}
	return out, diags
}

// ResolveValue applies read-side resolution to a single value.
func (r *ReferenceResolver) ResolveValue(value Value) (Value, []Diagnostic) {
	return r.readValue("", value)
}

func (r *ReferenceResolver) readValue(key string, value Value) (Value, []Diagnostic) {
	switch value.kind {
	case KindString:
		if !r.IsReference(value.s) {
			return value, nil
		}
		resolved, diag := r.load(key, value.s)
		if diag != nil {
			return value, []Diagnostic{*diag}
		}
		return resolved, nil
	case KindList:
		var diags []Diagnostic
		items := make([]Value, len(value.list))
		for i, item := range value.list {
			items[i] = item
			if item.kind != KindString || !r.IsReference(item.s) {
				continue
			}
			resolved, diag := r.load(key, item.s)
			if diag != nil {
				diag.Index = i
				diags = append(diags, *diag)
				continue
			}
			items[i] = resolved
		}
		return Value{kind: KindList, list: items}, diags
	default:
		return value, nil
	}
}

func (r *ReferenceResolver) load(key, path string) (Value, *Diagnostic) {
	unresolved := func(cause error) *Diagnostic {
		return &Diagnostic{
			Op:    "resolve",
			Key:   key,
			Path:  path,
			Index: -1,
			Err:   fmt.Errorf("%w: %w", ErrUnresolvedReference, cause),
		}
	}
	if r.loader == nil {
		return Value{}, unresolved(errors.New("no asset loader configured"))
	}
	handle, err := r.loader.LoadAsset(path)
	if err != nil {
		return Value{}, unresolved(err)
	}
	if isNil(handle) {
		return Value{}, unresolved(ErrAssetNotFound)
	}
	return Handle(handle), nil
}
