package morphon

import (
	"fmt"
	"log/slog"
	"reflect"
)

// Serializer tags, resolves and reconstructs Serializable objects. It holds
// no per-call state and may be shared once constructed.
type Serializer struct {
	registry *Registry
	resolver *ReferenceResolver
	logger   DiagnosticLogger
}

// Option configures a Serializer.
type Option func(*serializerConfig)

type serializerConfig struct {
	registry *Registry
	prefix   string
	shared   SharedPredicate
	loader   AssetLoader
	logger   DiagnosticLogger
}

// WithRegistry uses registry instead of DefaultRegistry.
func WithRegistry(registry *Registry) Option {
	return func(cfg *serializerConfig) {
		cfg.registry = registry
	}
}

// WithReferencePrefix changes the reference namespace prefix.
func WithReferencePrefix(prefix string) Option {
	return func(cfg *serializerConfig) {
		cfg.prefix = prefix
	}
}

// WithSharedPredicate replaces DefaultSharedPredicate.
func WithSharedPredicate(predicate SharedPredicate) Option {
	return func(cfg *serializerConfig) {
		cfg.shared = predicate
	}
}

// WithAssetLoader sets the loader used for read-side reference resolution.
func WithAssetLoader(loader AssetLoader) Option {
	return func(cfg *serializerConfig) {
		cfg.loader = loader
	}
}

// WithDiagnosticLogger receives recoverable diagnostics.
func WithDiagnosticLogger(logger DiagnosticLogger) Option {
	return func(cfg *serializerConfig) {
		if logger == nil {
			cfg.logger = noopDiagnosticLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithSlogLogger reports diagnostics as slog warnings.
func WithSlogLogger(logger *slog.Logger) Option {
	return WithDiagnosticLogger(NewSlogLogger(logger))
}

// New constructs a Serializer.
func New(opts ...Option) *Serializer {
	cfg := serializerConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.registry == nil {
		cfg.registry = DefaultRegistry()
	}
	if cfg.logger == nil {
		cfg.logger = noopDiagnosticLogger{}
	}
	return &Serializer{
		registry: cfg.registry,
		resolver: NewReferenceResolver(cfg.prefix, cfg.shared, cfg.loader),
		logger:   cfg.logger,
	}
}

func (s *Serializer) Registry() *Registry {
	return s.registry
}

func (s *Serializer) Resolver() *ReferenceResolver {
	return s.resolver
}

// Logger returns the diagnostic logger, never nil.
func (s *Serializer) Logger() DiagnosticLogger {
	return s.logger
}

// IsReference reports whether v is a string in the reference namespace. After
// DeserializeOne such a value marks a reference the loader could not resolve.
func (s *Serializer) IsReference(v Value) bool {
	return v.kind == KindString && s.resolver.IsReference(v.s)
}

// SerializeOne returns the attribute map of obj with its "Type" tag first and
// every handle replaced according to the reference rules.
func (s *Serializer) SerializeOne(obj Serializable) (*Map, error) {
	tag, err := s.registry.LookupTag(obj)
	if err != nil {
		return nil, wrapError("serialize", "", "", err)
	}
	attrs, err := obj.Serialize(s)
	if err != nil {
		return nil, wrapError("serialize", tag, "", err)
	}

	tagged := NewMap().Set(TypeKey, String(tag))
	for key, value := range attrs.All() {
		if key == TypeKey {
			continue
		}
		tagged.Set(key, value)
	}

	resolved, err := s.resolver.ResolveWrite(s, tagged)
	if err != nil {
		return nil, wrapError("serialize", tag, "", err)
	}
	for key, value := range resolved.All() {
		if err := checkNestedHandles(value, key); err != nil {
			return nil, wrapError("serialize", tag, key, err)
		}
	}
	return resolved, nil
}

// DeserializeOne reconstructs the object described by v. Unresolvable
// references are logged and left as their raw path.
func (s *Serializer) DeserializeOne(v Value) (Serializable, error) {
	attrs, err := v.AsMap()
	if err != nil {
		return nil, &Error{Op: "deserialize", Err: fmt.Errorf("%w: %v", ErrInvalidData, err)}
	}
	tagValue, ok := attrs.Get(TypeKey)
	if !ok {
		return nil, &Error{Op: "deserialize", Err: ErrMissingTypeTag}
	}
	tag, err := tagValue.AsString()
	if err != nil {
		return nil, &Error{Op: "deserialize", Key: TypeKey, Err: fmt.Errorf("%w: %v", ErrInvalidData, err)}
	}
	if !s.registry.Has(tag) {
		return nil, &Error{Op: "deserialize", Tag: tag, Err: ErrUnknownType}
	}

	fresh, diags := s.resolver.ResolveRead(attrs)
	for _, diag := range diags {
		diag.Tag = tag
		s.logger.LogDiagnostic(diag)
	}

	obj, err := s.registry.Create(tag)
	if err != nil {
		return nil, wrapError("deserialize", tag, "", err)
	}
	if err := obj.Deserialize(s, fresh); err != nil {
		return nil, wrapError("deserialize", tag, "", err)
	}
	return obj, nil
}

// SerializeMany serializes objs in order into a list of attribute maps. The
// first failure aborts.
func (s *Serializer) SerializeMany(objs ...Serializable) (Value, error) {
	items := make([]Value, 0, len(objs))
	for i, obj := range objs {
		attrs, err := s.SerializeOne(obj)
		if err != nil {
			return Value{}, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, MapValue(attrs))
	}
	return Value{kind: KindList, list: items}, nil
}

// DeserializeMany reconstructs every element of list, skipping elements that
// fail. Each skipped element yields a diagnostic, which is also logged. The
// error is non-nil only when list is not a list.
func (s *Serializer) DeserializeMany(list Value) ([]Serializable, []Diagnostic, error) {
	return s.deserializeList(list, nil)
}

// deserializeList rebuilds every element of list, skipping the ones that fail
// to deserialize or that accept rejects. Diagnostics carry the element's
// position in list.
func (s *Serializer) deserializeList(list Value, accept func(Serializable) error) ([]Serializable, []Diagnostic, error) {
	items, err := list.AsList()
	if err != nil {
		return nil, nil, &Error{Op: "deserialize", Err: fmt.Errorf("%w: %v", ErrInvalidData, err)}
	}

	objs := make([]Serializable, 0, len(items))
	var diags []Diagnostic
	for i, item := range items {
		obj, err := s.DeserializeOne(item)
		if err == nil && accept != nil {
			err = accept(obj)
		}
		if err != nil {
			diag := Diagnostic{Op: "deserialize", Index: i, Tag: tagOf(item), Err: err}
			s.logger.LogDiagnostic(diag)
			diags = append(diags, diag)
			continue
		}
		objs = append(objs, obj)
	}
	return objs, diags, nil
}

// Marshal converts v into a Value: shared resources become their path,
// Serializable values go through SerializeOne, slices of them through
// SerializeMany, anything else through ValueOf followed by write-side
// reference resolution.
func (s *Serializer) Marshal(v any) (Value, error) {
	if !isNil(v) {
		if _, shared := s.resolver.shared(v); shared {
			return s.resolver.writeHandle(s, v)
		}
	}

	switch t := v.(type) {
	case Serializable:
		if isNil(t) {
			return Null(), nil
		}
		attrs, err := s.SerializeOne(t)
		if err != nil {
			return Value{}, err
		}
		return MapValue(attrs), nil
	case []Serializable:
		return s.SerializeMany(t...)
	}

	if objs, ok := serializableSlice(v); ok {
		return s.SerializeMany(objs...)
	}

	value, err := ValueOf(v)
	if err != nil {
		return Value{}, err
	}
	resolved, err := s.resolver.writeValue(s, value)
	if err != nil {
		return Value{}, err
	}
	if err := checkNestedHandles(resolved, ""); err != nil {
		return Value{}, err
	}
	return resolved, nil
}

// checkNestedHandles fails with ErrInvalidData when a handle is left below
// the levels write-side resolution covers. Such a value could never be
// encoded.
func checkNestedHandles(v Value, path string) error {
	if at, ok := findHandle(v, path); ok {
		return kindError(ErrInvalidData, "handle at %q is nested below the top level and cannot be stored", at)
	}
	return nil
}

func findHandle(v Value, path string) (string, bool) {
	switch v.kind {
	case KindHandle:
		return path, true
	case KindList:
		for i, item := range v.list {
			if at, ok := findHandle(item, fmt.Sprintf("%s[%d]", path, i)); ok {
				return at, true
			}
		}
	case KindMap:
		for key, item := range v.m.All() {
			at := key
			if path != "" {
				at = path + "." + key
			}
			if found, ok := findHandle(item, at); ok {
				return found, true
			}
		}
	}
	return "", false
}

// Resolve applies read-side resolution to a single value, logging anything
// left unresolved.
func (s *Serializer) Resolve(v Value) Value {
	resolved, diags := s.resolver.ResolveValue(v)
	for _, diag := range diags {
		s.logger.LogDiagnostic(diag)
	}
	return resolved
}

// SerializeSlice serializes a typed slice of objects.
func SerializeSlice[T Serializable](s *Serializer, objs []T) (Value, error) {
	generic := make([]Serializable, len(objs))
	for i, obj := range objs {
		generic[i] = obj
	}
	return s.SerializeMany(generic...)
}

// DeserializeSlice is DeserializeMany filtered to T. Elements of another
// concrete type are skipped with an ErrTypeMismatch diagnostic.
func DeserializeSlice[T any](s *Serializer, list Value) ([]T, []Diagnostic, error) {
	target := reflect.TypeFor[T]()
	objs, diags, err := s.deserializeList(list, func(obj Serializable) error {
		if _, ok := obj.(T); !ok {
			return kindError(ErrTypeMismatch, "%T is not %v", obj, target)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	out := make([]T, len(objs))
	for i, obj := range objs {
		out[i] = obj.(T)
	}
	return out, diags, nil
}

// DeserializeAs is DeserializeOne followed by a cast to T.
func DeserializeAs[T any](s *Serializer, v Value) (T, error) {
	var zero T
	obj, err := s.DeserializeOne(v)
	if err != nil {
		return zero, err
	}
	typed, ok := obj.(T)
	if !ok {
		return zero, &Error{Op: "deserialize", Tag: tagOf(v), Err: kindError(ErrTypeMismatch, "%T is not %T", obj, zero)}
	}
	return typed, nil
}

func tagOf(v Value) string {
	attrs, err := v.AsMap()
	if err != nil {
		return ""
	}
	tag, _ := Optional(attrs, TypeKey, "")
	return tag
}

var serializableType = reflect.TypeFor[Serializable]()

// serializableSlice converts []T where T implements Serializable.
func serializableSlice(v any) ([]Serializable, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || !rv.Type().Elem().Implements(serializableType) {
		return nil, false
	}
	out := make([]Serializable, rv.Len())
	for i := range out {
		out[i], _ = rv.Index(i).Interface().(Serializable)
	}
	return out, true
}
