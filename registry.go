package morphon

import (
	"fmt"
	"reflect"
	"sync"
)

// Factory returns a new default instance of a registered type.
type Factory func() Serializable

// Registry maps type tags to factories and concrete types back to tags.
// Register everything during program initialization, then Seal; lookups are
// safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	sealed    bool
	factories map[string]Factory
	types     map[string]reflect.Type
	tags      map[reflect.Type]string
	order     []string
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		types:     make(map[string]reflect.Type),
		tags:      make(map[reflect.Type]string),
	}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry used by serializers that
// were not given one explicitly.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register binds tag to factory on the default registry.
func Register(tag string, factory Factory) error {
	return defaultRegistry.Register(tag, factory)
}

// MustRegister is like Register but panics on error.
func MustRegister(tag string, factory Factory) {
	defaultRegistry.MustRegister(tag, factory)
}

// Register binds tag to factory. The factory is called once to learn the
// concrete type it produces. Registering the same tag and type again is a
// no-op; reusing either for a different partner fails with ErrDuplicateTag.
func (r *Registry) Register(tag string, factory Factory) error {
	if tag == "" {
		return &Error{Op: "register", Err: kindError(ErrInvalidData, "type tag must not be empty")}
	}
	if factory == nil {
		return &Error{Op: "register", Tag: tag, Err: kindError(ErrInvalidData, "factory is nil")}
	}
	probe := factory()
	if isNil(probe) {
		return &Error{Op: "register", Tag: tag, Err: kindError(ErrInvalidData, "factory returned nil")}
	}
	typ := reflect.TypeOf(probe)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return &Error{Op: "register", Tag: tag, Err: ErrRegistrySealed}
	}
	if existing, ok := r.types[tag]; ok {
		if existing == typ {
			return nil
		}
		return &Error{Op: "register", Tag: tag, Err: kindError(ErrDuplicateTag, "tag already bound to %s", existing)}
	}
	if existing, ok := r.tags[typ]; ok {
		return &Error{Op: "register", Tag: tag, Err: kindError(ErrDuplicateTag, "%s already registered as %q", typ, existing)}
	}
	r.factories[tag] = factory
	r.types[tag] = typ
	r.tags[typ] = tag
	r.order = append(r.order, tag)
	return nil
}

// MustRegister is like Register but panics on error. Use it in init-time
// registration manifests.
func (r *Registry) MustRegister(tag string, factory Factory) {
	if err := r.Register(tag, factory); err != nil {
		panic(err)
	}
}

// RegisterType registers *T under tag.
func RegisterType[T any, PT interface {
	*T
	Serializable
}](r *Registry, tag string) error {
	return r.Register(tag, func() Serializable {
		return PT(new(T))
	})
}

// Create returns a fresh instance of the type registered under tag.
func (r *Registry) Create(tag string) (Serializable, error) {
	r.mu.RLock()
	factory, ok := r.factories[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, &Error{Op: "create", Tag: tag, Err: ErrUnknownType}
	}
	obj := factory()
	if isNil(obj) {
		return nil, &Error{Op: "create", Tag: tag, Err: kindError(ErrInvalidData, "factory returned nil")}
	}
	return obj, nil
}

// LookupTag returns the tag the concrete type of obj was registered under.
func (r *Registry) LookupTag(obj Serializable) (string, error) {
	if isNil(obj) {
		return "", &Error{Op: "lookup", Err: kindError(ErrInvalidData, "object is nil")}
	}
	typ := reflect.TypeOf(obj)
	r.mu.RLock()
	tag, ok := r.tags[typ]
	r.mu.RUnlock()
	if !ok {
		return "", &Error{Op: "lookup", Err: fmt.Errorf("%w: %s is not registered", ErrUnknownType, typ)}
	}
	return tag, nil
}

// Has reports whether tag is registered.
func (r *Registry) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[tag]
	return ok
}

// Tags returns registered tags in registration order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Seal rejects any further registration.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
