package configfile

import (
	"context"

	morphon "github.com/goliatone/go-morphon"
	"github.com/goliatone/go-morphon/pkg/activity"
)

// File is an in-memory configuration document. Sections and the keys inside
// each section keep insertion order.
type File struct {
	cfg      fileConfig
	sections *morphon.Map
	name     string
}

// New returns an empty document.
func New(opts ...Option) *File {
	cfg := applyOptions(opts)
	return &File{
		cfg:      cfg,
		sections: morphon.NewMap(),
		name:     cfg.name,
	}
}

// Serializer returns the serializer used for objects and references.
func (f *File) Serializer() *morphon.Serializer {
	return f.cfg.serializer
}

// Name is the label of the document: the last path it was saved to or
// loaded from, or the WithName value.
func (f *File) Name() string {
	return f.name
}

// Set stores value under section/key, creating both if needed. value may be a
// morphon.Value, a Serializable, a slice of Serializable, a shared resource
// (stored as its path) or any Go value morphon.ValueOf accepts.
func (f *File) Set(section, key string, value any) error {
	v, err := f.cfg.serializer.Marshal(value)
	if err != nil {
		return &morphon.Error{Op: "set", Key: key, Err: err}
	}
	f.put(section, key, v)
	return nil
}

// SetObject stores the attribute map of obj.
func (f *File) SetObject(section, key string, obj morphon.Serializable) error {
	return f.Set(section, key, obj)
}

// SetObjects stores objs as a list of attribute maps.
func (f *File) SetObjects(section, key string, objs ...morphon.Serializable) error {
	v, err := f.cfg.serializer.SerializeMany(objs...)
	if err != nil {
		return &morphon.Error{Op: "set", Key: key, Err: err}
	}
	f.put(section, key, v)
	return nil
}

// SetList is SetObjects for a typed slice.
func SetList[T morphon.Serializable](f *File, section, key string, objs []T) error {
	v, err := morphon.SerializeSlice(f.cfg.serializer, objs)
	if err != nil {
		return &morphon.Error{Op: "set", Key: key, Err: err}
	}
	f.put(section, key, v)
	return nil
}

// put stores a copy of v; the document never shares maps or lists with
// callers.
func (f *File) put(section, key string, v morphon.Value) {
	v = v.Clone()
	f.section(section, true).Set(key, v)
	f.emit(activity.VerbValueSet, section, key, v.Interface())
}

// section returns the attribute map of name, creating it when create is set.
func (f *File) section(name string, create bool) *morphon.Map {
	if v, ok := f.sections.Get(name); ok {
		m, _ := v.AsMap()
		return m
	}
	if !create {
		return nil
	}
	m := morphon.NewMap()
	f.sections.Set(name, morphon.MapValue(m))
	return m
}

func (f *File) lookup(section, key string) (morphon.Value, bool) {
	m := f.section(section, false)
	if m == nil {
		return morphon.Value{}, false
	}
	return m.Get(key)
}

// Value returns a copy of the stored value.
func (f *File) Value(section, key string) (morphon.Value, bool) {
	v, ok := f.lookup(section, key)
	if !ok {
		return morphon.Value{}, false
	}
	return v.Clone(), true
}

func (f *File) HasSection(section string) bool {
	return f.sections.Has(section)
}

func (f *File) HasSectionKey(section, key string) bool {
	_, ok := f.lookup(section, key)
	return ok
}

// Sections lists section names in insertion order.
func (f *File) Sections() []string {
	return f.sections.Keys()
}

// SectionKeys lists the keys of section in insertion order, or nil when the
// section does not exist.
func (f *File) SectionKeys(section string) []string {
	m := f.section(section, false)
	if m == nil {
		return nil
	}
	return m.Keys()
}

// Clear removes every section.
func (f *File) Clear() {
	f.sections = morphon.NewMap()
	f.emit(activity.VerbCleared, "", "", nil)
}

// ClearSection removes section and reports whether it existed.
func (f *File) ClearSection(section string) bool {
	if !f.sections.Delete(section) {
		return false
	}
	f.emit(activity.VerbSectionCleared, section, "", nil)
	return true
}

// ClearKey removes key from section and reports whether it existed. The
// section stays even when it becomes empty.
func (f *File) ClearKey(section, key string) bool {
	m := f.section(section, false)
	if m == nil || !m.Delete(key) {
		return false
	}
	f.emit(activity.VerbKeyCleared, section, key, nil)
	return true
}

func (f *File) emit(verb, section, key string, value any) {
	emitter := f.cfg.emitter
	if !emitter.Enabled() {
		return
	}
	event := activity.BuildConfigEvent(verb, activity.ConfigEventInput{
		ActorID:  f.cfg.actorID,
		Document: f.name,
		Section:  section,
		Key:      key,
		Value:    value,
	})
	if err := emitter.Emit(context.Background(), event); err != nil {
		f.cfg.logger.LogDiagnostic(morphon.Diagnostic{
			Op:    "activity",
			Key:   key,
			Path:  f.name,
			Index: -1,
			Err:   err,
		})
	}
}
