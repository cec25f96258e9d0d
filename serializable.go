package morphon

// Serializable is implemented by every object the engine can persist.
//
// Serialize returns the object's own attributes; the Serializer adds the
// "Type" tag. A type composed from a serializable base obtains the base map
// first and sets its own keys on top. Deserialize populates the receiver
// from attrs, calling the base Deserialize first when composed. Required keys
// should fail with ErrMissingField (see Required); absent optional keys leave
// their field untouched.
//
// Nested serializable fields are not discovered automatically: use s to call
// SerializeOne/DeserializeOne (or the slice helpers) on them explicitly.
type Serializable interface {
	Serialize(s *Serializer) (*Map, error)
	Deserialize(s *Serializer, attrs *Map) error
}

// TypeKey is the reserved attribute holding the type tag.
const TypeKey = "Type"

// Resource is a handle to content persisted outside the document.
type Resource interface {
	ResourcePath() string
}

// LocalResource is implemented by resources that may be owned exclusively by
// one document. Local resources are never written as references.
type LocalResource interface {
	Resource
	LocalToDocument() bool
}
