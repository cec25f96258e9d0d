// Package configfile implements a two-level (section, key) configuration
// document on top of the morphon value model.
//
// Values are stored already serialized: objects as attribute maps carrying
// their "Type" tag, lists of objects as lists of attribute maps and shared
// resources as reference paths. Reading a value back reconstructs objects
// through the configured Serializer and resolves references through its
// asset loader.
//
// A File is not safe for concurrent use; callers sharing one must serialize
// access themselves. Save and Load never leave a half-written document in
// memory: a failed Load keeps the previous content.
package configfile
