package activity

import (
	"strings"
	"time"
)

// Verbs emitted for configuration documents.
const (
	VerbValueSet       = "config.value.set"
	VerbKeyCleared     = "config.key.cleared"
	VerbSectionCleared = "config.section.cleared"
	VerbCleared        = "config.cleared"
	VerbSaved          = "config.saved"
	VerbLoaded         = "config.loaded"
)

// Object types attached to configuration events.
const (
	ObjectValue    = "config.value"
	ObjectSection  = "config.section"
	ObjectDocument = "config.document"
)

// ConfigEventInput describes a change to a configuration document.
// Document names the file or store entry; it is used as the object ID of
// document-wide events and recorded in metadata otherwise.
type ConfigEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	Document   string
	Section    string
	Key        string
	Value      any
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildConfigEvent maps input into an Event for verb. The object type is
// derived from how much of section and key is set.
func BuildConfigEvent(verb string, input ConfigEventInput) Event {
	section := strings.TrimSpace(input.Section)
	key := strings.TrimSpace(input.Key)
	document := strings.TrimSpace(input.Document)

	metadata := cloneMap(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}

	objectType, objectID := ObjectDocument, document
	switch {
	case section != "" && key != "":
		objectType, objectID = ObjectValue, section+"."+key
		metadata["section"] = section
		metadata["key"] = key
	case section != "":
		objectType, objectID = ObjectSection, section
		metadata["section"] = section
	}
	if objectID == "" {
		objectID = "config"
	}
	if document != "" {
		metadata["document"] = document
	}
	if verb == VerbValueSet && input.Value != nil {
		metadata["value"] = input.Value
	}

	return Event{
		Verb:       strings.TrimSpace(verb),
		ActorID:    input.ActorID,
		UserID:     input.UserID,
		TenantID:   input.TenantID,
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    input.Channel,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
