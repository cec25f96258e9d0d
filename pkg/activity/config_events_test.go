package activity

import (
	"context"
	"testing"
	"time"
)

func TestBuildConfigEventObjectTypes(t *testing.T) {
	cases := []struct {
		name       string
		verb       string
		input      ConfigEventInput
		objectType string
		objectID   string
		metadata   map[string]any
	}{
		{
			name:       "value set",
			verb:       VerbValueSet,
			input:      ConfigEventInput{Document: "app.json", Section: "display", Key: "width", Value: 1280},
			objectType: ObjectValue,
			objectID:   "display.width",
			metadata:   map[string]any{"document": "app.json", "section": "display", "key": "width", "value": 1280},
		},
		{
			name:       "key cleared drops value",
			verb:       VerbKeyCleared,
			input:      ConfigEventInput{Section: "display", Key: "width", Value: 1280},
			objectType: ObjectValue,
			objectID:   "display.width",
			metadata:   map[string]any{"section": "display", "key": "width"},
		},
		{
			name:       "section cleared",
			verb:       VerbSectionCleared,
			input:      ConfigEventInput{Document: "app.json", Section: " display "},
			objectType: ObjectSection,
			objectID:   "display",
			metadata:   map[string]any{"document": "app.json", "section": "display"},
		},
		{
			name:       "document saved",
			verb:       VerbSaved,
			input:      ConfigEventInput{Document: "/tmp/app.json"},
			objectType: ObjectDocument,
			objectID:   "/tmp/app.json",
			metadata:   map[string]any{"document": "/tmp/app.json"},
		},
		{
			name:       "anonymous document",
			verb:       VerbCleared,
			input:      ConfigEventInput{},
			objectType: ObjectDocument,
			objectID:   "config",
			metadata:   map[string]any{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event := BuildConfigEvent(tc.verb, tc.input)
			if event.Verb != tc.verb {
				t.Fatalf("expected verb %q, got %q", tc.verb, event.Verb)
			}
			if event.ObjectType != tc.objectType || event.ObjectID != tc.objectID {
				t.Fatalf("expected %s/%s, got %s/%s", tc.objectType, tc.objectID, event.ObjectType, event.ObjectID)
			}
			if len(event.Metadata) != len(tc.metadata) {
				t.Fatalf("expected metadata %v, got %v", tc.metadata, event.Metadata)
			}
			for key, want := range tc.metadata {
				if event.Metadata[key] != want {
					t.Fatalf("metadata %q: expected %v, got %v", key, want, event.Metadata[key])
				}
			}
		})
	}
}

func TestBuildConfigEventKeepsCallerMetadata(t *testing.T) {
	extra := map[string]any{"request_id": "r-1"}
	occurred := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	event := BuildConfigEvent(VerbLoaded, ConfigEventInput{
		ActorID:    "admin",
		Document:   "app.yaml",
		Metadata:   extra,
		OccurredAt: occurred,
	})

	if event.Metadata["request_id"] != "r-1" || event.ActorID != "admin" {
		t.Fatalf("unexpected event %+v", event)
	}
	if !event.OccurredAt.Equal(occurred) {
		t.Fatalf("expected occurred at preserved, got %v", event.OccurredAt)
	}
	if _, ok := extra["document"]; ok {
		t.Fatalf("caller metadata should not be modified")
	}
}

func TestBuildConfigEventFlowsThroughEmitter(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true})

	for _, event := range []Event{
		BuildConfigEvent(VerbValueSet, ConfigEventInput{Section: "app", Key: "theme", Value: "dark"}),
		BuildConfigEvent(VerbSectionCleared, ConfigEventInput{Section: "app"}),
		BuildConfigEvent(VerbSaved, ConfigEventInput{Document: "app.json"}),
	} {
		if err := emitter.Emit(context.Background(), event); err != nil {
			t.Fatalf("emit: %v", err)
		}
	}

	verbs := capture.Verbs()
	want := []string{VerbValueSet, VerbSectionCleared, VerbSaved}
	if len(verbs) != len(want) {
		t.Fatalf("expected %v, got %v", want, verbs)
	}
	for i := range want {
		if verbs[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, verbs)
		}
		if capture.Events[i].Channel != DefaultChannel {
			t.Fatalf("expected default channel, got %q", capture.Events[i].Channel)
		}
	}
}
