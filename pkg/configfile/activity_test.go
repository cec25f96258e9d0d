package configfile_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/goliatone/go-morphon/pkg/activity"
	"github.com/goliatone/go-morphon/pkg/configfile"
)

func TestMutationsEmitActivity(t *testing.T) {
	capture := &activity.CaptureHook{}
	emitter := activity.NewEmitter(activity.Hooks{capture}, activity.Config{Enabled: true})
	f, _ := newFile(t, configfile.WithActivity(emitter), configfile.WithActor("admin"), configfile.WithName("game"))

	_ = f.Set("display", "width", 1280)
	_ = f.SetObject("pets", "tom", &Cat{Animal: Animal{Name: "Tom"}})
	f.ClearKey("display", "width")
	f.ClearKey("display", "width")
	f.ClearSection("pets")
	path := filepath.Join(t.TempDir(), "game.json")
	if !f.Save(path) {
		t.Fatalf("save failed")
	}
	if !f.Load(path) {
		t.Fatalf("load failed")
	}
	f.Clear()

	want := []string{
		activity.VerbValueSet,
		activity.VerbValueSet,
		activity.VerbKeyCleared,
		activity.VerbSectionCleared,
		activity.VerbSaved,
		activity.VerbLoaded,
		activity.VerbCleared,
	}
	if got := capture.Verbs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected verbs %v, got %v", want, got)
	}

	set := capture.Events[0]
	if set.ObjectType != activity.ObjectValue || set.ObjectID != "display.width" || set.ActorID != "admin" {
		t.Fatalf("unexpected set event %+v", set)
	}
	if set.Metadata["value"] != int64(1280) || set.Metadata["document"] != "game" {
		t.Fatalf("unexpected set metadata %v", set.Metadata)
	}
	if set.Channel != activity.DefaultChannel {
		t.Fatalf("expected default channel, got %q", set.Channel)
	}

	saved := capture.Events[4]
	if saved.ObjectType != activity.ObjectDocument || saved.ObjectID != path {
		t.Fatalf("save event should name the file, got %+v", saved)
	}
}

func TestFailedOperationsDoNotEmit(t *testing.T) {
	capture := &activity.CaptureHook{}
	emitter := activity.NewEmitter(activity.Hooks{capture}, activity.Config{Enabled: true})
	f, _ := newFile(t, configfile.WithActivity(emitter))

	_ = f.Set("assets", "bad", &Texture{Path: "/outside"})
	f.ClearSection("missing")
	f.Load(filepath.Join(t.TempDir(), "missing.json"))

	if len(capture.Events) != 0 {
		t.Fatalf("expected no events, got %v", capture.Verbs())
	}
}

func TestHookErrorsAreLoggedNotReturned(t *testing.T) {
	failing := activity.HookFunc(func(_ context.Context, _ activity.Event) error {
		return errors.New("sink down")
	})
	emitter := activity.NewEmitter(activity.Hooks{failing}, activity.Config{Enabled: true})
	f, recorder := newFile(t, configfile.WithActivity(emitter))

	if err := f.Set("app", "title", "x"); err != nil {
		t.Fatalf("hook failure leaked into Set: %v", err)
	}
	if !f.HasSectionKey("app", "title") {
		t.Fatalf("value should be stored despite the hook failure")
	}
	if len(recorder.diags) != 1 || recorder.diags[0].Op != "activity" {
		t.Fatalf("expected one activity diagnostic, got %v", recorder.diags)
	}
}
