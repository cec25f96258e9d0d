package configfile_test

import (
	"errors"
	"testing"
	"time"

	morphon "github.com/goliatone/go-morphon"
	"github.com/goliatone/go-morphon/pkg/configfile"
	"github.com/goliatone/go-morphon/pkg/rules"
)

func TestSnapshotExposesPlainMaps(t *testing.T) {
	f, _ := newFile(t)
	populate(t, f)

	snapshot := f.Snapshot()
	app, ok := snapshot["app"].(map[string]any)
	if !ok {
		t.Fatalf("expected app section map, got %T", snapshot["app"])
	}
	if app["title"] != "Morphon" || app["retries"] != int64(3) || app["nothing"] != nil {
		t.Fatalf("unexpected app section %v", app)
	}
	tom := snapshot["pets"].(map[string]any)["tom"].(map[string]any)
	if tom["Type"] != "pkg.Cat" {
		t.Fatalf("objects should keep their type tag, got %v", tom)
	}
}

func TestEvaluateWithDefaultEngine(t *testing.T) {
	f, _ := newFile(t)
	populate(t, f)

	cases := map[string]any{
		`app.title`:            "Morphon",
		`app.retries * 2 == 6`: true,
		`display.window.width > 800 && app.debug`: true,
		`pets.tom.color`:   "#ff0000",
		`len(pets.litter)`: 2,
	}
	for expr, want := range cases {
		got, err := f.Evaluate(expr)
		if err != nil {
			t.Fatalf("%s: %v", expr, err)
		}
		if got != want {
			t.Fatalf("%s: expected %v (%T), got %v (%T)", expr, want, want, got, got)
		}
	}

	if _, err := f.Evaluate(`app.title +`); err == nil {
		t.Fatalf("expected compile error")
	} else {
		var evalErr *rules.EvaluationError
		if !errors.As(err, &evalErr) {
			t.Fatalf("expected EvaluationError, got %T: %v", err, err)
		}
		var morphonErr *morphon.Error
		if !errors.As(err, &morphonErr) || morphonErr.Op != "evaluate" {
			t.Fatalf("expected morphon error with op evaluate, got %v", err)
		}
	}
}

func TestEvaluateWithCELEngine(t *testing.T) {
	f, _ := newFile(t, configfile.WithEvaluator(rules.NewCELEvaluator()))
	populate(t, f)

	got, err := f.Evaluate(`app.retries > 2 && app.title == "Morphon"`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got != true {
		t.Fatalf("expected true, got %v", got)
	}
}

func TestEvaluateWithArgsAndLogger(t *testing.T) {
	var events []rules.EvaluatorLogEvent
	logger := rules.EvaluatorLoggerFunc(func(event rules.EvaluatorLogEvent) {
		events = append(events, event)
	})
	f, _ := newFile(t, configfile.WithEvaluatorLogger(logger), configfile.WithName("game.json"))
	populate(t, f)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := f.EvaluateWith(rules.RuleContext{
		Now:  &now,
		Args: map[string]any{"limit": 3},
		// Caller snapshots are replaced by the document.
		Snapshot: map[string]any{"app": map[string]any{"retries": 100}},
	}, `app.retries <= args.limit`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got != true {
		t.Fatalf("expected true, got %v", got)
	}
	if len(events) != 1 || events[0].Source != "game.json" || events[0].Engine != "expr" {
		t.Fatalf("unexpected log events %+v", events)
	}
}
