package configfile

import (
	morphon "github.com/goliatone/go-morphon"
	"github.com/goliatone/go-morphon/pkg/rules"
)

// Snapshot returns the document as plain Go maps, one entry per section.
func (f *File) Snapshot() map[string]any {
	out := make(map[string]any, f.sections.Len())
	for name, section := range f.sections.All() {
		out[name] = section.Interface()
	}
	return out
}

// Evaluate runs expr against the document. Each section is a top-level
// variable, so `display.width > 800` reads key width of section display.
func (f *File) Evaluate(expr string) (any, error) {
	return f.EvaluateWith(rules.RuleContext{}, expr)
}

// EvaluateWith is Evaluate with caller supplied args, metadata and clock.
// The snapshot and source of rc are always taken from the document.
func (f *File) EvaluateWith(rc rules.RuleContext, expr string) (any, error) {
	rc.Snapshot = f.Snapshot()
	rc.Source = f.name
	value, err := rules.Evaluate(f.cfg.evaluator, f.cfg.evalLogger, rc, expr)
	if err != nil {
		return nil, &morphon.Error{Op: "evaluate", Err: err}
	}
	return value, nil
}
