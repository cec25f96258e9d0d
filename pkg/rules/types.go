package rules

import (
	"errors"
	"fmt"
	"time"
)

var ErrNoEvaluator = errors.New("rules: evaluator not configured")

// RuleContext carries inputs needed when evaluating an expression. Each
// Snapshot entry is bound as a top-level variable.
type RuleContext struct {
	Snapshot map[string]any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	// Source labels the document being queried in errors and logs.
	Source string
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	if ctx.Now == nil {
		return time.Now()
	}
	return *ctx.Now
}

func (ctx RuleContext) sourceLabel() string {
	if ctx.Source != "" {
		return ctx.Source
	}
	return "unknown"
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// Evaluate runs expr with evaluator and reports the attempt to logger.
func Evaluate(evaluator Evaluator, logger EvaluatorLogger, ctx RuleContext, expr string) (any, error) {
	if expr == "" {
		return nil, fmt.Errorf("rules: expression must not be empty")
	}
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	if logger == nil {
		logger = noopEvaluatorLogger{}
	}
	ctx = ctx.withDefaults()
	engine := EngineName(evaluator)
	start := time.Now()
	value, err := evaluator.Evaluate(ctx, expr)
	duration := time.Since(start)
	err = wrapEvaluationError(engine, expr, ctx.sourceLabel(), err)
	logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Source:   ctx.sourceLabel(),
		Duration: duration,
		Err:      err,
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// EngineName returns "expr", "cel", "js" or "custom".
func EngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	}
	if isJSEvaluator(e) {
		return "js"
	}
	return "custom"
}

// NewEvaluator returns the evaluator for engine ("expr", "cel" or "js"). The
// js engine needs the js_eval build tag.
func NewEvaluator(engine string, cache ProgramCache, registry *FunctionRegistry) (Evaluator, error) {
	switch engine {
	case "", "expr":
		return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(registry)), nil
	case "cel":
		return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(registry)), nil
	case "js":
		e := NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(registry))
		if e == nil {
			return nil, fmt.Errorf("%w: js engine requires the js_eval build tag", ErrNoEvaluator)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrNoEvaluator, engine)
	}
}
