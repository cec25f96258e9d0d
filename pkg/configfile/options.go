package configfile

import (
	"log/slog"

	morphon "github.com/goliatone/go-morphon"
	"github.com/goliatone/go-morphon/pkg/activity"
	"github.com/goliatone/go-morphon/pkg/rules"
)

// Option configures a File.
type Option func(*fileConfig)

type fileConfig struct {
	serializer *morphon.Serializer
	logger     morphon.DiagnosticLogger
	emitter    *activity.Emitter
	actorID    string
	evaluator  rules.Evaluator
	evalLogger rules.EvaluatorLogger
	codec      Codec
	name       string
}

// WithSerializer sets the serializer used to store and rebuild objects.
// Without it the File uses morphon.New with the default registry.
func WithSerializer(s *morphon.Serializer) Option {
	return func(cfg *fileConfig) {
		cfg.serializer = s
	}
}

// WithDiagnosticLogger receives I/O failures, skipped list elements and
// activity hook errors. When no serializer is given, the default one logs
// here as well.
func WithDiagnosticLogger(logger morphon.DiagnosticLogger) Option {
	return func(cfg *fileConfig) {
		cfg.logger = logger
	}
}

// WithSlogLogger routes diagnostics and rule evaluations to logger.
func WithSlogLogger(logger *slog.Logger) Option {
	return func(cfg *fileConfig) {
		cfg.logger = morphon.NewSlogLogger(logger)
		cfg.evalLogger = rules.NewSlogLogger(logger)
	}
}

// WithActivity emits an event for every mutation, save and load.
func WithActivity(emitter *activity.Emitter) Option {
	return func(cfg *fileConfig) {
		cfg.emitter = emitter
	}
}

// WithActor stamps emitted events with actorID.
func WithActor(actorID string) Option {
	return func(cfg *fileConfig) {
		cfg.actorID = actorID
	}
}

// WithEvaluator replaces the expr engine used by Evaluate.
func WithEvaluator(e rules.Evaluator) Option {
	return func(cfg *fileConfig) {
		if e != nil {
			cfg.evaluator = e
		}
	}
}

func WithEvaluatorLogger(logger rules.EvaluatorLogger) Option {
	return func(cfg *fileConfig) {
		cfg.evalLogger = logger
	}
}

// WithCodec forces a codec for Encode, Decode and every file path,
// overriding the choice by extension.
func WithCodec(codec Codec) Option {
	return func(cfg *fileConfig) {
		cfg.codec = codec
	}
}

// WithName labels the document in events and diagnostics until it is saved
// or loaded under a path.
func WithName(name string) Option {
	return func(cfg *fileConfig) {
		cfg.name = name
	}
}

func applyOptions(opts []Option) fileConfig {
	cfg := fileConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.serializer == nil {
		var serializerOpts []morphon.Option
		if cfg.logger != nil {
			serializerOpts = append(serializerOpts, morphon.WithDiagnosticLogger(cfg.logger))
		}
		cfg.serializer = morphon.New(serializerOpts...)
	}
	if cfg.logger == nil {
		cfg.logger = cfg.serializer.Logger()
	}
	if cfg.evaluator == nil {
		cfg.evaluator = rules.NewExprEvaluator()
	}
	return cfg
}
