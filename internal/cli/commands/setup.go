package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	morphon "github.com/goliatone/go-morphon"
	"github.com/goliatone/go-morphon/internal/cli/config"
	"github.com/goliatone/go-morphon/pkg/activity"
	"github.com/goliatone/go-morphon/pkg/configfile"
	"github.com/goliatone/go-morphon/pkg/rules"
	"github.com/goliatone/go-morphon/pkg/state"
)

// CommandContext holds the dependencies shared by commands.
type CommandContext struct {
	Settings *config.Settings
	Logger   *slog.Logger
}

// NewCommandContext reads settings and logger from the command context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	return &CommandContext{
		Settings: config.GetSettings(ctx),
		Logger:   config.GetLogger(ctx),
	}
}

// NewDocument returns an empty document wired to the CLI settings.
func (c *CommandContext) NewDocument() (*configfile.File, error) {
	evaluator, err := rules.NewEvaluator(strings.ToLower(c.Settings.Engine), rules.NewMapCache(), nil)
	if err != nil {
		return nil, err
	}

	serializer := morphon.New(
		morphon.WithReferencePrefix(c.Settings.ReferencePrefix),
		morphon.WithSlogLogger(c.Logger),
	)
	opts := []configfile.Option{
		configfile.WithSerializer(serializer),
		configfile.WithSlogLogger(c.Logger),
		configfile.WithEvaluator(evaluator),
		configfile.WithActor(c.Settings.Actor),
		configfile.WithActivity(activity.NewEmitter(activity.Hooks{logHook(c.Logger)}, activity.Config{Enabled: true})),
	}
	if c.Settings.Codec != "" {
		codec, err := configfile.CodecByName(c.Settings.Codec)
		if err != nil {
			return nil, err
		}
		opts = append(opts, configfile.WithCodec(codec))
	}
	return configfile.New(opts...), nil
}

// OpenDocument reads path into a new document. With allowMissing a missing
// file yields an empty document named path.
func (c *CommandContext) OpenDocument(path string, allowMissing bool) (*configfile.File, error) {
	doc, err := c.NewDocument()
	if err != nil {
		return nil, err
	}
	if err := doc.ReadFile(path); err != nil {
		if allowMissing && errors.Is(err, fs.ErrNotExist) {
			c.Logger.Debug("starting new document", "path", path)
			return doc, nil
		}
		return nil, err
	}
	return doc, nil
}

// OpenStore opens the SQLite snapshot store, creating its directory.
func (c *CommandContext) OpenStore() (*state.SQLiteStore, error) {
	path := c.Settings.StatePath
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create state directory: %w", err)
			}
		}
	}
	return state.OpenSQLite(path)
}

// Ref returns the snapshot ref for name in the configured domain.
func (c *CommandContext) Ref(name string) state.Ref {
	return state.Ref{Domain: c.Settings.Domain, Name: name}
}

func logHook(logger *slog.Logger) activity.HookFunc {
	return func(ctx context.Context, event activity.Event) error {
		logger.DebugContext(ctx, "config activity",
			"verb", event.Verb,
			"object_type", event.ObjectType,
			"object_id", event.ObjectID,
			"actor", event.ActorID,
		)
		return nil
	}
}

// snapshotName defaults to the file name without its extension.
func snapshotName(path, explicit string) string {
	if explicit != "" {
		return explicit
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
