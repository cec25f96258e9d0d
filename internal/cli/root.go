// Package cli implements the morphon command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-morphon/internal/cli/commands"
	"github.com/goliatone/go-morphon/internal/cli/config"
)

// Version is set at build time with -ldflags.
var Version = "0.1.0"

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var settingsFile string

	rootCmd := &cobra.Command{
		Use:   "morphon",
		Short: "Inspect and edit sectioned configuration documents",
		Long: `morphon reads and writes sectioned configuration documents in JSON or
YAML, evaluates expressions against them and keeps snapshots in SQLite.

Settings come from morphon.yaml (or --config), MORPHON_* environment
variables and flags, in increasing order of precedence.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			settings, err := config.LoadSettings(settingsFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			logger := config.NewLogger(cmd.ErrOrStderr(), settings)
			if settings.File != "" {
				logger.Debug("using settings file", "path", settings.File)
			}

			ctx := config.WithSettings(cmd.Context(), settings)
			ctx = config.WithLogger(ctx, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&settingsFile, "config", "", "settings file (default: ./morphon.yaml)")
	flags.String("codec", "", "Force a document format (json|yaml)")
	flags.String("engine", "", "Expression engine (expr|cel|js)")
	flags.String("reference-prefix", "", "Prefix marking resource references")
	flags.String("state", "", "Path to the snapshot database")
	flags.String("domain", "", "Snapshot domain")
	flags.String("actor", "", "Actor recorded on activity events")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
	flags.BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("engine", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"expr", "cel", "js"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("codec", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewSectionsCommand())
	rootCmd.AddCommand(commands.NewKeysCommand())
	rootCmd.AddCommand(commands.NewGetCommand())
	rootCmd.AddCommand(commands.NewSetCommand())
	rootCmd.AddCommand(commands.NewClearCommand())
	rootCmd.AddCommand(commands.NewEvalCommand())
	rootCmd.AddCommand(commands.NewConvertCommand())
	rootCmd.AddCommand(commands.NewSnapshotCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
