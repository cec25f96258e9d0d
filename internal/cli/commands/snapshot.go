package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-morphon/pkg/state"
)

// NewSnapshotCommand creates the snapshot command group.
func NewSnapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Store and restore documents in the state database",
		Long: `Store and restore documents in the SQLite state database.

Snapshots are keyed by domain (--domain) and name. The name defaults to the
file name without its extension.`,
	}
	cmd.AddCommand(newSnapshotPushCommand())
	cmd.AddCommand(newSnapshotPullCommand())
	cmd.AddCommand(newSnapshotListCommand())
	cmd.AddCommand(newSnapshotDeleteCommand())
	return cmd
}

func newSnapshotPushCommand() *cobra.Command {
	var (
		name string
		etag string
	)

	cmd := &cobra.Command{
		Use:   "push <file>",
		Short: "Save a document as a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			doc, err := cc.OpenDocument(args[0], false)
			if err != nil {
				return err
			}
			store, err := cc.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ref := cc.Ref(snapshotName(args[0], name))
			meta, err := doc.SaveSnapshot(cmd.Context(), store, ref, state.Meta{
				ETag:  etag,
				Extra: map[string]string{"source": args[0]},
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s/%s %s %s\n", ref.Domain, ref.Name, meta.SnapshotID, meta.ETag)
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Snapshot name (default: file name)")
	cmd.Flags().StringVar(&etag, "etag", "", "Expected ETag of the stored snapshot")
	return cmd
}

func newSnapshotPullCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "pull <file>",
		Short: "Write a stored snapshot to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			doc, err := cc.NewDocument()
			if err != nil {
				return err
			}
			store, err := cc.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ref := cc.Ref(snapshotName(args[0], name))
			meta, ok, err := doc.LoadSnapshot(cmd.Context(), store, ref)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no snapshot stored for %s/%s", ref.Domain, ref.Name)
			}
			if err := doc.WriteFile(args[0]); err != nil {
				return err
			}
			cc.Logger.Info("snapshot restored", "ref", ref.Domain+"/"+ref.Name, "etag", meta.ETag, "path", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Snapshot name (default: file name)")
	return cmd
}

func newSnapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots in the configured domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			store, err := cc.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			refs, err := store.List(cmd.Context(), cc.Settings.Domain)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(refs))
			for _, ref := range refs {
				names = append(names, ref.Name)
			}
			return printLines(cmd.OutOrStdout(), names)
		},
	}
}

func newSnapshotDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			store, err := cc.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ref := cc.Ref(args[0])
			deleted, err := store.Delete(cmd.Context(), ref)
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("no snapshot stored for %s/%s", ref.Domain, ref.Name)
			}
			return nil
		},
	}
}
