package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	morphon "github.com/goliatone/go-morphon"
)

// NewSectionsCommand creates the sections command.
func NewSectionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sections <file>",
		Short: "List the sections of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := NewCommandContext(cmd).OpenDocument(args[0], false)
			if err != nil {
				return err
			}
			return printLines(cmd.OutOrStdout(), doc.Sections())
		},
	}
}

// NewKeysCommand creates the keys command.
func NewKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keys <file> <section>",
		Short: "List the keys of a section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := NewCommandContext(cmd).OpenDocument(args[0], false)
			if err != nil {
				return err
			}
			if !doc.HasSection(args[1]) {
				return fmt.Errorf("section %q not found in %s", args[1], args[0])
			}
			return printLines(cmd.OutOrStdout(), doc.SectionKeys(args[1]))
		},
	}
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <file> <section> <key>",
		Short: "Print a stored value as JSON",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := NewCommandContext(cmd).OpenDocument(args[0], false)
			if err != nil {
				return err
			}
			value, ok := doc.Value(args[1], args[2])
			if !ok {
				return fmt.Errorf("key %q not found in section %q", args[2], args[1])
			}
			return printValue(cmd.OutOrStdout(), value)
		},
	}
}

// NewSetCommand creates the set command.
func NewSetCommand() *cobra.Command {
	var asString bool

	cmd := &cobra.Command{
		Use:   "set <file> <section> <key> <value>",
		Short: "Store a value and save the document",
		Long: `Store a value under section/key and write the document back.

VALUE is parsed as JSON; anything that does not parse is stored as a string.
The file is created when it does not exist.`,
		Example: `  morphon set app.json display width 1280
  morphon set app.yaml display title '"Main"'
  morphon set app.json display mode 42 --string`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := NewCommandContext(cmd).OpenDocument(args[0], true)
			if err != nil {
				return err
			}
			if err := doc.Set(args[1], args[2], parseValue(args[3], asString)); err != nil {
				return err
			}
			return doc.WriteFile(args[0])
		},
	}

	cmd.Flags().BoolVar(&asString, "string", false, "Store VALUE as a string without parsing")
	return cmd
}

// NewClearCommand creates the clear command.
func NewClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <file> [section [key]]",
		Short: "Remove a key, a section or everything",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := NewCommandContext(cmd).OpenDocument(args[0], false)
			if err != nil {
				return err
			}
			switch len(args) {
			case 1:
				doc.Clear()
			case 2:
				if !doc.ClearSection(args[1]) {
					return fmt.Errorf("section %q not found in %s", args[1], args[0])
				}
			default:
				if !doc.ClearKey(args[1], args[2]) {
					return fmt.Errorf("key %q not found in section %q", args[2], args[1])
				}
			}
			return doc.WriteFile(args[0])
		},
	}
}

// NewEvalCommand creates the eval command.
func NewEvalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "eval <file> <expression>",
		Short: "Evaluate an expression against a document",
		Long: `Evaluate an expression with every section bound as a variable.

The engine is chosen with --engine (expr, cel or js).`,
		Example: `  morphon eval app.json 'display.width > 800'
  morphon eval app.json 'size(pets.litter)' --engine cel`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := NewCommandContext(cmd).OpenDocument(args[0], false)
			if err != nil {
				return err
			}
			result, err := doc.Evaluate(args[1])
			if err != nil {
				return err
			}
			value, err := morphon.ValueOf(result)
			if err != nil {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), result)
				return err
			}
			return printValue(cmd.OutOrStdout(), value)
		},
	}
}

// NewConvertCommand creates the convert command.
func NewConvertCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "convert <src> <dst>",
		Short:   "Rewrite a document in the format of the destination path",
		Example: `  morphon convert app.json app.yaml`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := NewCommandContext(cmd).OpenDocument(args[0], false)
			if err != nil {
				return err
			}
			return doc.WriteFile(args[1])
		},
	}
}

// parseValue decodes raw as JSON, falling back to the raw string.
func parseValue(raw string, asString bool) morphon.Value {
	if asString {
		return morphon.String(raw)
	}
	value, err := morphon.Decode([]byte(raw))
	if err != nil {
		return morphon.String(raw)
	}
	return value
}

func printValue(w io.Writer, value morphon.Value) error {
	data, err := morphon.Encode(value)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func printLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
