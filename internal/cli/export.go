package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Registry string
	Output   string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the registry as an Axiom JSON Schema document",
		Long: `Export the full shortcut registry as a canonical Axiom JSON Schema
document.

Output is byte-identical for identical registries: keys are in canonical
order and shortcuts appear in registration order. Execution history is
never included.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Registry, "registry", "", "CUE registry directory (required)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write schema to file instead of stdout")
	cmd.MarkFlagRequired("registry")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	nodes, err := loadRegistry(opts.Registry)
	if err != nil {
		return err
	}

	eng, err := buildEngine(nodes)
	if err != nil {
		return err
	}

	data, err := eng.ExportSchema().EncodeCanonical()
	if err != nil {
		return WrapExitError(ExitCommandError, "encode schema", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
			return WrapExitError(ExitCommandError, "write schema file", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d shortcut(s) to %s\n", len(nodes), opts.Output)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
