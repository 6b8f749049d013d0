package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comet-hive/comet/internal/compiler"
)

// ValidationResult holds validate command output.
type ValidationResult struct {
	Valid     bool     `json:"valid"`
	FileCount int      `json:"file_count"`
	Nodes     []string `json:"nodes,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <registry-dir>",
		Short: "Validate a CUE shortcut registry",
		Long: `Validate a directory of CUE shortcut declarations.

Compiles every declaration and runs full node validation (confidence
bounds, citation presence) without executing anything.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result, err := compiler.New().LoadDir(dir)
	if err != nil {
		var compileErr *compiler.CompileError
		if errors.As(err, &compileErr) {
			out := ValidationResult{Valid: false, Errors: []string{compileErr.Error()}}
			if opts.Format == "json" {
				if err := formatter.Success(out); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "INVALID\n  %s\n", compileErr.Error())
			}
			return NewExitError(ExitFailure, "validation failed")
		}
		return WrapExitError(ExitCommandError, "registry load failed", err)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, dir)

	out := ValidationResult{Valid: true, FileCount: result.FileCount}
	for _, node := range result.Nodes {
		out.Nodes = append(out.Nodes, node.NodeID)
	}

	if opts.Format == "json" {
		return formatter.Success(out)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "VALID: %d shortcut(s) in %d file(s)\n", len(out.Nodes), out.FileCount)
	for _, id := range out.Nodes {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", id)
	}
	return nil
}
