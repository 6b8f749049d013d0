package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comet-hive/comet/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	DBPath   string
	Registry string
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Verify a persisted audit log replays deterministically",
		Long: `Re-execute every persisted record against the current registry and
verify that results recompute byte-identically.

Exit codes:
  0 - all records replay deterministically
  1 - mismatches found (details in output)
  2 - command error (bad paths, unreadable database)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "audit database path (required)")
	cmd.Flags().StringVar(&opts.Registry, "registry", "", "CUE registry directory (required)")
	cmd.MarkFlagRequired("db")
	cmd.MarkFlagRequired("registry")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	nodes, err := loadRegistry(opts.Registry)
	if err != nil {
		return err
	}

	eng, err := buildEngine(nodes)
	if err != nil {
		return err
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open audit database", err)
	}
	defer st.Close()

	records, err := st.ReadAll(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "read audit database", err)
	}
	formatter.VerboseLog("Replaying %d record(s) against %d shortcut(s)", len(records), len(nodes))

	report := eng.VerifyRecords(records)

	if opts.Format == "json" {
		if err := formatter.Success(report); err != nil {
			return err
		}
	} else {
		if report.Deterministic {
			fmt.Fprintf(cmd.OutOrStdout(), "DETERMINISTIC: %d record(s) verified\n", report.Records)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "NON-DETERMINISTIC: %d issue(s) in %d record(s)\n",
				len(report.Issues), report.Records)
			for _, issue := range report.Issues {
				fmt.Fprintf(cmd.OutOrStdout(), "  [%s] record %s: %s\n",
					issue.Code, issue.RecordID, issue.Message)
			}
		}
	}

	if !report.Deterministic {
		return NewExitError(ExitFailure, "replay verification failed")
	}
	return nil
}
