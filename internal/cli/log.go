package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comet-hive/comet/internal/engine"
	"github.com/comet-hive/comet/internal/store"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	DBPath string
	Node   string
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Dump the durable audit log",
		Long: `Dump execution records from a durable audit database in seq order.

Every record is proof of one successful execution; nothing here is ever
sampled or truncated.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "audit database path (required)")
	cmd.Flags().StringVar(&opts.Node, "node", "", "filter by node_id")
	cmd.MarkFlagRequired("db")

	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open audit database", err)
	}
	defer st.Close()

	var records []engine.Record
	if opts.Node != "" {
		records, err = st.ReadByNode(cmd.Context(), opts.Node)
	} else {
		records, err = st.ReadAll(cmd.Context())
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "read audit database", err)
	}

	if opts.Format == "json" {
		return formatter.Success(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No execution records.")
		return nil
	}

	for _, rec := range records {
		fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s node=%s result=%s context=%s\n",
			rec.Seq, rec.Timestamp, rec.NodeID, rec.Result.ResultID, rec.ContextHash)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d record(s)\n", len(records))
	return nil
}
