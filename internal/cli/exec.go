package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/comet-hive/comet/internal/axiom"
	"github.com/comet-hive/comet/internal/engine"
	"github.com/comet-hive/comet/internal/store"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	Registry string
	Context  string
	DBPath   string
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <node-id>",
		Short: "Execute a shortcut against a context",
		Long: `Execute a registered shortcut against a JSON context.

Loads the registry, executes the shortcut, and prints the deterministic
result. With --db, the execution record is also appended to the durable
audit database.

Example:
  comet exec github_notifications --registry ./registry --context '{"user":"u1"}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Registry, "registry", "", "CUE registry directory (required)")
	cmd.Flags().StringVar(&opts.Context, "context", "{}", "execution context as JSON")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "audit database path (optional)")
	cmd.MarkFlagRequired("registry")

	return cmd
}

func runExec(opts *ExecOptions, nodeID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(opts.Context), &raw); err != nil {
		return WrapExitError(ExitCommandError, "invalid --context JSON", err)
	}
	execCtx, err := axiom.ObjectFromGo(raw)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --context value", err)
	}

	nodes, err := loadRegistry(opts.Registry)
	if err != nil {
		return err
	}
	formatter.VerboseLog("Loaded %d shortcut(s) from %s", len(nodes), opts.Registry)

	engOpts := []engine.Option{}
	if opts.Verbose {
		engOpts = append(engOpts, engine.WithLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))))
	}
	if opts.DBPath != "" {
		st, err := store.Open(opts.DBPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "open audit database", err)
		}
		defer st.Close()
		engOpts = append(engOpts, engine.WithAuditSink(st))

		// Position the clock past persisted history so seq stays
		// strictly increasing across process restarts.
		maxSeq, err := st.MaxSeq(cmd.Context())
		if err != nil {
			return WrapExitError(ExitCommandError, "read audit database", err)
		}
		engOpts = append(engOpts, engine.WithClock(engine.NewClockAt(maxSeq)))
	}

	eng, err := buildEngine(nodes, engOpts...)
	if err != nil {
		return err
	}

	result, err := eng.Execute(cmd.Context(), nodeID, execCtx)
	if err != nil {
		if engine.IsNotFound(err) {
			formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return NewExitError(ExitFailure, err.Error())
		}
		return WrapExitError(ExitCommandError, "execution failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
	return nil
}
