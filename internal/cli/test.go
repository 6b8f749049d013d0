package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comet-hive/comet/internal/harness"
)

// ScenarioOutcome summarizes one scenario run.
type ScenarioOutcome struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Events int      `json:"events"`
	Errors []string `json:"errors,omitempty"`
}

// TestSummary is the test command's aggregate output.
type TestSummary struct {
	Total     int               `json:"total"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Scenarios []ScenarioOutcome `json:"scenarios"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <scenario.yaml>...",
		Short: "Run conformance scenarios",
		Long: `Run one or more YAML conformance scenarios against a real engine.

Each scenario runs in a fresh engine with deterministic time and record-ID
sources, so failures are always reproducible.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runTest(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	summary := TestSummary{}
	for _, path := range paths {
		scenario, err := harness.LoadScenario(path)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("load scenario %s", path), err)
		}

		formatter.VerboseLog("Running scenario %s (%s)", scenario.Name, path)
		result, err := harness.Run(scenario)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("run scenario %s", scenario.Name), err)
		}

		outcome := ScenarioOutcome{
			Name:   scenario.Name,
			Pass:   result.Pass,
			Events: len(result.Events),
			Errors: result.Errors,
		}
		summary.Total++
		if result.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
		summary.Scenarios = append(summary.Scenarios, outcome)
	}

	if opts.Format == "json" {
		if err := formatter.Success(summary); err != nil {
			return err
		}
	} else {
		for _, outcome := range summary.Scenarios {
			status := "PASS"
			if !outcome.Pass {
				status = "FAIL"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d event(s))\n", status, outcome.Name, outcome.Events)
			for _, msg := range outcome.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", msg)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d scenario(s): %d passed, %d failed\n",
			summary.Total, summary.Passed, summary.Failed)
	}

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", summary.Failed))
	}
	return nil
}
