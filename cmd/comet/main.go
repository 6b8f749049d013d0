// Command comet is the CLI for the Comet shortcut registry and
// deterministic execution harness.
package main

import (
	"fmt"
	"os"

	"github.com/comet-hive/comet/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
