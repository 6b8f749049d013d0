package cli

import (
	"errors"
	"fmt"

	"github.com/comet-hive/comet/internal/compiler"
	"github.com/comet-hive/comet/internal/engine"
	"github.com/comet-hive/comet/internal/shortcut"
)

// loadRegistry compiles the CUE registry directory into nodes.
// Compile failures are reported as ExitCommandError with the CUE position
// preserved in the message.
func loadRegistry(dir string) ([]shortcut.Node, error) {
	result, err := compiler.New().LoadDir(dir)
	if err != nil {
		var compileErr *compiler.CompileError
		if errors.As(err, &compileErr) {
			return nil, WrapExitError(ExitCommandError, "registry load failed", compileErr)
		}
		return nil, WrapExitError(ExitCommandError, "registry load failed", err)
	}
	return result.Nodes, nil
}

// buildEngine creates an engine with every node registered, preserving the
// registry's declaration order.
func buildEngine(nodes []shortcut.Node, opts ...engine.Option) (*engine.Engine, error) {
	eng := engine.New(opts...)
	for _, node := range nodes {
		if err := eng.Register(node); err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("register %s", node.NodeID), err)
		}
	}
	return eng, nil
}
