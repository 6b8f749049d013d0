package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/comet-hive/comet/internal/shortcut"
)

// LoadResult contains the outcome of loading a shortcut registry directory.
type LoadResult struct {
	Nodes     []shortcut.Node
	CUEValue  cue.Value // unified CUE value, kept for additional processing
	FileCount int       // number of .cue files found
}

// LoadDir loads every .cue file under dir, unifies them, and compiles the
// top-level shortcuts struct into nodes in declaration order.
func (c *Compiler) LoadDir(dir string) (*LoadResult, error) {
	// Directory access problems are plain errors; CompileError is
	// reserved for CUE content failures.
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("directory not found: %s", dir)
	}
	if err != nil {
		return nil, fmt.Errorf("error accessing directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("error scanning directory: %w", err)
	}
	if len(cueFiles) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	nodes, err := c.CompileAll(value)
	if err != nil {
		return nil, err
	}

	return &LoadResult{
		Nodes:     nodes,
		CUEValue:  value,
		FileCount: len(cueFiles),
	}, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
