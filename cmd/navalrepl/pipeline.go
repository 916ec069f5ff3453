package main

import (
	"context"
	"fmt"
	"os"

	"github.com/navalreplay/analyzer/logx"
	"github.com/navalreplay/analyzer/replayparser"
	"github.com/navalreplay/analyzer/resource"
)

// runPipeline loads the resource loader named by cfg, opens path, and runs
// the full decode/reconstruction pipeline over it.
func runPipeline(cfg *resolvedConfig, path string) (*replayparser.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	loader, err := resource.LoadFromDir(cfg.GameDir, cfg.SchemaDir)
	if err != nil {
		return nil, fmt.Errorf("loading resources: %w", err)
	}

	result, err := replayparser.Run(context.Background(), f, loader, logx.GetLogger())
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return result, nil
}
