// Package replayparser wires every pipeline stage together: container
// decode, schema resolution, packet framing, semantic decoding, and analyzer
// dispatch. It is the only package that imports all the others, mirroring
// the teacher's cmd/screp → repparser → rep/repcmd/repcore layering. See
// spec.md §2, §5.
package replayparser

import (
	"context"
	"fmt"
	"io"

	"github.com/navalreplay/analyzer/analyzer"
	"github.com/navalreplay/analyzer/battle"
	"github.com/navalreplay/analyzer/battlecmd"
	"github.com/navalreplay/analyzer/container"
	"github.com/navalreplay/analyzer/logx"
	"github.com/navalreplay/analyzer/resource"
	"github.com/navalreplay/analyzer/schema"
	"github.com/navalreplay/analyzer/wire/wiredecode"
	"github.com/navalreplay/analyzer/wire/wireframe"
)

// Result is the outcome of running the pipeline once over a replay.
type Result struct {
	Metadata *container.Metadata
	Report   *battle.Report
}

// Run decodes, frames, decodes semantically, and reconstructs one replay,
// feeding packets to extraAnalyzers alongside the battle controller. ctx is
// checked once per packet for cooperative cancellation (spec.md §5: "the
// host stops pulling packets; in-flight state is dropped without further
// obligation") — there are no other suspension points in the pipeline.
func Run(ctx context.Context, r io.Reader, resources resource.Loader, log logx.Logger, extraAnalyzers ...analyzer.Analyzer) (*Result, error) {
	meta, payload, err := container.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("replayparser: container decode: %w", err)
	}

	bundle, ok := resources.SchemaForBuild(meta.Build)
	if !ok {
		return nil, fmt.Errorf("replayparser: %w: %q", schema.ErrVersionUnknown, meta.Build)
	}

	decoder := battlecmd.NewDecoder(bundle)
	controller := battle.NewController(resources, log)
	controller.SetSchemaVersion(bundle.Build)
	battleAnalyzer := analyzer.NewBattleAnalyzer(decoder, controller)

	mux := analyzer.NewMultiplexer(battleAnalyzer)
	for _, a := range extraAnalyzers {
		mux.Register(a)
	}

	variantDecoder := wiredecode.NewBuilder(bundle).Decoder()
	framer := wireframe.New(payload, variantDecoder)
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("replayparser: %w", err)
		}
		pkt, err := framer.Next()
		if err == io.EOF {
			break
		}
		if err == wireframe.ErrTruncated {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("replayparser: framing: %w", err)
		}
		if err := mux.Process(pkt); err != nil {
			log.Warn("analyzer processing error", logx.F("error", err.Error()))
		}
	}

	if err := mux.Finish(); err != nil {
		return nil, fmt.Errorf("replayparser: finish: %w", err)
	}

	return &Result{Metadata: meta, Report: battleAnalyzer.Report()}, nil
}
