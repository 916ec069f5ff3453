package analyzer

import (
	"github.com/navalreplay/analyzer/battle"
	"github.com/navalreplay/analyzer/battlecmd"
	"github.com/navalreplay/analyzer/wire"
)

// BattleAnalyzer adapts a battlecmd.Decoder + battle.Controller pair into
// the Analyzer interface, so a battle reconstruction run is "one more
// Analyzer registered with the Multiplexer" (spec.md §4.8).
type BattleAnalyzer struct {
	decoder    *battlecmd.Decoder
	controller *battle.Controller
	report     *battle.Report
}

// NewBattleAnalyzer constructs a BattleAnalyzer over an already-constructed
// decoder and controller.
func NewBattleAnalyzer(decoder *battlecmd.Decoder, controller *battle.Controller) *BattleAnalyzer {
	return &BattleAnalyzer{decoder: decoder, controller: controller}
}

// Process decodes pkt into a SemanticEvent and feeds it to the controller.
func (a *BattleAnalyzer) Process(pkt *wire.Packet) error {
	evt, err := a.decoder.Decode(pkt)
	if err != nil {
		return err
	}
	return a.controller.Process(evt)
}

// Finish seals the controller. The sealed Report is available via Report
// after Finish returns nil.
func (a *BattleAnalyzer) Finish() error {
	report, err := a.controller.Finish()
	if err != nil {
		return err
	}
	a.report = report
	return nil
}

// Report returns the sealed Report, or nil if Finish hasn't been called.
func (a *BattleAnalyzer) Report() *battle.Report {
	return a.report
}
