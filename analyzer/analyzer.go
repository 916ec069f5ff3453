// Package analyzer implements the Analyzer capability and a Multiplexer
// fanning out the packet stream to N independent analyzers, per spec.md
// §4.8.
package analyzer

import (
	"errors"

	"github.com/navalreplay/analyzer/wire"
)

// Analyzer consumes the packet stream and may hold state. Analyzers never
// see each other's state; the Multiplexer imposes no ordering beyond
// registration order (spec.md §4.8).
type Analyzer interface {
	Process(pkt *wire.Packet) error
	Finish() error
}

// Multiplexer composes N Analyzers sharing one packet stream. It is not
// safe for concurrent use.
type Multiplexer struct {
	analyzers []Analyzer
}

// NewMultiplexer constructs a Multiplexer over the given analyzers, run in
// the order given.
func NewMultiplexer(analyzers ...Analyzer) *Multiplexer {
	return &Multiplexer{analyzers: analyzers}
}

// Register appends an analyzer, to be run after every analyzer already
// registered.
func (m *Multiplexer) Register(a Analyzer) {
	m.analyzers = append(m.analyzers, a)
}

// Process fans pkt out to every registered analyzer in registration order.
// One analyzer's error does not stop dispatch to the rest (spec.md §4.8:
// "each is independent"); all errors are collected and joined.
func (m *Multiplexer) Process(pkt *wire.Packet) error {
	var errs []error
	for _, a := range m.analyzers {
		if err := a.Process(pkt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Finish runs every analyzer's Finish in registration order, joining all
// errors raised.
func (m *Multiplexer) Finish() error {
	var errs []error
	for _, a := range m.analyzers {
		if err := a.Finish(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
