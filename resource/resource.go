// Package resource defines the ResourceLoader capability: the read-only
// mapping from numeric/string IDs to game parameter records, localized
// names, and per-build schema bundles, borrowed by the battle controller
// for its lifetime. See spec.md §4.9/§5/§6.
package resource

import (
	"sync"

	"github.com/navalreplay/analyzer/schema"
)

// ParamRecord is a single game-parameter entry (ship, shell, consumable,
// etc.) keyed by its numeric param id.
type ParamRecord struct {
	ID   uint32
	Name string
	Kind string
	Raw  map[string]any
}

// Loader is the capability the battle controller consumes to resolve
// numeric ids into human-meaningful records, without owning how those
// records were loaded (file, archive, network) — that's always external
// to the core per spec.md §1 Out of scope.
type Loader interface {
	GameParamByID(id uint32) (*ParamRecord, bool)
	LocalizedNameFromID(id string) (string, bool)
	SchemaForBuild(build string) (*schema.Bundle, bool)
}

// data is the backing store shared by both the exclusive and shared
// variants; only the synchronization discipline around it differs.
type data struct {
	params     map[uint32]*ParamRecord
	localized  map[string]string
	schemas    *schema.Registry
}

// exclusive is a Loader with no internal locking: correct only when owned
// by exactly one pipeline instance for its lifetime (spec.md §5).
type exclusive struct {
	d *data
}

// NewExclusive constructs a Loader with no internal synchronization, for a
// single-threaded host running one pipeline instance at a time.
func NewExclusive(params map[uint32]*ParamRecord, localized map[string]string, schemas *schema.Registry) Loader {
	return &exclusive{d: &data{params: params, localized: localized, schemas: schemas}}
}

func (e *exclusive) GameParamByID(id uint32) (*ParamRecord, bool) {
	p, ok := e.d.params[id]
	return p, ok
}

func (e *exclusive) LocalizedNameFromID(id string) (string, bool) {
	s, ok := e.d.localized[id]
	return s, ok
}

func (e *exclusive) SchemaForBuild(build string) (*schema.Bundle, bool) {
	b, err := e.d.schemas.ForBuild(build)
	if err != nil {
		return nil, false
	}
	return b, true
}

// shared is a Loader guarded by a sync.RWMutex, for hosts that run several
// pipeline instances concurrently, each reading (never writing) the same
// backing maps (spec.md §5's "compile-time toggle between exclusive and
// shared reference-counted handles", expressed here as a second
// constructor rather than a build tag).
type shared struct {
	mu sync.RWMutex
	d  *data
}

// NewShared constructs a Loader safe for concurrent use by multiple
// pipeline instances.
func NewShared(params map[uint32]*ParamRecord, localized map[string]string, schemas *schema.Registry) Loader {
	return &shared{d: &data{params: params, localized: localized, schemas: schemas}}
}

func (s *shared) GameParamByID(id uint32) (*ParamRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.d.params[id]
	return p, ok
}

func (s *shared) LocalizedNameFromID(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.d.localized[id]
	return v, ok
}

func (s *shared) SchemaForBuild(build string) (*schema.Bundle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, err := s.d.schemas.ForBuild(build)
	if err != nil {
		return nil, false
	}
	return b, true
}
