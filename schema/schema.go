// Package schema implements the entity-schema registry: parsing versioned
// entity-definition documents into per-build method/property tables that
// the semantic decoder (battlecmd) and primitive codec (wire/wiretype)
// dispatch against. See spec.md §4.2.
package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// MethodSpec describes one entity method's argument types in declaration
// order. The method's wire index is its position in EntityTypeDef.Methods.
type MethodSpec struct {
	Name string
	Args []ArgSpec
}

// ArgSpec names one method argument's declared type.
type ArgSpec struct {
	TypeName         string
	VariableLenHdrSz uint8 // 1 or 2; 0 if not a variable-length type
}

// PropertySpec describes one entity property. The property's wire index is
// its position in EntityTypeDef.Properties.
type PropertySpec struct {
	Name             string
	TypeName         string
	VariableLenHdrSz uint8
}

// EntityTypeDef holds the full method/property tables for one entity type,
// for one build.
type EntityTypeDef struct {
	Name       string
	Methods    []MethodSpec
	Properties []PropertySpec
}

// Method returns the MethodSpec at the given wire index.
func (e *EntityTypeDef) Method(index int) (*MethodSpec, bool) {
	if index < 0 || index >= len(e.Methods) {
		return nil, false
	}
	return &e.Methods[index], true
}

// Property returns the PropertySpec at the given wire index.
func (e *EntityTypeDef) Property(index int) (*PropertySpec, bool) {
	if index < 0 || index >= len(e.Properties) {
		return nil, false
	}
	return &e.Properties[index], true
}

// MethodIndexByName returns the wire index of a method by its
// schema-visible name, used by the semantic decoder's dispatch table.
func (e *EntityTypeDef) MethodIndexByName(name string) (int, bool) {
	for i, m := range e.Methods {
		if m.Name == name {
			return i, true
		}
	}
	return 0, false
}

// Bundle is the set of EntityTypeDefs for one build version, plus the
// composite-type table resolved transitively at load time.
type Bundle struct {
	Build       string
	entityTypes map[string]*EntityTypeDef
	typeOrder   []string // declaration order; wire TypeID is the index into this
	composites  map[string]compositeDef
}

// EntityType returns the EntityTypeDef for a given type name.
func (b *Bundle) EntityType(name string) (*EntityTypeDef, bool) {
	et, ok := b.entityTypes[name]
	return et, ok
}

// EntityTypeByID resolves a wire-level entity TypeID (its declaration
// position within the schema document) to its EntityTypeDef.
func (b *Bundle) EntityTypeByID(id uint32) (*EntityTypeDef, bool) {
	if int(id) < 0 || int(id) >= len(b.typeOrder) {
		return nil, false
	}
	return b.EntityType(b.typeOrder[id])
}

// EntityTypeNames returns every entity type name in the bundle, sorted.
func (b *Bundle) EntityTypeNames() []string {
	names := make([]string, 0, len(b.entityTypes))
	for name := range b.entityTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type compositeDef struct {
	name     string
	elemRefs []string // referenced composite/leaf type names, for cycle detection
}

// Registry holds one Bundle per supported build version, loaded from a
// directory of versioned schema documents.
type Registry struct {
	bundles map[string]*Bundle
}

// LoadDir loads every *.xml schema document in dir. Each file's
// <GameSchema> root lists one or more <Build version="..."> elements, each
// naming the build version it documents, so a directory may hold one file
// per build or one file covering several builds (mirroring how the real
// client ships a handful of schema snapshots rather than one per patch).
func LoadDir(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("schema: LoadDir: %w", err)
	}

	reg := &Registry{bundles: map[string]*Bundle{}}
	for _, ent := range entries {
		if ent.IsDir() || filepath.Ext(ent.Name()) != ".xml" {
			continue
		}
		path := filepath.Join(dir, ent.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("schema: LoadDir: reading %s: %w", path, err)
		}
		bundles, err := parseDocument(data)
		if err != nil {
			return nil, fmt.Errorf("schema: LoadDir: parsing %s: %w", path, err)
		}
		for build, bundle := range bundles {
			reg.bundles[build] = bundle
		}
	}
	return reg, nil
}

// ForBuild returns the Bundle for the given build version string, or
// ErrVersionUnknown if no schema document declares that build — a fatal
// condition per spec.md §4.5's tie-break rule.
func (r *Registry) ForBuild(build string) (*Bundle, error) {
	b, ok := r.bundles[build]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrVersionUnknown, build)
	}
	return b, nil
}
