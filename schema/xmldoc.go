// This file contains the XML document model for schema files and the
// parse logic that turns them into Bundles, including transitive
// composite-type resolution with cycle rejection (spec.md §4.2).

package schema

import (
	"encoding/xml"
	"errors"
	"fmt"
)

var (
	// ErrVersionUnknown indicates the container's build has no matching
	// schema bundle; fatal per spec.md §4.5.
	ErrVersionUnknown = errors.New("schema: unknown build version")

	// ErrSchemaUnknownType indicates a schema document references a type
	// name that resolves to neither a primitive nor a declared composite.
	ErrSchemaUnknownType = errors.New("schema: unknown type")

	// ErrSchemaCycle indicates a composite type definition transitively
	// refers to itself.
	ErrSchemaCycle = errors.New("schema: cyclic composite type definition")
)

// xmlDoc mirrors the schema dialect named in spec.md §6: a root element
// declaring one or more builds, each with Properties/ClientMethods/
// CellMethods/BaseMethods/TempProperties and entity definitions.
type xmlDoc struct {
	XMLName xml.Name    `xml:"GameSchema"`
	Builds  []xmlBuild  `xml:"Build"`
	Types   []xmlTypeDef `xml:"CompositeTypes>Type"`
}

type xmlBuild struct {
	Version  string         `xml:"version,attr"`
	Entities []xmlEntityDef `xml:"Entity"`
}

type xmlEntityDef struct {
	Name             string      `xml:"name,attr"`
	Properties       []xmlArg    `xml:"Properties>Property"`
	TempProperties   []xmlArg    `xml:"TempProperties>Property"`
	ClientMethods    []xmlMethod `xml:"ClientMethods>Method"`
	CellMethods      []xmlMethod `xml:"CellMethods>Method"`
	BaseMethods      []xmlMethod `xml:"BaseMethods>Method"`
}

type xmlMethod struct {
	Name string   `xml:"name,attr"`
	Args []xmlArg `xml:"Arg"`
}

type xmlArg struct {
	Type             string `xml:"type,attr"`
	VariableLenHdrSz uint8  `xml:"VariableLengthHeaderSize,attr"`
}

type xmlTypeDef struct {
	Name string   `xml:"name,attr"`
	Refs []xmlArg `xml:"Member"`
}

// parseDocument parses one schema XML document, returning a Bundle per
// declared <Build>.
func parseDocument(data []byte) (map[string]*Bundle, error) {
	var doc xmlDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaUnknownType, err)
	}

	composites := map[string]compositeDef{}
	for _, t := range doc.Types {
		refs := make([]string, len(t.Refs))
		for i, r := range t.Refs {
			refs[i] = r.Type
		}
		composites[t.Name] = compositeDef{name: t.Name, elemRefs: refs}
	}
	for _, def := range composites {
		for _, ref := range def.elemRefs {
			if !isKnownType(ref, composites) {
				return nil, fmt.Errorf("%w: %q in composite type %s", ErrSchemaUnknownType, ref, def.name)
			}
		}
	}
	if err := checkCycles(composites); err != nil {
		return nil, err
	}

	out := map[string]*Bundle{}
	for _, b := range doc.Builds {
		bundle := &Bundle{
			Build:       b.Version,
			entityTypes: map[string]*EntityTypeDef{},
			composites:  composites,
		}
		for _, e := range b.Entities {
			bundle.typeOrder = append(bundle.typeOrder, e.Name)
			et := &EntityTypeDef{Name: e.Name}

			// Methods: Client, Cell and Base lists are folded into one
			// Methods slice in that order, so a method's index is its
			// position in the combined slice (a Cell method's index comes
			// after every Client method's) per spec.md's "method index is
			// its declaration position within the entity's method list".
			for _, group := range [][]xmlMethod{e.ClientMethods, e.CellMethods, e.BaseMethods} {
				for _, m := range group {
					spec := MethodSpec{Name: m.Name}
					for _, a := range m.Args {
						if !isKnownType(a.Type, composites) {
							return nil, fmt.Errorf("%w: %q in method %s", ErrSchemaUnknownType, a.Type, m.Name)
						}
						spec.Args = append(spec.Args, ArgSpec{TypeName: a.Type, VariableLenHdrSz: a.VariableLenHdrSz})
					}
					et.Methods = append(et.Methods, spec)
				}
			}

			for _, group := range [][]xmlArg{e.Properties, e.TempProperties} {
				for _, p := range group {
					if !isKnownType(p.Type, composites) {
						return nil, fmt.Errorf("%w: %q", ErrSchemaUnknownType, p.Type)
					}
					et.Properties = append(et.Properties, PropertySpec{
						Name:             "", // property names aren't wire-visible; index is authoritative
						TypeName:         p.Type,
						VariableLenHdrSz: p.VariableLenHdrSz,
					})
				}
			}

			bundle.entityTypes[e.Name] = et
		}
		out[b.Version] = bundle
	}
	return out, nil
}

var primitiveTypes = map[string]bool{
	"INT8": true, "INT16": true, "INT32": true, "INT64": true,
	"UINT8": true, "UINT16": true, "UINT32": true, "UINT64": true,
	"FLOAT32": true, "FLOAT64": true, "BOOL": true,
	"STRING": true, "UNICODE_STRING": true,
	"VECTOR2": true, "VECTOR3": true, "MAILBOX": true, "PICKLE": true,
	"ARRAY": true, "FIXED_DICT": true, "TUPLE": true,
}

func isKnownType(name string, composites map[string]compositeDef) bool {
	if primitiveTypes[name] {
		return true
	}
	_, ok := composites[name]
	return ok
}

// checkCycles rejects any composite type definition that transitively
// refers to itself, via a straightforward DFS with a "currently visiting"
// set — a one-shot load-time validation, not a hot path, so no library is
// warranted here (see DESIGN.md).
func checkCycles(composites map[string]compositeDef) error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(composites))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("%w: %s", ErrSchemaCycle, name)
		case done:
			return nil
		}
		def, ok := composites[name]
		if !ok {
			return nil // leaf/primitive reference, handled by isKnownType elsewhere
		}
		state[name] = visiting
		for _, ref := range def.elemRefs {
			if err := visit(ref); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}

	for name := range composites {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}
