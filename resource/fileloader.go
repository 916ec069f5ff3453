// This file implements the default file-backed ResourceLoader: reading
// game-parameter records and localized names off disk, for the CLI's
// convenience. Nothing in battle/battlecmd/schema depends on this file —
// only on the Loader interface above (spec.md §6).
package resource

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/navalreplay/analyzer/schema"
)

// LoadFromDir builds a Loader by reading:
//   - gameDir/params/*.json: one ParamRecord per file, keyed by its "id" field
//   - gameDir/localization.json: a flat map[string]string of id -> name
//   - schemaDir/*.xml: entity-schema documents, loaded via schema.LoadDir
//
// The returned Loader is the exclusive variant; wrap the result in
// NewShared's backing data if concurrent pipelines will read it (callers
// needing that should construct NewShared directly over parsed maps
// instead, since LoadFromDir's job is purely file I/O).
func LoadFromDir(gameDir, schemaDir string) (Loader, error) {
	params, err := loadParams(filepath.Join(gameDir, "params"))
	if err != nil {
		return nil, fmt.Errorf("resource: LoadFromDir: %w", err)
	}

	localized, err := loadLocalization(filepath.Join(gameDir, "localization.json"))
	if err != nil {
		return nil, fmt.Errorf("resource: LoadFromDir: %w", err)
	}

	schemas, err := schema.LoadDir(schemaDir)
	if err != nil {
		return nil, fmt.Errorf("resource: LoadFromDir: %w", err)
	}

	return NewExclusive(params, localized, schemas), nil
}

func loadParams(dir string) (map[uint32]*ParamRecord, error) {
	params := map[uint32]*ParamRecord{}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return params, nil
	}
	if err != nil {
		return nil, err
	}

	for _, ent := range entries {
		if ent.IsDir() || !strings.EqualFold(filepath.Ext(ent.Name()), ".json") {
			continue
		}
		path := filepath.Join(dir, ent.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}

		rec, err := paramRecordFromRaw(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		params[rec.ID] = rec
	}
	return params, nil
}

func paramRecordFromRaw(raw map[string]any) (*ParamRecord, error) {
	idVal, ok := raw["id"]
	if !ok {
		return nil, fmt.Errorf("missing required field %q", "id")
	}
	idFloat, ok := idVal.(float64)
	if !ok {
		return nil, fmt.Errorf("field %q is not numeric", "id")
	}

	name, _ := raw["name"].(string)
	kind, _ := raw["kind"].(string)

	return &ParamRecord{ID: uint32(idFloat), Name: name, Kind: kind, Raw: raw}, nil
}

func loadLocalization(path string) (map[string]string, error) {
	localized := map[string]string{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return localized, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &localized); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return localized, nil
}

// ParamIDKey renders a ParamRecord's ID the same way localization keys are
// written on disk (decimal, no leading zeros), for callers joining a
// ParamRecord to its LocalizedNameFromID entry.
func ParamIDKey(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}

