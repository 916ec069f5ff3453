package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/navalreplay/analyzer/store"
)

type investigateCmd struct {
	Args struct {
		BattleID string `positional-arg-name:"battle-id" description:"indexed battle id to load"`
	} `positional-args:"yes" required:"yes"`
}

func (c *investigateCmd) Execute(_ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(c.Args.BattleID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid battle id %q: %w", c.Args.BattleID, err)
	}

	idx, err := store.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer idx.Close()

	report, err := store.Investigate(idx, id)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
