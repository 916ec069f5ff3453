package main

import (
	"fmt"

	"github.com/navalreplay/analyzer/store"
)

type summaryCmd struct {
	Index bool `long:"index" description:"also ingest this report into the SQLite store for later search/investigate"`

	Args struct {
		ReplayFile string `positional-arg-name:"replay" description:"path to the replay file"`
	} `positional-args:"yes" required:"yes"`
}

func (c *summaryCmd) Execute(_ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	result, err := runPipeline(cfg, c.Args.ReplayFile)
	if err != nil {
		return err
	}

	if c.Index {
		idx, err := store.Open(cfg.StorePath)
		if err != nil {
			return err
		}
		defer idx.Close()
		id, err := store.Ingest(idx, c.Args.ReplayFile, result.Report)
		if err != nil {
			return err
		}
		fmt.Printf("indexed as battle %d\n", id)
	}

	r := result.Report
	fmt.Printf("map=%s mode=%s winner=team %d reason=%d\n",
		result.Metadata.Map, result.Metadata.GameMode, r.WinningTeam, r.BattleEndReason)
	fmt.Println("players:")
	for _, p := range r.Players {
		fmt.Printf("  %-20s team=%d damage=%.0f frags=%d\n", p.Name, p.Team, p.DamageDealt, p.Frags)
	}
	fmt.Printf("chat: %d messages\n", len(r.Chat))
	fmt.Printf("warnings: %d\n", len(r.Warnings))
	for _, w := range r.Warnings {
		fmt.Printf("  [%8.2f] %s: %s\n", w.Clock, w.Kind, w.Message)
	}
	return nil
}
