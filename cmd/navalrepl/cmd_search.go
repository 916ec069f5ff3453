package main

import (
	"fmt"

	"github.com/navalreplay/analyzer/store"
)

type searchCmd struct {
	PlayerName string `long:"player" description:"filter by exact player name"`
	Clan       string `long:"clan" description:"filter by exact clan tag"`
}

func (c *searchCmd) Execute(_ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	idx, err := store.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer idx.Close()

	results, err := store.Search(idx, store.SearchFilter{PlayerName: c.PlayerName, Clan: c.Clan})
	if err != nil {
		return err
	}

	for _, r := range results {
		fmt.Printf("%d\t%s\twinner=team %d\n", r.ID, r.SourcePath, r.WinningTeam)
	}
	return nil
}
