package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type surveyCmd struct {
	Args struct {
		Dir string `positional-arg-name:"dir" description:"directory of replay files"`
	} `positional-args:"yes" required:"yes"`
}

func (c *surveyCmd) Execute(_ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(c.Args.Dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.Args.Dir, err)
	}

	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".replay") {
			continue
		}
		path := filepath.Join(c.Args.Dir, ent.Name())
		result, err := runPipeline(cfg, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			continue
		}
		fmt.Printf("%s\tmap=%s\tmode=%s\tplayers=%d\twinner=team %d\n",
			ent.Name(), result.Metadata.Map, result.Metadata.GameMode,
			len(result.Report.Players), result.Report.WinningTeam)
	}
	return nil
}
