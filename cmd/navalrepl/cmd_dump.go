package main

import (
	"encoding/json"
	"os"
)

type dumpCmd struct {
	Args struct {
		ReplayFile string `positional-arg-name:"replay" description:"path to the replay file"`
	} `positional-args:"yes" required:"yes"`
}

func (c *dumpCmd) Execute(_ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	result, err := runPipeline(cfg, c.Args.ReplayFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Metadata any
		Report   any
	}{result.Metadata, result.Report})
}
