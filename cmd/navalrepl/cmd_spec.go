package main

import "fmt"

// specCmd prints the resolved configuration, useful for diagnosing which
// game directory / schema directory / store path a run would actually use.
type specCmd struct{}

func (c *specCmd) Execute(_ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fmt.Printf("game-dir:   %s\n", cfg.GameDir)
	fmt.Printf("schema-dir: %s\n", cfg.SchemaDir)
	fmt.Printf("store:      %s\n", cfg.StorePath)
	return nil
}
