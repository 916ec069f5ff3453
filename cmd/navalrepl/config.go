package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// resolvedConfig merges viper-loaded config file / NAVALREPL_* env vars with
// any global CLI flags the user passed, flags taking precedence.
type resolvedConfig struct {
	GameDir   string
	SchemaDir string
	StorePath string
}

func loadConfig() (*resolvedConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("NAVALREPL")
	v.AutomaticEnv()
	v.SetDefault("store_path", "navalrepl.db")

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "navalrepl"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	cfg := &resolvedConfig{
		GameDir:   v.GetString("game_dir"),
		SchemaDir: v.GetString("schema_dir"),
		StorePath: v.GetString("store_path"),
	}

	if opts.GameDir != "" {
		cfg.GameDir = opts.GameDir
	}
	if opts.SchemaDir != "" {
		cfg.SchemaDir = opts.SchemaDir
	}
	if opts.StorePath != "" && opts.StorePath != "navalrepl.db" {
		cfg.StorePath = opts.StorePath
	} else if cfg.StorePath == "" {
		cfg.StorePath = "navalrepl.db"
	}

	return cfg, nil
}
