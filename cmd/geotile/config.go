package main

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// storeConfig declares one store registration (a labeled `store "key" {
// ... }` block).
type storeConfig struct {
	Key      string `hcl:"key,label"`
	Kind     string `hcl:"kind"`
	DataPath string `hcl:"data_path,optional"`
}

// fileConfig is the root-level config.hcl schema that openSession consults
// for every subcommand, in place of registering each store and stylesheet
// by hand.
type fileConfig struct {
	IndexRoot   string        `hcl:"index_root"`
	Stylesheets []string      `hcl:"stylesheets,optional"`
	Stores      []storeConfig `hcl:"store,block"`
}

func loadConfig(path string) (*fileConfig, error) {
	var cfg fileConfig
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return &cfg, nil
}

const (
	storeKindMemory     = "memory"
	storeKindPersistent = "persistent"
)
