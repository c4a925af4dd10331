package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foss-geo/tileindex/internal/session"
)

var (
	indexPath  string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "geotile",
	Short: "Tile-indexed geo element store and mesh build cache",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&indexPath, "index", "i", "", "Path to the index root")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to an HCL config file")

	rootCmd.AddCommand(ingestCmd, queryTextCmd, queryTileCmd, registerCmd)
}

// openSession resolves indexPath/configPath into a connected Session,
// replaying any store/stylesheet registrations a config file declares.
func openSession() (*session.Session, error) {
	root := indexPath
	var cfg *fileConfig
	if configPath != "" {
		var err error
		cfg, err = loadConfig(configPath)
		if err != nil {
			return nil, err
		}
		if root == "" {
			root = cfg.IndexRoot
		}
	}
	if root == "" {
		return nil, fmt.Errorf("no index root: pass --index or set index_root in --config")
	}

	s, err := session.Connect(root)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return s, nil
	}

	for _, sc := range cfg.Stores {
		switch sc.Kind {
		case storeKindMemory:
			err = s.RegisterInMemoryStore(sc.Key)
		case storeKindPersistent:
			err = s.RegisterPersistentStore(sc.Key, sc.DataPath)
		default:
			err = fmt.Errorf("store %q: unknown kind %q", sc.Key, sc.Kind)
		}
		if err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	for _, path := range cfg.Stylesheets {
		if _, err := s.RegisterStylesheet(path); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}
