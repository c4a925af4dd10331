package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	registerKind     string
	registerKey      string
	registerDataPath string
	registerStyle    string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a store or stylesheet against the index",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		if registerStyle != "" {
			tag, err := s.RegisterStylesheet(registerStyle)
			if err != nil {
				return err
			}
			fmt.Printf("stylesheet %s registered with tag %s\n", registerStyle, tag)
		}

		if registerKey == "" {
			return nil
		}
		switch registerKind {
		case storeKindMemory:
			err = s.RegisterInMemoryStore(registerKey)
		case storeKindPersistent:
			err = s.RegisterPersistentStore(registerKey, registerDataPath)
		default:
			return fmt.Errorf("--kind must be %q or %q", storeKindMemory, storeKindPersistent)
		}
		if err != nil {
			return err
		}
		fmt.Printf("store %q (%s) registered\n", registerKey, registerKind)
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerKind, "kind", "", "Store kind: memory or persistent")
	registerCmd.Flags().StringVar(&registerKey, "key", "", "Store key to register")
	registerCmd.Flags().StringVar(&registerDataPath, "data-path", "", "On-disk root for a persistent store")
	registerCmd.Flags().StringVar(&registerStyle, "style", "", "Stylesheet path to register")
}
