// Command geotile is a CLI front end over internal/session: ingest a
// source file into a tile index and run text/quadkey queries against it.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
