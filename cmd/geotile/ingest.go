package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/foss-geo/tileindex/api"
	"github.com/foss-geo/tileindex/internal/geo"
)

var (
	ingestStoreKey string
	ingestStyle    string
	ingestTile     string
	ingestBBox     string
	ingestLodMin   uint8
	ingestLodMax   uint8
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [source]",
	Short: "Ingest an ElementStream file into a registered store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := args[0]

		s, err := openSession()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		lodRange := geo.LodRange{Start: ingestLodMin, End: ingestLodMax}
		cancel := api.NeverCancelled

		start := time.Now()
		switch {
		case ingestTile != "":
			tile, err := geo.ParseQuadKeyString(ingestTile)
			if err != nil {
				return fmt.Errorf("parse --tile: %w", err)
			}
			err = s.AddDataByTile(ingestStoreKey, ingestStyle, source, tile, cancel)
			if err != nil {
				return err
			}
		case ingestBBox != "":
			bbox, err := parseBBox(ingestBBox)
			if err != nil {
				return fmt.Errorf("parse --bbox: %w", err)
			}
			if err := s.AddDataByBBox(ingestStoreKey, ingestStyle, source, bbox, lodRange, cancel); err != nil {
				return err
			}
		default:
			if err := s.AddDataByRange(ingestStoreKey, ingestStyle, source, lodRange, cancel); err != nil {
				return err
			}
		}

		info, statErr := os.Stat(source)
		size := "?"
		if statErr == nil {
			size = humanize.Bytes(uint64(info.Size()))
		}
		fmt.Printf("ingested %s (%s) in %s\n", source, size, time.Since(start))
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestStoreKey, "store", "", "Registered store key to ingest into")
	ingestCmd.Flags().StringVar(&ingestStyle, "style", "", "Stylesheet path controlling per-element inclusion")
	ingestCmd.Flags().StringVar(&ingestTile, "tile", "", "Ingest into exactly this quadkey tile")
	ingestCmd.Flags().StringVar(&ingestBBox, "bbox", "", "minLat,minLon,maxLat,maxLon: ingest into every covered tile")
	ingestCmd.Flags().Uint8Var(&ingestLodMin, "lod-min", geo.MinLod, "Minimum lod for --bbox/range ingest")
	ingestCmd.Flags().Uint8Var(&ingestLodMax, "lod-max", geo.MaxLod, "Maximum lod for --bbox/range ingest")
	_ = ingestCmd.MarkFlagRequired("store")
}
