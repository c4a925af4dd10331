package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foss-geo/tileindex/api"
	"github.com/foss-geo/tileindex/internal/geo"
)

var (
	queryNot     string
	queryAnd     string
	queryOr      string
	queryBBox    string
	queryLodMin  uint8
	queryLodMax  uint8
	queryTag     string
	queryStyle   string
	queryTile    string
	queryElevate int
)

var queryTextCmd = &cobra.Command{
	Use:   "query-text",
	Short: "Run a tokenized boolean text search and print matching element ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		bbox := geo.World
		if queryBBox != "" {
			bbox, err = parseBBox(queryBBox)
			if err != nil {
				return fmt.Errorf("parse --bbox: %w", err)
			}
		}
		lodRange := geo.LodRange{Start: queryLodMin, End: queryLodMax}

		count := 0
		var searchErr string
		s.GetDataByText(queryTag, queryNot, queryAnd, queryOr, bbox, lodRange, func(e *api.Element) {
			count++
			fmt.Printf("%d\t%s\t%d\n", e.ID, e.Kind, len(e.Tags))
		}, func(msg string) { searchErr = msg }, api.NeverCancelled)

		if searchErr != "" {
			return fmt.Errorf("search: %s", searchErr)
		}
		fmt.Printf("%d element(s) matched\n", count)
		return nil
	},
}

var queryTileCmd = &cobra.Command{
	Use:   "query-tile",
	Short: "Build one tile's meshes and print its elements",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		tile, err := geo.ParseQuadKeyString(queryTile)
		if err != nil {
			return fmt.Errorf("parse --tile: %w", err)
		}

		meshes := 0
		elements := 0
		var buildErr string
		s.GetDataByQuadKey(queryTag, queryStyle, tile, queryElevate,
			func(*api.Mesh) { meshes++ },
			func(*api.Element) { elements++ },
			func(msg string) { buildErr = msg },
			api.NeverCancelled)

		if buildErr != "" {
			return fmt.Errorf("build: %s", buildErr)
		}
		fmt.Printf("tile %s: %d mesh(es), %d element(s)\n", tile, meshes, elements)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{queryTextCmd, queryTileCmd} {
		c.Flags().StringVar(&queryTag, "tag", "", "Stylesheet tag returned by an earlier register-stylesheet")
	}

	queryTextCmd.Flags().StringVar(&queryNot, "not", "", "Space-separated terms to exclude")
	queryTextCmd.Flags().StringVar(&queryAnd, "and", "", "Space-separated terms required")
	queryTextCmd.Flags().StringVar(&queryOr, "or", "", "Space-separated terms, any of which match")
	queryTextCmd.Flags().StringVar(&queryBBox, "bbox", "", "minLat,minLon,maxLat,maxLon, defaults to World")
	queryTextCmd.Flags().Uint8Var(&queryLodMin, "lod-min", geo.MinLod, "Minimum lod searched")
	queryTextCmd.Flags().Uint8Var(&queryLodMax, "lod-max", geo.MaxLod, "Maximum lod searched")

	queryTileCmd.Flags().StringVar(&queryStyle, "style", "", "Stylesheet path resolving builders for this tile")
	queryTileCmd.Flags().StringVar(&queryTile, "tile", "", "Quadkey tile to build")
	queryTileCmd.Flags().IntVar(&queryElevate, "elevation", 0, "Elevation data type: 0=flat, 1=grid, 2=srtm")
	_ = queryTileCmd.MarkFlagRequired("tile")
}
