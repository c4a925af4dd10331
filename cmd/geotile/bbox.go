package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/foss-geo/tileindex/internal/geo"
)

// parseBBox parses "minLat,minLon,maxLat,maxLon" into a geo.BoundingBox.
func parseBBox(s string) (geo.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geo.BoundingBox{}, fmt.Errorf("expected 4 comma-separated values, got %d", len(parts))
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geo.BoundingBox{}, fmt.Errorf("value %d: %w", i, err)
		}
		vals[i] = v
	}
	return geo.BoundingBox{MinLat: vals[0], MinLon: vals[1], MaxLat: vals[2], MaxLon: vals[3]}, nil
}
