package terrain

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/signalsfoundry/coverage-planner/core"
	"github.com/signalsfoundry/coverage-planner/model"
)

// ErrInvalidGrid is returned when grid dimensions and data disagree.
var ErrInvalidGrid = errors.New("invalid elevation grid")

// Grid is a regular latitude/longitude elevation raster. Heights are stored
// row-major starting with the northernmost row, matching the ESRI ASCII
// layout. West, South and CellSize are in degrees and describe cell corners.
type Grid struct {
	West, South float64
	CellSize    float64
	Cols, Rows  int
	Heights     []float64
}

var _ core.TerrainProvider = (*Grid)(nil)

// NewGrid validates the dimensions and returns a Grid. Values equal to
// noData become NaN; pass NaN to keep every value.
func NewGrid(west, south, cellSize float64, cols, rows int, heights []float64, noData float64) (*Grid, error) {
	if cols < 1 || rows < 1 || cellSize <= 0 {
		return nil, fmt.Errorf("%w: %dx%d cells of %v degrees", ErrInvalidGrid, cols, rows, cellSize)
	}
	if len(heights) != cols*rows {
		return nil, fmt.Errorf("%w: %d values for %dx%d cells", ErrInvalidGrid, len(heights), cols, rows)
	}
	data := make([]float64, len(heights))
	for i, h := range heights {
		if !math.IsNaN(noData) && h == noData {
			h = math.NaN()
		}
		data[i] = h
	}
	return &Grid{West: west, South: south, CellSize: cellSize, Cols: cols, Rows: rows, Heights: data}, nil
}

// North returns the latitude of the grid's northern edge in degrees.
func (g *Grid) North() float64 { return g.South + float64(g.Rows)*g.CellSize }

// East returns the longitude of the grid's eastern edge in degrees.
func (g *Grid) East() float64 { return g.West + float64(g.Cols)*g.CellSize }

// Covers reports whether the degree position lies within the grid extent.
func (g *Grid) Covers(lonDeg, latDeg float64) bool {
	return lonDeg >= g.West && lonDeg <= g.East() && latDeg >= g.South && latDeg <= g.North()
}

func (g *Grid) at(col, row int) float64 {
	col = min(max(col, 0), g.Cols-1)
	row = min(max(row, 0), g.Rows-1)
	return g.Heights[row*g.Cols+col]
}

// ElevationAt bilinearly interpolates between cell centres. Positions
// outside the grid, or interpolating a no-data cell, yield NaN.
func (g *Grid) ElevationAt(lonDeg, latDeg float64) float64 {
	if !g.Covers(lonDeg, latDeg) {
		return math.NaN()
	}

	fx := (lonDeg-g.West)/g.CellSize - 0.5
	fy := (g.North()-latDeg)/g.CellSize - 0.5
	fx = math.Min(math.Max(fx, 0), float64(g.Cols-1))
	fy = math.Min(math.Max(fy, 0), float64(g.Rows-1))

	c0, r0 := int(math.Floor(fx)), int(math.Floor(fy))
	tx, ty := fx-float64(c0), fy-float64(r0)

	top := lerp(g.at(c0, r0), g.at(c0+1, r0), tx)
	bottom := lerp(g.at(c0, r0+1), g.at(c0+1, r0+1), tx)
	return lerp(top, bottom, ty)
}

// lerp ignores an endpoint whose weight is zero so a no-data neighbour only
// poisons samples that actually depend on it.
func lerp(a, b, t float64) float64 {
	switch t {
	case 0:
		return a
	case 1:
		return b
	}
	return a*(1-t) + b*t
}

// SampleTerrain implements core.TerrainProvider.
func (g *Grid) SampleTerrain(ctx context.Context, points []model.GeoPoint) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = g.ElevationAt(p.LongitudeDegrees(), p.LatitudeDegrees())
	}
	return out, nil
}
