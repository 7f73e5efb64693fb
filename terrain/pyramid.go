package terrain

import (
	"context"
	"fmt"
	"math"

	"github.com/signalsfoundry/coverage-planner/core"
	"github.com/signalsfoundry/coverage-planner/model"
)

// DesiredGeometricErrorMeters is the target error used to pick a level when
// a pyramid publishes no availability.
const DesiredGeometricErrorMeters = 1.0

// Availability describes which levels of a pyramid hold data.
type Availability struct {
	MaximumLevel int
}

// Pyramid is a stack of grids from coarse (level 0) to fine.
type Pyramid struct {
	Levels       []*Grid
	Availability *Availability
	// LevelZeroMaxGeometricError is the worst-case error of level 0 in
	// metres. Each level halves it.
	LevelZeroMaxGeometricError float64
}

var _ core.TerrainProvider = (*Pyramid)(nil)

// MostDetailedLevel returns the level sampled by SampleTerrain. It is the
// published maximum level when availability is known, otherwise the first
// level whose error is within DesiredGeometricErrorMeters. The result is
// clamped to the levels actually present.
func (p *Pyramid) MostDetailedLevel() int {
	top := len(p.Levels) - 1
	if top < 0 {
		return -1
	}
	level := top
	switch {
	case p.Availability != nil:
		level = p.Availability.MaximumLevel
	case p.LevelZeroMaxGeometricError > 0:
		level = int(math.Ceil(math.Log2(p.LevelZeroMaxGeometricError / DesiredGeometricErrorMeters)))
	}
	return min(max(level, 0), top)
}

// SampleTerrain implements core.TerrainProvider. Points the most detailed
// level cannot resolve are retried on coarser levels.
func (p *Pyramid) SampleTerrain(ctx context.Context, points []model.GeoPoint) ([]float64, error) {
	level := p.MostDetailedLevel()
	if level < 0 {
		return nil, fmt.Errorf("%w: empty pyramid", ErrInvalidGrid)
	}

	out, err := p.Levels[level].SampleTerrain(ctx, points)
	if err != nil {
		return nil, err
	}
	for l := level - 1; l >= 0; l-- {
		for i, h := range out {
			if math.IsNaN(h) {
				out[i] = p.Levels[l].ElevationAt(points[i].LongitudeDegrees(), points[i].LatitudeDegrees())
			}
		}
	}
	return out, nil
}
