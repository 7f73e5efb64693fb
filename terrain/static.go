package terrain

import (
	"context"
	"errors"

	"github.com/signalsfoundry/coverage-planner/core"
	"github.com/signalsfoundry/coverage-planner/model"
)

// Static reports the same elevation everywhere.
type Static struct {
	Elevation float64
}

var _ core.TerrainProvider = Static{}

// SampleTerrain implements core.TerrainProvider.
func (s Static) SampleTerrain(ctx context.Context, points []model.GeoPoint) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]float64, len(points))
	for i := range out {
		out[i] = s.Elevation
	}
	return out, nil
}

// ErrProviderDown is the default error of a Failing provider.
var ErrProviderDown = errors.New("terrain provider down")

// Failing always errors. It exercises the flat-altitude fallback.
type Failing struct {
	Err error
}

var _ core.TerrainProvider = Failing{}

// SampleTerrain implements core.TerrainProvider.
func (f Failing) SampleTerrain(context.Context, []model.GeoPoint) ([]float64, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return nil, ErrProviderDown
}
