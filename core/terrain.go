package core

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/signalsfoundry/coverage-planner/model"
)

// ErrTerrainUnavailable is reported when no terrain provider is configured.
var ErrTerrainUnavailable = errors.New("terrain provider unavailable")

// ErrTerrainMismatch is reported when a provider returns the wrong number
// of samples.
var ErrTerrainMismatch = errors.New("terrain sample count mismatch")

// TerrainProvider samples ground elevation. Implementations receive every
// waypoint of a planning run in one call and return one elevation in metres
// per point; NaN marks a point the provider could not resolve.
type TerrainProvider interface {
	SampleTerrain(ctx context.Context, points []model.GeoPoint) ([]float64, error)
}

// Degradation describes a recoverable failure that made a stage fall back to
// simpler output.
type Degradation struct {
	Stage string
	Err   error
}

func (d *Degradation) Error() string {
	return fmt.Sprintf("%s degraded: %v", d.Stage, d.Err)
}

func (d *Degradation) Unwrap() error { return d.Err }

// StageTerrain names the terrain stage in degradations.
const StageTerrain = "terrain"

// AddTerrainHeights returns a copy of waypoints whose heights are the
// sampled ground elevation plus altitude. Unresolvable samples count as
// ground level. When the provider is missing or fails, every height is set
// to altitude and a non-nil Degradation is returned; the waypoints are
// still usable.
func AddTerrainHeights(ctx context.Context, waypoints model.WaypointSequence, altitude float64, provider TerrainProvider) (model.WaypointSequence, *Degradation) {
	if provider == nil {
		return ApplyFlatAltitude(waypoints, altitude), &Degradation{Stage: StageTerrain, Err: ErrTerrainUnavailable}
	}
	if len(waypoints) == 0 {
		return model.WaypointSequence{}, nil
	}

	heights, err := provider.SampleTerrain(ctx, waypoints)
	if err == nil && len(heights) != len(waypoints) {
		err = fmt.Errorf("%w: got %d samples for %d points", ErrTerrainMismatch, len(heights), len(waypoints))
	}
	if err != nil {
		return ApplyFlatAltitude(waypoints, altitude), &Degradation{Stage: StageTerrain, Err: err}
	}

	out := make(model.WaypointSequence, len(waypoints))
	for i, wp := range waypoints {
		ground := heights[i]
		if math.IsNaN(ground) {
			ground = 0
		}
		out[i] = wp.WithHeight(ground + altitude)
	}
	return out, nil
}

// ResolveHeights is the collaborator-facing name for AddTerrainHeights.
func ResolveHeights(ctx context.Context, points model.WaypointSequence, targetAltitudeAboveGround float64, provider TerrainProvider) (model.WaypointSequence, *Degradation) {
	return AddTerrainHeights(ctx, points, targetAltitudeAboveGround, provider)
}

// ApplyFlatAltitude returns a copy of waypoints with every height set to
// altitude.
func ApplyFlatAltitude(waypoints model.WaypointSequence, altitude float64) model.WaypointSequence {
	out := make(model.WaypointSequence, len(waypoints))
	for i, wp := range waypoints {
		out[i] = wp.WithHeight(altitude)
	}
	return out
}
