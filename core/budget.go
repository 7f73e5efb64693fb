package core

import (
	"errors"
	"math"

	"github.com/signalsfoundry/coverage-planner/geodesy"
	"github.com/signalsfoundry/coverage-planner/model"
)

// DefaultMaxWaypoints caps the estimated size of a generated path.
const DefaultMaxWaypoints = 250_000

// ErrPathTooLarge is returned when a run would generate more waypoints than
// the planner allows.
var ErrPathTooLarge = errors.New("coverage path too large")

// SweepLineCount returns how many sweep lines GenerateLawnmower walks for
// poly at spacingMeters. It is a float so that absurd spacings report +Inf
// instead of overflowing.
func SweepLineCount(poly model.Polygon, spacingMeters float64) float64 {
	if len(poly) == 0 || spacingMeters <= 0 {
		return 0
	}
	bounds := geodesy.Bounds(poly)
	_, centerLat := bounds.Center()
	spacing := geodesy.Equirectangular{}.MetersToAngular(spacingMeters, centerLat)
	if spacing <= 0 || math.IsNaN(spacing) {
		return math.Inf(1)
	}
	return math.Ceil(bounds.Diagonal()/spacing) + extraSweepLines
}

// EstimateWaypoints bounds the lawnmower output for poly and params and adds
// the bezier points of the two turnaround corners between each pair of
// lines when smoothing is on.
func EstimateWaypoints(poly model.Polygon, params model.PlanningParameters) float64 {
	lines := SweepLineCount(poly, params.LineSpacingMeters)
	total := lines * (ClipSamples + 1)
	if params.SmoothPath && params.SmoothingFactor > 0 {
		// dot = -1 is a full reversal, the largest insertion.
		total += 2 * lines * float64(cornerPoints(-1, params.SmoothingFactor))
	}
	return total
}
