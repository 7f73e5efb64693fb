package core

import (
	"math"

	"github.com/signalsfoundry/coverage-planner/geodesy"
	"github.com/signalsfoundry/coverage-planner/model"
)

// CalculateOrientation returns the sweep orientation for poly: the angle
// perpendicular to its longest edge. Edge lengths are measured in degrees on
// a flat-earth approximation, which is adequate for small survey areas.
//
// The first longest edge wins; a later edge of equal length does not replace
// it. A polygon with no edge longer than zero yields 0.
func CalculateOrientation(poly model.Polygon) model.Orientation {
	maxDistance := 0.0
	orientation := 0.0

	for i := range poly {
		p1 := poly[i]
		p2 := poly[(i+1)%len(poly)]

		dx := geodesy.ToDegrees(p2.Longitude - p1.Longitude)
		dy := geodesy.ToDegrees(p2.Latitude - p1.Latitude)
		distance := math.Sqrt(dx*dx + dy*dy)

		if distance > maxDistance {
			maxDistance = distance
			orientation = math.Atan2(dy, dx) + math.Pi/2
		}
	}
	return model.Orientation(orientation)
}
