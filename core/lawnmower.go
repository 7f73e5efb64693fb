package core

import (
	"math"
	"slices"

	"github.com/signalsfoundry/coverage-planner/geodesy"
	"github.com/signalsfoundry/coverage-planner/model"
)

const (
	// ClipSamples is the number of segments each sweep line is divided into
	// when clipping; ClipSamples+1 points are tested.
	ClipSamples = 50

	// extraSweepLines pads the line count so rotated lines still cover the
	// corners of the bounding box.
	extraSweepLines = 2

	// sweepLineLengthFactor scales the bounding box diagonal to get a line
	// long enough to cross the whole polygon at any orientation.
	sweepLineLengthFactor = 1.5
)

// SweepLine is one candidate line of the lawnmower pattern after clipping.
type SweepLine struct {
	// Index is the signed line index; 0 passes through the polygon centre.
	Index int
	// Start and End are the unclipped endpoints.
	Start, End model.GeoPoint
	// Points are the clipped samples in flight order. Lines with an even
	// index are already reversed.
	Points []model.GeoPoint
}

// SweepLines builds every candidate sweep line for poly and clips it. Lines
// that miss the polygon are returned with no points.
func SweepLines(poly model.Polygon, spacingMeters float64, orientation model.Orientation) []SweepLine {
	if len(poly) == 0 || spacingMeters <= 0 {
		return nil
	}

	bounds := geodesy.Bounds(poly)
	centerLon, centerLat := bounds.Center()
	diagonal := bounds.Diagonal()

	spacing := geodesy.Equirectangular{}.MetersToAngular(spacingMeters, centerLat)
	if spacing <= 0 || math.IsNaN(spacing) || math.IsInf(spacing, 0) {
		return nil
	}

	cosO := math.Cos(float64(orientation))
	sinO := math.Sin(float64(orientation))
	lineLength := diagonal * sweepLineLengthFactor

	numLines := int(math.Ceil(diagonal/spacing)) + extraSweepLines
	half := float64(numLines) / 2

	lines := make([]SweepLine, 0, numLines+1)
	for i := -numLines / 2; float64(i) < half; i++ {
		offset := float64(i) * spacing

		start := model.GeoPoint{
			Longitude: centerLon + offset*sinO - lineLength*cosO/2,
			Latitude:  centerLat + offset*cosO + lineLength*sinO/2,
		}
		end := model.GeoPoint{
			Longitude: centerLon + offset*sinO + lineLength*cosO/2,
			Latitude:  centerLat + offset*cosO - lineLength*sinO/2,
		}

		clipped := ClipLine(start, end, poly)
		if i%2 == 0 && len(clipped) > 1 {
			slices.Reverse(clipped)
		}
		lines = append(lines, SweepLine{Index: i, Start: start, End: end, Points: clipped})
	}
	return lines
}

// GenerateLawnmower returns a boustrophedon waypoint sequence covering poly
// with lines spacingMeters apart. Heights are left unset. The result is
// empty when no line intersects the polygon.
func GenerateLawnmower(poly model.Polygon, spacingMeters float64, orientation model.Orientation) model.WaypointSequence {
	var waypoints model.WaypointSequence
	for _, line := range SweepLines(poly, spacingMeters, orientation) {
		waypoints = append(waypoints, line.Points...)
	}
	return waypoints
}

// ClipLine samples the segment start-end at ClipSamples+1 evenly spaced
// points and keeps those inside poly, in order from start to end. The kept
// points need not be contiguous for a concave polygon.
func ClipLine(start, end model.GeoPoint, poly model.Polygon) []model.GeoPoint {
	var clipped []model.GeoPoint
	for k := 0; k <= ClipSamples; k++ {
		t := float64(k) / ClipSamples
		p := model.GeoPoint{
			Longitude: start.Longitude*(1-t) + end.Longitude*t,
			Latitude:  start.Latitude*(1-t) + end.Latitude*t,
		}
		if geodesy.PointInPolygon(p, poly) {
			clipped = append(clipped, p)
		}
	}
	return clipped
}
