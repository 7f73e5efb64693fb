package core

import (
	"math"

	"github.com/signalsfoundry/coverage-planner/geodesy"
	"github.com/signalsfoundry/coverage-planner/model"
)

// sharpTurnCosine is cos(30°); turns with a smaller dot product between the
// incoming and outgoing directions get bezier points inserted.
const sharpTurnCosine = 0.866

// SmoothPath rounds sharp turns by inserting points sampled from a cubic
// bezier around each corner. The input is returned unchanged when
// smoothingFactor is 0 or it has fewer than three points.
//
// For a corner at start (between prev and end) the curve runs from prev to
// end; its control points sit at start, pushed half the start-end distance
// along the incoming and the outgoing direction respectively.
func SmoothPath(waypoints model.WaypointSequence, smoothingFactor int) model.WaypointSequence {
	if smoothingFactor == 0 || len(waypoints) < 3 {
		return waypoints
	}

	smoothed := make(model.WaypointSequence, 0, len(waypoints)*2)

	for i := 0; i < len(waypoints)-1; i++ {
		start := waypoints[i]
		end := waypoints[i+1]
		smoothed = append(smoothed, start)

		if i == 0 {
			continue
		}
		prev := waypoints[i-1]

		in, okIn := geodesy.Direction(prev, start).Normalize()
		out, okOut := geodesy.Direction(start, end).Normalize()
		if !okIn || !okOut {
			continue
		}

		dot := in.Dot(out)
		if dot >= sharpTurnCosine {
			continue
		}

		numPoints := cornerPoints(dot, smoothingFactor)
		distance := geodesy.Direction(start, end).Norm() * 0.5

		outward := out.Scale(distance)
		inward := in.Scale(distance)
		cpOut := model.GeoPoint{
			Longitude: start.Longitude + outward.X,
			Latitude:  start.Latitude + outward.Y,
			Height:    start.Height,
			HasHeight: start.HasHeight,
		}
		cpIn := model.GeoPoint{
			Longitude: start.Longitude + inward.X,
			Latitude:  start.Latitude + inward.Y,
			Height:    start.Height,
			HasHeight: start.HasHeight,
		}

		for j := 1; j <= numPoints; j++ {
			t := float64(j) / float64(numPoints+1)
			smoothed = append(smoothed, CubicBezier(prev, cpIn, cpOut, end, t))
		}
	}

	return append(smoothed, waypoints[len(waypoints)-1])
}

// cornerPoints is the number of bezier samples inserted at a corner whose
// incoming and outgoing directions have dot product dot.
func cornerPoints(dot float64, smoothingFactor int) int {
	interpolationPoints := max(3, smoothingFactor*2)
	return max(2, int(math.Floor((1-dot)*float64(interpolationPoints))))
}

// CubicBezier evaluates the cubic bezier p0,p1,p2,p3 at t. Longitude,
// latitude and height are blended independently; the result carries a
// height when p0 and p3 do.
func CubicBezier(p0, p1, p2, p3 model.GeoPoint, t float64) model.GeoPoint {
	mt := 1 - t
	b0 := mt * mt * mt
	b1 := 3 * mt * mt * t
	b2 := 3 * mt * t * t
	b3 := t * t * t

	return model.GeoPoint{
		Longitude: b0*p0.Longitude + b1*p1.Longitude + b2*p2.Longitude + b3*p3.Longitude,
		Latitude:  b0*p0.Latitude + b1*p1.Latitude + b2*p2.Latitude + b3*p3.Latitude,
		Height:    b0*p0.Height + b1*p1.Height + b2*p2.Height + b3*p3.Height,
		HasHeight: p0.HasHeight && p3.HasHeight,
	}
}
