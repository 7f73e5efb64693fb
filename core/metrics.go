package core

import (
	"github.com/signalsfoundry/coverage-planner/geodesy"
	"github.com/signalsfoundry/coverage-planner/model"
)

// DefaultCruiseSpeedMps is the ground speed used to estimate flight time.
const DefaultCruiseSpeedMps = 10.0

// PathLengthMeters sums straight-line ECEF distances between consecutive
// waypoints.
func PathLengthMeters(waypoints model.WaypointSequence) float64 {
	total := 0.0
	for i := 0; i+1 < len(waypoints); i++ {
		total += geodesy.ToECEF(waypoints[i]).DistanceTo(geodesy.ToECEF(waypoints[i+1]))
	}
	return total
}

// ComputeMetrics summarises a planned path over poly. A non-positive
// cruiseSpeedMps falls back to DefaultCruiseSpeedMps.
func ComputeMetrics(poly model.Polygon, waypoints model.WaypointSequence, cruiseSpeedMps float64) model.PathMetrics {
	if cruiseSpeedMps <= 0 {
		cruiseSpeedMps = DefaultCruiseSpeedMps
	}
	length := PathLengthMeters(waypoints)
	return model.PathMetrics{
		WaypointCount:    len(waypoints),
		PathLengthKm:     length / 1000,
		EstimatedTimeMin: length / cruiseSpeedMps / 60,
		AreaKm2:          geodesy.PolygonAreaKm2(poly),
	}
}
