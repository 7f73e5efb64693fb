package model

import "time"

// PathMetrics summarises a generated path for operators.
type PathMetrics struct {
	WaypointCount    int     `json:"waypoint_count" msgpack:"count"`
	PathLengthKm     float64 `json:"path_length_km" msgpack:"len"`
	EstimatedTimeMin float64 `json:"estimated_time_min" msgpack:"eta"`
	AreaKm2          float64 `json:"area_km2" msgpack:"area"`
}

// Mission is a named planning result: the surveyed polygon, the parameters
// it was planned with, and the resulting path.
type Mission struct {
	ID          string             `json:"id" msgpack:"id"`
	Name        string             `json:"name" msgpack:"name"`
	Polygon     Polygon            `json:"polygon" msgpack:"polygon"`
	Parameters  PlanningParameters `json:"parameters" msgpack:"params"`
	Orientation Orientation        `json:"orientation" msgpack:"orientation"`
	Waypoints   WaypointSequence   `json:"waypoints" msgpack:"waypoints"`
	Metrics     PathMetrics        `json:"metrics" msgpack:"metrics"`
	Warnings    []string           `json:"warnings,omitempty" msgpack:"warnings"`
	CreatedAt   time.Time          `json:"created_at" msgpack:"created"`
}
