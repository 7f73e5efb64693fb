package model

import "math"

// GeoPoint is a cartographic position. Longitude and latitude are in
// radians; height is in metres and only meaningful when HasHeight is set.
type GeoPoint struct {
	Longitude float64 `json:"longitude" msgpack:"lon"`
	Latitude  float64 `json:"latitude" msgpack:"lat"`
	Height    float64 `json:"height,omitempty" msgpack:"h"`
	HasHeight bool    `json:"has_height,omitempty" msgpack:"hh"`
}

// GeoPointFromDegrees builds a height-less point from degree coordinates.
func GeoPointFromDegrees(lonDeg, latDeg float64) GeoPoint {
	return GeoPoint{
		Longitude: lonDeg * math.Pi / 180,
		Latitude:  latDeg * math.Pi / 180,
	}
}

// WithHeight returns a copy of p with its height resolved to h.
func (p GeoPoint) WithHeight(h float64) GeoPoint {
	p.Height = h
	p.HasHeight = true
	return p
}

// LongitudeDegrees returns the longitude in degrees.
func (p GeoPoint) LongitudeDegrees() float64 { return p.Longitude * 180 / math.Pi }

// LatitudeDegrees returns the latitude in degrees.
func (p GeoPoint) LatitudeDegrees() float64 { return p.Latitude * 180 / math.Pi }

// Polygon is an ordered vertex ring without a closing duplicate. Edges join
// consecutive vertices and the last vertex back to the first. Callers must
// supply a simple (non self-intersecting) ring.
type Polygon []GeoPoint

// MinPolygonPoints is the smallest vertex count a plannable polygon can have.
const MinPolygonPoints = 3

// Valid reports whether the polygon has enough vertices to be planned.
func (p Polygon) Valid() bool { return len(p) >= MinPolygonPoints }

// Orientation is a sweep direction angle in radians.
type Orientation float64

// WaypointSequence is an ordered flight path. Index order is flight order.
type WaypointSequence []GeoPoint

// Clone returns an independent copy of the sequence.
func (w WaypointSequence) Clone() WaypointSequence {
	if w == nil {
		return nil
	}
	out := make(WaypointSequence, len(w))
	copy(out, w)
	return out
}
