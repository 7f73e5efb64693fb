package geodesy

import (
	"math"

	"github.com/signalsfoundry/coverage-planner/model"
)

// Vec2 is a planar vector in (longitude, latitude) space.
type Vec2 struct {
	X, Y float64
}

// Direction returns the vector from a to b in angular coordinates.
func Direction(a, b model.GeoPoint) Vec2 {
	return Vec2{X: b.Longitude - a.Longitude, Y: b.Latitude - a.Latitude}
}

// Norm returns the Euclidean length of v.
func (v Vec2) Norm() float64 { return math.Hypot(v.X, v.Y) }

// Dot returns the dot product of two vectors.
func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Y*o.Y }

// Scale returns v multiplied by s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{X: v.X * s, Y: v.Y * s} }

// Normalize returns the unit vector along v. ok is false for a zero-length
// vector, in which case the zero vector is returned.
func (v Vec2) Normalize() (u Vec2, ok bool) {
	n := v.Norm()
	if n == 0 {
		return Vec2{}, false
	}
	return Vec2{X: v.X / n, Y: v.Y / n}, true
}

// Lerp interpolates linearly between a and b at parameter t. Height is
// interpolated only when both endpoints carry one.
func Lerp(a, b model.GeoPoint, t float64) model.GeoPoint {
	p := model.GeoPoint{
		Longitude: a.Longitude*(1-t) + b.Longitude*t,
		Latitude:  a.Latitude*(1-t) + b.Latitude*t,
	}
	if a.HasHeight && b.HasHeight {
		p = p.WithHeight(a.Height*(1-t) + b.Height*t)
	}
	return p
}
