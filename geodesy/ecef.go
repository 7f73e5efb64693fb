package geodesy

import (
	"math"

	"github.com/signalsfoundry/coverage-planner/model"
)

// WGS84 ellipsoid parameters.
const (
	WGS84SemiMajorAxis = 6378137.0
	WGS84Flattening    = 1 / 298.257223563
)

var wgs84EccentricitySquared = WGS84Flattening * (2 - WGS84Flattening)

// Vec3 is an earth-centred, earth-fixed position in metres.
type Vec3 struct {
	X, Y, Z float64
}

// ToECEF converts a cartographic point on WGS84 into ECEF metres. A point
// without a height is placed on the ellipsoid surface.
func ToECEF(p model.GeoPoint) Vec3 {
	h := 0.0
	if p.HasHeight {
		h = p.Height
	}
	sinLat, cosLat := math.Sincos(p.Latitude)
	sinLon, cosLon := math.Sincos(p.Longitude)
	n := WGS84SemiMajorAxis / math.Sqrt(1-wgs84EccentricitySquared*sinLat*sinLat)
	return Vec3{
		X: (n + h) * cosLat * cosLon,
		Y: (n + h) * cosLat * sinLon,
		Z: (n*(1-wgs84EccentricitySquared) + h) * sinLat,
	}
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}
