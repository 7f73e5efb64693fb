package geodesy

import (
	"math"

	"github.com/signalsfoundry/coverage-planner/model"
)

// MetersPerDegreeAtEquator is the equirectangular scale used for spacing
// conversions.
const MetersPerDegreeAtEquator = 111320.0

// MetersPerDegree returns the approximate number of metres spanned by one
// degree at the given latitude (radians). The approximation breaks down near
// the poles.
func MetersPerDegree(latRad float64) float64 {
	return MetersPerDegreeAtEquator * math.Cos(latRad)
}

// Geodesy abstracts the conversions the planner needs from an ellipsoid
// model.
type Geodesy interface {
	// MetersToAngular converts a ground distance at latRad into radians.
	MetersToAngular(meters, latRad float64) float64
	// AngularToMeters converts radians at latRad into a ground distance.
	AngularToMeters(rad, latRad float64) float64
	// Contains reports whether p lies inside poly.
	Contains(p model.GeoPoint, poly model.Polygon) bool
}

// Equirectangular is the flat-earth approximation valid for small areas.
type Equirectangular struct{}

var _ Geodesy = Equirectangular{}

// MetersToAngular implements Geodesy.
func (Equirectangular) MetersToAngular(meters, latRad float64) float64 {
	return ToRadians(meters / MetersPerDegree(latRad))
}

// AngularToMeters implements Geodesy.
func (Equirectangular) AngularToMeters(rad, latRad float64) float64 {
	return ToDegrees(rad) * MetersPerDegree(latRad)
}

// Contains implements Geodesy.
func (Equirectangular) Contains(p model.GeoPoint, poly model.Polygon) bool {
	return PointInPolygon(p, poly)
}
