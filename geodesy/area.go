package geodesy

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/signalsfoundry/coverage-planner/model"
)

// MeanEarthRadiusKm is the IUGG mean radius used for area on the sphere.
const MeanEarthRadiusKm = 6371.0088

// PolygonAreaKm2 returns the spherical area enclosed by poly in square
// kilometres. The ring may be given in either winding order.
func PolygonAreaKm2(poly model.Polygon) float64 {
	if !poly.Valid() {
		return 0
	}
	pts := make([]s2.Point, 0, len(poly))
	for i, p := range poly {
		sp := s2.PointFromLatLng(s2.LatLng{Lat: s1.Angle(p.Latitude), Lng: s1.Angle(p.Longitude)})
		if i > 0 && sp.ApproxEqual(pts[len(pts)-1]) {
			continue
		}
		pts = append(pts, sp)
	}
	if len(pts) > 1 && pts[0].ApproxEqual(pts[len(pts)-1]) {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < model.MinPolygonPoints {
		return 0
	}
	loop := s2.LoopFromPoints(pts)
	loop.Normalize()
	return loop.Area() * MeanEarthRadiusKm * MeanEarthRadiusKm
}

// FlatAreaKm2 is the operator console's quick estimate: a shoelace sum in
// degrees scaled by the equatorial kilometres per degree.
func FlatAreaKm2(poly model.Polygon) float64 {
	var sum float64
	for i := range poly {
		p1 := poly[i]
		p2 := poly[(i+1)%len(poly)]
		sum += (ToDegrees(p2.Longitude) - ToDegrees(p1.Longitude)) * (ToDegrees(p2.Latitude) + ToDegrees(p1.Latitude))
	}
	const kmPerDegree = MetersPerDegreeAtEquator / 1000
	return math.Abs(sum * kmPerDegree * kmPerDegree / 2)
}
