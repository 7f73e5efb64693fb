package geodesy

import (
	"math"

	"github.com/signalsfoundry/coverage-planner/model"
)

// PointInPolygon reports whether p lies inside poly using the odd-crossing
// rule. Edge intervals are half-open in latitude so a ray passing through a
// shared vertex is counted once. The ring is implicitly closed.
func PointInPolygon(p model.GeoPoint, poly model.Polygon) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := poly[i].Longitude, poly[i].Latitude
		xj, yj := poly[j].Longitude, poly[j].Latitude
		if (yi <= p.Latitude && p.Latitude < yj) || (yj <= p.Latitude && p.Latitude < yi) {
			x := xi + (p.Latitude-yi)*(xj-xi)/(yj-yi)
			if p.Longitude < x {
				inside = !inside
			}
		}
	}
	return inside
}

// BoundingBox is an axis-aligned box in angular (radian) coordinates.
type BoundingBox struct {
	MinLon, MaxLon float64
	MinLat, MaxLat float64
}

// Bounds returns the bounding box of poly. An empty polygon yields a box of
// infinities.
func Bounds(poly model.Polygon) BoundingBox {
	b := BoundingBox{
		MinLon: math.Inf(1), MaxLon: math.Inf(-1),
		MinLat: math.Inf(1), MaxLat: math.Inf(-1),
	}
	for _, p := range poly {
		b.MinLon = math.Min(b.MinLon, p.Longitude)
		b.MaxLon = math.Max(b.MaxLon, p.Longitude)
		b.MinLat = math.Min(b.MinLat, p.Latitude)
		b.MaxLat = math.Max(b.MaxLat, p.Latitude)
	}
	return b
}

// Center returns the box midpoint as (lon, lat).
func (b BoundingBox) Center() (lon, lat float64) {
	return (b.MinLon + b.MaxLon) / 2, (b.MinLat + b.MaxLat) / 2
}

// Diagonal returns the box diagonal length in angular units.
func (b BoundingBox) Diagonal() float64 {
	return math.Hypot(b.MaxLon-b.MinLon, b.MaxLat-b.MinLat)
}
