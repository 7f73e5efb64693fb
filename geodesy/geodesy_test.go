package geodesy

import (
	"math"
	"testing"

	"github.com/signalsfoundry/coverage-planner/model"
)

const eps = 1e-9

func square(sizeDeg float64) model.Polygon {
	return model.Polygon{
		model.GeoPointFromDegrees(0, 0),
		model.GeoPointFromDegrees(0, sizeDeg),
		model.GeoPointFromDegrees(sizeDeg, sizeDeg),
		model.GeoPointFromDegrees(sizeDeg, 0),
	}
}

func TestAngleConversion(t *testing.T) {
	if got := ToRadians(180); math.Abs(got-math.Pi) > eps {
		t.Fatalf("ToRadians(180) = %v, want pi", got)
	}
	if got := ToDegrees(math.Pi / 2); math.Abs(got-90) > eps {
		t.Fatalf("ToDegrees(pi/2) = %v, want 90", got)
	}
}

func TestPointInPolygon(t *testing.T) {
	poly := square(1)
	tests := []struct {
		name   string
		lon    float64
		lat    float64
		inside bool
	}{
		{name: "centre", lon: 0.5, lat: 0.5, inside: true},
		{name: "near corner", lon: 0.01, lat: 0.99, inside: true},
		{name: "east of box", lon: 1.5, lat: 0.5, inside: false},
		{name: "below box", lon: 0.5, lat: -0.1, inside: false},
		{name: "far away", lon: 45, lat: 45, inside: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := model.GeoPointFromDegrees(tt.lon, tt.lat)
			if got := PointInPolygon(p, poly); got != tt.inside {
				t.Fatalf("PointInPolygon(%v,%v) = %v, want %v", tt.lon, tt.lat, got, tt.inside)
			}
		})
	}
}

func TestPointInPolygonConcave(t *testing.T) {
	// U shape opening to the north.
	poly := model.Polygon{
		model.GeoPointFromDegrees(0, 0),
		model.GeoPointFromDegrees(3, 0),
		model.GeoPointFromDegrees(3, 3),
		model.GeoPointFromDegrees(2, 3),
		model.GeoPointFromDegrees(2, 1),
		model.GeoPointFromDegrees(1, 1),
		model.GeoPointFromDegrees(1, 3),
		model.GeoPointFromDegrees(0, 3),
	}
	if PointInPolygon(model.GeoPointFromDegrees(1.5, 2), poly) {
		t.Fatalf("point in the notch reported inside")
	}
	if !PointInPolygon(model.GeoPointFromDegrees(0.5, 2), poly) {
		t.Fatalf("point in the left arm reported outside")
	}
}

func TestPointInPolygonVertexRayCountedOnce(t *testing.T) {
	// Diamond whose left and right vertices share the test latitude.
	poly := model.Polygon{
		model.GeoPointFromDegrees(0, -1),
		model.GeoPointFromDegrees(1, 0),
		model.GeoPointFromDegrees(0, 1),
		model.GeoPointFromDegrees(-1, 0),
	}
	if !PointInPolygon(model.GeoPointFromDegrees(0, 0), poly) {
		t.Fatalf("diamond centre reported outside")
	}
	if PointInPolygon(model.GeoPointFromDegrees(-2, 0), poly) {
		t.Fatalf("point left of diamond on vertex latitude reported inside")
	}
}

func TestBounds(t *testing.T) {
	b := Bounds(square(2))
	lon, lat := b.Center()
	if math.Abs(ToDegrees(lon)-1) > eps || math.Abs(ToDegrees(lat)-1) > eps {
		t.Fatalf("Center = (%v,%v), want (1,1) degrees", ToDegrees(lon), ToDegrees(lat))
	}
	want := ToRadians(2 * math.Sqrt2)
	if got := b.Diagonal(); math.Abs(got-want) > eps {
		t.Fatalf("Diagonal = %v, want %v", got, want)
	}
}

func TestNormalize(t *testing.T) {
	u, ok := Vec2{X: 3, Y: 4}.Normalize()
	if !ok {
		t.Fatalf("Normalize reported zero vector")
	}
	if math.Abs(u.X-0.6) > eps || math.Abs(u.Y-0.8) > eps {
		t.Fatalf("Normalize = %+v, want (0.6,0.8)", u)
	}
	if _, ok := (Vec2{}).Normalize(); ok {
		t.Fatalf("Normalize of zero vector should report !ok")
	}
}

func TestLerp(t *testing.T) {
	a := model.GeoPoint{Longitude: 0, Latitude: 0}.WithHeight(10)
	b := model.GeoPoint{Longitude: 1, Latitude: 2}.WithHeight(30)
	m := Lerp(a, b, 0.5)
	if m.Longitude != 0.5 || m.Latitude != 1 || !m.HasHeight || m.Height != 20 {
		t.Fatalf("Lerp = %+v", m)
	}
	if got := Lerp(model.GeoPoint{}, b, 0.5); got.HasHeight {
		t.Fatalf("Lerp with a height-less endpoint should not set height")
	}
}

func TestEquirectangularRoundTrip(t *testing.T) {
	var g Geodesy = Equirectangular{}
	lat := ToRadians(45)
	rad := g.MetersToAngular(100, lat)
	if got := g.AngularToMeters(rad, lat); math.Abs(got-100) > 1e-6 {
		t.Fatalf("round trip = %v m, want 100", got)
	}
	if math.Abs(MetersPerDegree(0)-111320) > eps {
		t.Fatalf("MetersPerDegree(0) = %v", MetersPerDegree(0))
	}
}

func TestECEFDistance(t *testing.T) {
	equator := ToECEF(model.GeoPoint{})
	if math.Abs(equator.X-WGS84SemiMajorAxis) > 1e-6 || math.Abs(equator.Y) > 1e-6 || math.Abs(equator.Z) > 1e-6 {
		t.Fatalf("ToECEF(0,0) = %+v", equator)
	}
	raised := ToECEF(model.GeoPoint{}.WithHeight(100))
	if d := equator.DistanceTo(raised); math.Abs(d-100) > 1e-6 {
		t.Fatalf("vertical distance = %v, want 100", d)
	}
	// 0.01 degree of longitude on the equator is about 1113 m.
	east := ToECEF(model.GeoPointFromDegrees(0.01, 0))
	if d := equator.DistanceTo(east); math.Abs(d-1113.19) > 1 {
		t.Fatalf("east distance = %v, want ~1113", d)
	}
}

func TestPolygonArea(t *testing.T) {
	poly := square(0.01)
	// About 1.113 km on a side at the equator.
	got := PolygonAreaKm2(poly)
	if math.Abs(got-1.239) > 0.01 {
		t.Fatalf("PolygonAreaKm2 = %v, want ~1.239", got)
	}
	reversed := model.Polygon{poly[3], poly[2], poly[1], poly[0]}
	if r := PolygonAreaKm2(reversed); math.Abs(r-got) > 1e-9 {
		t.Fatalf("area depends on winding: %v vs %v", r, got)
	}
	if flat := FlatAreaKm2(poly); math.Abs(flat-1.2392) > 0.001 {
		t.Fatalf("FlatAreaKm2 = %v, want ~1.2392", flat)
	}
	if PolygonAreaKm2(poly[:2]) != 0 {
		t.Fatalf("degenerate polygon should have zero area")
	}
}
