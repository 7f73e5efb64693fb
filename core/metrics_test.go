package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/coverage-planner/model"
)

func TestPathLengthMeters(t *testing.T) {
	path := model.WaypointSequence{
		model.GeoPointFromDegrees(0, 0),
		model.GeoPointFromDegrees(0.01, 0),
	}
	// 0.01 degrees of longitude on the WGS84 equator.
	want := 6378137.0 * 0.01 * math.Pi / 180
	if got := PathLengthMeters(path); math.Abs(got-want) > 0.5 {
		t.Fatalf("PathLengthMeters = %v, want ~%v", got, want)
	}
	if got := PathLengthMeters(path[:1]); got != 0 {
		t.Fatalf("single point length = %v, want 0", got)
	}
}

func TestComputeMetrics(t *testing.T) {
	poly := squarePolygon(0.01)
	path := model.WaypointSequence{
		model.GeoPointFromDegrees(0, 0),
		model.GeoPointFromDegrees(0.01, 0),
		model.GeoPointFromDegrees(0.01, 0.01),
	}

	m := ComputeMetrics(poly, path, 0)
	if m.WaypointCount != 3 {
		t.Fatalf("WaypointCount = %d, want 3", m.WaypointCount)
	}
	wantMinutes := m.PathLengthKm * 1000 / DefaultCruiseSpeedMps / 60
	if math.Abs(m.EstimatedTimeMin-wantMinutes) > 1e-9 {
		t.Fatalf("EstimatedTimeMin = %v, want %v", m.EstimatedTimeMin, wantMinutes)
	}
	if m.PathLengthKm < 2.2 || m.PathLengthKm > 2.25 {
		t.Fatalf("PathLengthKm = %v, want ~2.22", m.PathLengthKm)
	}
	if math.Abs(m.AreaKm2-1.2364) > 0.01 {
		t.Fatalf("AreaKm2 = %v, want ~1.236", m.AreaKm2)
	}

	faster := ComputeMetrics(poly, path, 20)
	if math.Abs(faster.EstimatedTimeMin*2-m.EstimatedTimeMin) > 1e-9 {
		t.Fatalf("doubling speed should halve the estimate")
	}
}
