package export

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/coverage-planner/model"
)

var exportTime = time.Date(2024, 3, 9, 8, 30, 0, 0, time.UTC)

func sampleMission() *model.Mission {
	return &model.Mission{
		ID:   "m-1",
		Name: "North Field #2",
		Polygon: model.Polygon{
			model.GeoPointFromDegrees(8, 47),
			model.GeoPointFromDegrees(8.01, 47),
			model.GeoPointFromDegrees(8.01, 47.01),
		},
		Parameters: model.DefaultPlanningParameters(),
		Waypoints: model.WaypointSequence{
			model.GeoPointFromDegrees(8.001, 47.001).WithHeight(512),
			model.GeoPointFromDegrees(8.002, 47.001),
			model.GeoPointFromDegrees(8.003, 47.001).WithHeight(530),
		},
		Metrics: model.PathMetrics{WaypointCount: 3, PathLengthKm: 0.15, EstimatedTimeMin: 0.25, AreaKm2: 0.38},
	}
}

func TestGeoJSON(t *testing.T) {
	fc, err := GeoJSON(sampleMission(), exportTime)
	if err != nil {
		t.Fatalf("GeoJSON: %v", err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 1 {
		t.Fatalf("unexpected collection: %+v", fc)
	}
	f := fc.Features[0]
	if f.Geometry.Type != "LineString" || len(f.Geometry.Coordinates) != 3 {
		t.Fatalf("unexpected geometry: %+v", f.Geometry)
	}
	first := f.Geometry.Coordinates[0]
	if math.Abs(first[0]-8.001) > 1e-9 || math.Abs(first[1]-47.001) > 1e-9 || first[2] != 512 {
		t.Fatalf("first coordinate = %v", first)
	}
	if f.Geometry.Coordinates[1][2] != 0 {
		t.Fatalf("unresolved height exported as %v, want 0", f.Geometry.Coordinates[1][2])
	}
	if f.Properties.WaypointCount != 3 || f.Properties.Altitude != 100 || f.Properties.SmoothingFactor != 5 {
		t.Fatalf("properties = %+v", f.Properties)
	}
	if f.Properties.ExportDate != "2024-03-09T08:30:00.000Z" {
		t.Fatalf("exportDate = %q", f.Properties.ExportDate)
	}

	raw, err := json.Marshal(fc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, key := range []string{`"waypointCount":3`, `"lineSpacing":50`, `"followTerrain":true`, `"areaCoverage":0.38`} {
		if !strings.Contains(string(raw), key) {
			t.Fatalf("encoded GeoJSON missing %s: %s", key, raw)
		}
	}
}

func TestToRecord(t *testing.T) {
	rec, err := ToRecord(sampleMission(), exportTime)
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}
	wps := rec.Mission.Waypoints
	if len(wps) != 3 {
		t.Fatalf("got %d waypoints", len(wps))
	}
	wantTypes := []string{WaypointStart, WaypointMid, WaypointEnd}
	for i, wp := range wps {
		if wp.Index != i || wp.Type != wantTypes[i] {
			t.Fatalf("waypoint %d = %+v, want type %s", i, wp, wantTypes[i])
		}
	}
	if wps[2].Altitude != 530 || wps[1].Altitude != 0 {
		t.Fatalf("altitudes = %v, %v", wps[1].Altitude, wps[2].Altitude)
	}
	if rec.Mission.Metadata.PathLength != 0.15 || rec.Mission.Parameters.LineSpacing != 50 {
		t.Fatalf("metadata/parameters = %+v / %+v", rec.Mission.Metadata, rec.Mission.Parameters)
	}

	single := sampleMission()
	single.Waypoints = single.Waypoints[:1]
	rec, err = ToRecord(single, exportTime)
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}
	if rec.Mission.Waypoints[0].Type != WaypointStart {
		t.Fatalf("single waypoint type = %s", rec.Mission.Waypoints[0].Type)
	}
}

func TestEmptyPath(t *testing.T) {
	m := sampleMission()
	m.Waypoints = nil
	if _, err := GeoJSON(m, exportTime); !errors.Is(err, ErrEmptyPath) {
		t.Fatalf("GeoJSON err = %v", err)
	}
	if _, err := ToRecord(m, exportTime); !errors.Is(err, ErrEmptyPath) {
		t.Fatalf("ToRecord err = %v", err)
	}
	if _, err := Encode(m, FormatJSON, exportTime); !errors.Is(err, ErrEmptyPath) {
		t.Fatalf("Encode err = %v", err)
	}
}

func TestEncode(t *testing.T) {
	enc, err := Encode(sampleMission(), FormatGeoJSON, exportTime)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if enc.ContentType != "application/geo+json" || enc.Filename != "North_Field__2_path.geojson" {
		t.Fatalf("encoded = %q %q", enc.ContentType, enc.Filename)
	}
	var back FeatureCollection
	if err := json.Unmarshal(enc.Body, &back); err != nil {
		t.Fatalf("body not valid JSON: %v", err)
	}

	if _, err := Encode(sampleMission(), "kml", exportTime); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("unknown format err = %v", err)
	}
}

func TestFilename(t *testing.T) {
	cases := map[string]string{
		"Survey Area 1": "Survey_Area_1_path.json",
		"a/b\\c":        "a_b_c_path.json",
		"":              "_path.json",
	}
	for in, want := range cases {
		if got := Filename(in, FormatJSON); got != want {
			t.Fatalf("Filename(%q) = %q, want %q", in, got, want)
		}
	}
}
