package plannersvc

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/signalsfoundry/coverage-planner/export"
	"github.com/signalsfoundry/coverage-planner/model"
)

func TestValidatePlanRequest(t *testing.T) {
	t.Parallel()

	tri := []LonLat{{0, 0}, {1, 0}, {0, 1}}

	tests := []struct {
		name    string
		req     *PlanRequest
		wantErr bool
	}{
		{name: "nil", req: nil, wantErr: true},
		{name: "valid unnamed", req: &PlanRequest{Polygon: tri}},
		{name: "valid named", req: &PlanRequest{Name: "Field 7", Polygon: tri}},
		{name: "two vertices", req: &PlanRequest{Polygon: tri[:2]}, wantErr: true},
		{name: "long name", req: &PlanRequest{Name: strings.Repeat("a", MaxMissionNameLength+1), Polygon: tri}, wantErr: true},
		{name: "blank name", req: &PlanRequest{Name: "   ", Polygon: tri}, wantErr: true},
		{name: "nan vertex", req: &PlanRequest{Polygon: []LonLat{{0, 0}, {math.NaN(), 0}, {0, 1}}}, wantErr: true},
		{name: "longitude range", req: &PlanRequest{Polygon: []LonLat{{0, 0}, {181, 0}, {0, 1}}}, wantErr: true},
		{name: "latitude range", req: &PlanRequest{Polygon: []LonLat{{0, 0}, {1, -91}, {0, 1}}}, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidatePlanRequest(tc.req)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidRequest) {
					t.Fatalf("ValidatePlanRequest error = %v, want ErrInvalidRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidatePlanRequest: %v", err)
			}
		})
	}
}

func TestValidatePlanSize(t *testing.T) {
	// Roughly 550 m across.
	poly := PolygonFromLonLat(squareRequest("size").Polygon)

	tests := []struct {
		name    string
		mutate  func(*model.PlanningParameters)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*model.PlanningParameters) {}},
		{name: "max smoothing factor", mutate: func(p *model.PlanningParameters) { p.SmoothingFactor = model.MaxSmoothingFactor }},
		{name: "smoothing factor above max", mutate: func(p *model.PlanningParameters) { p.SmoothingFactor = model.MaxSmoothingFactor + 1 }, wantErr: true},
		{name: "smoothing factor 1e8", mutate: func(p *model.PlanningParameters) { p.SmoothingFactor = 100_000_000 }, wantErr: true},
		{name: "one metre spacing", mutate: func(p *model.PlanningParameters) { p.LineSpacingMeters = 1 }},
		{name: "centimetre spacing", mutate: func(p *model.PlanningParameters) { p.LineSpacingMeters = 0.01 }, wantErr: true},
		{name: "1e-5 metre spacing", mutate: func(p *model.PlanningParameters) { p.LineSpacingMeters = 1e-5 }, wantErr: true},
		{name: "smoothing off ignores factor cost", mutate: func(p *model.PlanningParameters) {
			p.LineSpacingMeters = 0.2
			p.SmoothPath = false
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := model.DefaultPlanningParameters()
			tt.mutate(&params)
			err := ValidatePlanSize(poly, params)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRequest) {
					t.Fatalf("ValidatePlanSize() = %v, want ErrInvalidRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidatePlanSize() = %v", err)
			}
		})
	}
}

func TestValidateExportFormat(t *testing.T) {
	t.Parallel()

	for _, f := range []string{export.FormatGeoJSON, export.FormatJSON} {
		if err := ValidateExportFormat(f); err != nil {
			t.Fatalf("ValidateExportFormat(%q): %v", f, err)
		}
	}
	if err := ValidateExportFormat("kml"); !errors.Is(err, export.ErrUnknownFormat) {
		t.Fatalf("ValidateExportFormat(kml) = %v, want ErrUnknownFormat", err)
	}
}

func TestParametersInputApply(t *testing.T) {
	t.Parallel()

	defaults := model.DefaultPlanningParameters()
	if got := (*ParametersInput)(nil).Apply(defaults); got != defaults {
		t.Fatalf("nil Apply = %+v, want defaults", got)
	}

	spacing := 25.0
	smooth := false
	got := (&ParametersInput{LineSpacingMeters: &spacing, SmoothPath: &smooth}).Apply(defaults)
	if got.LineSpacingMeters != 25 || got.SmoothPath {
		t.Fatalf("Apply = %+v, want spacing 25 and no smoothing", got)
	}
	if got.AltitudeMeters != defaults.AltitudeMeters || got.SmoothingFactor != defaults.SmoothingFactor {
		t.Fatalf("Apply changed unset fields: %+v", got)
	}
}
