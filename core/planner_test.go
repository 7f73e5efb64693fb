package core

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/coverage-planner/model"
)

func flatParams() model.PlanningParameters {
	params := model.DefaultPlanningParameters()
	params.LineSpacingMeters = 100
	params.FollowTerrain = false
	params.SmoothPath = false
	params.AltitudeMeters = 50
	return params
}

func TestPlannerFlatAltitude(t *testing.T) {
	rec := &fakeRecorder{}
	pl := NewPlanner(WithMetricsRecorder(rec))

	plan, err := pl.Plan(context.Background(), squarePolygon(0.01), flatParams())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Waypoints) == 0 {
		t.Fatalf("no waypoints")
	}
	for i, wp := range plan.Waypoints {
		if !wp.HasHeight || wp.Height != 50 {
			t.Fatalf("waypoint %d height = %v, want 50", i, wp.Height)
		}
	}
	if len(plan.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", plan.WarningStrings())
	}
	if plan.Metrics.WaypointCount != len(plan.Waypoints) {
		t.Fatalf("metrics count %d != %d", plan.Metrics.WaypointCount, len(plan.Waypoints))
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0] != OutcomeOK {
		t.Fatalf("outcomes = %v, want [ok]", rec.outcomes)
	}
}

func TestPlannerTerrainFallback(t *testing.T) {
	rec := &fakeRecorder{}
	terrain := &failingTerrain{}
	pl := NewPlanner(WithTerrainProvider(terrain), WithMetricsRecorder(rec))

	params := flatParams()
	params.FollowTerrain = true
	params.AltitudeMeters = 80

	plan, err := pl.Plan(context.Background(), squarePolygon(0.01), params)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if terrain.calls != 1 {
		t.Fatalf("terrain called %d times, want 1", terrain.calls)
	}
	if len(plan.Warnings) != 1 || !errors.Is(plan.Warnings[0], errTerrainDown) {
		t.Fatalf("warnings = %v, want one terrain degradation", plan.WarningStrings())
	}
	for i, wp := range plan.Waypoints {
		if wp.Height != 80 {
			t.Fatalf("waypoint %d height = %v, want 80", i, wp.Height)
		}
	}
	if rec.fallbacks != 1 {
		t.Fatalf("fallbacks = %d, want 1", rec.fallbacks)
	}
	if rec.outcomes[0] != OutcomeDegraded {
		t.Fatalf("outcome = %s, want degraded", rec.outcomes[0])
	}
}

func TestPlannerFollowsTerrain(t *testing.T) {
	terrain := &funcTerrain{fn: func(points []model.GeoPoint) []float64 {
		out := make([]float64, len(points))
		for i := range out {
			out[i] = 400
		}
		return out
	}}
	pl := NewPlanner(WithTerrainProvider(terrain))

	params := flatParams()
	params.FollowTerrain = true
	params.AltitudeMeters = 100

	plan, err := pl.Plan(context.Background(), squarePolygon(0.01), params)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	for i, wp := range plan.Waypoints {
		if wp.Height != 500 {
			t.Fatalf("waypoint %d height = %v, want 500", i, wp.Height)
		}
	}
}

func TestPlannerRejectsInput(t *testing.T) {
	rec := &fakeRecorder{}
	pl := NewPlanner(WithMetricsRecorder(rec))

	twoPoints := model.Polygon{model.GeoPointFromDegrees(0, 0), model.GeoPointFromDegrees(1, 1)}
	if _, err := pl.Plan(context.Background(), twoPoints, flatParams()); !errors.Is(err, ErrTooFewPoints) {
		t.Fatalf("err = %v, want ErrTooFewPoints", err)
	}

	bad := flatParams()
	bad.LineSpacingMeters = 0
	if _, err := pl.Plan(context.Background(), squarePolygon(0.01), bad); !errors.Is(err, model.ErrInvalidParameters) {
		t.Fatalf("err = %v, want ErrInvalidParameters", err)
	}

	if len(rec.outcomes) != 2 || rec.outcomes[0] != OutcomeRejected || rec.outcomes[1] != OutcomeRejected {
		t.Fatalf("outcomes = %v, want two rejections", rec.outcomes)
	}
}

func TestPlannerSmoothing(t *testing.T) {
	pl := NewPlanner()
	params := flatParams()

	plain, err := pl.Plan(context.Background(), squarePolygon(0.01), params)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	params.SmoothPath = true
	params.SmoothingFactor = 5
	smooth, err := pl.Plan(context.Background(), squarePolygon(0.01), params)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(smooth.Waypoints) <= len(plain.Waypoints) {
		t.Fatalf("smoothing did not add points: %d -> %d", len(plain.Waypoints), len(smooth.Waypoints))
	}
	for i, wp := range smooth.Waypoints {
		if !wp.HasHeight || wp.Height != 50 {
			t.Fatalf("smoothed waypoint %d height = %v, want exactly 50", i, wp.Height)
		}
	}
}

func TestPlannerDeterministic(t *testing.T) {
	pl := NewPlanner()
	params := flatParams()
	params.SmoothPath = true

	first, err := pl.Plan(context.Background(), squarePolygon(0.01), params)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	second, err := pl.Plan(context.Background(), squarePolygon(0.01), params)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(first.Waypoints) != len(second.Waypoints) {
		t.Fatalf("waypoint counts differ: %d vs %d", len(first.Waypoints), len(second.Waypoints))
	}
	for i := range first.Waypoints {
		if first.Waypoints[i] != second.Waypoints[i] {
			t.Fatalf("waypoint %d differs between runs", i)
		}
	}
}

func TestPlannerPathSizeLimit(t *testing.T) {
	cases := []struct {
		name    string
		opts    []PlannerOption
		mutate  func(*model.PlanningParameters)
		wantErr error
	}{
		{
			name:    "centimetre spacing",
			mutate:  func(p *model.PlanningParameters) { p.LineSpacingMeters = 0.01 },
			wantErr: ErrPathTooLarge,
		},
		{
			name: "smoothing factor above maximum",
			mutate: func(p *model.PlanningParameters) {
				p.SmoothPath = true
				p.SmoothingFactor = 100000
			},
			wantErr: model.ErrInvalidParameters,
		},
		{
			name:    "custom limit",
			opts:    []PlannerOption{WithMaxWaypoints(100)},
			mutate:  func(*model.PlanningParameters) {},
			wantErr: ErrPathTooLarge,
		},
		{
			name: "within limit",
			mutate: func(p *model.PlanningParameters) {
				p.SmoothPath = true
				p.SmoothingFactor = model.MaxSmoothingFactor
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &fakeRecorder{}
			pl := NewPlanner(append(tc.opts, WithMetricsRecorder(rec))...)
			params := flatParams()
			tc.mutate(&params)

			plan, err := pl.Plan(context.Background(), squarePolygon(0.01), params)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				if len(rec.outcomes) != 1 || rec.outcomes[0] != OutcomeRejected {
					t.Fatalf("outcomes = %v, want one rejection", rec.outcomes)
				}
				return
			}
			if err != nil {
				t.Fatalf("Plan: %v", err)
			}
			if est := EstimateWaypoints(squarePolygon(0.01), params); float64(len(plan.Waypoints)) > est {
				t.Fatalf("waypoints = %d, estimate %v is not an upper bound", len(plan.Waypoints), est)
			}
		})
	}
}
