package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/coverage-planner/internal/logging"
	"github.com/signalsfoundry/coverage-planner/model"
)

const tracerName = "github.com/signalsfoundry/coverage-planner/core"

// ErrTooFewPoints is returned when a polygon cannot be planned because it
// has fewer than three vertices.
var ErrTooFewPoints = errors.New("polygon needs at least 3 points")

// Plan outcomes reported to a PlanMetricsRecorder.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeRejected = "rejected"
)

// PlanMetricsRecorder receives per-run planning measurements.
type PlanMetricsRecorder interface {
	ObservePlan(outcome string, waypoints int, elapsed time.Duration)
	IncTerrainFallback()
}

// Plan is the result of one planning run.
type Plan struct {
	Orientation model.Orientation
	Waypoints   model.WaypointSequence
	Metrics     model.PathMetrics
	// Warnings lists the recoverable degradations that occurred.
	Warnings []*Degradation
	Duration time.Duration
}

// WarningStrings renders the plan's warnings for storage and display.
func (p *Plan) WarningStrings() []string {
	if p == nil || len(p.Warnings) == 0 {
		return nil
	}
	out := make([]string, 0, len(p.Warnings))
	for _, w := range p.Warnings {
		out = append(out, w.Error())
	}
	return out
}

// Planner runs the coverage pipeline. It holds only collaborators, never
// per-run state, so one Planner may serve concurrent callers.
type Planner struct {
	terrain        TerrainProvider
	log            logging.Logger
	metrics        PlanMetricsRecorder
	cruiseSpeedMps float64
	maxWaypoints   int
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithTerrainProvider sets the terrain collaborator used when a run asks to
// follow terrain.
func WithTerrainProvider(p TerrainProvider) PlannerOption {
	return func(pl *Planner) { pl.terrain = p }
}

// WithLogger sets the base logger.
func WithLogger(l logging.Logger) PlannerOption {
	return func(pl *Planner) {
		if l != nil {
			pl.log = l
		}
	}
}

// WithMetricsRecorder attaches an optional metrics recorder.
func WithMetricsRecorder(m PlanMetricsRecorder) PlannerOption {
	return func(pl *Planner) { pl.metrics = m }
}

// WithCruiseSpeed sets the speed used for flight time estimates.
func WithCruiseSpeed(mps float64) PlannerOption {
	return func(pl *Planner) {
		if mps > 0 {
			pl.cruiseSpeedMps = mps
		}
	}
}

// WithMaxWaypoints sets the largest estimated path a run may generate.
func WithMaxWaypoints(n int) PlannerOption {
	return func(pl *Planner) {
		if n > 0 {
			pl.maxWaypoints = n
		}
	}
}

// NewPlanner constructs a Planner.
func NewPlanner(opts ...PlannerOption) *Planner {
	p := &Planner{
		log:            logging.Noop(),
		cruiseSpeedMps: DefaultCruiseSpeedMps,
		maxWaypoints:   DefaultMaxWaypoints,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan generates a coverage path for poly:
// orientation, lawnmower lines, terrain draping or flat altitude, then
// optional smoothing. Terrain failures degrade to flat altitude and are
// reported in Plan.Warnings rather than as an error. The only errors are
// for unusable input.
func (pl *Planner) Plan(ctx context.Context, poly model.Polygon, params model.PlanningParameters) (*Plan, error) {
	start := time.Now()
	log := logging.FromContext(ctx, pl.log)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "core.Plan", trace.WithAttributes(
		attribute.Int("polygon.points", len(poly)),
		attribute.Float64("params.line_spacing_m", params.LineSpacingMeters),
		attribute.Bool("params.follow_terrain", params.FollowTerrain),
		attribute.Bool("params.smooth_path", params.SmoothPath),
	))
	defer span.End()

	if !poly.Valid() {
		pl.observe(OutcomeRejected, 0, start)
		err := fmt.Errorf("%w: got %d", ErrTooFewPoints, len(poly))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := params.Validate(); err != nil {
		pl.observe(OutcomeRejected, 0, start)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if est := EstimateWaypoints(poly, params); est > float64(pl.maxWaypoints) {
		pl.observe(OutcomeRejected, 0, start)
		err := fmt.Errorf("%w: about %.0f waypoints, limit is %d", ErrPathTooLarge, est, pl.maxWaypoints)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	plan := &Plan{Orientation: CalculateOrientation(poly)}
	span.SetAttributes(attribute.Float64("plan.orientation_rad", float64(plan.Orientation)))

	_, lineSpan := otel.Tracer(tracerName).Start(ctx, "core.GenerateLawnmower")
	waypoints := GenerateLawnmower(poly, params.LineSpacingMeters, plan.Orientation)
	lineSpan.SetAttributes(attribute.Int("waypoints", len(waypoints)))
	lineSpan.End()

	if params.FollowTerrain {
		terrainCtx, terrainSpan := otel.Tracer(tracerName).Start(ctx, "core.AddTerrainHeights")
		var degraded *Degradation
		waypoints, degraded = AddTerrainHeights(terrainCtx, waypoints, params.AltitudeMeters, pl.terrain)
		if degraded != nil {
			terrainSpan.RecordError(degraded)
			plan.Warnings = append(plan.Warnings, degraded)
			if pl.metrics != nil {
				pl.metrics.IncTerrainFallback()
			}
			log.Warn(ctx, "terrain sampling failed; using flat altitude",
				logging.Float64("altitude_m", params.AltitudeMeters),
				logging.Err(degraded.Err),
			)
		}
		terrainSpan.End()
	} else {
		waypoints = ApplyFlatAltitude(waypoints, params.AltitudeMeters)
	}

	if params.SmoothPath && len(waypoints) > 2 {
		waypoints = SmoothPath(waypoints, params.SmoothingFactor)
		if !params.FollowTerrain {
			// Bezier blending of equal heights drifts in the last bits.
			waypoints = ApplyFlatAltitude(waypoints, params.AltitudeMeters)
		}
	}

	plan.Waypoints = waypoints
	plan.Metrics = ComputeMetrics(poly, waypoints, pl.cruiseSpeedMps)
	plan.Duration = time.Since(start)

	outcome := OutcomeOK
	if len(plan.Warnings) > 0 {
		outcome = OutcomeDegraded
	}
	pl.observe(outcome, len(waypoints), start)

	span.SetAttributes(attribute.Int("plan.waypoints", len(waypoints)), attribute.String("plan.outcome", outcome))
	log.Info(ctx, "coverage path generated",
		logging.Int("waypoints", len(waypoints)),
		logging.Float64("orientation_rad", float64(plan.Orientation)),
		logging.Float64("path_length_km", plan.Metrics.PathLengthKm),
		logging.String("outcome", outcome),
		logging.Duration("elapsed", plan.Duration),
	)
	return plan, nil
}

func (pl *Planner) observe(outcome string, waypoints int, start time.Time) {
	if pl.metrics == nil {
		return
	}
	pl.metrics.ObservePlan(outcome, waypoints, time.Since(start))
}
