package plannersvc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/coverage-planner/core"
	"github.com/signalsfoundry/coverage-planner/export"
	"github.com/signalsfoundry/coverage-planner/internal/archive"
	"github.com/signalsfoundry/coverage-planner/internal/events"
	"github.com/signalsfoundry/coverage-planner/internal/logging"
	"github.com/signalsfoundry/coverage-planner/kb"
	"github.com/signalsfoundry/coverage-planner/model"
)

// MissionCountRecorder receives the number of stored missions whenever it
// changes.
type MissionCountRecorder interface {
	SetMissionCount(n int)
}

// Service implements the planner operations shared by the gRPC and HTTP
// surfaces: planning, mission storage and export.
type Service struct {
	planner  *core.Planner
	store    *kb.MissionStore
	defaults model.PlanningParameters
	archive  archive.Archiver
	events   events.Publisher
	log      logging.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithDefaults sets the planning parameters used for omitted fields.
func WithDefaults(p model.PlanningParameters) Option {
	return func(s *Service) { s.defaults = p }
}

// WithArchiver uploads stored missions through a.
func WithArchiver(a archive.Archiver) Option {
	return func(s *Service) {
		if a != nil {
			s.archive = a
		}
	}
}

// WithEventPublisher announces stored missions through p.
func WithEventPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.events = p
		}
	}
}

// WithMissionCountRecorder keeps r updated with the store size.
func WithMissionCountRecorder(r MissionCountRecorder) Option {
	return func(s *Service) {
		if r == nil {
			return
		}
		r.SetMissionCount(s.store.Len())
		s.store.Subscribe(func(kb.Event) { r.SetMissionCount(s.store.Len()) })
	}
}

// NewService wires a Service around planner and store.
func NewService(planner *core.Planner, store *kb.MissionStore, log logging.Logger, opts ...Option) *Service {
	if log == nil {
		log = logging.Noop()
	}
	if store == nil {
		store = kb.NewMissionStore()
	}
	if planner == nil {
		planner = core.NewPlanner(core.WithLogger(log))
	}
	s := &Service{
		planner:  planner,
		store:    store,
		defaults: model.DefaultPlanningParameters(),
		archive:  archive.Noop{},
		events:   events.Noop{},
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the mission store backing the service.
func (s *Service) Store() *kb.MissionStore { return s.store }

// PlanCoverage plans a path for req and, unless it is a dry run, stores the
// mission, archives it and publishes a plan.generated event. Archive and
// event failures are logged and do not fail the request.
func (s *Service) PlanCoverage(ctx context.Context, req *PlanRequest) (*MissionView, error) {
	if err := ValidatePlanRequest(req); err != nil {
		return nil, err
	}
	name := req.Name
	if name == "" {
		name = DefaultMissionName
	}
	log := logging.FromContext(ctx, s.log).With(logging.String("mission", name))

	params := req.Parameters.Apply(s.defaults)
	poly := PolygonFromLonLat(req.Polygon)
	if err := ValidatePlanSize(poly, params); err != nil {
		return nil, err
	}

	ctx, span := StartChildSpan(ctx, "plannersvc.PlanCoverage", "mission", name,
		attribute.Int("polygon.vertices", len(poly)),
		attribute.Bool("dry_run", req.DryRun),
	)
	defer span.End()

	plan, err := s.planner.Plan(ctx, poly, params)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	mission := &model.Mission{
		ID:          uuid.NewString(),
		Name:        name,
		Polygon:     poly,
		Parameters:  params,
		Orientation: plan.Orientation,
		Waypoints:   plan.Waypoints,
		Metrics:     plan.Metrics,
		Warnings:    plan.WarningStrings(),
		CreatedAt:   s.now().UTC(),
	}
	span.SetAttributes(attribute.String("mission.id", mission.ID), attribute.Int("waypoints", len(mission.Waypoints)))

	if req.DryRun {
		return NewMissionView(mission, false), nil
	}

	if err := s.store.Save(mission); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("store mission: %w", err)
	}
	if err := s.archive.ArchiveMission(ctx, mission); err != nil {
		log.Warn(ctx, "mission archive failed", logging.String("mission_id", mission.ID), logging.Err(err))
	}
	if err := s.events.PublishPlanGenerated(ctx, mission); err != nil {
		log.Warn(ctx, "plan event publish failed", logging.String("mission_id", mission.ID), logging.Err(err))
	}

	log.Info(ctx, "mission stored",
		logging.String("mission_id", mission.ID),
		logging.Int("waypoints", len(mission.Waypoints)),
	)
	return NewMissionView(mission, true), nil
}

// GetMission returns the named stored mission.
func (s *Service) GetMission(ctx context.Context, name string) (*MissionView, error) {
	if err := validateName(name, false); err != nil {
		return nil, err
	}
	m, err := s.store.Get(name)
	if err != nil {
		return nil, err
	}
	return NewMissionView(m, true), nil
}

// ListMissions summarises every stored mission in name order.
func (s *Service) ListMissions(ctx context.Context) (*MissionList, error) {
	names := s.store.List()
	out := &MissionList{Missions: make([]MissionSummary, 0, len(names))}
	for _, name := range names {
		m, err := s.store.Get(name)
		if err != nil {
			// Deleted between List and Get.
			continue
		}
		out.Missions = append(out.Missions, MissionSummary{
			ID:            m.ID,
			Name:          m.Name,
			WaypointCount: len(m.Waypoints),
			PathLengthKm:  m.Metrics.PathLengthKm,
			CreatedAt:     m.CreatedAt,
		})
	}
	return out, nil
}

// DeleteMission removes the named mission.
func (s *Service) DeleteMission(ctx context.Context, name string) error {
	if err := validateName(name, false); err != nil {
		return err
	}
	if err := s.store.Delete(name); err != nil {
		return err
	}
	logging.FromContext(ctx, s.log).Info(ctx, "mission deleted", logging.String("mission", name))
	return nil
}

// ExportMission renders the named mission in format.
func (s *Service) ExportMission(ctx context.Context, name, format string) (*export.Encoded, error) {
	if err := validateName(name, false); err != nil {
		return nil, err
	}
	if format == "" {
		format = export.FormatGeoJSON
	}
	if err := ValidateExportFormat(format); err != nil {
		return nil, err
	}
	m, err := s.store.Get(name)
	if err != nil {
		return nil, err
	}
	return export.Encode(m, format, s.now())
}
