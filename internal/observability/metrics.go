package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// PlannerCollector bundles the planner's Prometheus metrics: request
// counters for the gRPC and HTTP surfaces plus per-run planning
// measurements. It satisfies core.PlanMetricsRecorder.
type PlannerCollector struct {
	gatherer prometheus.Gatherer

	Requests         *prometheus.CounterVec
	RequestDurations *prometheus.HistogramVec

	Plans           *prometheus.CounterVec
	PlanWaypoints   prometheus.Histogram
	PlanDurations   prometheus.Histogram
	TerrainFallback prometheus.Counter
	MissionsStored  prometheus.Gauge
}

// NewPlannerCollector registers planner metrics against reg, defaulting to
// the global Prometheus registry when nil. Registering twice against the
// same registry returns the already registered collectors.
func NewPlannerCollector(reg prometheus.Registerer) (*PlannerCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_requests_total",
		Help: "Handled planner requests, labeled by transport, service, method and status code.",
	}, []string{"transport", "service", "method", "code"}), "planner_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_request_duration_seconds",
		Help:    "Planner request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"transport", "service", "method"}), "planner_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	plans, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_plans_total",
		Help: "Planning runs, labeled by outcome (ok, degraded, rejected).",
	}, []string{"outcome"}), "planner_plans_total")
	if err != nil {
		return nil, err
	}

	waypoints, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_plan_waypoints",
		Help:    "Number of waypoints in generated paths.",
		Buckets: prometheus.ExponentialBuckets(10, 2, 12),
	}), "planner_plan_waypoints")
	if err != nil {
		return nil, err
	}

	planDurations, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_plan_duration_seconds",
		Help:    "Wall time of a planning run including terrain sampling.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}), "planner_plan_duration_seconds")
	if err != nil {
		return nil, err
	}

	fallbacks, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "planner_terrain_fallbacks_total",
		Help: "Planning runs that fell back to flat altitude because terrain sampling failed.",
	}), "planner_terrain_fallbacks_total")
	if err != nil {
		return nil, err
	}

	stored, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "planner_missions_stored",
		Help: "Current number of missions in the mission store.",
	}), "planner_missions_stored")
	if err != nil {
		return nil, err
	}

	return &PlannerCollector{
		gatherer:         gatherer,
		Requests:         requests,
		RequestDurations: durations,
		Plans:            plans,
		PlanWaypoints:    waypoints,
		PlanDurations:    planDurations,
		TerrainFallback:  fallbacks,
		MissionsStored:   stored,
	}, nil
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *PlannerCollector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if c == nil {
			return resp, err
		}

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := SplitMethod(fullMethod)
		c.observeRequest("grpc", service, method, status.Code(err).String(), time.Since(start))
		return resp, err
	}
}

// ObserveHTTP records one HTTP API request against its route name.
func (c *PlannerCollector) ObserveHTTP(route string, statusCode int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.observeRequest("http", "httpapi", route, strconv.Itoa(statusCode), elapsed)
}

func (c *PlannerCollector) observeRequest(transport, service, method, code string, elapsed time.Duration) {
	if c.Requests != nil {
		c.Requests.WithLabelValues(transport, service, method, code).Inc()
	}
	if c.RequestDurations != nil {
		c.RequestDurations.WithLabelValues(transport, service, method).Observe(elapsed.Seconds())
	}
}

// ObservePlan records the outcome, size and duration of a planning run.
func (c *PlannerCollector) ObservePlan(outcome string, waypoints int, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.Plans != nil {
		c.Plans.WithLabelValues(outcome).Inc()
	}
	if c.PlanWaypoints != nil && waypoints > 0 {
		c.PlanWaypoints.Observe(float64(waypoints))
	}
	if c.PlanDurations != nil {
		c.PlanDurations.Observe(elapsed.Seconds())
	}
}

// IncTerrainFallback counts a run that degraded to flat altitude.
func (c *PlannerCollector) IncTerrainFallback() {
	if c == nil || c.TerrainFallback == nil {
		return
	}
	c.TerrainFallback.Inc()
}

// SetMissionCount updates the stored missions gauge.
func (c *PlannerCollector) SetMissionCount(n int) {
	if c == nil || c.MissionsStored == nil {
		return
	}
	c.MissionsStored.Set(float64(n))
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *PlannerCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PlannerCollector) Handler() http.Handler {
	gatherer := c.Gatherer()
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}

// register adds c to reg. When an equal collector is already registered the
// existing one is returned so metrics survive repeated construction.
func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		var zero T
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return zero, err
	}
	return c, nil
}
