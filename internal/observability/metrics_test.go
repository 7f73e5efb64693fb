package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/coverage-planner/core"
)

var _ core.PlanMetricsRecorder = (*PlannerCollector)(nil)

func TestUnaryInterceptorRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPlannerCollector(reg)
	if err != nil {
		t.Fatalf("NewPlannerCollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/coverage.v1.PlannerService/PlanCoverage"}

	_, err = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req any) (any, error) {
		time.Sleep(5 * time.Millisecond)
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("interceptor handler returned error: %v", err)
	}

	if got := testutil.ToFloat64(collector.Requests.WithLabelValues("grpc", "PlannerService", "PlanCoverage", "OK")); got != 1 {
		t.Fatalf("planner_requests_total = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "planner_request_duration_seconds", map[string]string{
		"service": "PlannerService",
		"method":  "PlanCoverage",
	}); count != 1 {
		t.Fatalf("planner_request_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestUnaryInterceptorRecordsErrorCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPlannerCollector(reg)
	if err != nil {
		t.Fatalf("NewPlannerCollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/coverage.v1.PlannerService/GetMission"}

	_, _ = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.NotFound, "missing")
	})

	if got := testutil.ToFloat64(collector.Requests.WithLabelValues("grpc", "PlannerService", "GetMission", "NotFound")); got != 1 {
		t.Fatalf("planner_requests_total error label = %v, want 1", got)
	}
}

func TestPlanMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPlannerCollector(reg)
	if err != nil {
		t.Fatalf("NewPlannerCollector: %v", err)
	}

	collector.ObservePlan(core.OutcomeOK, 240, 20*time.Millisecond)
	collector.ObservePlan(core.OutcomeDegraded, 120, 40*time.Millisecond)
	collector.ObservePlan(core.OutcomeRejected, 0, time.Millisecond)
	collector.IncTerrainFallback()
	collector.ObserveHTTP("plan", http.StatusCreated, 30*time.Millisecond)

	if got := testutil.ToFloat64(collector.Plans.WithLabelValues(core.OutcomeDegraded)); got != 1 {
		t.Fatalf("planner_plans_total{degraded} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.TerrainFallback); got != 1 {
		t.Fatalf("planner_terrain_fallbacks_total = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "planner_plan_waypoints", nil); count != 2 {
		t.Fatalf("planner_plan_waypoints sample_count = %d, want 2", count)
	}
	if count := histogramSampleCount(t, reg, "planner_plan_duration_seconds", nil); count != 3 {
		t.Fatalf("planner_plan_duration_seconds sample_count = %d, want 3", count)
	}
	if got := testutil.ToFloat64(collector.Requests.WithLabelValues("http", "httpapi", "plan", "201")); got != 1 {
		t.Fatalf("http request counter = %v, want 1", got)
	}
}

func TestNewPlannerCollectorTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPlannerCollector(reg)
	if err != nil {
		t.Fatalf("first NewPlannerCollector: %v", err)
	}
	second, err := NewPlannerCollector(reg)
	if err != nil {
		t.Fatalf("second NewPlannerCollector: %v", err)
	}
	first.IncTerrainFallback()
	if got := testutil.ToFloat64(second.TerrainFallback); got != 1 {
		t.Fatalf("second collector sees %v fallbacks, want 1", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *PlannerCollector
	c.ObservePlan(core.OutcomeOK, 1, time.Millisecond)
	c.IncTerrainFallback()
	c.SetMissionCount(3)
	c.ObserveHTTP("plan", 200, time.Millisecond)
}

func TestMetricsHandlerExposesPlannerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPlannerCollector(reg)
	if err != nil {
		t.Fatalf("NewPlannerCollector: %v", err)
	}
	collector.SetMissionCount(7)
	collector.ObservePlan(core.OutcomeOK, 10, time.Millisecond)
	collector.IncTerrainFallback()
	collector.Requests.WithLabelValues("grpc", "svc", "method", "OK").Inc()
	collector.RequestDurations.WithLabelValues("grpc", "svc", "method").Observe(0.01)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"planner_requests_total",
		"planner_request_duration_seconds",
		"planner_plans_total",
		"planner_plan_waypoints",
		"planner_plan_duration_seconds",
		"planner_terrain_fallbacks_total",
		"planner_missions_stored 7",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestSplitMethod(t *testing.T) {
	cases := []struct {
		in, service, method string
	}{
		{"/coverage.v1.PlannerService/PlanCoverage", "PlannerService", "PlanCoverage"},
		{"PlannerService/ListMissions", "PlannerService", "ListMissions"},
		{"", "unknown", "unknown"},
		{"/nomethod", "unknown", "unknown"},
	}
	for _, tc := range cases {
		service, method := SplitMethod(tc.in)
		if service != tc.service || method != tc.method {
			t.Fatalf("SplitMethod(%q) = %q, %q; want %q, %q", tc.in, service, method, tc.service, tc.method)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
