package terrain

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/signalsfoundry/coverage-planner/model"
)

func newLookupServer(t *testing.T, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != lookupPath {
			http.NotFound(w, r)
			return
		}
		requests.Add(1)

		var req lookupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := lookupResponse{Results: make([]lookupResult, len(req.Locations))}
		for i, loc := range req.Locations {
			resp.Results[i] = lookupResult{Latitude: loc.Latitude, Longitude: loc.Longitude}
			if loc.Longitude < 0 {
				continue
			}
			elev := loc.Latitude * 100
			resp.Results[i].Elevation = &elev
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPProviderBatches(t *testing.T) {
	var requests atomic.Int32
	srv := newLookupServer(t, &requests)
	p := NewHTTPProvider(srv.URL+"/", WithBatchSize(2), WithConcurrency(2))

	points := []model.GeoPoint{
		model.GeoPointFromDegrees(1, 1),
		model.GeoPointFromDegrees(1, 2),
		model.GeoPointFromDegrees(-1, 3),
		model.GeoPointFromDegrees(1, 4),
		model.GeoPointFromDegrees(1, 5),
	}
	got, err := p.SampleTerrain(context.Background(), points)
	if err != nil {
		t.Fatalf("SampleTerrain: %v", err)
	}
	if n := requests.Load(); n != 3 {
		t.Fatalf("requests = %d, want 3", n)
	}
	want := []float64{100, 200, math.NaN(), 400, 500}
	for i := range want {
		if math.IsNaN(want[i]) {
			if !math.IsNaN(got[i]) {
				t.Fatalf("point %d = %v, want NaN", i, got[i])
			}
			continue
		}
		if math.Abs(got[i]-want[i]) > 1e-6 {
			t.Fatalf("point %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestHTTPProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL)
	if _, err := p.SampleTerrain(context.Background(), []model.GeoPoint{model.GeoPointFromDegrees(1, 1)}); err == nil {
		t.Fatalf("expected error for 503 response")
	}
	got, err := p.SampleTerrain(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("empty lookup = %v, %v", got, err)
	}
}

type countingProvider struct {
	calls  int
	points int
}

func (c *countingProvider) SampleTerrain(_ context.Context, points []model.GeoPoint) ([]float64, error) {
	c.calls++
	c.points += len(points)
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.LatitudeDegrees()
		if p.Longitude < 0 {
			out[i] = math.NaN()
		}
	}
	return out, nil
}

func TestCachedProvider(t *testing.T) {
	inner := &countingProvider{}
	c, err := NewCached(inner, 16)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}

	a := model.GeoPointFromDegrees(1, 10)
	b := model.GeoPointFromDegrees(1, 20)
	unresolved := model.GeoPointFromDegrees(-1, 30)

	got, err := c.SampleTerrain(context.Background(), []model.GeoPoint{a, b, a, unresolved})
	if err != nil {
		t.Fatalf("SampleTerrain: %v", err)
	}
	if inner.calls != 1 || inner.points != 3 {
		t.Fatalf("inner saw %d calls / %d points, want 1 / 3", inner.calls, inner.points)
	}
	if math.Abs(got[0]-10) > 1e-9 || math.Abs(got[2]-10) > 1e-9 || !math.IsNaN(got[3]) {
		t.Fatalf("SampleTerrain = %v", got)
	}
	if c.Len() != 2 {
		t.Fatalf("cache holds %d entries, want 2", c.Len())
	}

	if _, err := c.SampleTerrain(context.Background(), []model.GeoPoint{b, a}); err != nil {
		t.Fatalf("SampleTerrain: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("cached lookup reached inner provider")
	}

	if _, err := c.SampleTerrain(context.Background(), []model.GeoPoint{unresolved}); err != nil {
		t.Fatalf("SampleTerrain: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("unresolved point should be retried, calls = %d", inner.calls)
	}
}

func TestCachedPropagatesError(t *testing.T) {
	c, err := NewCached(Failing{}, 0)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}
	if _, err := c.SampleTerrain(context.Background(), []model.GeoPoint{model.GeoPointFromDegrees(0, 0)}); err == nil {
		t.Fatalf("expected error")
	}
}
