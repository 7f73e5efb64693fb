package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/signalsfoundry/coverage-planner/model"
)

var errTerrainDown = errors.New("terrain server down")

func squarePolygon(sizeDeg float64) model.Polygon {
	return model.Polygon{
		model.GeoPointFromDegrees(0, 0),
		model.GeoPointFromDegrees(0, sizeDeg),
		model.GeoPointFromDegrees(sizeDeg, sizeDeg),
		model.GeoPointFromDegrees(sizeDeg, 0),
	}
}

type failingTerrain struct{ calls int }

func (f *failingTerrain) SampleTerrain(context.Context, []model.GeoPoint) ([]float64, error) {
	f.calls++
	return nil, errTerrainDown
}

type funcTerrain struct {
	calls int
	fn    func(points []model.GeoPoint) []float64
}

func (f *funcTerrain) SampleTerrain(_ context.Context, points []model.GeoPoint) ([]float64, error) {
	f.calls++
	return f.fn(points), nil
}

type fakeRecorder struct {
	mu        sync.Mutex
	outcomes  []string
	fallbacks int
}

func (r *fakeRecorder) ObservePlan(outcome string, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *fakeRecorder) IncTerrainFallback() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks++
}
