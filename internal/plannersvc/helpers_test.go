package plannersvc

import (
	"context"
	"errors"
	"sync"

	"github.com/signalsfoundry/coverage-planner/model"
)

var errUpstream = errors.New("upstream unavailable")

func squareRequest(name string) *PlanRequest {
	flat := false
	return &PlanRequest{
		Name: name,
		Polygon: []LonLat{
			{Longitude: 8.54, Latitude: 47.37},
			{Longitude: 8.54, Latitude: 47.375},
			{Longitude: 8.545, Latitude: 47.375},
			{Longitude: 8.545, Latitude: 47.37},
		},
		Parameters: &ParametersInput{FollowTerrain: &flat},
	}
}

type recordingArchiver struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (a *recordingArchiver) ArchiveMission(_ context.Context, m *model.Mission) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.names = append(a.names, m.Name)
	return a.err
}

type recordingPublisher struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (p *recordingPublisher) PublishPlanGenerated(_ context.Context, m *model.Mission) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names = append(p.names, m.Name)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type countRecorder struct {
	mu sync.Mutex
	n  int
}

func (c *countRecorder) SetMissionCount(n int) {
	c.mu.Lock()
	c.n = n
	c.mu.Unlock()
}

func (c *countRecorder) get() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
