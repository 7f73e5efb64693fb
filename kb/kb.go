package kb

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/signalsfoundry/coverage-planner/model"
)

var (
	// ErrMissionNotFound is returned when no mission has the requested name.
	ErrMissionNotFound = errors.New("mission not found")
	// ErrInvalidMission is returned when a mission cannot be stored.
	ErrInvalidMission = errors.New("invalid mission")
)

// EventType indicates what kind of change happened in the store.
type EventType int

const (
	EventMissionSaved EventType = iota
	EventMissionDeleted
)

func (t EventType) String() string {
	switch t {
	case EventMissionSaved:
		return "saved"
	case EventMissionDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is emitted to subscribers after a mission changes. For deletions
// Mission holds the removed mission.
type Event struct {
	Type    EventType
	Mission model.Mission
}

// MissionStore is an in-memory, thread-safe store of missions keyed by
// name. Saving under an existing name replaces the previous mission.
type MissionStore struct {
	mu       sync.RWMutex
	missions map[string]*model.Mission

	nextSub int
	subs    map[int]func(Event)
}

// NewMissionStore constructs an empty store.
func NewMissionStore() *MissionStore {
	return &MissionStore{
		missions: make(map[string]*model.Mission),
		subs:     make(map[int]func(Event)),
	}
}

func validate(m *model.Mission) error {
	if m == nil {
		return fmt.Errorf("%w: nil mission", ErrInvalidMission)
	}
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMission)
	}
	if !m.Polygon.Valid() {
		return fmt.Errorf("%w: polygon needs at least %d points", ErrInvalidMission, model.MinPolygonPoints)
	}
	return nil
}

func clone(m *model.Mission) *model.Mission {
	c := *m
	c.Polygon = slices.Clone(m.Polygon)
	c.Waypoints = m.Waypoints.Clone()
	c.Warnings = slices.Clone(m.Warnings)
	return &c
}

// Save stores a copy of m, replacing any mission with the same name.
func (s *MissionStore) Save(m *model.Mission) error {
	if err := validate(m); err != nil {
		return err
	}
	stored := clone(m)

	s.mu.Lock()
	s.missions[stored.Name] = stored
	subs := s.snapshotSubs()
	s.mu.Unlock()

	s.notify(subs, Event{Type: EventMissionSaved, Mission: *clone(stored)})
	return nil
}

// Get returns a copy of the named mission.
func (s *MissionStore) Get(name string) (*model.Mission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.missions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissionNotFound, name)
	}
	return clone(m), nil
}

// List returns the stored mission names in sorted order.
func (s *MissionStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.missions))
	for name := range s.missions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of stored missions.
func (s *MissionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.missions)
}

// Delete removes the named mission.
func (s *MissionStore) Delete(name string) error {
	s.mu.Lock()
	m, ok := s.missions[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrMissionNotFound, name)
	}
	delete(s.missions, name)
	subs := s.snapshotSubs()
	s.mu.Unlock()

	s.notify(subs, Event{Type: EventMissionDeleted, Mission: *m})
	return nil
}

// Subscribe registers a callback for store events. It returns an
// unsubscribe function.
func (s *MissionStore) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// snapshotSubs must be called with s.mu held.
func (s *MissionStore) snapshotSubs() []func(Event) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.subs[id])
	}
	return out
}

// notify runs outside the lock so subscribers may call back into the store.
func (s *MissionStore) notify(subs []func(Event), ev Event) {
	for _, sub := range subs {
		sub(ev)
	}
}

// replaceAll swaps the store contents without notifying subscribers.
func (s *MissionStore) replaceAll(missions []model.Mission) {
	next := make(map[string]*model.Mission, len(missions))
	for i := range missions {
		next[missions[i].Name] = clone(&missions[i])
	}
	s.mu.Lock()
	s.missions = next
	s.mu.Unlock()
}

// all returns copies of every mission in name order.
func (s *MissionStore) all() []model.Mission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Mission, 0, len(s.missions))
	for _, m := range s.missions {
		out = append(out, *clone(m))
	}
	slices.SortFunc(out, func(a, b model.Mission) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out
}
