package main

import (
	"context"
	"time"

	"github.com/signalsfoundry/coverage-planner/internal/logging"
	"github.com/signalsfoundry/coverage-planner/kb"
)

const defaultSnapshotDelay = 2 * time.Second

// snapshotSaver persists the mission store shortly after it changes, so a
// crash loses at most one save delay of missions. Changes arriving while a
// save is pending are folded into it.
type snapshotSaver struct {
	store *kb.MissionStore
	path  string
	delay time.Duration
	log   logging.Logger
	dirty chan struct{}

	unsubscribe func()
}

// newSnapshotSaver subscribes to store immediately; changes made before run
// starts are saved once it does.
func newSnapshotSaver(store *kb.MissionStore, path string, delay time.Duration, log logging.Logger) *snapshotSaver {
	if delay <= 0 {
		delay = defaultSnapshotDelay
	}
	if log == nil {
		log = logging.Noop()
	}
	s := &snapshotSaver{
		store: store,
		path:  path,
		delay: delay,
		log:   log,
		dirty: make(chan struct{}, 1),
	}
	s.unsubscribe = store.Subscribe(func(kb.Event) {
		select {
		case s.dirty <- struct{}{}:
		default:
		}
	})
	return s
}

// run saves after store events until ctx is done. Save failures are logged
// and retried on the next change. The final snapshot is left to the caller,
// once writers have stopped.
func (s *snapshotSaver) run(ctx context.Context) error {
	defer s.unsubscribe()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.dirty:
			if pending == nil {
				pending = time.After(s.delay)
			}
		case <-pending:
			pending = nil
			if err := s.store.SaveFile(s.path); err != nil {
				s.log.Warn(ctx, "saving mission snapshot", logging.String("path", s.path), logging.Err(err))
				continue
			}
			s.log.Debug(ctx, "saved mission snapshot", logging.String("path", s.path), logging.Int("missions", s.store.Len()))
		}
	}
}
