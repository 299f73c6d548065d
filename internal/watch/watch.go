// Package watch takes snapshots on a schedule and after tracked files change.
package watch

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/keshon/fossil/internal/snapshot"
)

// Snapshotter is the part of the repository the scheduler drives.
type Snapshotter interface {
	Snapshot(ctx context.Context) (snapshot.Result, error)
	Status(ctx context.Context) ([]snapshot.Change, error)
	TrackedPaths() ([]string, error)
}

// Scheduler triggers snapshots every Interval and, with OnChange, Debounce
// after the last change to a tracked file.
type Scheduler struct {
	Snapshotter Snapshotter
	Clock       clockwork.Clock
	Log         logrus.FieldLogger

	Interval time.Duration
	Debounce time.Duration
	OnChange bool
	// SkipUnchanged suppresses snapshots identical to the newest one.
	SkipUnchanged bool

	// Changes overrides the file watcher as the change source.
	Changes <-chan struct{}
	// Taken is called after every snapshot written.
	Taken func(snapshot.Result)
}

// Run blocks until ctx is done. Failed snapshots are logged and the
// schedule continues.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.Interval <= 0 && !s.OnChange {
		return errors.New("watch: neither an interval nor change detection is enabled")
	}
	clock := s.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	log := s.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	var tick <-chan time.Time
	if s.Interval > 0 {
		t := clock.NewTicker(s.Interval)
		defer t.Stop()
		tick = t.Chan()
	}

	changes := s.Changes
	if s.OnChange && changes == nil {
		paths, err := s.Snapshotter.TrackedPaths()
		if err != nil {
			return err
		}
		if changes, err = Notify(ctx, paths, log); err != nil {
			return err
		}
	}

	var (
		debounce   clockwork.Timer
		debounceCh <-chan time.Time
	)
	stopDebounce := func() {
		if debounce != nil {
			debounce.Stop()
			debounce, debounceCh = nil, nil
		}
	}
	defer stopDebounce()

	log.WithFields(logrus.Fields{
		"interval":  s.Interval,
		"on_change": s.OnChange,
		"debounce":  s.Debounce,
	}).Info("Watching")

	for {
		select {
		case <-ctx.Done():
			log.Info("Watch stopped")
			return nil

		case <-tick:
			s.fire(ctx, log, "interval")

		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			stopDebounce()
			debounce = clock.NewTimer(s.Debounce)
			debounceCh = debounce.Chan()

		case <-debounceCh:
			debounce, debounceCh = nil, nil
			s.fire(ctx, log, "change")
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, log logrus.FieldLogger, reason string) {
	log = log.WithField("trigger", reason)

	if s.SkipUnchanged {
		changes, err := s.Snapshotter.Status(ctx)
		if err != nil {
			log.WithError(err).Warn("Status check failed")
			return
		}
		if !snapshot.Drift(changes) {
			log.Debug("No changes since the newest snapshot")
			return
		}
	}

	res, err := s.Snapshotter.Snapshot(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.WithError(err).Warn("Snapshot failed")
		}
		return
	}
	if s.Taken != nil {
		s.Taken(res)
	}
}
