package broadcast

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"partybot/core/logger"
)

// Scheduler fires its jobs once a week at the configured local wall time.
// Each job is guarded by its own TryLock so a slow run is skipped rather
// than stacked.
type Scheduler struct {
	weekday time.Weekday
	hour    int
	minute  int
	loc     *time.Location
	jobs    []*scheduledJob
}

type scheduledJob struct {
	name string
	run  func(ctx context.Context)
	mu   sync.Mutex
}

// NewScheduler builds a weekly scheduler in the given location.
func NewScheduler(weekday time.Weekday, hour, minute int, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{weekday: weekday, hour: hour, minute: minute, loc: loc}
}

// Add registers a named job.
func (s *Scheduler) Add(name string, run func(ctx context.Context)) {
	if run == nil {
		return
	}
	s.jobs = append(s.jobs, &scheduledJob{name: name, run: run})
}

// Run blocks until ctx is cancelled, firing all jobs at every scheduled
// tick. Jobs run concurrently with each other but never with their own
// previous invocation.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		now := time.Now().In(s.loc)
		next := NextRun(now, s.weekday, s.hour, s.minute)
		logger.SVCBroadcast.Info("schedule.armed",
			slog.String("event", "schedule"),
			slog.Time("next", next),
		)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		for _, job := range s.jobs {
			go s.fire(ctx, job)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, job *scheduledJob) {
	if !job.mu.TryLock() {
		logger.SVCBroadcast.Warn("schedule.overlap_skipped",
			slog.String("event", "schedule"),
			slog.String("handler", job.name),
		)
		return
	}
	defer job.mu.Unlock()
	job.run(ctx)
}

// NextRun returns the next weekday/hour:minute occurrence strictly after
// now, in now's location.
func NextRun(now time.Time, weekday time.Weekday, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, days)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}
