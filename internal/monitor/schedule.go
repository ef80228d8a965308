package monitor

import (
	"time"

	"github.com/robfig/cron/v3"
)

// delayedEvery fires first at a fixed instant, then every interval after the
// previous activation.
type delayedEvery struct {
	first time.Time
	every cron.Schedule
}

func newDelayedEvery(now time.Time, delay, every time.Duration) cron.Schedule {
	return &delayedEvery{first: now.Add(delay), every: cron.Every(every)}
}

func (s *delayedEvery) Next(t time.Time) time.Time {
	if t.Before(s.first) {
		return s.first
	}
	return s.every.Next(t)
}
