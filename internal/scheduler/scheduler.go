// Package scheduler runs the daily stay refresh for every PMS adapter.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Job is one scheduled refresh, usually app.PMS.UpdateTomorrowsStays.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

type Scheduler struct {
	c       *cron.Cron
	timeout time.Duration
}

// New parses schedule (standard 5-field cron) in the named IANA time zone.
func New(schedule, timezone string, timeout time.Duration, jobs ...Job) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	s := &Scheduler{
		c:       cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		timeout: timeout,
	}
	for _, j := range jobs {
		if _, err := s.c.AddFunc(schedule, s.wrap(j)); err != nil {
			return nil, fmt.Errorf("schedule %s: %w", j.Name, err)
		}
	}
	return s, nil
}

func (s *Scheduler) wrap(j Job) func() {
	return func() {
		ctx := context.Background()
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		start := time.Now()
		if err := j.Run(ctx); err != nil {
			log.Error().Err(err).Str("job", j.Name).Dur("duration", time.Since(start)).Msg("scheduled refresh failed")
			return
		}
		log.Info().Str("job", j.Name).Dur("duration", time.Since(start)).Msg("scheduled refresh ok")
	}
}

func (s *Scheduler) Start() { s.c.Start() }

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next reports the next run time of the first job.
func (s *Scheduler) Next() time.Time {
	entries := s.c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
