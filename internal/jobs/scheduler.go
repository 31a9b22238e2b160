package jobs

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"scriptvault/api/internal/session"
)

// Scheduler drives the hourly session sweep. Lazy expiry on Validate
// keeps correctness independent of its cadence; the sweep only bounds
// memory held by abandoned tokens.
type Scheduler struct {
	cron     *cron.Cron
	sessions *session.Manager
	log      zerolog.Logger
}

func NewScheduler(sessions *session.Manager, sweepSpec string, log zerolog.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithSeconds())
	s := &Scheduler{
		cron:     c,
		sessions: sessions,
		log:      log,
	}

	if _, err := c.AddFunc(sweepSpec, s.sweepSessions); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits briefly for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}

func (s *Scheduler) sweepSessions() {
	evicted := s.sessions.Sweep()
	s.log.Debug().Int("evicted", evicted).Msg("session sweep completed")
}
