package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// checkpointTimeout bounds a single WAL checkpoint run.
const checkpointTimeout = 30 * time.Second

// Checkpointer is the store side of the maintenance job.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// Maintenance runs periodic store housekeeping on a cron schedule.
type Maintenance struct {
	c   *cron.Cron
	st  Checkpointer
	log *zerolog.Logger
}

// NewMaintenance schedules WAL checkpoints. An empty or "off" schedule
// returns nil, which Run treats as disabled.
func NewMaintenance(schedule string, st Checkpointer, logger *zerolog.Logger) (*Maintenance, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" || strings.EqualFold(schedule, "off") {
		return nil, nil
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	m := &Maintenance{
		c:   cron.New(cron.WithParser(parser)),
		st:  st,
		log: logger,
	}
	if _, err := m.c.AddFunc(schedule, m.checkpoint); err != nil {
		return nil, fmt.Errorf("parse checkpoint schedule %q: %w", schedule, err)
	}
	return m, nil
}

func (m *Maintenance) checkpoint() {
	ctx, cancel := context.WithTimeout(context.Background(), checkpointTimeout)
	defer cancel()

	started := time.Now()
	if err := m.st.Checkpoint(ctx); err != nil {
		m.log.Warn().Err(err).Msg("wal checkpoint failed")
		return
	}
	m.log.Debug().Dur("duration", time.Since(started)).Msg("wal checkpoint done")
}

// Run starts the scheduler and blocks until ctx is done. A running job is
// allowed to finish before Run returns.
func (m *Maintenance) Run(ctx context.Context) {
	if m == nil {
		<-ctx.Done()
		return
	}
	m.c.Start()
	<-ctx.Done()
	<-m.c.Stop().Done()
}
