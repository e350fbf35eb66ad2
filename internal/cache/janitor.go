package cache

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Janitor periodically sweeps expired entries so providers that are never
// queried again do not keep stale results around until the cap evicts them.
type Janitor struct {
	cron  *cron.Cron
	store *Store
	log   zerolog.Logger
}

// NewJanitor schedules PurgeExpired with a standard cron spec or a
// descriptor such as "@every 1m".
func NewJanitor(store *Store, schedule string, log zerolog.Logger) (*Janitor, error) {
	j := &Janitor{
		cron:  cron.New(),
		store: store,
		log:   log.With().Str("component", "cache-janitor").Logger(),
	}
	if _, err := j.cron.AddFunc(schedule, j.sweep); err != nil {
		return nil, fmt.Errorf("cache janitor schedule %q: %w", schedule, err)
	}
	return j, nil
}

func (j *Janitor) sweep() {
	if n := j.store.PurgeExpired(); n > 0 {
		j.log.Debug().Int("purged", n).Msg("purged expired cache entries")
	}
}

func (j *Janitor) Start() { j.cron.Start() }

// Stop halts scheduling and waits for a running sweep to finish or ctx to end.
func (j *Janitor) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
}
