package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher proactively renews the session token on a fixed interval.
type Refresher struct {
	manager  *Manager
	interval time.Duration
	cron     *cron.Cron
}

// NewRefresher schedules a check every interval. A token expiring within two
// intervals is refreshed.
func NewRefresher(m *Manager, interval time.Duration) (*Refresher, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("invalid refresh interval %s", interval)
	}
	r := &Refresher{
		manager:  m,
		interval: interval,
		cron:     cron.New(),
	}
	if _, err := r.cron.AddFunc("@every "+interval.String(), r.tick); err != nil {
		return nil, fmt.Errorf("schedule token refresh: %w", err)
	}
	return r, nil
}

// Start begins the schedule and stops it when ctx is done.
func (r *Refresher) Start(ctx context.Context) {
	r.cron.Start()
	go func() {
		<-ctx.Done()
		<-r.cron.Stop().Done()
	}()
}

func (r *Refresher) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), r.interval)
	defer cancel()
	if err := r.manager.RefreshIfExpiring(ctx, 2*r.interval); err != nil {
		r.manager.log.WithError(err).Warn("scheduled refresh failed")
	}
}
