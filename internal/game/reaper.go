package game

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reaper periodically destroys awaiting rooms idle past a TTL. It resolves
// the unbounded-growth problem of abandoned rooms under churn; with a TTL
// of zero the server keeps the original keep-forever behavior.
//
// Reaper implements the server.Service interface.
type Reaper struct {
	coord    *Coordinator
	ttl      time.Duration
	interval time.Duration
	notify   func(Update)
	logger   *zap.Logger

	quit chan struct{}
	once sync.Once
}

// NewReaper creates a Reaper sweeping every interval with the given TTL.
//
// Precondition: coord, notify, and logger must be non-nil; interval > 0; ttl > 0.
func NewReaper(coord *Coordinator, ttl, interval time.Duration, notify func(Update), logger *zap.Logger) *Reaper {
	return &Reaper{
		coord:    coord,
		ttl:      ttl,
		interval: interval,
		notify:   notify,
		logger:   logger,
		quit:     make(chan struct{}),
	}
}

// Start runs the sweep loop. Blocks until Stop is called.
func (r *Reaper) Start() error {
	r.logger.Info("room reaper started",
		zap.Duration("ttl", r.ttl),
		zap.Duration("interval", r.interval),
	)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, u := range r.coord.SweepIdle(r.ttl) {
				r.notify(u)
			}
		case <-r.quit:
			return nil
		}
	}
}

// Stop terminates the sweep loop. Idempotent.
func (r *Reaper) Stop() {
	r.once.Do(func() { close(r.quit) })
}
