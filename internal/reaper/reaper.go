// Package reaper runs the background active-expiration sweep over a
// sharded store: the periodic pass that reclaims keys whose TTL has
// passed even if nothing ever reads them again.
//
// Grounded on internal/coordinator/health_monitor.go's ticker +
// context.Context + sync.WaitGroup background-loop shape (Start/Stop,
// a single exported constructor, an injected callback), reworked to log
// through zerolog instead of the standard log package.
package reaper

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper is the subset of *shard.Store the reaper depends on; kept as
// an interface so tests can swap in a fake without pulling in the full
// store.
type Sweeper interface {
	SweepExpired() int
}

// Reaper periodically sweeps a Sweeper for expired keys on its own
// goroutine. Safe for concurrent Start/Stop from one owner.
type Reaper struct {
	store    Sweeper
	interval time.Duration
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	lastSwept   int
	totalSwept  int64
	sweepCount  int64
}

// New builds a Reaper that sweeps store every interval, logging through
// logger. The reaper does not start until Start is called.
func New(store Sweeper, interval time.Duration, logger zerolog.Logger) *Reaper {
	ctx, cancel := context.WithCancel(context.Background())
	return &Reaper{
		store:    store,
		interval: interval,
		log:      logger.With().Str("component", "reaper").Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the sweep loop in a new goroutine. Each call starts one
// more loop; Stop cancels and waits for all of them.
func (r *Reaper) Start() {
	r.wg.Add(1)
	go r.run()
}

func (r *Reaper) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info().Dur("interval", r.interval).Msg("reaper started")

	for {
		select {
		case <-ticker.C:
			r.sweepOnce()
		case <-r.ctx.Done():
			r.log.Info().Msg("reaper stopping")
			return
		}
	}
}

func (r *Reaper) sweepOnce() {
	n := r.store.SweepExpired()

	r.mu.Lock()
	r.lastSwept = n
	r.totalSwept += int64(n)
	r.sweepCount++
	r.mu.Unlock()

	if n > 0 {
		r.log.Debug().Int("evicted", n).Msg("sweep reclaimed expired keys")
	}
}

// Stop signals the sweep loop to exit and blocks until it has.
func (r *Reaper) Stop() {
	r.cancel()
	r.wg.Wait()
}

// Stats reports the last sweep's eviction count, the running total, and
// how many sweeps have run.
func (r *Reaper) Stats() (last int, total int64, sweeps int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSwept, r.totalSwept, r.sweepCount
}
