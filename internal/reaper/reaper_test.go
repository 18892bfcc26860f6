package reaper_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/dreamware/redcore/internal/reaper"
)

type fakeSweeper struct {
	calls int64
	each  int
}

func (f *fakeSweeper) SweepExpired() int {
	atomic.AddInt64(&f.calls, 1)
	return f.each
}

func TestReaperSweepsPeriodically(t *testing.T) {
	f := &fakeSweeper{each: 3}
	r := reaper.New(f, 5*time.Millisecond, zerolog.Nop())
	r.Start()
	defer r.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&f.calls) >= 2
	}, time.Second, 5*time.Millisecond)

	last, total, sweeps := r.Stats()
	assert.Equal(t, 3, last)
	assert.GreaterOrEqual(t, total, int64(3))
	assert.GreaterOrEqual(t, sweeps, int64(1))
}

func TestReaperStopIsClean(t *testing.T) {
	f := &fakeSweeper{each: 0}
	r := reaper.New(f, time.Millisecond, zerolog.Nop())
	r.Start()
	r.Stop()

	calls := atomic.LoadInt64(&f.calls)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, calls, atomic.LoadInt64(&f.calls))
}
