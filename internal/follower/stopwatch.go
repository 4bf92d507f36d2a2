package follower

import (
	"time"

	"github.com/benbjohnson/clock"
)

// stopwatch measures elapsed run time against an injectable clock so the
// timeout branch can be tested without sleeping.
type stopwatch struct {
	clk     clock.Clock
	started time.Time
	accum   time.Duration
	running bool
}

func newStopwatch(clk clock.Clock) *stopwatch {
	return &stopwatch{clk: clk}
}

// Restart zeroes the accumulated time and starts counting.
func (s *stopwatch) Restart() {
	s.accum = 0
	s.started = s.clk.Now()
	s.running = true
}

// Stop freezes the elapsed time. Restart is the only way to resume.
func (s *stopwatch) Stop() {
	if s.running {
		s.accum += s.clk.Now().Sub(s.started)
		s.running = false
	}
}

func (s *stopwatch) Elapsed() time.Duration {
	if s.running {
		return s.accum + s.clk.Now().Sub(s.started)
	}
	return s.accum
}
