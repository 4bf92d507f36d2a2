package metrics

import (
	"math"

	"github.com/omnidrive/holotrack/internal/geom"
	"github.com/omnidrive/holotrack/internal/runner"
)

// CrossTrack is the RMS distance between the desired and actual position
// over a run.
type CrossTrack struct {
	sumSq   float64
	samples int
}

func NewCrossTrack() *CrossTrack { return &CrossTrack{} }

func (c *CrossTrack) Name() string { return "cross_track_rms" }

func (c *CrossTrack) Observe(s runner.Sample) {
	d := s.Desired.Translation.Minus(s.Actual.Translation).Norm()
	c.sumSq += d * d
	c.samples++
}

func (c *CrossTrack) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return math.Sqrt(c.sumSq / float64(c.samples))
}

func (c *CrossTrack) Reset() {
	c.sumSq = 0
	c.samples = 0
}

// HeadingError is the mean absolute wrapped heading error over a run.
type HeadingError struct {
	sum     float64
	samples int
}

func NewHeadingError() *HeadingError { return &HeadingError{} }

func (h *HeadingError) Name() string { return "heading_error_mean" }

func (h *HeadingError) Observe(s runner.Sample) {
	h.sum += math.Abs(geom.WrapAngle(s.Desired.Heading() - s.Actual.Heading()))
	h.samples++
}

func (h *HeadingError) Value() float64 {
	if h.samples == 0 {
		return 0
	}
	return h.sum / float64(h.samples)
}

func (h *HeadingError) Reset() {
	h.sum = 0
	h.samples = 0
}

// ControlEffort is the mean absolute wheel speed over a run, a proxy for how
// hard the drivetrain works.
type ControlEffort struct {
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort { return &ControlEffort{} }

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(s runner.Sample) {
	for _, w := range s.Wheels {
		c.sum += math.Abs(w.Speed)
		c.samples++
	}
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// SettleTime reports when the position error last entered the window and
// stayed there. A run that never settles reports the last observed time.
type SettleTime struct {
	window  float64
	settled float64
	last    float64
}

func NewSettleTime(window float64) *SettleTime {
	return &SettleTime{window: window, settled: -1}
}

func (s *SettleTime) Name() string { return "settle_time" }

func (s *SettleTime) Observe(sample runner.Sample) {
	s.last = sample.T
	d := sample.Desired.Translation.Minus(sample.Actual.Translation).Norm()
	if d > s.window {
		s.settled = -1
	} else if s.settled < 0 {
		s.settled = sample.T
	}
}

func (s *SettleTime) Value() float64 {
	if s.settled < 0 {
		return s.last
	}
	return s.settled
}

func (s *SettleTime) Reset() {
	s.settled = -1
	s.last = 0
}
