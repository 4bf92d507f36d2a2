package runner

import (
	"time"

	"github.com/omnidrive/holotrack/internal/geom"
	"github.com/omnidrive/holotrack/internal/kinematics"
)

// Sample is one tick's snapshot of a run, as read by the probe.
type Sample struct {
	T       float64
	Desired geom.Pose
	Actual  geom.Pose
	Wheels  []kinematics.ModuleState
}

// Probe reads the world after a tick's Execute. Supplied by the caller, who
// knows where the poses live.
type Probe func(elapsed float64) Sample

// Observer sees every sample as it happens; used for live rendering.
type Observer interface {
	OnTick(Sample)
}

// Metric accumulates a scalar over a run.
type Metric interface {
	Name() string
	Observe(Sample)
	Value() float64
	Reset()
}

// Result is everything recorded over one run.
type Result struct {
	Samples     []Sample
	Ticks       int
	Finished    bool
	Interrupted bool
	Metrics     map[string]float64
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
