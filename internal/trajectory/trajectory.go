package trajectory

import (
	"errors"
	"fmt"

	"github.com/omnidrive/holotrack/internal/geom"
)

var (
	// ErrEmpty indicates a trajectory with no states.
	ErrEmpty = errors.New("trajectory: empty state sequence")

	// ErrNonMonotonic indicates state timestamps that do not strictly increase.
	ErrNonMonotonic = errors.New("trajectory: timestamps must strictly increase")
)

// State is one timestamped sample of the path.
type State struct {
	T         float64 // seconds from trajectory start
	Pose      geom.Pose
	Velocity  float64 // m/s along the path tangent
	Curvature float64 // 1/m
}

// Trajectory is an immutable time-parameterized path. Build it once with New;
// the follower only reads it through Sample, Duration and Final.
type Trajectory struct {
	states []State
}

func New(states []State) (*Trajectory, error) {
	if len(states) == 0 {
		return nil, ErrEmpty
	}
	for i := 1; i < len(states); i++ {
		if states[i].T <= states[i-1].T {
			return nil, fmt.Errorf("%w: state %d at t=%f after t=%f", ErrNonMonotonic, i, states[i].T, states[i-1].T)
		}
	}
	copied := make([]State, len(states))
	copy(copied, states)
	return &Trajectory{states: copied}, nil
}

// Duration is the time offset of the last state.
func (tr *Trajectory) Duration() float64 {
	return tr.states[len(tr.states)-1].T
}

// Final is the last state of the path.
func (tr *Trajectory) Final() State {
	return tr.states[len(tr.states)-1]
}

// States returns the underlying samples. Callers must not mutate them.
func (tr *Trajectory) States() []State {
	return tr.states
}

// Sample returns the desired state at time t. Times before the first state
// return the first state, times past the end return the final state unchanged;
// there is no extrapolation. In between, states are linearly interpolated with
// the heading interpolated through the wrapped angular difference.
func (tr *Trajectory) Sample(t float64) State {
	if t <= tr.states[0].T {
		return tr.states[0]
	}
	if t >= tr.Duration() {
		return tr.Final()
	}

	// Find the first state past t. The sequence is strictly increasing.
	hi := 1
	for tr.states[hi].T < t {
		hi++
	}
	lo := hi - 1

	return interpolate(tr.states[lo], tr.states[hi], t)
}

func interpolate(a, b State, t float64) State {
	frac := (t - a.T) / (b.T - a.T)

	heading := a.Pose.Heading() + frac*geom.WrapAngle(b.Pose.Heading()-a.Pose.Heading())

	return State{
		T: t,
		Pose: geom.NewPose(
			lerp(a.Pose.X(), b.Pose.X(), frac),
			lerp(a.Pose.Y(), b.Pose.Y(), frac),
			geom.WrapAngle(heading),
		),
		Velocity:  lerp(a.Velocity, b.Velocity, frac),
		Curvature: lerp(a.Curvature, b.Curvature, frac),
	}
}

func lerp(a, b, frac float64) float64 {
	return a + frac*(b-a)
}
