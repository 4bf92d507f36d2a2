package drive

import (
	"fmt"
	"math"

	"github.com/omnidrive/holotrack/internal/geom"
	"github.com/omnidrive/holotrack/internal/pid"
	"github.com/omnidrive/holotrack/internal/trajectory"
)

// Holonomic combines two translational feedback loops and one heading loop
// into a single body-frame velocity command. The heading tracked is supplied
// independently of the path tangent, so the chassis can translate one way
// while facing another.
//
// The controllers carry integrator and derivative state across ticks; call
// Reset before starting a fresh run.
type Holonomic struct {
	x      *pid.PID
	y      *pid.PID
	theta  *pid.Profiled
	period float64

	feedbackEnabled bool
}

// NewHolonomic builds the controller from the per-axis loops and the fixed
// control period in seconds. The heading loop is made continuous over
// (-pi, pi].
func NewHolonomic(x, y *pid.PID, theta *pid.Profiled, period float64) (*Holonomic, error) {
	if x == nil || y == nil || theta == nil {
		return nil, fmt.Errorf("drive: all three controllers are required")
	}
	if period <= 0 {
		return nil, fmt.Errorf("drive: period must be positive, got %f", period)
	}
	theta.EnableContinuousInput(-math.Pi, math.Pi)
	return &Holonomic{
		x:               x,
		y:               y,
		theta:           theta,
		period:          period,
		feedbackEnabled: true,
	}, nil
}

// Calculate produces the body-frame command for one tick. The feedforward
// component comes from the sampled state's velocity along the path tangent;
// the feedback corrections come from the per-axis position errors. A NaN pose
// propagates into the output unchecked.
func (h *Holonomic) Calculate(current geom.Pose, desired trajectory.State, desiredHeading geom.Rotation) ChassisSpeeds {
	pathHeading := desired.Pose.Heading()
	xFF := desired.Velocity * math.Cos(pathHeading)
	yFF := desired.Velocity * math.Sin(pathHeading)

	omega := h.theta.Calculate(current.Heading(), desiredHeading.Radians(), h.period)

	if !h.feedbackEnabled {
		return FromFieldRelative(xFF, yFF, omega, current.Rotation)
	}

	xFB := h.x.Calculate(current.X(), desired.Pose.X(), h.period)
	yFB := h.y.Calculate(current.Y(), desired.Pose.Y(), h.period)

	return FromFieldRelative(xFF+xFB, yFF+yFB, omega, current.Rotation)
}

// SetFeedbackEnabled toggles the position corrections, leaving feedforward
// only. Useful for characterizing a drivetrain against a known path.
func (h *Holonomic) SetFeedbackEnabled(enabled bool) {
	h.feedbackEnabled = enabled
}

// Reset clears all three loops and snaps the heading profile onto the given
// pose. Stale integral from a previous run would otherwise leak into the
// first ticks of the next one.
func (h *Holonomic) Reset(current geom.Pose) {
	h.x.Reset()
	h.y.Reset()
	h.theta.ResetTo(current.Heading())
}
