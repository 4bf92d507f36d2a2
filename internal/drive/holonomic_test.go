package drive

import (
	"math"
	"testing"

	"github.com/omnidrive/holotrack/internal/geom"
	"github.com/omnidrive/holotrack/internal/pid"
	"github.com/omnidrive/holotrack/internal/trajectory"
)

func newTestController(t *testing.T) *Holonomic {
	t.Helper()
	h, err := NewHolonomic(
		pid.New(1.0, 0, 0),
		pid.New(1.0, 0, 0),
		pid.NewProfiled(1.0, 0, 0, pid.Constraints{MaxVelocity: 6, MaxAcceleration: 12}),
		0.02,
	)
	if err != nil {
		t.Fatalf("NewHolonomic: %v", err)
	}
	return h
}

func TestNewHolonomicValidates(t *testing.T) {
	if _, err := NewHolonomic(nil, pid.New(1, 0, 0), pid.NewProfiled(1, 0, 0, pid.Constraints{}), 0.02); err == nil {
		t.Error("expected error for nil x controller")
	}
	if _, err := NewHolonomic(pid.New(1, 0, 0), pid.New(1, 0, 0), pid.NewProfiled(1, 0, 0, pid.Constraints{}), 0); err == nil {
		t.Error("expected error for zero period")
	}
}

func TestCalculateOnPathIsFeedforwardOnly(t *testing.T) {
	h := newTestController(t)

	current := geom.NewPose(1, 2, 0)
	desired := trajectory.State{Pose: geom.NewPose(1, 2, 0), Velocity: 2.0}
	h.Reset(current)

	speeds := h.Calculate(current, desired, geom.NewRotation(0))

	if math.Abs(speeds.VX-2.0) > 1e-9 {
		t.Errorf("expected pure feedforward vx=2.0, got %f", speeds.VX)
	}
	if math.Abs(speeds.VY) > 1e-9 || math.Abs(speeds.Omega) > 1e-9 {
		t.Errorf("expected zero vy/omega on path, got vy=%f omega=%f", speeds.VY, speeds.Omega)
	}
}

func TestCalculateCorrectsTowardPath(t *testing.T) {
	h := newTestController(t)

	// Robot is behind and to the right of the desired point.
	current := geom.NewPose(0, -1, 0)
	desired := trajectory.State{Pose: geom.NewPose(1, 0, 0), Velocity: 0}
	h.Reset(current)

	speeds := h.Calculate(current, desired, geom.NewRotation(0))

	if speeds.VX <= 0 {
		t.Errorf("expected forward correction, got vx=%f", speeds.VX)
	}
	if speeds.VY <= 0 {
		t.Errorf("expected leftward correction, got vy=%f", speeds.VY)
	}
}

func TestCalculateRotatesIntoBodyFrame(t *testing.T) {
	h := newTestController(t)

	// Facing +Y; a field +X error must appear as body -Y.
	current := geom.NewPose(0, 0, math.Pi/2)
	desired := trajectory.State{Pose: geom.NewPose(1, 0, math.Pi / 2), Velocity: 0}
	h.Reset(current)

	speeds := h.Calculate(current, desired, geom.NewRotation(math.Pi/2))

	if math.Abs(speeds.VX) > 1e-9 {
		t.Errorf("expected no body-forward component, got %f", speeds.VX)
	}
	if speeds.VY >= 0 {
		t.Errorf("expected body-rightward correction, got vy=%f", speeds.VY)
	}
}

func TestHeadingIndependentOfTravel(t *testing.T) {
	h := newTestController(t)

	current := geom.NewPose(0, 0, 0)
	// Path travels along +X but the commanded heading is +90 degrees.
	desired := trajectory.State{Pose: geom.NewPose(0, 0, 0), Velocity: 1.0}
	h.Reset(current)

	speeds := h.Calculate(current, desired, geom.NewRotationDegrees(90))

	if speeds.Omega <= 0 {
		t.Errorf("expected positive omega toward commanded heading, got %f", speeds.Omega)
	}
	if speeds.VX <= 0 {
		t.Errorf("translation feedforward should be unaffected, got vx=%f", speeds.VX)
	}
}

func TestFeedbackDisabled(t *testing.T) {
	h := newTestController(t)
	h.SetFeedbackEnabled(false)

	current := geom.NewPose(0, 0, 0)
	h.Reset(current)
	desired := trajectory.State{Pose: geom.NewPose(5, 5, 0), Velocity: 0}

	speeds := h.Calculate(current, desired, geom.NewRotation(0))
	if speeds.VX != 0 || speeds.VY != 0 {
		t.Errorf("disabled feedback must leave feedforward only, got vx=%f vy=%f", speeds.VX, speeds.VY)
	}
}

func TestNaNPosePropagates(t *testing.T) {
	h := newTestController(t)

	current := geom.NewPose(math.NaN(), 0, 0)
	desired := trajectory.State{Pose: geom.NewPose(1, 0, 0), Velocity: 0}

	speeds := h.Calculate(current, desired, geom.NewRotation(0))
	if !math.IsNaN(speeds.VX) {
		t.Error("NaN pose must propagate into the command")
	}
}

func TestFromFieldRelative(t *testing.T) {
	// Field +X command on a robot facing +Y becomes body -Y.
	s := FromFieldRelative(1, 0, 0.5, geom.NewRotationDegrees(90))
	if math.Abs(s.VX) > 1e-9 || math.Abs(s.VY+1) > 1e-9 {
		t.Errorf("expected (0,-1), got (%f,%f)", s.VX, s.VY)
	}
	if s.Omega != 0.5 {
		t.Errorf("omega should pass through, got %f", s.Omega)
	}
}
