package follower

import (
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnidrive/holotrack/internal/drive"
	"github.com/omnidrive/holotrack/internal/geom"
	"github.com/omnidrive/holotrack/internal/kinematics"
	"github.com/omnidrive/holotrack/internal/pid"
	"github.com/omnidrive/holotrack/internal/trajectory"
)

type harness struct {
	cmd       *Command
	clk       *clock.Mock
	pose      geom.Pose
	emissions [][]kinematics.ModuleState
}

// newHarness builds a command around a 2 s trajectory from the origin to
// (3, 0, 0) with the tolerances and grace period of the reference scenario:
// 5 cm, 5 cm, 2 degrees, 3 s.
func newHarness(t *testing.T, cfgMut func(*Config)) *harness {
	t.Helper()

	tr, err := trajectory.New([]trajectory.State{
		{T: 0, Pose: geom.NewPose(0, 0, 0), Velocity: 1.5},
		{T: 2, Pose: geom.NewPose(3, 0, 0), Velocity: 0},
	})
	require.NoError(t, err)

	kin, err := kinematics.NewSwerve(
		geom.Translation{X: 0.3, Y: 0.3},
		geom.Translation{X: 0.3, Y: -0.3},
		geom.Translation{X: -0.3, Y: 0.3},
		geom.Translation{X: -0.3, Y: -0.3},
	)
	require.NoError(t, err)

	controller, err := drive.NewHolonomic(
		pid.New(1.0, 0, 0),
		pid.New(1.0, 0, 0),
		pid.NewProfiled(2.0, 0, 0, pid.Constraints{MaxVelocity: 6, MaxAcceleration: 12}),
		0.02,
	)
	require.NoError(t, err)

	h := &harness{clk: clock.NewMock()}

	cfg := Config{
		Tolerances:  Tolerances{X: 0.05, Y: 0.05, Rotation: 2 * math.Pi / 180},
		GracePeriod: 3.0,
		Clock:       h.clk,
	}
	if cfgMut != nil {
		cfgMut(&cfg)
	}

	cmd, err := New(
		tr,
		func() geom.Pose { return h.pose },
		kin,
		controller,
		func(states []kinematics.ModuleState) { h.emissions = append(h.emissions, states) },
		cfg,
		Resource("drivetrain"),
	)
	require.NoError(t, err)
	h.cmd = cmd
	return h
}

func (h *harness) tick(t *testing.T) bool {
	t.Helper()
	h.cmd.Execute()
	return h.cmd.IsFinished()
}

func TestNewRejectsNilCollaborators(t *testing.T) {
	h := newHarness(t, nil)

	tr := h.cmd.traj
	kin := h.cmd.kin
	ctrl := h.cmd.controller
	pose := h.cmd.pose
	out := h.cmd.output

	tests := []struct {
		name string
		err  error
		call func() (*Command, error)
	}{
		{"nil trajectory", ErrNilTrajectory, func() (*Command, error) {
			return New(nil, pose, kin, ctrl, out, Config{})
		}},
		{"nil pose", ErrNilPose, func() (*Command, error) {
			return New(tr, nil, kin, ctrl, out, Config{})
		}},
		{"nil kinematics", ErrNilKinematics, func() (*Command, error) {
			return New(tr, pose, nil, ctrl, out, Config{})
		}},
		{"nil controller", ErrNilController, func() (*Command, error) {
			return New(tr, pose, kin, nil, out, Config{})
		}},
		{"nil output", ErrNilOutput, func() (*Command, error) {
			return New(tr, pose, kin, ctrl, nil, Config{})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.call()
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestExecuteEmitsOncePerTick(t *testing.T) {
	h := newHarness(t, nil)
	h.cmd.Initialize()

	for i := 0; i < 5; i++ {
		h.cmd.Execute()
		h.clk.Add(20 * time.Millisecond)
	}

	require.Len(t, h.emissions, 5)
	for _, states := range h.emissions {
		assert.Len(t, states, 4)
	}
}

func TestArrivalAtFinalPose(t *testing.T) {
	h := newHarness(t, nil)
	h.cmd.Initialize()

	// At t=2.0 s the chassis sits exactly on the final pose.
	h.clk.Add(2 * time.Second)
	h.pose = geom.NewPose(3, 0, 0)

	assert.True(t, h.tick(t))
}

func TestArrivalCanPrecedeNominalDuration(t *testing.T) {
	h := newHarness(t, nil)
	h.cmd.Initialize()

	// Tolerance satisfied long before the 2 s path time has elapsed.
	h.clk.Add(500 * time.Millisecond)
	h.pose = geom.NewPose(2.97, 0.01, 0)

	assert.True(t, h.tick(t))
}

func TestArrivalLatchIsMonotonic(t *testing.T) {
	h := newHarness(t, nil)
	h.cmd.Initialize()

	h.clk.Add(2 * time.Second)
	h.pose = geom.NewPose(3, 0, 0)
	require.True(t, h.tick(t))

	// Drifting back outside tolerance must not unlatch the finish.
	h.pose = geom.NewPose(1, 1, math.Pi/2)
	for i := 0; i < 3; i++ {
		h.clk.Add(20 * time.Millisecond)
		assert.True(t, h.tick(t))
	}
}

func TestRotationToleranceWraps(t *testing.T) {
	h := newHarness(t, nil)
	h.cmd.Initialize()

	// Heading differs from the goal by a full turn; the wrapped delta is zero.
	h.pose = geom.NewPose(3, 0, 2*math.Pi)
	assert.True(t, h.tick(t))
}

func TestTimeoutFiresAtDurationPlusGrace(t *testing.T) {
	h := newHarness(t, nil)
	h.cmd.Initialize()

	// Never converges: pose pinned at the origin.
	h.pose = geom.NewPose(0, 0, 0)

	h.clk.Add(4990 * time.Millisecond)
	assert.False(t, h.tick(t), "must not time out at 4.99 s")

	h.clk.Add(10 * time.Millisecond)
	assert.True(t, h.tick(t), "must time out at 5.0 s")
}

func TestTimeoutNotBeforeNominalDuration(t *testing.T) {
	h := newHarness(t, nil)
	h.cmd.Initialize()
	h.pose = geom.NewPose(0, 0, 0)

	h.clk.Add(1999 * time.Millisecond)
	assert.False(t, h.tick(t))
}

func TestInitializeResetsRun(t *testing.T) {
	h := newHarness(t, nil)
	h.cmd.Initialize()

	// Finish a run via arrival.
	h.clk.Add(2 * time.Second)
	h.pose = geom.NewPose(3, 0, 0)
	require.True(t, h.tick(t))
	h.cmd.End(false)

	// A fresh run must clear the latch and restart the stopwatch.
	h.pose = geom.NewPose(0, 0, 0)
	h.cmd.Initialize()

	assert.False(t, h.cmd.IsFinished(), "latch must clear on Initialize")
	assert.Less(t, h.cmd.watch.Elapsed().Seconds(), 1e-9, "stopwatch must restart")

	// Idempotent: a second Initialize is as good as the first.
	h.clk.Add(time.Second)
	h.cmd.Initialize()
	assert.Less(t, h.cmd.watch.Elapsed().Seconds(), 1e-9)
}

func TestEndStopsStopwatch(t *testing.T) {
	h := newHarness(t, nil)
	h.cmd.Initialize()

	h.clk.Add(time.Second)
	h.cmd.End(true)

	frozen := h.cmd.watch.Elapsed()
	h.clk.Add(10 * time.Second)
	assert.Equal(t, frozen, h.cmd.watch.Elapsed())
}

func TestSamplingClampsAfterTrajectoryEnds(t *testing.T) {
	h := newHarness(t, nil)
	h.cmd.Initialize()

	// Past nominal duration with the chassis already at the goal: the clamped
	// sample keeps the desired state at the endpoint, so the command is near
	// zero instead of chasing an extrapolated pose.
	h.clk.Add(4 * time.Second)
	h.pose = geom.NewPose(3, 0, 0)
	h.cmd.Execute()

	require.NotEmpty(t, h.emissions)
	last := h.emissions[len(h.emissions)-1]
	for i, st := range last {
		assert.InDelta(t, 0, st.Speed, 1e-6, "module %d", i)
	}
}

func TestControllerResetPolicy(t *testing.T) {
	firstTickSpeed := func(keep bool) float64 {
		h := newHarness(t, func(cfg *Config) {
			cfg.KeepControllerState = keep
		})

		// Build up integral state with a stuck robot over one full run.
		integ, err := drive.NewHolonomic(
			pid.New(1.0, 5.0, 0),
			pid.New(1.0, 5.0, 0),
			pid.NewProfiled(2.0, 0, 0, pid.Constraints{MaxVelocity: 6, MaxAcceleration: 12}),
			0.02,
		)
		require.NoError(t, err)
		h.cmd.controller = integ

		h.cmd.Initialize()
		for i := 0; i < 100; i++ {
			h.cmd.Execute()
			h.clk.Add(20 * time.Millisecond)
		}
		h.cmd.End(false)

		h.emissions = nil
		h.cmd.Initialize()
		h.cmd.Execute()
		return h.emissions[0][0].Speed
	}

	fresh := firstTickSpeed(false)
	carried := firstTickSpeed(true)

	// With carry-over the accumulated integral inflates the first command of
	// the next run.
	assert.Greater(t, carried, fresh)
}

func TestRequirementsPassThrough(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, []Resource{"drivetrain"}, h.cmd.Requirements())
}
