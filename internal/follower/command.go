// Package follower holds the trajectory-tracking command: a state machine
// driven by an external scheduler, one tick at a time, that samples a
// time-parameterized path, corrects toward it with a holonomic drive
// controller, and emits per-wheel commands until it arrives or times out.
package follower

import (
	"errors"
	"math"

	"github.com/benbjohnson/clock"

	"github.com/omnidrive/holotrack/internal/drive"
	"github.com/omnidrive/holotrack/internal/geom"
	"github.com/omnidrive/holotrack/internal/kinematics"
	"github.com/omnidrive/holotrack/internal/trajectory"
)

var (
	ErrNilTrajectory = errors.New("follower: trajectory is required")
	ErrNilPose       = errors.New("follower: pose supplier is required")
	ErrNilKinematics = errors.New("follower: kinematics is required")
	ErrNilController = errors.New("follower: controller is required")
	ErrNilOutput     = errors.New("follower: output is required")
)

// PoseSupplier returns the current best pose estimate. It must be callable
// any number of times per tick with no side effects.
type PoseSupplier func() geom.Pose

// Output receives one array of per-wheel commands per tick. The command does
// not retry or buffer on its behalf.
type Output func([]kinematics.ModuleState)

// Resource is an opaque scheduler token. The command stores the tokens it was
// built with and hands them back untouched; arbitration is the scheduler's
// problem.
type Resource string

// Tolerances bound the arrival check against the trajectory's final pose.
type Tolerances struct {
	X        float64 // meters
	Y        float64 // meters
	Rotation float64 // radians, compared against the wrapped delta
}

// Config carries the termination policy for a run.
type Config struct {
	Tolerances Tolerances

	// GracePeriod extends the nominal trajectory duration before the timeout
	// branch fires. It is the safety net for paths that never converge within
	// tolerance.
	GracePeriod float64

	// KeepControllerState skips the controller reset in Initialize, carrying
	// integrator state over from the previous run the way the stock
	// controllers behave. Leave false unless that carry-over is wanted.
	KeepControllerState bool

	// Clock defaults to the wall clock; tests inject a mock.
	Clock clock.Clock
}

// Command follows one trajectory per Initialize/Execute.../End cycle.
// The scheduler calls the four hooks synchronously, once each per control
// tick, and guarantees ticks never overlap; nothing here blocks or locks.
type Command struct {
	traj       *trajectory.Trajectory
	pose       PoseSupplier
	kin        *kinematics.Swerve
	controller *drive.Holonomic
	output     Output
	cfg        Config
	reqs       []Resource

	watch   *stopwatch
	arrived bool
}

// New validates every collaborator up front; a malformed command never enters
// the run state machine.
func New(
	traj *trajectory.Trajectory,
	pose PoseSupplier,
	kin *kinematics.Swerve,
	controller *drive.Holonomic,
	output Output,
	cfg Config,
	requirements ...Resource,
) (*Command, error) {
	if traj == nil {
		return nil, ErrNilTrajectory
	}
	if pose == nil {
		return nil, ErrNilPose
	}
	if kin == nil {
		return nil, ErrNilKinematics
	}
	if controller == nil {
		return nil, ErrNilController
	}
	if output == nil {
		return nil, ErrNilOutput
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	return &Command{
		traj:       traj,
		pose:       pose,
		kin:        kin,
		controller: controller,
		output:     output,
		cfg:        cfg,
		reqs:       requirements,
		watch:      newStopwatch(cfg.Clock),
	}, nil
}

// Initialize starts a fresh run: the stopwatch restarts from zero and the
// arrival latch clears. Calling it again at any point begins a new run.
func (c *Command) Initialize() {
	c.watch.Restart()
	c.arrived = false
	if !c.cfg.KeepControllerState {
		c.controller.Reset(c.pose())
	}
}

// Execute performs one control tick: sample the path at elapsed time, compute
// the body-frame command against the fresh pose, convert to wheel states and
// emit them. Exactly one emission per call.
func (c *Command) Execute() {
	elapsed := c.watch.Elapsed().Seconds()
	desired := c.traj.Sample(elapsed)

	// This variant tracks the trajectory's own orientation at each sample.
	heading := desired.Pose.Rotation

	speeds := c.controller.Calculate(c.pose(), desired, heading)
	c.output(c.kin.ToModuleStates(speeds))
}

// IsFinished reports whether the run is over: either the chassis has been
// within tolerance of the final pose on some tick of this run (a latch, not a
// live check), or elapsed time has passed the trajectory duration plus the
// grace period.
func (c *Command) IsFinished() bool {
	delta := c.traj.Final().Pose.Minus(c.pose())
	if math.Abs(delta.Translation.X) < c.cfg.Tolerances.X &&
		math.Abs(delta.Translation.Y) < c.cfg.Tolerances.Y &&
		math.Abs(delta.Rotation.Radians()) < c.cfg.Tolerances.Rotation {
		c.arrived = true
	}

	timedOut := c.watch.Elapsed().Seconds() >= c.traj.Duration()+c.cfg.GracePeriod
	return c.arrived || timedOut
}

// End stops the stopwatch. The last emitted command is deliberately left
// standing: zeroing it is wrong for paths with nonstationary endstates, so
// the decision belongs to the output's consumer.
func (c *Command) End(interrupted bool) {
	c.watch.Stop()
}

// Requirements returns the scheduler tokens supplied at construction.
func (c *Command) Requirements() []Resource {
	return c.reqs
}
