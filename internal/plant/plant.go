// Package plant simulates an omnidirectional chassis for offline runs: it
// plays the roles of both the pose source and the wheel-command sink that a
// real robot would provide, so the tracking command can be exercised end to
// end without hardware.
package plant

import (
	"math"
	"math/rand"

	"github.com/omnidrive/holotrack/internal/drive"
	"github.com/omnidrive/holotrack/internal/geom"
	"github.com/omnidrive/holotrack/internal/kinematics"
)

// Options tune how ideal the simulated chassis is.
type Options struct {
	// Integrator defaults to RK4.
	Integrator Integrator

	// LagTimeConstant is the first-order response of the wheel servos in
	// seconds. Zero means commands take effect instantly.
	LagTimeConstant float64

	// PoseNoiseStd adds zero-mean gaussian noise to reported positions,
	// imitating estimator jitter. Zero disables it.
	PoseNoiseStd float64

	// Seed makes noisy runs reproducible.
	Seed int64
}

// Plant integrates the pose of a simulated holonomic chassis from the wheel
// commands it receives.
type Plant struct {
	kin  *kinematics.Swerve
	opts Options
	rng  *rand.Rand

	pose    geom.Pose
	current drive.ChassisSpeeds // achieved body-frame speeds
	target  drive.ChassisSpeeds // last commanded body-frame speeds
}

func New(kin *kinematics.Swerve, initial geom.Pose, opts Options) *Plant {
	if opts.Integrator == nil {
		opts.Integrator = NewRK4()
	}
	return &Plant{
		kin:  kin,
		opts: opts,
		rng:  rand.New(rand.NewSource(opts.Seed)),
		pose: initial,
	}
}

// Pose reports the current pose estimate, with noise when configured. This is
// the command's pose supplier.
func (p *Plant) Pose() geom.Pose {
	if p.opts.PoseNoiseStd == 0 {
		return p.pose
	}
	return geom.NewPose(
		p.pose.X()+p.rng.NormFloat64()*p.opts.PoseNoiseStd,
		p.pose.Y()+p.rng.NormFloat64()*p.opts.PoseNoiseStd,
		p.pose.Heading(),
	)
}

// TruePose reports the noise-free pose for metrics and rendering.
func (p *Plant) TruePose() geom.Pose {
	return p.pose
}

// Apply accepts one tick's wheel commands. This is the command's output sink.
// Commands that cannot be explained by any body motion fall back to rest.
func (p *Plant) Apply(states []kinematics.ModuleState) {
	speeds, err := p.kin.ToChassisSpeeds(states)
	if err != nil {
		p.target = drive.ChassisSpeeds{}
		return
	}
	p.target = speeds
}

// Step advances the simulation by dt seconds: wheel servos approach the
// commanded speeds through the configured lag, then the pose integrates the
// achieved body velocity in the field frame.
func (p *Plant) Step(dt float64) {
	if p.opts.LagTimeConstant <= 0 {
		p.current = p.target
	} else {
		alpha := 1 - math.Exp(-dt/p.opts.LagTimeConstant)
		p.current.VX += alpha * (p.target.VX - p.current.VX)
		p.current.VY += alpha * (p.target.VY - p.current.VY)
		p.current.Omega += alpha * (p.target.Omega - p.current.Omega)
	}

	state := []float64{p.pose.X(), p.pose.Y(), p.pose.Heading()}
	next := p.opts.Integrator.Step(p.derivative, state, dt)
	p.pose = geom.NewPose(next[0], next[1], geom.WrapAngle(next[2]))
}

// derivative maps the achieved body speeds into field-frame pose rates at the
// given heading.
func (p *Plant) derivative(state []float64) []float64 {
	heading := state[2]
	c, s := math.Cos(heading), math.Sin(heading)
	return []float64{
		p.current.VX*c - p.current.VY*s,
		p.current.VX*s + p.current.VY*c,
		p.current.Omega,
	}
}
