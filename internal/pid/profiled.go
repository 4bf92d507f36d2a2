package pid

import "math"

// Constraints bound the motion profile of a Profiled controller.
type Constraints struct {
	MaxVelocity     float64
	MaxAcceleration float64
}

// Profiled is a PID controller whose setpoint is run through a trapezoidal
// motion profile: instead of jumping to the goal, the internal setpoint moves
// toward it under velocity and acceleration limits and the PID tracks that
// moving setpoint. Used for the heading loop, where a raw step input would
// demand unbounded angular acceleration.
type Profiled struct {
	pid         *PID
	constraints Constraints

	setpointPos float64
	setpointVel float64
	initialized bool
}

func NewProfiled(kp, ki, kd float64, constraints Constraints) *Profiled {
	return &Profiled{
		pid:         New(kp, ki, kd),
		constraints: constraints,
	}
}

// EnableContinuousInput mirrors PID.EnableContinuousInput and additionally
// makes the profile take the short way around the circle.
func (p *Profiled) EnableContinuousInput(min, max float64) {
	p.pid.EnableContinuousInput(min, max)
}

// Calculate advances the profiled setpoint one step toward goal and returns
// the PID output tracking it.
func (p *Profiled) Calculate(measurement, goal, dt float64) float64 {
	if !p.initialized {
		p.ResetTo(measurement)
	}

	if dt > 0 {
		p.advance(goal, dt)
	}

	return p.pid.Calculate(measurement, p.setpointPos, dt)
}

// advance steps the internal setpoint toward goal under the constraints,
// slowing early enough to arrive at rest.
func (p *Profiled) advance(goal, dt float64) {
	err := goal - p.setpointPos
	if p.pid.continuous {
		err = wrapInput(err, p.pid.inputMax-p.pid.inputMin)
	}

	dir := 1.0
	if err < 0 {
		dir = -1.0
	}
	dist := math.Abs(err)

	// Velocity that still allows stopping at the goal.
	stopVel := math.Sqrt(2 * p.constraints.MaxAcceleration * dist)
	desired := dir * math.Min(stopVel, p.constraints.MaxVelocity)

	maxDelta := p.constraints.MaxAcceleration * dt
	dv := desired - p.setpointVel
	if dv > maxDelta {
		dv = maxDelta
	} else if dv < -maxDelta {
		dv = -maxDelta
	}
	p.setpointVel += dv

	step := p.setpointVel * dt
	if math.Abs(step) >= dist {
		p.setpointPos = goal
		p.setpointVel = 0
		return
	}
	p.setpointPos += step
	if p.pid.continuous {
		p.setpointPos = wrapInput(p.setpointPos, p.pid.inputMax-p.pid.inputMin)
	}
}

// Setpoint returns the current profiled setpoint position.
func (p *Profiled) Setpoint() float64 {
	return p.setpointPos
}

// ResetTo clears the PID state and snaps the profile onto the given
// measurement at rest.
func (p *Profiled) ResetTo(measurement float64) {
	p.pid.Reset()
	p.setpointPos = measurement
	p.setpointVel = 0
	p.initialized = true
}
