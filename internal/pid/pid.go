package pid

import "math"

// PID is a position-form PID controller stepped at the caller's control
// period. The integral and previous-error state persist across calls until
// Reset, so a controller reused for a second run must be reset explicitly.
type PID struct {
	Kp float64
	Ki float64
	Kd float64

	continuous bool
	inputMin   float64
	inputMax   float64

	integral float64
	prevErr  float64
	first    bool
}

func New(kp, ki, kd float64) *PID {
	return &PID{
		Kp:    kp,
		Ki:    ki,
		Kd:    kd,
		first: true,
	}
}

// EnableContinuousInput treats the input range as circular, so the error
// between 179 and -179 degrees is 2 degrees, not 358. Used for heading loops.
func (p *PID) EnableContinuousInput(min, max float64) {
	p.continuous = true
	p.inputMin = min
	p.inputMax = max
}

// Calculate returns the control output for one step.
func (p *PID) Calculate(measurement, setpoint, dt float64) float64 {
	err := setpoint - measurement
	if p.continuous {
		err = wrapInput(err, p.inputMax-p.inputMin)
	}

	if p.first {
		p.prevErr = err
		p.first = false
		return p.Kp * err
	}
	if dt <= 0 {
		return p.Kp * err
	}

	p.integral += err * dt
	derivative := (err - p.prevErr) / dt
	p.prevErr = err

	return p.Kp*err + p.Ki*p.integral + p.Kd*derivative
}

// Reset clears the integral accumulator and derivative history.
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

// wrapInput maps an error onto (-span/2, span/2] for circular inputs.
func wrapInput(err, span float64) float64 {
	if span <= 0 {
		return err
	}
	wrapped := math.Mod(err, span)
	if wrapped > span/2 {
		wrapped -= span
	} else if wrapped <= -span/2 {
		wrapped += span
	}
	return wrapped
}
