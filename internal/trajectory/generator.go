package trajectory

import (
	"fmt"
	"math"

	"github.com/omnidrive/holotrack/internal/geom"
)

// Limits bound the speed profile used by Generate.
type Limits struct {
	MaxVelocity     float64 // m/s
	MaxAcceleration float64 // m/s^2
}

// Generate builds a trajectory through straight-line segments between the
// given waypoints under a trapezoidal speed profile that starts and ends at
// rest. Headings are interpolated along each segment through the wrapped
// angular difference, so a holonomic chassis can spin while translating.
//
// This is a stand-in for a real path planner; it exists so runs can be
// simulated end to end without one.
func Generate(waypoints []geom.Pose, limits Limits, dt float64) (*Trajectory, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("trajectory: need at least 2 waypoints, got %d", len(waypoints))
	}
	if limits.MaxVelocity <= 0 || limits.MaxAcceleration <= 0 {
		return nil, fmt.Errorf("trajectory: limits must be positive, got v=%f a=%f", limits.MaxVelocity, limits.MaxAcceleration)
	}
	if dt <= 0 {
		return nil, fmt.Errorf("trajectory: dt must be positive, got %f", dt)
	}

	// Cumulative arc length at each waypoint.
	cum := make([]float64, len(waypoints))
	for i := 1; i < len(waypoints); i++ {
		seg := waypoints[i].Translation.Minus(waypoints[i-1].Translation).Norm()
		if seg == 0 {
			return nil, fmt.Errorf("trajectory: waypoints %d and %d coincide", i-1, i)
		}
		cum[i] = cum[i-1] + seg
	}
	total := cum[len(cum)-1]

	prof := newTrapezoid(total, limits)

	states := make([]State, 0, int(prof.totalTime/dt)+2)
	for t := 0.0; t < prof.totalTime; t += dt {
		s, v := prof.at(t)
		states = append(states, stateAt(waypoints, cum, t, s, v))
	}
	states = append(states, stateAt(waypoints, cum, prof.totalTime, total, 0))

	return New(states)
}

// stateAt maps an arc-length position back onto the waypoint polyline.
func stateAt(waypoints []geom.Pose, cum []float64, t, s, v float64) State {
	seg := 1
	for seg < len(cum)-1 && cum[seg] < s {
		seg++
	}
	a, b := waypoints[seg-1], waypoints[seg]
	segLen := cum[seg] - cum[seg-1]
	frac := (s - cum[seg-1]) / segLen

	heading := a.Heading() + frac*geom.WrapAngle(b.Heading()-a.Heading())

	return State{
		T: t,
		Pose: geom.NewPose(
			lerp(a.X(), b.X(), frac),
			lerp(a.Y(), b.Y(), frac),
			geom.WrapAngle(heading),
		),
		Velocity:  v,
		Curvature: 0,
	}
}

// trapezoid is a rest-to-rest speed profile over a fixed distance. When the
// distance is too short to reach MaxVelocity the profile degenerates to a
// triangle.
type trapezoid struct {
	accelTime  float64
	cruiseTime float64
	totalTime  float64
	peakVel    float64
	accel      float64
}

func newTrapezoid(distance float64, limits Limits) trapezoid {
	accelDist := limits.MaxVelocity * limits.MaxVelocity / (2 * limits.MaxAcceleration)

	if 2*accelDist >= distance {
		peak := math.Sqrt(distance * limits.MaxAcceleration)
		accelTime := peak / limits.MaxAcceleration
		return trapezoid{
			accelTime: accelTime,
			totalTime: 2 * accelTime,
			peakVel:   peak,
			accel:     limits.MaxAcceleration,
		}
	}

	accelTime := limits.MaxVelocity / limits.MaxAcceleration
	cruiseTime := (distance - 2*accelDist) / limits.MaxVelocity
	return trapezoid{
		accelTime:  accelTime,
		cruiseTime: cruiseTime,
		totalTime:  2*accelTime + cruiseTime,
		peakVel:    limits.MaxVelocity,
		accel:      limits.MaxAcceleration,
	}
}

// at returns position along the path and speed at time t.
func (p trapezoid) at(t float64) (s, v float64) {
	switch {
	case t <= 0:
		return 0, 0
	case t < p.accelTime:
		return 0.5 * p.accel * t * t, p.accel * t
	case t < p.accelTime+p.cruiseTime:
		accelDist := 0.5 * p.accel * p.accelTime * p.accelTime
		return accelDist + p.peakVel*(t-p.accelTime), p.peakVel
	case t < p.totalTime:
		remaining := p.totalTime - t
		accelDist := 0.5 * p.accel * p.accelTime * p.accelTime
		cruiseDist := p.peakVel * p.cruiseTime
		endDist := 0.5 * p.accel * remaining * remaining
		return accelDist + cruiseDist + (accelDist - endDist), p.accel * remaining
	default:
		accelDist := 0.5 * p.accel * p.accelTime * p.accelTime
		return 2*accelDist + p.peakVel*p.cruiseTime, 0
	}
}
