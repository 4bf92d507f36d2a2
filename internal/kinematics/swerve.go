package kinematics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/omnidrive/holotrack/internal/drive"
	"github.com/omnidrive/holotrack/internal/geom"
)

// ErrTooFewModules indicates a wheel geometry that cannot span planar motion.
var ErrTooFewModules = errors.New("kinematics: need at least 2 modules")

// ModuleState is a per-wheel command: drive speed and steering angle.
type ModuleState struct {
	Speed float64 // m/s
	Angle geom.Rotation
}

// Swerve converts a body-frame velocity command into per-wheel states for a
// fixed wheel geometry. It is stateless after construction; ToModuleStates is
// a pure function of its input.
type Swerve struct {
	positions []geom.Translation
	inverse   *mat.Dense // 2N x 3
}

// NewSwerve builds the converter from the module positions relative to the
// chassis center. Each module contributes two rows to the inverse kinematics
// matrix:
//
//	vx_i = vx - omega*y_i
//	vy_i = vy + omega*x_i
func NewSwerve(positions ...geom.Translation) (*Swerve, error) {
	if len(positions) < 2 {
		return nil, fmt.Errorf("%w, got %d", ErrTooFewModules, len(positions))
	}

	inverse := mat.NewDense(2*len(positions), 3, nil)
	for i, p := range positions {
		inverse.SetRow(2*i, []float64{1, 0, -p.Y})
		inverse.SetRow(2*i+1, []float64{0, 1, p.X})
	}

	copied := make([]geom.Translation, len(positions))
	copy(copied, positions)
	return &Swerve{positions: copied, inverse: inverse}, nil
}

// NumModules returns the number of wheels.
func (s *Swerve) NumModules() int {
	return len(s.positions)
}

// ToModuleStates maps one chassis command to one state per wheel. A zero
// command produces zero speeds with angles held at zero rather than NaN from
// atan2(0, 0).
func (s *Swerve) ToModuleStates(speeds drive.ChassisSpeeds) []ModuleState {
	n := len(s.positions)

	chassis := mat.NewVecDense(3, []float64{speeds.VX, speeds.VY, speeds.Omega})
	var wheels mat.VecDense
	wheels.MulVec(s.inverse, chassis)

	states := make([]ModuleState, n)
	for i := 0; i < n; i++ {
		vx := wheels.AtVec(2 * i)
		vy := wheels.AtVec(2*i + 1)
		speed := math.Hypot(vx, vy)

		state := ModuleState{Speed: speed}
		if speed > 1e-9 {
			state.Angle = geom.NewRotation(math.Atan2(vy, vx))
		}
		states[i] = state
	}
	return states
}

// ToChassisSpeeds recovers the body-frame velocity that best explains the
// given wheel states, the least-squares inverse of ToModuleStates. Used by
// the simulated plant; the tracking path itself only ever goes the other way.
func (s *Swerve) ToChassisSpeeds(states []ModuleState) (drive.ChassisSpeeds, error) {
	if len(states) != len(s.positions) {
		return drive.ChassisSpeeds{}, fmt.Errorf("kinematics: got %d states for %d modules", len(states), len(s.positions))
	}

	wheels := mat.NewVecDense(2*len(states), nil)
	for i, st := range states {
		wheels.SetVec(2*i, st.Speed*math.Cos(st.Angle.Radians()))
		wheels.SetVec(2*i+1, st.Speed*math.Sin(st.Angle.Radians()))
	}

	var chassis mat.VecDense
	if err := chassis.SolveVec(s.inverse, wheels); err != nil {
		return drive.ChassisSpeeds{}, fmt.Errorf("kinematics: forward solve: %w", err)
	}
	return drive.ChassisSpeeds{
		VX:    chassis.AtVec(0),
		VY:    chassis.AtVec(1),
		Omega: chassis.AtVec(2),
	}, nil
}

// Desaturate rescales all wheel speeds so none exceeds max, preserving the
// ratios between them and therefore the commanded direction of motion. No-op
// when everything is already within bounds.
func Desaturate(states []ModuleState, max float64) {
	highest := 0.0
	for _, st := range states {
		if math.Abs(st.Speed) > highest {
			highest = math.Abs(st.Speed)
		}
	}
	if highest <= max || highest == 0 {
		return
	}
	scale := max / highest
	for i := range states {
		states[i].Speed *= scale
	}
}
