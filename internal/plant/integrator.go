package plant

// Derivative returns dstate/dt for a pose state vector [x, y, heading].
type Derivative func(state []float64) []float64

// Integrator advances a state vector by one timestep.
type Integrator interface {
	Step(deriv Derivative, state []float64, dt float64) []float64
}

type Euler struct{}

func NewEuler() *Euler { return &Euler{} }

func (e *Euler) Step(deriv Derivative, state []float64, dt float64) []float64 {
	dx := deriv(state)
	result := make([]float64, len(state))
	for i := range state {
		result[i] = state[i] + dt*dx[i]
	}
	return result
}

type RK4 struct{}

func NewRK4() *RK4 { return &RK4{} }

func (r *RK4) Step(deriv Derivative, state []float64, dt float64) []float64 {
	n := len(state)
	scratch := make([]float64, n)

	k1 := deriv(state)

	for i := 0; i < n; i++ {
		scratch[i] = state[i] + dt*0.5*k1[i]
	}
	k2 := deriv(scratch)

	for i := 0; i < n; i++ {
		scratch[i] = state[i] + dt*0.5*k2[i]
	}
	k3 := deriv(scratch)

	for i := 0; i < n; i++ {
		scratch[i] = state[i] + dt*k3[i]
	}
	k4 := deriv(scratch)

	result := make([]float64, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = state[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return result
}
