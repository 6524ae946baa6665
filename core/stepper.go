package core

import (
	"math"

	"github.com/signalsfoundry/burial-clock/model"
)

// StepExposure advances an inventory by dt years under constant production
// (Lal 1990): N1 = (P/λ)(1 − e^{−λdt}) + N0·e^{−λdt}.
func StepExposure(n0, p, lambda, dt float64) float64 {
	decay := math.Exp(-lambda * dt)
	return (p/lambda)*(1-decay) + n0*decay
}

// StepBurial advances an inventory by dt years with production shut off.
func StepBurial(n0, lambda, dt float64) float64 {
	return n0 * math.Exp(-lambda*dt)
}

type nuclideStep struct {
	decay       float64
	equilibrium float64
}

func newNuclideStep(p, lambda, dt float64) nuclideStep {
	decay := math.Exp(-lambda * dt)
	return nuclideStep{
		decay:       decay,
		equilibrium: (p / lambda) * (1 - decay),
	}
}

func (s nuclideStep) exposure(n0 float64) float64 { return s.equilibrium + n0*s.decay }
func (s nuclideStep) burial(n0 float64) float64   { return n0 * s.decay }

// Stepper advances all three nuclides by a fixed increment. Decay factors and
// equilibrium terms are computed once at construction.
type Stepper struct {
	dt  float64
	n10 nuclideStep
	n26 nuclideStep
	n36 nuclideStep
}

// NewStepper builds a Stepper for the given increment in years.
func NewStepper(dt float64) Stepper {
	return Stepper{
		dt:  dt,
		n10: newNuclideStep(P10, Lambda10, dt),
		n26: newNuclideStep(P26, Lambda26, dt),
		n36: newNuclideStep(P36, Lambda36, dt),
	}
}

// DT returns the increment the stepper was built for.
func (s Stepper) DT() float64 { return s.dt }

// Exposure applies one production-plus-decay step to every nuclide.
func (s Stepper) Exposure(st model.NuclideState) model.NuclideState {
	return model.NuclideState{
		N10: s.n10.exposure(st.N10),
		N26: s.n26.exposure(st.N26),
		N36: s.n36.exposure(st.N36),
	}
}

// Burial applies one decay-only step to every nuclide.
func (s Stepper) Burial(st model.NuclideState) model.NuclideState {
	return model.NuclideState{
		N10: s.n10.burial(st.N10),
		N26: s.n26.burial(st.N26),
		N36: s.n36.burial(st.N36),
	}
}

// Step dispatches on whether the sample is exposed.
func (s Stepper) Step(st model.NuclideState, exposed bool) model.NuclideState {
	if exposed {
		return s.Exposure(st)
	}
	return s.Burial(st)
}
