package core

import (
	"math"

	"github.com/signalsfoundry/burial-clock/model"
)

// Half-lives in years.
const (
	HalfLife10 = 1.4e6
	HalfLife26 = 0.717e6
	HalfLife36 = 0.301e6
)

// Decay constants (1/yr).
const (
	Lambda10 = math.Ln2 / HalfLife10
	Lambda26 = math.Ln2 / HalfLife26
	Lambda36 = math.Ln2 / HalfLife36
)

// Production ratios relative to 10Be.
const (
	ProductionRatio26_10 = 7.0
	ProductionRatio36_10 = 3.0
)

// Surface production rates in atoms/g/yr.
const (
	P10 = 4.0
	P26 = ProductionRatio26_10 * P10
	P36 = ProductionRatio36_10 * P10
)

const (
	// DTYears is the fixed step between consecutive frames.
	DTYears = 5000.0

	// BaselineExposureMyr is the exposure history used to build the initial
	// nuclide state from zero inventory. It is not part of the visible
	// timeline.
	BaselineExposureMyr = 0.5

	// InitialTimeYears is the cumulative time stamped on the first frame.
	InitialTimeYears = DTYears

	// AgeUnitYears converts ages in years to the kyr display unit.
	AgeUnitYears = 1e3

	// MaxDurationMyr bounds each phase. After 100 Myr of burial every tracked
	// nuclide has decayed past 70 half-lives, and a full scenario stays at
	// 60001 frames.
	MaxDurationMyr = 100.0

	yearsPerMyr = 1e6
)

// NuclideConstants groups the physical parameters of one nuclide.
type NuclideConstants struct {
	Nuclide        model.Nuclide
	HalfLifeYears  float64
	Lambda         float64
	ProductionRate float64
}

// Saturation returns the steady-state inventory P/λ reached under
// indefinite exposure.
func (c NuclideConstants) Saturation() float64 {
	return c.ProductionRate / c.Lambda
}

var nuclideTable = map[model.Nuclide]NuclideConstants{
	model.Be10: {Nuclide: model.Be10, HalfLifeYears: HalfLife10, Lambda: Lambda10, ProductionRate: P10},
	model.Al26: {Nuclide: model.Al26, HalfLifeYears: HalfLife26, Lambda: Lambda26, ProductionRate: P26},
	model.Cl36: {Nuclide: model.Cl36, HalfLifeYears: HalfLife36, Lambda: Lambda36, ProductionRate: P36},
}

// Constants returns the parameters for n. Unknown nuclides yield the zero
// value and false.
func Constants(n model.Nuclide) (NuclideConstants, bool) {
	c, ok := nuclideTable[n]
	return c, ok
}

// ProductionRatio returns the surface production ratio for the pair.
func ProductionRatio(p model.Pair) float64 {
	if p == model.Pair36_10 {
		return ProductionRatio36_10
	}
	return ProductionRatio26_10
}

// DecayDifference returns λx − λ10 for the pair, the rate at which the ratio
// decays during burial.
func DecayDifference(p model.Pair) float64 {
	if p == model.Pair36_10 {
		return Lambda36 - Lambda10
	}
	return Lambda26 - Lambda10
}
