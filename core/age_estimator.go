package core

import "github.com/signalsfoundry/burial-clock/model"

// ApparentAge infers the time since burial from the frame's isotope ratio
// for the given pair, in years:
//
//	t = ln(Rref / R) / (λx − λ10)
//
// Rref is the ratio frozen at the first burial step. Before any burial the
// age is zero. While buried, both pairs report the 26Al/10Be age, since pure
// co-decay moves both ratios consistently away from the same starting point.
// During re-exposure each pair is measured against its own frozen ratio and
// the two clocks drift apart. Unusable results collapse to Fallback.
func ApparentAge(f model.Frame, p model.Pair) float64 {
	if !p.Valid() || !f.BurialStarted() {
		return Fallback
	}
	if f.Status == model.StatusBurial {
		p = model.Pair26_10
	}
	ref, _ := f.ReferenceRatio(p)
	return SafeAge(ref, f.Ratio(p), DecayDifference(p))
}

// ApparentAgeKyr is ApparentAge in thousands of years.
func ApparentAgeKyr(f model.Frame, p model.Pair) float64 {
	return ApparentAge(f, p) / AgeUnitYears
}

// ApparentAges returns the ages of both pairs for f.
func ApparentAges(f model.Frame) (age26, age36 float64) {
	return ApparentAge(f, model.Pair26_10), ApparentAge(f, model.Pair36_10)
}

// ProductionRatioAge measures the pair against its surface production ratio
// instead of the frozen burial reference. This is the simple-burial age a lab
// would report for a sample with no prior burial history.
func ProductionRatioAge(f model.Frame, p model.Pair) float64 {
	if !p.Valid() {
		return Fallback
	}
	return SafeAge(ProductionRatio(p), f.Ratio(p), DecayDifference(p))
}
