package core

import "math"

// Fallback is substituted for every ratio or age that cannot be computed:
// zero or negative denominators, non-finite operands or results, logarithms
// of non-positive arguments and negative ages.
const Fallback = 0.0

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SafeRatio returns num/den, or Fallback when den ≤ 0 or either operand or the
// quotient is not finite.
func SafeRatio(num, den float64) float64 {
	if !finite(num) || !finite(den) || den <= 0 {
		return Fallback
	}
	r := num / den
	if !finite(r) {
		return Fallback
	}
	return r
}

// SafeAge evaluates ln(ref/measured)/rate and returns Fallback for any
// result that is not a finite, non-negative age.
func SafeAge(ref, measured, rate float64) float64 {
	arg := SafeRatio(ref, measured)
	if arg <= 0 || !finite(rate) || rate == 0 {
		return Fallback
	}
	age := math.Log(arg) / rate
	if !finite(age) || age < 0 {
		return Fallback
	}
	return age
}
