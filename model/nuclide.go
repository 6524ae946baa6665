package model

// Nuclide identifies one of the tracked cosmogenic isotopes.
type Nuclide string

const (
	Be10 Nuclide = "10Be"
	Al26 Nuclide = "26Al"
	Cl36 Nuclide = "36Cl"
)

// NuclideState holds the inventory of each nuclide in atoms per gram.
// Every component is non-negative.
type NuclideState struct {
	N10 float64 `json:"n10"`
	N26 float64 `json:"n26"`
	N36 float64 `json:"n36"`
}

// Get returns the inventory for a single nuclide.
func (s NuclideState) Get(n Nuclide) float64 {
	switch n {
	case Be10:
		return s.N10
	case Al26:
		return s.N26
	case Cl36:
		return s.N36
	default:
		return 0
	}
}

// Pair names an isotope ratio measured against 10Be.
type Pair string

const (
	Pair26_10 Pair = "26/10"
	Pair36_10 Pair = "36/10"
)

// Numerator returns the nuclide on top of the ratio.
func (p Pair) Numerator() Nuclide {
	if p == Pair36_10 {
		return Cl36
	}
	return Al26
}

// Valid reports whether p is one of the two supported pairs.
func (p Pair) Valid() bool {
	return p == Pair26_10 || p == Pair36_10
}

// Pairs lists the supported ratios in display order.
func Pairs() []Pair { return []Pair{Pair26_10, Pair36_10} }
