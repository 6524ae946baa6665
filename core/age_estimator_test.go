package core

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/signalsfoundry/burial-clock/model"
)

func TestApparentAgeZeroBeforeBurial(t *testing.T) {
	frames := Generate(DefaultSettings).Frames()
	for i := 0; i <= 100; i++ {
		for _, p := range model.Pairs() {
			if got := ApparentAge(frames[i], p); got != 0 {
				t.Fatalf("frame %d ApparentAge(%s) = %v, want 0", i, p, got)
			}
		}
	}
}

func TestApparentAgeEqualDuringBurial(t *testing.T) {
	for _, s := range []model.Settings{
		DefaultSettings,
		{ExposureMyr: 0, BurialMyr: 2.5, ReExposureMyr: 0.1},
		{ExposureMyr: 3, BurialMyr: 0.3, ReExposureMyr: 0},
	} {
		for _, f := range Generate(s).Frames() {
			if f.Status != model.StatusBurial {
				continue
			}
			a26, a36 := ApparentAges(f)
			if !scalar.EqualWithinAbsOrRel(a26, a36, 1e-9, 1e-12) {
				t.Fatalf("settings %+v at %v: ages %v and %v differ", s, f.TCumulative, a26, a36)
			}
		}
	}
}

func TestApparentAgeTracksBurialDuration(t *testing.T) {
	frames := Generate(DefaultSettings).Frames()

	// The reference is frozen after the first burial step, so the clock
	// reads one step behind the true burial time.
	onset := frames[101]
	if got := ApparentAge(onset, model.Pair26_10); got != 0 {
		t.Fatalf("age at burial onset = %v, want 0", got)
	}
	end := frames[300]
	want := 199 * DTYears
	if got := ApparentAge(end, model.Pair26_10); !scalar.EqualWithinRel(got, want, 1e-9) {
		t.Fatalf("age at end of burial = %v, want %v", got, want)
	}
	if got := ApparentAgeKyr(end, model.Pair36_10); !scalar.EqualWithinRel(got, want/1e3, 1e-9) {
		t.Fatalf("ApparentAgeKyr = %v, want %v", got, want/1e3)
	}
}

func TestApparentAgeDivergesOnReExposure(t *testing.T) {
	frames := Generate(DefaultSettings).Frames()
	for i := 302; i < len(frames); i++ {
		a26, a36 := ApparentAges(frames[i])
		if a36 >= a26 {
			t.Fatalf("frame %d: 36/10 age %v not below 26/10 age %v", i, a36, a26)
		}
		prev26, prev36 := ApparentAges(frames[i-1])
		if a26 > prev26 || a36 > prev36 {
			t.Fatalf("frame %d: ages grew during re-exposure (%v->%v, %v->%v)", i, prev26, a26, prev36, a36)
		}
	}
}

func TestApparentAgeFallbacks(t *testing.T) {
	base := 5.0
	cases := []struct {
		name  string
		frame model.Frame
		pair  model.Pair
	}{
		{"unknown pair", model.Frame{Status: model.StatusBurial, R26_10: 4, RBase26_10: &base, RBase36_10: &base}, "14/10"},
		{"zero measured ratio", model.Frame{Status: model.StatusBurial, R26_10: 0, RBase26_10: &base, RBase36_10: &base}, model.Pair26_10},
		{"ratio above reference", model.Frame{Status: model.StatusExposure, R36_10: 9, RBase26_10: &base, RBase36_10: &base}, model.Pair36_10},
		{"nan ratio", model.Frame{Status: model.StatusExposure, R26_10: math.NaN(), RBase26_10: &base, RBase36_10: &base}, model.Pair26_10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ApparentAge(tc.frame, tc.pair); got != Fallback {
				t.Fatalf("ApparentAge = %v, want %v", got, Fallback)
			}
		})
	}
}

func TestProductionRatioAge(t *testing.T) {
	f := model.Frame{R26_10: ProductionRatio26_10, R36_10: ProductionRatio36_10 / 2}
	if got := ProductionRatioAge(f, model.Pair26_10); got != 0 {
		t.Fatalf("age at production ratio = %v, want 0", got)
	}
	want := math.Ln2 / DecayDifference(model.Pair36_10)
	if got := ProductionRatioAge(f, model.Pair36_10); !scalar.EqualWithinRel(got, want, 1e-12) {
		t.Fatalf("ProductionRatioAge(36/10) = %v, want %v", got, want)
	}
}

func TestSafeRatio(t *testing.T) {
	cases := []struct {
		num, den, want float64
	}{
		{6, 2, 3},
		{1, 0, Fallback},
		{1, -1, Fallback},
		{math.Inf(1), 1, Fallback},
		{1, math.NaN(), Fallback},
		{math.MaxFloat64, math.SmallestNonzeroFloat64, Fallback},
	}
	for _, tc := range cases {
		if got := SafeRatio(tc.num, tc.den); got != tc.want {
			t.Fatalf("SafeRatio(%v, %v) = %v, want %v", tc.num, tc.den, got, tc.want)
		}
	}
}

func TestSafeAge(t *testing.T) {
	if got := SafeAge(2, 1, math.Ln2); !scalar.EqualWithinRel(got, 1, 1e-12) {
		t.Fatalf("SafeAge(2, 1, ln2) = %v, want 1", got)
	}
	if got := SafeAge(1, 2, math.Ln2); got != Fallback {
		t.Fatalf("negative age = %v, want fallback", got)
	}
	if got := SafeAge(2, 1, 0); got != Fallback {
		t.Fatalf("zero rate = %v, want fallback", got)
	}
	if got := SafeAge(-1, 1, 1); got != Fallback {
		t.Fatalf("negative reference = %v, want fallback", got)
	}
}
