package core

import (
	"math"
	"math/rand"
	"testing"
	"testing/quick"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/signalsfoundry/burial-clock/model"
)

func TestGenerateDefaultScenario(t *testing.T) {
	sc := Generate(model.Settings{ExposureMyr: 0.5, BurialMyr: 1.0, ReExposureMyr: 0.5})

	if sc.Len() != 401 {
		t.Fatalf("Len() = %d, want 401", sc.Len())
	}
	first, _ := sc.Frame(0)
	if first.TCumulative != InitialTimeYears {
		t.Fatalf("first TCumulative = %v, want %v", first.TCumulative, InitialTimeYears)
	}
	if first.Status != model.StatusExposure || first.BurialStarted() {
		t.Fatalf("first frame = %+v, want EXPOSURE without reference ratios", first)
	}
	last, _ := sc.Last()
	if last.TCumulative != 2_005_000 {
		t.Fatalf("final TCumulative = %v, want 2005000", last.TCumulative)
	}

	frames := sc.Frames()
	for i := 1; i < len(frames); i++ {
		if d := frames[i].TCumulative - frames[i-1].TCumulative; d != DTYears {
			t.Fatalf("frame %d step = %v, want %v", i, d, DTYears)
		}
	}

	wantStatus := func(i int) model.Status {
		if i >= 101 && i <= 300 {
			return model.StatusBurial
		}
		return model.StatusExposure
	}
	for i, f := range frames {
		if f.Status != wantStatus(i) {
			t.Fatalf("frame %d status = %s, want %s", i, f.Status, wantStatus(i))
		}
	}
}

func TestGenerateFreezesReferenceAtFirstBurialStep(t *testing.T) {
	frames := Generate(model.Settings{ExposureMyr: 0.5, BurialMyr: 1.0, ReExposureMyr: 0.5}).Frames()

	for i := 0; i <= 100; i++ {
		if frames[i].RBase26_10 != nil || frames[i].RBase36_10 != nil {
			t.Fatalf("frame %d has reference ratios before burial", i)
		}
	}

	onset := frames[101]
	if !onset.BurialStarted() {
		t.Fatalf("first burial frame lacks reference ratios: %+v", onset)
	}
	if *onset.RBase26_10 != onset.R26_10 || *onset.RBase36_10 != onset.R36_10 {
		t.Fatalf("reference ratios %v/%v, want the onset ratios %v/%v",
			*onset.RBase26_10, *onset.RBase36_10, onset.R26_10, onset.R36_10)
	}

	for i := 102; i < len(frames); i++ {
		f := frames[i]
		if !f.BurialStarted() || *f.RBase26_10 != *onset.RBase26_10 || *f.RBase36_10 != *onset.RBase36_10 {
			t.Fatalf("frame %d reference drifted: %v/%v", i, f.RBase26_10, f.RBase36_10)
		}
	}
}

func TestScenarioFramesAreCopies(t *testing.T) {
	sc := Generate(DefaultSettings)
	frames := sc.Frames()
	*frames[200].RBase26_10 = -1
	frames[200].R26_10 = -1

	f, _ := sc.Frame(200)
	if *f.RBase26_10 == -1 || f.R26_10 == -1 {
		t.Fatalf("mutating a returned frame leaked into the scenario")
	}
	if *frames[201].RBase26_10 == -1 {
		t.Fatalf("frames share reference storage")
	}
}

func TestGenerateDegenerateScenario(t *testing.T) {
	sc := Generate(model.Settings{})
	if sc.Len() < 2 {
		t.Fatalf("Len() = %d, want >= 2", sc.Len())
	}
	a, _ := sc.Frame(0)
	b, _ := sc.Frame(1)
	if b.TCumulative != a.TCumulative+DTYears {
		t.Fatalf("pad frame time = %v, want %v", b.TCumulative, a.TCumulative+DTYears)
	}
	if a.State != b.State || b.Status != model.StatusExposure {
		t.Fatalf("pad frame = %+v, want copy of %+v", b, a)
	}
}

func TestGenerateClampsAndRounds(t *testing.T) {
	cases := []struct {
		name     string
		settings model.Settings
		want     int
	}{
		{"negative durations clamp to zero", model.Settings{ExposureMyr: -1, BurialMyr: -2, ReExposureMyr: -3}, 2},
		{"tiny phase takes one step", model.Settings{BurialMyr: 0.0001}, 2},
		{"burial only", model.Settings{BurialMyr: 0.1}, 21},
		{"rounds down to nearest step", model.Settings{ExposureMyr: 0.0124}, 3},
		{"rounds up to nearest step", model.Settings{ExposureMyr: 0.0126}, 4},
		{"non-finite treated as zero", model.Settings{ExposureMyr: math.NaN(), BurialMyr: math.Inf(1), ReExposureMyr: 0.01}, 3},
		{"oversized burial capped", model.Settings{BurialMyr: 1e12}, 20001},
		{"int overflow range capped", model.Settings{BurialMyr: 1e20}, 20001},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Generate(tc.settings).Len(); got != tc.want {
				t.Fatalf("Len() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestStepCountCapped(t *testing.T) {
	maxSteps := int(MaxDurationMyr * 1e6 / DTYears)
	for _, years := range []float64{MaxDurationMyr * 1e6, 1e18, 1e30, math.MaxFloat64} {
		if got := StepCount(years); got != maxSteps {
			t.Fatalf("StepCount(%g) = %d, want %d", years, got, maxSteps)
		}
	}
}

func TestGenerateBurialOnlySetsReferenceOnFirstStep(t *testing.T) {
	sc := Generate(model.Settings{BurialMyr: 0.0001})
	f, _ := sc.Frame(1)
	if f.Status != model.StatusBurial || !f.BurialStarted() {
		t.Fatalf("frame 1 = %+v, want burial with reference ratios", f)
	}
}

func TestInitialStateIsBaselineExposure(t *testing.T) {
	st := InitialState()
	want := StepExposure(0, P10, Lambda10, BaselineExposureMyr*1e6)
	if !scalar.EqualWithinRel(st.N10, want, 1e-9) {
		t.Fatalf("InitialState().N10 = %v, want %v", st.N10, want)
	}
	if st.N10 <= 0 || st.N26 <= 0 || st.N36 <= 0 {
		t.Fatalf("InitialState() = %+v, want positive inventories", st)
	}
}

func TestScenarioIDDeterministic(t *testing.T) {
	a := Generate(DefaultSettings)
	b := Generate(DefaultSettings)
	c := Generate(model.Settings{ExposureMyr: 0.5, BurialMyr: 1.0, ReExposureMyr: 0.6})
	if a.ID() == "" || a.ID() != b.ID() {
		t.Fatalf("IDs %q and %q, want equal and non-empty", a.ID(), b.ID())
	}
	if a.ID() == c.ID() {
		t.Fatalf("distinct settings share ID %q", a.ID())
	}
}

func TestRatiosNeverExceedProductionRatios(t *testing.T) {
	const slack = 1e-12
	prop := func(e, b, r uint16) bool {
		s := model.Settings{
			ExposureMyr:   float64(e%300) / 100,
			BurialMyr:     float64(b%300) / 100,
			ReExposureMyr: float64(r%300) / 100,
		}
		for _, f := range Generate(s).Frames() {
			if f.R26_10 > ProductionRatio26_10+slack || f.R36_10 > ProductionRatio36_10+slack {
				t.Logf("settings %+v: frame at %v has ratios %v / %v", s, f.TCumulative, f.R26_10, f.R36_10)
				return false
			}
			if f.State.N10 < 0 || f.State.N26 < 0 || f.State.N36 < 0 {
				return false
			}
		}
		return true
	}
	cfg := &quick.Config{MaxCount: 50, Rand: rand.New(rand.NewSource(7))}
	if err := quick.Check(prop, cfg); err != nil {
		t.Fatal(err)
	}
}
