package core

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/signalsfoundry/burial-clock/model"
)

// scenarioNamespace seeds deterministic scenario IDs so identical settings
// always map to the same identifier.
var scenarioNamespace = uuid.MustParse("9b3c1f0e-5d8a-4e2b-a6f1-2c7d3e4b5a60")

// ScenarioBuilder sequences the exposure → burial → re-exposure phases and
// records a frame after every step.
type ScenarioBuilder struct {
	stepper     Stepper
	initial     model.NuclideState
	initialTime float64
}

// NewScenarioBuilder returns a builder using the fixed step size and the
// baseline-exposure initial condition.
func NewScenarioBuilder() *ScenarioBuilder {
	stepper := NewStepper(DTYears)
	return &ScenarioBuilder{
		stepper:     stepper,
		initial:     baselineState(stepper, BaselineExposureMyr),
		initialTime: InitialTimeYears,
	}
}

var defaultBuilder = NewScenarioBuilder()

// Generate builds the scenario for s with the default builder.
func Generate(s model.Settings) *model.Scenario {
	return defaultBuilder.Generate(s)
}

// InitialState is the nuclide state of the first frame: the inventory reached
// after BaselineExposureMyr of continuous exposure from zero.
func InitialState() model.NuclideState {
	return defaultBuilder.initial
}

func baselineState(stepper Stepper, baselineMyr float64) model.NuclideState {
	var st model.NuclideState
	steps := int(math.Round(baselineMyr * yearsPerMyr / stepper.DT()))
	for i := 0; i < steps; i++ {
		st = stepper.Exposure(st)
	}
	return st
}

// Phases converts settings into the fixed three-phase sequence with
// durations in years. Negative and non-finite inputs become zero.
func Phases(s model.Settings) []model.Phase {
	s = Sanitize(s)
	return []model.Phase{
		{Status: model.StatusExposure, DurationYears: s.ExposureMyr * yearsPerMyr, Exposed: true},
		{Status: model.StatusBurial, DurationYears: s.BurialMyr * yearsPerMyr, Exposed: false},
		{Status: model.StatusExposure, DurationYears: s.ReExposureMyr * yearsPerMyr, Exposed: true},
	}
}

// StepCount returns the number of steps a phase of the given length spans.
// Any positive duration takes at least one step.
func StepCount(durationYears float64) int {
	if !(durationYears > 0) || math.IsInf(durationYears, 0) {
		return 0
	}
	durationYears = math.Min(durationYears, MaxDurationMyr*yearsPerMyr)
	n := int(math.Round(durationYears / DTYears))
	if n < 1 {
		n = 1
	}
	return n
}

// ScenarioID derives the deterministic identifier for s.
func ScenarioID(s model.Settings) string {
	s = Sanitize(s)
	key := fmt.Sprintf("%g/%g/%g", s.ExposureMyr, s.BurialMyr, s.ReExposureMyr)
	return uuid.NewSHA1(scenarioNamespace, []byte(key)).String()
}

// Generate runs the scenario for s. The result always has at least two frames.
func (b *ScenarioBuilder) Generate(s model.Settings) *model.Scenario {
	s = Sanitize(s)
	phases := Phases(s)

	total := 1
	for _, ph := range phases {
		total += StepCount(ph.DurationYears)
	}
	if total < 2 {
		total = 2
	}
	frames := make([]model.Frame, 0, total)

	st := b.initial
	t := b.initialTime
	frames = append(frames, newFrame(t, model.StatusExposure, st, nil, nil))

	var base26, base36 *float64
	for _, ph := range phases {
		steps := StepCount(ph.DurationYears)
		for i := 0; i < steps; i++ {
			st = b.stepper.Step(st, ph.Exposed)
			t += b.stepper.DT()

			f := newFrame(t, ph.Status, st, base26, base36)
			if ph.Status == model.StatusBurial && base26 == nil {
				r26, r36 := f.R26_10, f.R36_10
				base26, base36 = &r26, &r36
				f.RBase26_10, f.RBase36_10 = clonePtr(base26), clonePtr(base36)
			}
			frames = append(frames, f)
		}
	}

	if len(frames) < 2 {
		pad := frames[0]
		pad.TCumulative += b.stepper.DT()
		frames = append(frames, pad)
	}

	return model.NewScenario(ScenarioID(s), s, frames)
}

func newFrame(t float64, status model.Status, st model.NuclideState, base26, base36 *float64) model.Frame {
	return model.Frame{
		TCumulative: t,
		Status:      status,
		State:       st,
		R26_10:      SafeRatio(st.N26, st.N10),
		R36_10:      SafeRatio(st.N36, st.N10),
		RBase26_10:  clonePtr(base26),
		RBase36_10:  clonePtr(base36),
	}
}

// clonePtr keeps frames from sharing reference storage so no caller can
// rewrite the frozen ratio of other frames.
func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
