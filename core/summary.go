package core

import (
	"gonum.org/v1/gonum/floats"

	"github.com/signalsfoundry/burial-clock/model"
)

// ScenarioSummary condenses a trajectory into the figures shown next to the
// playback controls.
type ScenarioSummary struct {
	ID              string  `json:"id"`
	Label           string  `json:"label"`
	Frames          int     `json:"frames"`
	StartYears      float64 `json:"start_years"`
	EndYears        float64 `json:"end_years"`
	BurialFrames    int     `json:"burial_frames"`
	MinR26_10       float64 `json:"min_r_26_10"`
	MaxR26_10       float64 `json:"max_r_26_10"`
	MinR36_10       float64 `json:"min_r_36_10"`
	MaxR36_10       float64 `json:"max_r_36_10"`
	MaxAge26Years   float64 `json:"max_age_26_years"`
	MaxAge36Years   float64 `json:"max_age_36_years"`
	FinalAge26Years float64 `json:"final_age_26_years"`
	FinalAge36Years float64 `json:"final_age_36_years"`
}

// Summarize computes ratio extremes and apparent ages over sc.
func Summarize(sc *model.Scenario) ScenarioSummary {
	n := sc.Len()
	out := ScenarioSummary{
		ID:     sc.ID(),
		Label:  Summary(sc.Settings()),
		Frames: n,
	}
	if n == 0 {
		return out
	}

	r26 := make([]float64, n)
	r36 := make([]float64, n)
	a26 := make([]float64, n)
	a36 := make([]float64, n)
	for i, f := range sc.Frames() {
		r26[i], r36[i] = f.R26_10, f.R36_10
		a26[i], a36[i] = ApparentAges(f)
		if f.Status == model.StatusBurial {
			out.BurialFrames++
		}
	}

	first, _ := sc.Frame(0)
	last, _ := sc.Last()
	out.StartYears = first.TCumulative
	out.EndYears = last.TCumulative
	out.MinR26_10, out.MaxR26_10 = floats.Min(r26), floats.Max(r26)
	out.MinR36_10, out.MaxR36_10 = floats.Min(r36), floats.Max(r36)
	out.MaxAge26Years, out.MaxAge36Years = floats.Max(a26), floats.Max(a36)
	out.FinalAge26Years, out.FinalAge36Years = a26[n-1], a36[n-1]
	return out
}
