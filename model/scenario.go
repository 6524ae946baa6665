package model

// Status marks whether the sample was at the surface or shielded during a step.
type Status string

const (
	StatusExposure Status = "EXPOSURE"
	StatusBurial   Status = "BURIAL"
)

// Phase is one segment of a scenario.
type Phase struct {
	Status        Status
	DurationYears float64
	Exposed       bool
}

// Settings are the user-chosen phase durations in million years.
type Settings struct {
	ExposureMyr   float64 `json:"exposure_myr" yaml:"exposure_myr"`
	BurialMyr     float64 `json:"burial_myr" yaml:"burial_myr"`
	ReExposureMyr float64 `json:"re_exposure_myr" yaml:"re_exposure_myr"`
}

// Frame is the sample state after a step of the scenario.
//
// RBase26_10 and RBase36_10 stay nil until the first burial step and are
// frozen from then on.
type Frame struct {
	TCumulative float64      `json:"t_cumulative"`
	Status      Status       `json:"status"`
	State       NuclideState `json:"state"`
	R26_10      float64      `json:"r_26_10"`
	R36_10      float64      `json:"r_36_10"`
	RBase26_10  *float64     `json:"rbase_26_10"`
	RBase36_10  *float64     `json:"rbase_36_10"`
}

// Clone returns a copy that shares no storage with f.
func (f Frame) Clone() Frame {
	if f.RBase26_10 != nil {
		v := *f.RBase26_10
		f.RBase26_10 = &v
	}
	if f.RBase36_10 != nil {
		v := *f.RBase36_10
		f.RBase36_10 = &v
	}
	return f
}

// Ratio returns the measured ratio for the pair.
func (f Frame) Ratio(p Pair) float64 {
	if p == Pair36_10 {
		return f.R36_10
	}
	return f.R26_10
}

// ReferenceRatio returns the frozen first-burial ratio for the pair and
// whether burial has happened yet.
func (f Frame) ReferenceRatio(p Pair) (float64, bool) {
	ref := f.RBase26_10
	if p == Pair36_10 {
		ref = f.RBase36_10
	}
	if ref == nil {
		return 0, false
	}
	return *ref, true
}

// BurialStarted reports whether the scenario has entered burial by this frame.
func (f Frame) BurialStarted() bool {
	return f.RBase26_10 != nil && f.RBase36_10 != nil
}

// Scenario is the immutable trajectory produced for one set of settings.
// Callers receive deep copies of frames; the backing slice is never mutated
// after construction.
type Scenario struct {
	id       string
	settings Settings
	frames   []Frame
}

// NewScenario takes ownership of frames.
func NewScenario(id string, settings Settings, frames []Frame) *Scenario {
	return &Scenario{id: id, settings: settings, frames: frames}
}

// ID returns the identifier assigned when the scenario was built.
func (s *Scenario) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Settings returns the durations the scenario was generated from.
func (s *Scenario) Settings() Settings {
	if s == nil {
		return Settings{}
	}
	return s.settings
}

// Len returns the number of frames.
func (s *Scenario) Len() int {
	if s == nil {
		return 0
	}
	return len(s.frames)
}

// Frame returns frame i and false when i is out of range.
func (s *Scenario) Frame(i int) (Frame, bool) {
	if s == nil || i < 0 || i >= len(s.frames) {
		return Frame{}, false
	}
	return s.frames[i].Clone(), true
}

// Last returns the final frame.
func (s *Scenario) Last() (Frame, bool) {
	return s.Frame(s.Len() - 1)
}

// Frames returns a copy of the frame sequence.
func (s *Scenario) Frames() []Frame {
	if s == nil {
		return nil
	}
	out := make([]Frame, len(s.frames))
	for i, f := range s.frames {
		out[i] = f.Clone()
	}
	return out
}

// WithID returns a shallow copy of s carrying a different identifier. The
// frame slice is shared, which is safe because it is never written.
func (s *Scenario) WithID(id string) *Scenario {
	if s == nil {
		return nil
	}
	return &Scenario{id: id, settings: s.settings, frames: s.frames}
}
