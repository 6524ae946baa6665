package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/signalsfoundry/burial-clock/model"
)

// DefaultSettings is the scenario shown before any user input.
var DefaultSettings = model.Settings{
	ExposureMyr:   0.5,
	BurialMyr:     1.0,
	ReExposureMyr: 0.5,
}

// SettingsCandidate carries unvalidated durations, typically straight from
// editable fields or a preset file. Empty strings are treated as invalid.
type SettingsCandidate struct {
	ExposureMyr   string `json:"exposure_myr" yaml:"exposure_myr"`
	BurialMyr     string `json:"burial_myr" yaml:"burial_myr"`
	ReExposureMyr string `json:"re_exposure_myr" yaml:"re_exposure_myr"`
}

// CandidateFrom formats valid settings as a candidate, mostly for tests and
// callers that already hold numbers.
func CandidateFrom(s model.Settings) SettingsCandidate {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return SettingsCandidate{
		ExposureMyr:   f(s.ExposureMyr),
		BurialMyr:     f(s.BurialMyr),
		ReExposureMyr: f(s.ReExposureMyr),
	}
}

// ApplySettings validates each candidate field independently and keeps the
// corresponding value from prev whenever a field does not parse to a finite
// number in [0, MaxDurationMyr]. It never fails.
func ApplySettings(prev model.Settings, candidate SettingsCandidate) model.Settings {
	prev = Sanitize(prev)
	return model.Settings{
		ExposureMyr:   acceptDuration(candidate.ExposureMyr, prev.ExposureMyr),
		BurialMyr:     acceptDuration(candidate.BurialMyr, prev.BurialMyr),
		ReExposureMyr: acceptDuration(candidate.ReExposureMyr, prev.ReExposureMyr),
	}
}

// RejectedFields names the candidate fields ApplySettings would refuse, using
// the same yaml/json keys as SettingsCandidate.
func RejectedFields(candidate SettingsCandidate) []string {
	var rejected []string
	for _, f := range []struct{ name, raw string }{
		{"exposure_myr", candidate.ExposureMyr},
		{"burial_myr", candidate.BurialMyr},
		{"re_exposure_myr", candidate.ReExposureMyr},
	} {
		if _, ok := parseDuration(f.raw); !ok {
			rejected = append(rejected, f.name)
		}
	}
	return rejected
}

// Sanitize replaces negative or non-finite durations with zero and caps the
// rest at MaxDurationMyr.
func Sanitize(s model.Settings) model.Settings {
	return model.Settings{
		ExposureMyr:   clampDuration(s.ExposureMyr),
		BurialMyr:     clampDuration(s.BurialMyr),
		ReExposureMyr: clampDuration(s.ReExposureMyr),
	}
}

// Summary renders settings in the compact "E · B · E" form.
func Summary(s model.Settings) string {
	return fmt.Sprintf("E %.2f Ma · B %.2f Ma · E %.2f Ma", s.ExposureMyr, s.BurialMyr, s.ReExposureMyr)
}

func acceptDuration(raw string, prev float64) float64 {
	if v, ok := parseDuration(raw); ok {
		return v
	}
	return prev
}

func parseDuration(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !finite(v) || v < 0 || v > MaxDurationMyr {
		return 0, false
	}
	if v == 0 {
		// -0 would otherwise leak into IDs and summaries.
		return 0, true
	}
	return v, true
}

func clampDuration(v float64) float64 {
	if !finite(v) || v <= 0 {
		return 0
	}
	return math.Min(v, MaxDurationMyr)
}
