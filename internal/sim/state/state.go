// Package state owns the scenario currently shown to consumers and a memo
// cache of previously generated scenarios.
package state

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/signalsfoundry/burial-clock/core"
	"github.com/signalsfoundry/burial-clock/internal/logging"
	"github.com/signalsfoundry/burial-clock/model"
)

// Generator produces a scenario from validated settings.
type Generator interface {
	Generate(s model.Settings) *model.Scenario
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(model.Settings) *model.Scenario

func (f GeneratorFunc) Generate(s model.Settings) *model.Scenario { return f(s) }

// MetricsRecorder receives generation, cache and settings events.
type MetricsRecorder interface {
	ObserveGeneration(d time.Duration)
	SetCurrentScenario(frames int, endYears float64)
	RecordCache(hit bool)
	RecordSettingsFallback(field string)
}

// ScenarioState holds the last-known-good settings and the scenario built
// from them. The current scenario is replaced wholesale, never mutated, so
// readers always observe a complete scenario.
type ScenarioState struct {
	mu sync.RWMutex
	// applyMu orders Apply and Reset from reading the previous settings
	// through notifying listeners.
	applyMu sync.Mutex

	settings model.Settings
	current  *model.Scenario

	generator Generator
	cache     *ScenarioCache
	initial   model.Settings

	listeners []func(*model.Scenario)

	log     logging.Logger
	metrics MetricsRecorder
}

// ScenarioStateOption customises ScenarioState construction.
type ScenarioStateOption func(*ScenarioState)

// WithMetricsRecorder attaches an optional metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) ScenarioStateOption {
	return func(s *ScenarioState) {
		s.metrics = m
	}
}

// WithCacheSize bounds the memo cache; zero disables it.
func WithCacheSize(n int) ScenarioStateOption {
	return func(s *ScenarioState) {
		s.cache = NewScenarioCache(n)
	}
}

// WithGenerator replaces the default scenario builder.
func WithGenerator(g Generator) ScenarioStateOption {
	return func(s *ScenarioState) {
		if g != nil {
			s.generator = g
		}
	}
}

// WithInitialSettings sets the settings used at construction and by Reset.
func WithInitialSettings(settings model.Settings) ScenarioStateOption {
	return func(s *ScenarioState) {
		s.initial = core.Sanitize(settings)
	}
}

// NewScenarioState builds the initial scenario eagerly so Current never
// returns nil.
func NewScenarioState(log logging.Logger, opts ...ScenarioStateOption) *ScenarioState {
	if log == nil {
		log = logging.Noop()
	}
	s := &ScenarioState{
		generator: GeneratorFunc(core.Generate),
		cache:     NewScenarioCache(defaultScenarioCacheSize),
		initial:   core.DefaultSettings,
		log:       log,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	sc := s.scenarioFor(context.Background(), s.initial)
	s.settings = s.initial
	s.current = sc
	s.recordCurrent(sc)
	return s
}

// Current returns the scenario built from the current settings.
func (s *ScenarioState) Current() *model.Scenario {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Settings returns the last accepted settings.
func (s *ScenarioState) Settings() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Cache exposes the memo cache, mainly for stats.
func (s *ScenarioState) Cache() *ScenarioCache {
	return s.cache
}

// Subscribe registers fn to be called with each newly applied scenario.
// Listeners run synchronously in apply order, after the read lock is
// released; they must not call Apply or Reset.
func (s *ScenarioState) Subscribe(fn func(*model.Scenario)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Apply validates candidate against the current settings, makes the result
// current and returns it. Rejected fields keep their previous values.
func (s *ScenarioState) Apply(ctx context.Context, candidate core.SettingsCandidate) *model.Scenario {
	log := logging.FromContext(ctx, s.log)
	for _, field := range core.RejectedFields(candidate) {
		if s.metrics != nil {
			s.metrics.RecordSettingsFallback(field)
		}
		log.Warn(ctx, "settings field rejected; keeping previous value", logging.String("field", field))
	}

	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.RLock()
	prev, current := s.settings, s.current
	s.mu.RUnlock()

	next := core.ApplySettings(prev, candidate)
	if next == prev && current != nil {
		log.Debug(ctx, "settings unchanged", logging.String("settings", core.Summary(next)))
		return current
	}
	return s.swap(ctx, next)
}

// ApplyValues is Apply for callers already holding numbers.
func (s *ScenarioState) ApplyValues(ctx context.Context, settings model.Settings) *model.Scenario {
	return s.Apply(ctx, core.CandidateFrom(settings))
}

// Generate returns the scenario for settings without changing the current
// one. Invalid settings are clamped to zero.
func (s *ScenarioState) Generate(ctx context.Context, settings model.Settings) *model.Scenario {
	return s.scenarioFor(ctx, core.Sanitize(settings))
}

// Invalidate drops every memoised scenario.
func (s *ScenarioState) Invalidate() {
	s.cache.InvalidateAll()
}

// Reset clears the cache and restores the initial settings.
func (s *ScenarioState) Reset(ctx context.Context) *model.Scenario {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.Invalidate()
	return s.swap(ctx, s.initial)
}

// swap requires applyMu.
func (s *ScenarioState) swap(ctx context.Context, next model.Settings) *model.Scenario {
	sc := s.scenarioFor(ctx, next)

	s.mu.Lock()
	s.settings = next
	s.current = sc
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	s.recordCurrent(sc)
	logging.FromContext(ctx, s.log).Info(ctx, "scenario applied",
		logging.String("scenario_id", sc.ID()),
		logging.String("settings", core.Summary(next)),
		logging.Int("frames", sc.Len()),
	)
	for _, fn := range listeners {
		fn(sc)
	}
	return sc
}

func (s *ScenarioState) scenarioFor(ctx context.Context, settings model.Settings) *model.Scenario {
	if sc, ok := s.cache.Get(settings); ok {
		s.recordCache(true)
		return sc
	}
	s.recordCache(false)

	start := time.Now()
	sc := s.generator.Generate(settings)
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveGeneration(elapsed)
	}
	logging.FromContext(ctx, s.log).Debug(ctx, "scenario generated",
		logging.String("settings", core.Summary(settings)),
		logging.Int("frames", sc.Len()),
		logging.Duration("elapsed", elapsed),
	)
	s.cache.Put(settings, sc)
	return sc
}

func (s *ScenarioState) recordCache(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCache(hit)
	}
}

func (s *ScenarioState) recordCurrent(sc *model.Scenario) {
	if s.metrics == nil || sc == nil {
		return
	}
	end := 0.0
	if last, ok := sc.Last(); ok {
		end = last.TCumulative
	}
	s.metrics.SetCurrentScenario(sc.Len(), end)
}
