// Package timectrl drives frame-by-frame playback of a generated scenario.
package timectrl

import (
	"context"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/signalsfoundry/burial-clock/model"
)

const (
	// DefaultTick matches a 60 Hz display refresh.
	DefaultTick = time.Second / 60

	DefaultSpeed = 1.0
	MinSpeed     = 0.1
	MaxSpeed     = 5.0
)

// PlaybackRecorder receives playback events, typically for metrics.
type PlaybackRecorder interface {
	FrameAdvanced(index int)
	Seeked(index int)
	SetPlaying(playing bool)
}

// Playback tracks the frame currently shown and advances it on a tick
// schedule scaled by the playback speed.
type Playback struct {
	mu sync.RWMutex

	// Tick is the base refresh interval used by Run.
	Tick time.Duration

	scenario *model.Scenario
	index    int
	playing  bool
	speed    float64

	// ticks counts refreshes since the last frame advance.
	ticks int

	listeners []func(index int, f model.Frame)
	recorder  PlaybackRecorder
}

// PlaybackOption customises Playback construction.
type PlaybackOption func(*Playback)

// WithRecorder attaches an optional event recorder.
func WithRecorder(r PlaybackRecorder) PlaybackOption {
	return func(p *Playback) {
		p.recorder = r
	}
}

// WithSpeed sets the initial speed multiplier.
func WithSpeed(speed float64) PlaybackOption {
	return func(p *Playback) {
		p.speed = clampSpeed(speed)
	}
}

// NewPlayback constructs a paused controller showing frame 0 of sc.
func NewPlayback(sc *model.Scenario, tick time.Duration, opts ...PlaybackOption) *Playback {
	if tick <= 0 {
		tick = DefaultTick
	}
	p := &Playback{
		Tick:     tick,
		scenario: sc,
		speed:    DefaultSpeed,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// FrameDelay is the number of ticks between frame advances at speed.
func FrameDelay(speed float64) int {
	if speed <= 0 || math.IsNaN(speed) {
		speed = MinSpeed
	}
	d := int(6 / speed)
	if d < 1 {
		d = 1
	}
	return d
}

// AddListener registers a callback invoked whenever the current frame changes.
func (p *Playback) AddListener(fn func(index int, f model.Frame)) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

// SetScenario replaces the scenario, rewinds to frame 0 and pauses.
func (p *Playback) SetScenario(sc *model.Scenario) {
	p.mu.Lock()
	p.scenario = sc
	p.index = 0
	p.ticks = 0
	p.playing = false
	p.mu.Unlock()

	p.recordPlaying(false)
	p.notify(0)
}

func (p *Playback) Scenario() *model.Scenario {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.scenario
}

func (p *Playback) Index() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.index
}

func (p *Playback) Playing() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.playing
}

func (p *Playback) Speed() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.speed
}

// SetSpeed clamps speed into [MinSpeed, MaxSpeed].
func (p *Playback) SetSpeed(speed float64) {
	p.mu.Lock()
	p.speed = clampSpeed(speed)
	p.mu.Unlock()
}

// Current returns the frame at the playback cursor.
func (p *Playback) Current() (model.Frame, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.scenario.Frame(p.index)
}

func (p *Playback) Play()  { p.setPlaying(true) }
func (p *Playback) Pause() { p.setPlaying(false) }

// Toggle flips between playing and paused and reports the new state.
func (p *Playback) Toggle() bool {
	p.mu.Lock()
	p.playing = !p.playing
	playing := p.playing
	p.mu.Unlock()

	p.recordPlaying(playing)
	return playing
}

// Restart rewinds to frame 0 and pauses.
func (p *Playback) Restart() {
	p.mu.Lock()
	p.index = 0
	p.ticks = 0
	p.playing = false
	p.mu.Unlock()

	p.recordPlaying(false)
	p.notify(0)
}

// Step advances one frame. At the last frame it stops playback instead and
// returns false.
func (p *Playback) Step() bool {
	p.mu.Lock()
	if p.index >= p.scenario.Len()-1 {
		wasPlaying := p.playing
		p.playing = false
		p.mu.Unlock()
		if wasPlaying {
			p.recordPlaying(false)
		}
		return false
	}
	p.index++
	idx := p.index
	p.mu.Unlock()

	if p.recorder != nil {
		p.recorder.FrameAdvanced(idx)
	}
	p.notify(idx)
	return true
}

// Seek scrubs to a fraction of the scenario: index = int(clamp(f,0,1)·(n−1)).
func (p *Playback) Seek(fraction float64) int {
	if math.IsNaN(fraction) {
		fraction = 0
	}
	fraction = math.Max(0, math.Min(1, fraction))

	p.mu.RLock()
	n := p.scenario.Len()
	p.mu.RUnlock()
	if n == 0 {
		return 0
	}
	return p.SeekIndex(int(fraction * float64(n-1)))
}

// SeekIndex moves the cursor to i, clamped into the scenario.
func (p *Playback) SeekIndex(i int) int {
	p.mu.Lock()
	last := p.scenario.Len() - 1
	if i > last {
		i = last
	}
	if i < 0 {
		i = 0
	}
	p.index = i
	p.ticks = 0
	p.mu.Unlock()

	if p.recorder != nil {
		p.recorder.Seeked(i)
	}
	p.notify(i)
	return i
}

// Advance processes one refresh tick. While playing it steps a frame once
// FrameDelay(speed) ticks have accumulated. It reports whether playback is
// still running.
func (p *Playback) Advance() bool {
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return false
	}
	p.ticks++
	due := p.ticks >= FrameDelay(p.speed)
	if due {
		p.ticks = 0
	}
	p.mu.Unlock()

	if due {
		p.Step()
	}
	return p.Playing()
}

// Run starts playback and advances it every Tick until it stops, either at
// the last frame or through Pause, or until ctx is cancelled.
func (p *Playback) Run(ctx context.Context) error {
	p.Play()

	ticker := time.NewTicker(p.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Pause()
			return ctx.Err()
		case <-ticker.C:
			if !p.Advance() {
				return nil
			}
		}
	}
}

// Drive calls Advance every Tick until ctx is cancelled. Unlike Run it keeps
// going while paused, so a long-lived server can resume playback at any time.
func (p *Playback) Drive(ctx context.Context) {
	ticker := time.NewTicker(p.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Advance()
		}
	}
}

func (p *Playback) setPlaying(playing bool) {
	p.mu.Lock()
	changed := p.playing != playing
	p.playing = playing
	p.mu.Unlock()

	if changed {
		p.recordPlaying(playing)
	}
}

func (p *Playback) recordPlaying(playing bool) {
	if p.recorder != nil {
		p.recorder.SetPlaying(playing)
	}
}

func (p *Playback) notify(index int) {
	p.mu.RLock()
	f, ok := p.scenario.Frame(index)
	listeners := slices.Clone(p.listeners)
	p.mu.RUnlock()
	if !ok {
		return
	}
	for _, fn := range listeners {
		fn(index, f)
	}
}

func clampSpeed(speed float64) float64 {
	if math.IsNaN(speed) {
		return MinSpeed
	}
	return math.Max(MinSpeed, math.Min(MaxSpeed, speed))
}
