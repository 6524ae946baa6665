package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PlaybackCollector exposes playback-controller metrics.
type PlaybackCollector struct {
	gatherer prometheus.Gatherer

	FramesAdvanced prometheus.Counter
	CurrentIndex   prometheus.Gauge
	Playing        prometheus.Gauge
	Seeks          prometheus.Counter
}

// NewPlaybackCollector registers playback metrics against the provided registerer.
func NewPlaybackCollector(reg prometheus.Registerer) (*PlaybackCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	advanced, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playback_frames_advanced_total",
		Help: "Frames advanced by the playback loop or explicit steps.",
	}), "playback_frames_advanced_total")
	if err != nil {
		return nil, err
	}

	index, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "playback_current_index",
		Help: "Index of the frame currently shown.",
	}), "playback_current_index")
	if err != nil {
		return nil, err
	}

	playing, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "playback_playing",
		Help: "1 while playback is running, 0 otherwise.",
	}), "playback_playing")
	if err != nil {
		return nil, err
	}

	seeks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playback_seeks_total",
		Help: "Scrub operations that moved the current frame.",
	}), "playback_seeks_total")
	if err != nil {
		return nil, err
	}

	return &PlaybackCollector{
		gatherer:       gatherer,
		FramesAdvanced: advanced,
		CurrentIndex:   index,
		Playing:        playing,
		Seeks:          seeks,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *PlaybackCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// FrameAdvanced satisfies the timectrl.PlaybackRecorder interface.
func (c *PlaybackCollector) FrameAdvanced(index int) {
	if c == nil {
		return
	}
	if c.FramesAdvanced != nil {
		c.FramesAdvanced.Inc()
	}
	if c.CurrentIndex != nil {
		c.CurrentIndex.Set(float64(index))
	}
}

// Seeked satisfies the timectrl.PlaybackRecorder interface.
func (c *PlaybackCollector) Seeked(index int) {
	if c == nil {
		return
	}
	if c.Seeks != nil {
		c.Seeks.Inc()
	}
	if c.CurrentIndex != nil {
		c.CurrentIndex.Set(float64(index))
	}
}

// SetPlaying satisfies the timectrl.PlaybackRecorder interface.
func (c *PlaybackCollector) SetPlaying(playing bool) {
	if c == nil || c.Playing == nil {
		return
	}
	if playing {
		c.Playing.Set(1)
		return
	}
	c.Playing.Set(0)
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
