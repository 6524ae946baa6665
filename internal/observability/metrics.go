package observability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// SimCollector bundles Prometheus metrics for scenario generation and the
// API surface, and provides helpers to wire them into gRPC servers and HTTP
// handlers.
type SimCollector struct {
	gatherer prometheus.Gatherer

	RPCRequests  *prometheus.CounterVec
	RPCDurations *prometheus.HistogramVec

	Generations       prometheus.Counter
	GenerateDurations prometheus.Histogram
	ScenarioFrames    prometheus.Gauge
	ScenarioEndYears  prometheus.Gauge
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	SettingsFallbacks *prometheus.CounterVec
}

// NewSimCollector registers simulator metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "api_requests_total",
		Help: "Total number of handled API requests, labeled by service, method, and status code.",
	}, []string{"service", "method", "code"}), "api_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "api_request_duration_seconds",
		Help:    "API request latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"service", "method"}), "api_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	generations, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scenario_generations_total",
		Help: "Number of scenarios computed from scratch.",
	}), "scenario_generations_total")
	if err != nil {
		return nil, err
	}

	genDurations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scenario_generate_duration_seconds",
		Help:    "Time spent stepping a scenario through all of its phases.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}), "scenario_generate_duration_seconds")
	if err != nil {
		return nil, err
	}

	frames, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scenario_frames",
		Help: "Number of frames in the current scenario.",
	}), "scenario_frames")
	if err != nil {
		return nil, err
	}

	endYears, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scenario_end_years",
		Help: "Cumulative time of the final frame in the current scenario.",
	}), "scenario_end_years")
	if err != nil {
		return nil, err
	}

	hits, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scenario_cache_hits_total",
		Help: "Scenario requests served from the memo cache.",
	}), "scenario_cache_hits_total")
	if err != nil {
		return nil, err
	}

	misses, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scenario_cache_misses_total",
		Help: "Scenario requests that required a fresh generation.",
	}), "scenario_cache_misses_total")
	if err != nil {
		return nil, err
	}

	fallbacks, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settings_fallbacks_total",
		Help: "Settings fields rejected and replaced by their previous value, labeled by field.",
	}, []string{"field"}), "settings_fallbacks_total")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:          gatherer,
		RPCRequests:       requests,
		RPCDurations:      durations,
		Generations:       generations,
		GenerateDurations: genDurations,
		ScenarioFrames:    frames,
		ScenarioEndYears:  endYears,
		CacheHits:         hits,
		CacheMisses:       misses,
		SettingsFallbacks: fallbacks,
	}, nil
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *SimCollector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if c == nil {
			return resp, err
		}

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := SplitMethod(fullMethod)
		c.ObserveRequest(service, method, status.Code(err).String(), time.Since(start))
		return resp, err
	}
}

// ObserveRequest records one handled request. The HTTP layer uses it directly
// with the route name as method and the HTTP status text as code.
func (c *SimCollector) ObserveRequest(service, method, code string, d time.Duration) {
	if c == nil {
		return
	}
	if c.RPCRequests != nil {
		c.RPCRequests.WithLabelValues(service, method, code).Inc()
	}
	if c.RPCDurations != nil {
		c.RPCDurations.WithLabelValues(service, method).Observe(d.Seconds())
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SimCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveGeneration satisfies the state.MetricsRecorder interface.
func (c *SimCollector) ObserveGeneration(d time.Duration) {
	if c == nil {
		return
	}
	if c.Generations != nil {
		c.Generations.Inc()
	}
	if c.GenerateDurations != nil {
		c.GenerateDurations.Observe(d.Seconds())
	}
}

// SetCurrentScenario satisfies the state.MetricsRecorder interface.
func (c *SimCollector) SetCurrentScenario(frames int, endYears float64) {
	if c == nil {
		return
	}
	if c.ScenarioFrames != nil {
		c.ScenarioFrames.Set(float64(frames))
	}
	if c.ScenarioEndYears != nil {
		c.ScenarioEndYears.Set(endYears)
	}
}

// RecordCache satisfies the state.MetricsRecorder interface.
func (c *SimCollector) RecordCache(hit bool) {
	if c == nil {
		return
	}
	if hit {
		if c.CacheHits != nil {
			c.CacheHits.Inc()
		}
		return
	}
	if c.CacheMisses != nil {
		c.CacheMisses.Inc()
	}
}

// RecordSettingsFallback satisfies the state.MetricsRecorder interface.
func (c *SimCollector) RecordSettingsFallback(field string) {
	if c == nil || c.SettingsFallbacks == nil {
		return
	}
	c.SettingsFallbacks.WithLabelValues(field).Inc()
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
