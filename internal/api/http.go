package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/signalsfoundry/burial-clock/core"
	"github.com/signalsfoundry/burial-clock/internal/export"
	"github.com/signalsfoundry/burial-clock/internal/logging"
	"github.com/signalsfoundry/burial-clock/internal/observability"
	"github.com/signalsfoundry/burial-clock/internal/sim/state"
	"github.com/signalsfoundry/burial-clock/model"
)

const httpServiceLabel = "http"

// HTTPHandlers serves the JSON/CSV/MessagePack API over the scenario state.
type HTTPHandlers struct {
	state     *state.ScenarioState
	collector *observability.SimCollector
	log       logging.Logger
}

// NewRouter builds the HTTP API. collector may be nil, in which case
// /metrics is not mounted.
func NewRouter(st *state.ScenarioState, collector *observability.SimCollector, log logging.Logger) *mux.Router {
	if log == nil {
		log = logging.Noop()
	}
	h := &HTTPHandlers{state: st, collector: collector, log: log}

	router := mux.NewRouter()
	router.Use(h.requestMiddleware)

	router.HandleFunc("/healthz", h.healthz).Methods("GET").Name("healthz")
	if collector != nil {
		router.Handle("/metrics", collector.Handler()).Methods("GET").Name("metrics")
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/scenario", h.getScenario).Methods("GET").Name("scenario")
	api.HandleFunc("/scenario/export.{format}", h.exportScenario).Methods("GET").Name("export")
	api.HandleFunc("/scenario/frames/{index:[0-9]+}", h.getFrame).Methods("GET").Name("frame")
	api.HandleFunc("/settings", h.getSettings).Methods("GET").Name("settings")
	api.HandleFunc("/settings", h.applySettings).Methods("PUT", "POST").Name("apply_settings")

	return router
}

func (h *HTTPHandlers) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// getScenario returns the current scenario, or a generated one when any
// settings are passed as query parameters.
func (h *HTTPHandlers) getScenario(w http.ResponseWriter, r *http.Request) {
	sc, err := h.scenarioForQuery(r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	summaryOnly, _ := strconv.ParseBool(r.URL.Query().Get(fieldSummaryOnly))
	h.sendJSON(w, http.StatusOK, newScenarioResponse(sc, summaryOnly))
}

func (h *HTTPHandlers) exportScenario(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	sc, err := h.scenarioForQuery(r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename=\"burial-clock-"+sc.ID()+"."+string(format)+"\"")
	if err := export.Write(w, format, sc); err != nil {
		logging.FromContext(r.Context(), h.log).Warn(r.Context(), "export failed", logging.Err(err))
	}
}

func (h *HTTPHandlers) getFrame(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		h.sendError(w, r, ErrInvalidArgument)
		return
	}
	resp, err := frameResponse(h.state, idx)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandlers) getSettings(w http.ResponseWriter, r *http.Request) {
	s := h.state.Settings()
	h.sendJSON(w, http.StatusOK, map[string]any{
		"settings": s,
		"label":    core.Summary(s),
	})
}

// applySettings accepts a SettingsCandidate body. Values may be JSON strings
// or numbers.
func (h *HTTPHandlers) applySettings(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.sendError(w, r, ErrInvalidArgument)
		return
	}
	candidate := core.SettingsCandidate{
		ExposureMyr:   rawField(body, fieldExposure),
		BurialMyr:     rawField(body, fieldBurial),
		ReExposureMyr: rawField(body, fieldReExposure),
	}

	sc := h.state.Apply(r.Context(), candidate)
	resp := newScenarioResponse(sc, true)
	resp.Rejected = core.RejectedFields(candidate)
	h.sendJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandlers) scenarioForQuery(r *http.Request) (*model.Scenario, error) {
	q := r.URL.Query()
	if !q.Has(fieldExposure) && !q.Has(fieldBurial) && !q.Has(fieldReExposure) {
		return h.state.Current(), nil
	}
	candidate := core.SettingsCandidate{
		ExposureMyr:   q.Get(fieldExposure),
		BurialMyr:     q.Get(fieldBurial),
		ReExposureMyr: q.Get(fieldReExposure),
	}
	for _, field := range core.RejectedFields(candidate) {
		if q.Has(field) {
			return nil, &fieldError{field: field}
		}
	}
	settings := core.ApplySettings(core.DefaultSettings, candidate)
	ctx, span := startScenarioSpan(r.Context(), "http.scenario", settings)
	defer span.End()
	return h.state.Generate(ctx, settings), nil
}

type fieldError struct{ field string }

func (e *fieldError) Error() string {
	return e.field + " must be a finite number >= 0"
}

func (e *fieldError) Unwrap() error { return ErrInvalidArgument }

func rawField(body map[string]json.RawMessage, key string) string {
	raw, ok := body[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return string(raw)
}

func (h *HTTPHandlers) sendJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *HTTPHandlers) sendError(w http.ResponseWriter, r *http.Request, err error) {
	code := HTTPStatus(err)
	logging.FromContext(r.Context(), h.log).Warn(r.Context(), "request failed",
		logging.String("path", r.URL.Path),
		logging.Int("status", code),
		logging.Err(err),
	)
	h.sendJSON(w, code, map[string]any{
		"error":  err.Error(),
		"status": code,
	})
}

// requestMiddleware attaches a request-scoped logger and records request
// metrics under the matched route name.
func (h *HTTPHandlers) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		if id := r.Header.Get("X-Request-Id"); id != "" {
			ctx = logging.ContextWithRequestID(ctx, id)
		}
		ctx, reqLog := logging.WithRequestLogger(ctx, h.log.With(logging.String("path", r.URL.Path)))
		ctx = logging.ContextWithLogger(ctx, reqLog)
		w.Header().Set("X-Request-Id", logging.RequestIDFromContext(ctx))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		route := "unknown"
		if cur := mux.CurrentRoute(r); cur != nil && cur.GetName() != "" {
			route = cur.GetName()
		}
		h.collector.ObserveRequest(httpServiceLabel, route, strconv.Itoa(rec.status), time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
