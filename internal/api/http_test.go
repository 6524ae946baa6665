package api

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/signalsfoundry/burial-clock/core"
	"github.com/signalsfoundry/burial-clock/internal/export"
	"github.com/signalsfoundry/burial-clock/internal/logging"
	"github.com/signalsfoundry/burial-clock/internal/observability"
	"github.com/signalsfoundry/burial-clock/internal/sim/state"
	"github.com/signalsfoundry/burial-clock/model"
)

type httpEnv struct {
	state     *state.ScenarioState
	collector *observability.SimCollector
	handler   http.Handler
}

func newHTTPEnv(t *testing.T) *httpEnv {
	t.Helper()
	collector, err := observability.NewSimCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}
	st := state.NewScenarioState(logging.Noop(), state.WithMetricsRecorder(collector))
	return &httpEnv{
		state:     st,
		collector: collector,
		handler:   NewRouter(st, collector, logging.Noop()),
	}
}

func (e *httpEnv) do(t *testing.T, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func TestHTTPGetCurrentScenario(t *testing.T) {
	env := newHTTPEnv(t)
	rr := env.do(t, http.MethodGet, "/api/v1/scenario", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp ScenarioResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Scenario == nil || len(resp.Scenario.Records) != 401 {
		t.Fatalf("unexpected scenario payload")
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatalf("response missing X-Request-Id")
	}
	if got := testutil.ToFloat64(env.collector.RPCRequests.WithLabelValues("http", "scenario", "200")); got != 1 {
		t.Fatalf("http request counter = %v, want 1", got)
	}
}

func TestHTTPGenerateFromQuery(t *testing.T) {
	env := newHTTPEnv(t)
	rr := env.do(t, http.MethodGet, "/api/v1/scenario?burial_myr=0.2&summary_only=true", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp ScenarioResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := model.Settings{ExposureMyr: 0.5, BurialMyr: 0.2, ReExposureMyr: 0.5}
	if resp.Settings != want || resp.Scenario != nil {
		t.Fatalf("resp = %+v", resp)
	}
	if env.state.Settings() != core.DefaultSettings {
		t.Fatalf("query generation changed current settings")
	}

	for _, q := range []string{"burial_myr=soon", "burial_myr=1e12", "exposure_myr=1e20"} {
		rr = env.do(t, http.MethodGet, "/api/v1/scenario?"+q, "")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("GET ?%s status = %d, want 400", q, rr.Code)
		}
	}
}

func TestHTTPExportCSV(t *testing.T) {
	env := newHTTPEnv(t)
	rr := env.do(t, http.MethodGet, "/api/v1/scenario/export.csv", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("Content-Type = %q", ct)
	}
	rows, err := csv.NewReader(rr.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 402 || strings.Join(rows[0], ",") != strings.Join(export.CSVHeader, ",") {
		t.Fatalf("rows = %d, header = %v", len(rows), rows[0])
	}
}

func TestHTTPExportMsgpack(t *testing.T) {
	env := newHTTPEnv(t)
	rr := env.do(t, http.MethodGet, "/api/v1/scenario/export.msgpack?exposure_myr=0.05&burial_myr=0.05&re_exposure_myr=0", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	doc, err := export.ReadMsgpack(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("ReadMsgpack: %v", err)
	}
	if len(doc.Records) != 21 {
		t.Fatalf("records = %d, want 21", len(doc.Records))
	}

	if rr := env.do(t, http.MethodGet, "/api/v1/scenario/export.xml", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("export.xml status = %d, want 400", rr.Code)
	}
}

func TestHTTPFrame(t *testing.T) {
	env := newHTTPEnv(t)
	rr := env.do(t, http.MethodGet, "/api/v1/scenario/frames/101", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp FrameResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Frame.Status != model.StatusBurial || resp.Frame.RBase26_10 == nil {
		t.Fatalf("frame 101 = %+v, want burial onset with reference", resp.Frame)
	}

	if rr := env.do(t, http.MethodGet, "/api/v1/scenario/frames/5000", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("out-of-range frame status = %d, want 404", rr.Code)
	}
}

func TestHTTPApplySettings(t *testing.T) {
	env := newHTTPEnv(t)
	rr := env.do(t, http.MethodPut, "/api/v1/settings", `{"exposure_myr": 0.25, "burial_myr": "x", "re_exposure_myr": "0"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	want := model.Settings{ExposureMyr: 0.25, BurialMyr: 1.0, ReExposureMyr: 0}
	if got := env.state.Settings(); got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
	var resp ScenarioResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Rejected) != 1 || resp.Rejected[0] != fieldBurial {
		t.Fatalf("rejected = %v", resp.Rejected)
	}

	rr = env.do(t, http.MethodGet, "/api/v1/settings", "")
	if !strings.Contains(rr.Body.String(), "E 0.25 Ma · B 1.00 Ma · E 0.00 Ma") {
		t.Fatalf("settings label missing: %s", rr.Body.String())
	}

	if rr := env.do(t, http.MethodPost, "/api/v1/settings", "{not json"); rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status = %d, want 400", rr.Code)
	}
}

func TestHTTPHealthAndMetrics(t *testing.T) {
	env := newHTTPEnv(t)
	if rr := env.do(t, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK || rr.Body.String() != "ok\n" {
		t.Fatalf("/healthz = %d %q", rr.Code, rr.Body.String())
	}
	rr := env.do(t, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "scenario_frames 401") {
		t.Fatalf("/metrics missing scenario gauge:\n%s", rr.Body.String())
	}
}
