package api

import (
	"encoding/json"
	"fmt"
	"strconv"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/burial-clock/core"
	"github.com/signalsfoundry/burial-clock/internal/export"
	"github.com/signalsfoundry/burial-clock/model"
)

// Request and response field names shared by gRPC and HTTP.
const (
	fieldExposure    = "exposure_myr"
	fieldBurial      = "burial_myr"
	fieldReExposure  = "re_exposure_myr"
	fieldSummaryOnly = "summary_only"
	fieldIndex       = "index"
)

// ScenarioResponse is the payload returned for scenario lookups.
type ScenarioResponse struct {
	Settings model.Settings       `json:"settings"`
	Summary  core.ScenarioSummary `json:"summary"`
	Scenario *export.Document     `json:"scenario,omitempty"`
	Rejected []string             `json:"rejected,omitempty"`
}

// FrameResponse is the payload returned for a single frame.
type FrameResponse struct {
	ScenarioID string        `json:"scenario_id"`
	Index      int           `json:"index"`
	Frame      export.Record `json:"frame"`
}

func newScenarioResponse(sc *model.Scenario, summaryOnly bool) ScenarioResponse {
	resp := ScenarioResponse{
		Settings: sc.Settings(),
		Summary:  core.Summarize(sc),
	}
	if !summaryOnly {
		doc := export.NewDocument(sc)
		resp.Scenario = &doc
	}
	return resp
}

// candidateFromStruct reads settings fields from a request. Numbers and
// strings are accepted; anything else is passed through as an invalid value.
func candidateFromStruct(st *structpb.Struct) (core.SettingsCandidate, map[string]bool) {
	present := make(map[string]bool)
	get := func(key string) string {
		v, ok := st.GetFields()[key]
		if !ok {
			return ""
		}
		present[key] = true
		return valueString(v)
	}
	return core.SettingsCandidate{
		ExposureMyr:   get(fieldExposure),
		BurialMyr:     get(fieldBurial),
		ReExposureMyr: get(fieldReExposure),
	}, present
}

func valueString(v *structpb.Value) string {
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'g', -1, 64)
	case *structpb.Value_StringValue:
		return k.StringValue
	default:
		return "invalid"
	}
}

// settingsForGenerate fills missing fields from the defaults and rejects
// fields that were supplied but are not valid durations.
func settingsForGenerate(st *structpb.Struct) (model.Settings, error) {
	candidate, present := candidateFromStruct(st)
	for _, field := range core.RejectedFields(candidate) {
		if present[field] {
			return model.Settings{}, fmt.Errorf("%w: %s must be a finite number >= 0", ErrInvalidArgument, field)
		}
	}
	return core.ApplySettings(core.DefaultSettings, candidate), nil
}

func boolField(st *structpb.Struct, key string) bool {
	return st.GetFields()[key].GetBoolValue()
}

func indexField(st *structpb.Struct) (int, error) {
	v, ok := st.GetFields()[fieldIndex]
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidArgument, fieldIndex)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != float64(int(n.NumberValue)) {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidArgument, fieldIndex)
	}
	return int(n.NumberValue), nil
}

// toStruct converts a JSON-tagged value into a protobuf Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("convert response: %w", err)
	}
	return out, nil
}

// FromStruct decodes a Struct produced by the service into out.
func FromStruct(st *structpb.Struct, out any) error {
	b, err := protojson.Marshal(st)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
