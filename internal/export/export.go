// Package export renders scenarios as CSV, JSON or MessagePack.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/signalsfoundry/burial-clock/core"
	"github.com/signalsfoundry/burial-clock/model"
)

// Format names an export encoding.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ErrUnknownFormat is returned for an unsupported export format.
var ErrUnknownFormat = errors.New("unknown export format")

// CSVHeader lists the CSV columns in output order.
var CSVHeader = []string{
	"Cumulative Time (yr)",
	"26Al/10Be ratio",
	"36Cl/10Be ratio",
	"Status",
	"Apparent Burial Age 26Al/10Be (yr)",
	"Apparent Burial Age 36Cl/10Be (yr)",
	"N26Al",
	"N36Cl",
	"N10Be",
}

// Record is one exported frame with its derived apparent ages.
type Record struct {
	TCumulative float64      `json:"t_cumulative"`
	Status      model.Status `json:"status"`
	R26_10      float64      `json:"r_26_10"`
	R36_10      float64      `json:"r_36_10"`
	RBase26_10  *float64     `json:"rbase_26_10"`
	RBase36_10  *float64     `json:"rbase_36_10"`
	Age26Years  float64      `json:"age_26_10_years"`
	Age36Years  float64      `json:"age_36_10_years"`
	N10         float64      `json:"n10"`
	N26         float64      `json:"n26"`
	N36         float64      `json:"n36"`
}

// Document is the JSON and MessagePack envelope.
type Document struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Settings model.Settings `json:"settings"`
	Records  []Record       `json:"frames"`
}

// ParseFormat accepts a format name or a file extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv":
		return FormatCSV, nil
	case "json", "":
		return FormatJSON, nil
	case "msgpack", "mpk":
		return FormatMsgpack, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the HTTP media type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatMsgpack:
		return "application/x-msgpack"
	default:
		return "application/json"
	}
}

// NewRecord flattens a frame and its apparent ages.
func NewRecord(f model.Frame) Record {
	age26, age36 := core.ApparentAges(f)
	f = f.Clone()
	return Record{
		TCumulative: f.TCumulative,
		Status:      f.Status,
		R26_10:      f.R26_10,
		R36_10:      f.R36_10,
		RBase26_10:  f.RBase26_10,
		RBase36_10:  f.RBase36_10,
		Age26Years:  age26,
		Age36Years:  age36,
		N10:         f.State.N10,
		N26:         f.State.N26,
		N36:         f.State.N36,
	}
}

// Records converts every frame of sc.
func Records(sc *model.Scenario) []Record {
	frames := sc.Frames()
	out := make([]Record, 0, len(frames))
	for _, f := range frames {
		out = append(out, NewRecord(f))
	}
	return out
}

// NewDocument wraps sc's records with its identity and settings.
func NewDocument(sc *model.Scenario) Document {
	return Document{
		ID:       sc.ID(),
		Label:    core.Summary(sc.Settings()),
		Settings: sc.Settings(),
		Records:  Records(sc),
	}
}

// Write encodes sc to w in format f.
func Write(w io.Writer, f Format, sc *model.Scenario) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, sc)
	case FormatJSON:
		return WriteJSON(w, sc)
	case FormatMsgpack:
		return WriteMsgpack(w, sc)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// WriteCSV writes the header followed by one row per frame.
func WriteCSV(w io.Writer, sc *model.Scenario) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range Records(sc) {
		if err := cw.Write(r.csvRow()); err != nil {
			return fmt.Errorf("write csv row at t=%g: %w", r.TCumulative, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the scenario document as indented JSON.
func WriteJSON(w io.Writer, sc *model.Scenario) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(sc))
}

// WriteMsgpack writes the scenario document as MessagePack keyed by the
// JSON field names.
func WriteMsgpack(w io.Writer, sc *model.Scenario) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	return enc.Encode(NewDocument(sc))
}

// ReadMsgpack decodes a document produced by WriteMsgpack.
func ReadMsgpack(r io.Reader) (Document, error) {
	var doc Document
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode msgpack: %w", err)
	}
	return doc, nil
}

func (r Record) csvRow() []string {
	return []string{
		formatFloat(r.TCumulative),
		formatFloat(r.R26_10),
		formatFloat(r.R36_10),
		string(r.Status),
		formatFloat(r.Age26Years),
		formatFloat(r.Age36Years),
		formatFloat(r.N26),
		formatFloat(r.N36),
		formatFloat(r.N10),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
