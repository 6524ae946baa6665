package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/signalsfoundry/burial-clock/core"
	"github.com/signalsfoundry/burial-clock/model"
)

func TestWriteCSV(t *testing.T) {
	sc := core.Generate(core.DefaultSettings)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sc); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back csv: %v", err)
	}
	if len(rows) != sc.Len()+1 {
		t.Fatalf("rows = %d, want %d", len(rows), sc.Len()+1)
	}
	wantHeader := "Cumulative Time (yr),26Al/10Be ratio,36Cl/10Be ratio,Status," +
		"Apparent Burial Age 26Al/10Be (yr),Apparent Burial Age 36Cl/10Be (yr),N26Al,N36Cl,N10Be"
	if got := strings.Join(rows[0], ","); got != wantHeader {
		t.Fatalf("header = %q, want %q", got, wantHeader)
	}
	if rows[1][0] != "5000" || rows[1][3] != "EXPOSURE" {
		t.Fatalf("first row = %v", rows[1])
	}
	if rows[102][3] != "BURIAL" {
		t.Fatalf("row for frame 101 status = %q, want BURIAL", rows[102][3])
	}
	last := rows[len(rows)-1]
	if last[0] != "2005000" {
		t.Fatalf("last time = %q, want 2005000", last[0])
	}
}

func TestRecordsCarryApparentAges(t *testing.T) {
	recs := Records(core.Generate(core.DefaultSettings))

	if recs[50].RBase26_10 != nil || recs[50].Age26Years != 0 {
		t.Fatalf("pre-burial record = %+v, want no reference and zero age", recs[50])
	}
	want := 199 * core.DTYears
	if got := recs[300].Age26Years; !scalar.EqualWithinRel(got, want, 1e-9) {
		t.Fatalf("Age26Years at end of burial = %v, want %v", got, want)
	}
	if recs[300].Age36Years != recs[300].Age26Years {
		t.Fatalf("burial ages differ: %v vs %v", recs[300].Age26Years, recs[300].Age36Years)
	}
}

func TestRecordDoesNotAliasFrame(t *testing.T) {
	sc := core.Generate(core.DefaultSettings)
	rec := NewRecord(mustFrame(t, sc, 200))
	*rec.RBase26_10 = -1

	again := mustFrame(t, sc, 200)
	if *again.RBase26_10 == -1 {
		t.Fatalf("record shares reference storage with the scenario")
	}
}

func TestWriteJSONNullReferenceBeforeBurial(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, core.Generate(core.DefaultSettings)); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var doc struct {
		ID     string                   `json:"id"`
		Label  string                   `json:"label"`
		Frames []map[string]interface{} `json:"frames"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if doc.ID != core.ScenarioID(core.DefaultSettings) {
		t.Fatalf("id = %q, want %q", doc.ID, core.ScenarioID(core.DefaultSettings))
	}
	if doc.Label != "E 0.50 Ma · B 1.00 Ma · E 0.50 Ma" {
		t.Fatalf("label = %q", doc.Label)
	}
	if v, ok := doc.Frames[0]["rbase_26_10"]; !ok || v != nil {
		t.Fatalf("frame 0 rbase_26_10 = %v (present=%v), want null", v, ok)
	}
	if v, ok := doc.Frames[101]["rbase_26_10"].(float64); !ok || v <= 0 {
		t.Fatalf("frame 101 rbase_26_10 = %v, want positive", doc.Frames[101]["rbase_26_10"])
	}
}

func TestMsgpackDocument(t *testing.T) {
	sc := core.Generate(model.Settings{ExposureMyr: 0.1, BurialMyr: 0.2})
	var buf bytes.Buffer
	if err := Write(&buf, FormatMsgpack, sc); err != nil {
		t.Fatalf("Write(msgpack): %v", err)
	}
	doc, err := ReadMsgpack(&buf)
	if err != nil {
		t.Fatalf("ReadMsgpack: %v", err)
	}
	if doc.ID != sc.ID() || len(doc.Records) != sc.Len() {
		t.Fatalf("decoded %q with %d records, want %q with %d", doc.ID, len(doc.Records), sc.ID(), sc.Len())
	}
	last := doc.Records[len(doc.Records)-1]
	if last.Status != model.StatusBurial || last.RBase26_10 == nil {
		t.Fatalf("last record = %+v, want burial with reference", last)
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"csv":     FormatCSV,
		".CSV":    FormatCSV,
		"json":    FormatJSON,
		"":        FormatJSON,
		"msgpack": FormatMsgpack,
		"mpk":     FormatMsgpack,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v, want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("ParseFormat(xml) err = %v, want ErrUnknownFormat", err)
	}
	if err := Write(&bytes.Buffer{}, Format("xml"), nil); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("Write(xml) err = %v, want ErrUnknownFormat", err)
	}
}

func mustFrame(t *testing.T, sc *model.Scenario, i int) model.Frame {
	t.Helper()
	f, ok := sc.Frame(i)
	if !ok {
		t.Fatalf("frame %d missing", i)
	}
	return f
}
