package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/crimson-sun/timber/internal/model"
)

func baseResult() model.Result {
	return model.Result{
		Seq:          3,
		Timestamp:    time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC),
		Line:         "sunny hot high weak",
		Label:        "no",
		Distribution: map[string]float64{"no": 0.75, "yes": 0.25},
		Confidence:   0.75,
		Entropy:      0.811,
		Distance:     0.0188,
		Depth:        3,
	}
}

func TestFormatResultMinimal(t *testing.T) {
	r := FormatResult(baseResult(), Minimal)

	if r.Line != "" {
		t.Fatal("Line should be empty at Minimal")
	}
	if r.Distribution != nil {
		t.Fatal("Distribution should be nil at Minimal")
	}
	if r.Entropy != 0 {
		t.Fatal("Entropy should be 0 at Minimal")
	}
	if r.Label != "no" {
		t.Fatal("Label should be preserved")
	}
	if r.Confidence != 0.75 {
		t.Fatal("Confidence should be preserved")
	}
}

func TestFormatResultStandard(t *testing.T) {
	r := FormatResult(baseResult(), Standard)

	if r.Line == "" {
		t.Fatal("Line should be preserved at Standard")
	}
	if len(r.Distribution) != 2 {
		t.Fatal("Distribution should be preserved at Standard")
	}
}

func TestFormatResultFull(t *testing.T) {
	r := FormatResult(baseResult(), Full)

	if r.Line == "" || r.Entropy == 0 || len(r.Distribution) != 2 {
		t.Fatal("all fields should be preserved at Full")
	}
}

func TestFormatResultDoesNotMutateInput(t *testing.T) {
	orig := baseResult()
	_ = FormatResult(orig, Minimal)

	if orig.Line == "" || orig.Distribution == nil {
		t.Fatal("FormatResult should not mutate the input")
	}
}

func TestFormatResultMinimalJSON(t *testing.T) {
	r := FormatResult(baseResult(), Minimal)
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"line", "distribution", "entropy"} {
		if _, ok := m[key]; ok {
			t.Fatalf("%q should be omitted at Minimal", key)
		}
	}
	if m["label"] != "no" {
		t.Fatalf("label = %v, want no", m["label"])
	}
}

func TestFormatResultErrorRecord(t *testing.T) {
	r := FormatResult(model.Result{Seq: 1, Line: "bad", Error: "malformed instance"}, Minimal)
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["error"] != "malformed instance" {
		t.Fatalf("error = %v", m["error"])
	}
	if _, ok := m["label"]; ok {
		t.Fatal("label should be omitted on error records")
	}
}

func TestParseVerbosity(t *testing.T) {
	tests := []struct {
		in      string
		want    Verbosity
		wantErr bool
	}{
		{"minimal", Minimal, false},
		{"Standard", Standard, false},
		{"", Standard, false},
		{" full ", Full, false},
		{"loud", Standard, true},
	}
	for _, tt := range tests {
		got, err := ParseVerbosity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseVerbosity(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseVerbosity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEncodeLine(t *testing.T) {
	line, err := EncodeLine(baseResult(), Minimal, false)
	if err != nil {
		t.Fatalf("EncodeLine error: %v", err)
	}
	if bytes.Count(line, []byte("\n")) != 1 || line[len(line)-1] != '\n' {
		t.Fatalf("want one newline-terminated record, got %q", line)
	}
	var m map[string]any
	if err := json.Unmarshal(line, &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := m["distribution"]; ok {
		t.Error("Minimal should omit distribution")
	}

	pretty, err := EncodeLine(baseResult(), Minimal, true)
	if err != nil {
		t.Fatalf("EncodeLine error: %v", err)
	}
	if !bytes.Contains(pretty, []byte("\n  \"seq\"")) {
		t.Errorf("pretty record should be indented, got %q", pretty)
	}
}
