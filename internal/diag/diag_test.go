package diag

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestReporterCountsAndFormatsText(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, "text")
	r.Error("osc", "bad inlet")
	r.Errorf("pass %s failed", "dsp")
	r.Warnf("node %q dropped", "x")
	r.Debugf("hidden")

	if r.ErrorCount() != 2 || r.WarningCount() != 1 || !r.HasErrors() {
		t.Fatalf("unexpected counts: errors=%d warnings=%d", r.ErrorCount(), r.WarningCount())
	}
	out := buf.String()
	for _, want := range []string{`level=error msg="bad inlet" subject=osc`, `msg="pass dsp failed"`, "level=warning"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug output must be hidden unless verbose: %q", out)
	}

	r.SetVerbose(true)
	r.Debugf("now %s", "visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Fatalf("expected debug output in verbose mode: %q", buf.String())
	}
}

func TestReporterJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, "json")
	r.Error("dac", "no inlets")
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a JSON entry, got %q: %v", buf.String(), err)
	}
	if entry["subject"] != "dac" || entry["msg"] != "no inlets" || entry["level"] != "error" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNilReporterIsSafe(t *testing.T) {
	var r *Reporter
	r.Error("x", "y")
	r.Warnf("w")
	r.SetVerbose(true)
	if r.HasErrors() || r.ErrorCount() != 0 || r.WarningCount() != 0 {
		t.Fatalf("nil reporter must report nothing")
	}
	if r.WithFields(Fields{"a": 1}) == nil {
		t.Fatalf("nil reporter must still return an entry")
	}
}
