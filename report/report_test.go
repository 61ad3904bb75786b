package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fwbench/fwbench/bench"
	"github.com/fwbench/fwbench/framework"
	"github.com/fwbench/fwbench/payload"
)

func sampleResults() []bench.Result {
	return []bench.Result{
		{Framework: "gin", Endpoint: "/json-1k", RPS: 50123.4, LatencyAvgMs: 1.99, LatencyP99Ms: 7.5, Errors: 0, DurationS: 10, Runs: 3},
		{Framework: "chi", Endpoint: "/json-1k", RPS: 61000.6, LatencyAvgMs: 1.64, LatencyP99Ms: 5.126, Errors: 2, DurationS: 10, Runs: 3},
		{Framework: "gin", Endpoint: "/db", RPS: 800, LatencyAvgMs: 120.456, LatencyP99Ms: 300, Errors: 12, DurationS: 10, Runs: 2},
	}
}

func sampleMeta() Meta {
	return Meta{
		RunID:  "3f1c2a9e-0000-4000-8000-000000000000",
		Date:   time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC),
		Config: bench.DefaultConfig(),
		Endpoints: []framework.Endpoint{
			{Path: "/json-1k", Description: "1KB JSON Response"},
			{Path: "/db", Description: "10 Database Reads"},
		},
		Host: HostInfo{OS: "linux/amd64", CPU: "Test CPU", Cores: 8, MemoryBytes: 16 * 1024 * 1024 * 1024},
	}
}

func TestGenerateResultsTable(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(&buf, sampleMeta(), sampleResults()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	output := buf.String()

	wantTable := strings.Join([]string{
		"### /json-1k",
		"",
		"| Framework | RPS | Latency (avg) | Latency (p99) | Errors |",
		"|-----------|----:|-------------:|-------------:|-------:|",
		"| chi | 61,001 | 1.64ms | 5.13ms | 2 |",
		"| gin | 50,123 | 1.99ms | 7.50ms | 0 |",
		"",
	}, "\n")

	if !strings.Contains(output, wantTable) {
		t.Errorf("json-1k table missing or out of order:\n%s", output)
	}

	if !strings.Contains(output, "| gin | 800 | 120.46ms | 300.00ms | 12 |") {
		t.Error("expected db row for gin")
	}

	for _, want := range []string{
		"# Framework Benchmark Results",
		"**Date:** 2025-03-01 12:30:00",
		"**Run ID:** `3f1c2a9e-0000-4000-8000-000000000000`",
		"- Connections: 100",
		"- Duration: 10s per endpoint",
		"- Warmup: 1000 requests",
		"- Runs: 3 (best result taken)",
		"- CPU: Test CPU",
		"- Memory: 16 GB",
		"| `/db` | 10 Database Reads |",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestGenerateSummaryMarksMissingCells(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(&buf, sampleMeta(), sampleResults()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	output := buf.String()

	wantSummary := strings.Join([]string{
		"## Summary (RPS by Endpoint)",
		"",
		"| Framework | /json-1k | /db |",
		"|-----------|--------:|--------:|",
		"| gin | 50,123 | 800 |",
		"| chi | 61,001 | - |",
	}, "\n")

	if !strings.Contains(output, wantSummary) {
		t.Errorf("summary mismatch:\n%s", output)
	}
}

func TestGenerateEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(&buf, sampleMeta(), nil); err == nil {
		t.Error("expected error for empty results")
	}
}

func TestGenerateVersions(t *testing.T) {
	meta := sampleMeta()
	meta.Versions = map[string]payload.VersionInfo{
		"gin": {Framework: "gin", Go: "go1.24.0", Packages: map[string]string{"github.com/gin-gonic/gin": "v1.9.1"}},
		"chi": {Framework: "chi"},
	}

	var buf bytes.Buffer
	if err := Generate(&buf, meta, sampleResults()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "| gin | go1.24.0 | github.com/gin-gonic/gin v1.9.1 |") {
		t.Error("expected gin versions row")
	}
	if !strings.Contains(output, "| chi | - | - |") {
		t.Error("expected placeholder versions row for chi")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	meta := sampleMeta()

	var buf bytes.Buffer
	if err := GenerateJSON(&buf, meta, sampleResults()); err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}

	doc, err := LoadJSON(&buf)
	if err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}

	if doc.Meta.RunID != meta.RunID || !doc.Meta.Date.Equal(meta.Date) {
		t.Errorf("meta = %+v", doc.Meta)
	}
	if len(doc.Results) != 3 || doc.Results[1].Framework != "chi" {
		t.Errorf("results = %+v", doc.Results)
	}
	if doc.Meta.Config.Duration != 10*time.Second {
		t.Errorf("duration = %s", doc.Meta.Config.Duration)
	}
}

func TestLoadJSONRejectsEmpty(t *testing.T) {
	if _, err := LoadJSON(strings.NewReader(`{"meta":{},"results":[]}`)); err == nil {
		t.Error("expected error for document without results")
	}
	if _, err := LoadJSON(strings.NewReader(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestEndpointsAppendsUnconfigured(t *testing.T) {
	got := Endpoints(
		[]framework.Endpoint{{Path: "/db"}},
		[]bench.Result{{Endpoint: "/json-1k"}, {Endpoint: "/db"}, {Endpoint: "/json-1k"}},
	)

	if len(got) != 2 || got[0].ID() != "/db" || got[1].ID() != "/json-1k" {
		t.Errorf("Endpoints = %+v", got)
	}
}

func TestFormatRPS(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999.4, "999"},
		{999.5, "1,000"},
		{1234567.8, "1,234,568"},
	}

	for _, tt := range tests {
		if got := formatRPS(tt.in); got != tt.want {
			t.Errorf("formatRPS(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    uint64
		expected string
	}{
		{0, "-"},
		{512, "512 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1048576, "1 MB"},
		{1073741824, "1 GB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.input); got != tt.expected {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
