// Package report formats benchmark results into a markdown comparison and a
// JSON document that graphs can be regenerated from.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fwbench/fwbench/bench"
	"github.com/fwbench/fwbench/framework"
	"github.com/fwbench/fwbench/payload"
)

// Meta describes the run a set of results came from.
type Meta struct {
	RunID     string                         `json:"run_id"`
	Date      time.Time                      `json:"date"`
	Config    bench.Config                   `json:"config"`
	Endpoints []framework.Endpoint           `json:"endpoints"`
	Host      HostInfo                       `json:"host"`
	Versions  map[string]payload.VersionInfo `json:"versions,omitempty"`
}

// Document is the JSON results file.
type Document struct {
	Meta    Meta           `json:"meta"`
	Results []bench.Result `json:"results"`
}

// ResultsHeader is the column schema of every per-endpoint table.
const ResultsHeader = "| Framework | RPS | Latency (avg) | Latency (p99) | Errors |"

const resultsSeparator = "|-----------|----:|-------------:|-------------:|-------:|"

// Generate writes the markdown report for results.
func Generate(w io.Writer, meta Meta, results []bench.Result) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to report")
	}

	var b strings.Builder

	endpoints := Endpoints(meta.Endpoints, results)

	// Header.
	b.WriteString("# Framework Benchmark Results\n\n")

	if !meta.Date.IsZero() {
		fmt.Fprintf(&b, "**Date:** %s\n\n", meta.Date.Format("2006-01-02 15:04:05"))
	}

	if meta.RunID != "" {
		fmt.Fprintf(&b, "**Run ID:** `%s`\n\n", meta.RunID)
	}

	// Configuration.
	cfg := meta.Config
	b.WriteString("## Configuration\n\n")
	fmt.Fprintf(&b, "- Connections: %d\n", cfg.Connections)
	fmt.Fprintf(&b, "- Duration: %s per endpoint\n", cfg.Duration)
	fmt.Fprintf(&b, "- Warmup: %d requests\n", cfg.WarmupRequests)
	fmt.Fprintf(&b, "- Runs: %d (best result taken)\n\n", cfg.Runs)

	writeHost(&b, meta.Host)

	// Endpoint descriptions.
	b.WriteString("## Endpoints\n\n")
	b.WriteString("| Endpoint | Description |\n")
	b.WriteString("|----------|-------------|\n")

	for _, ep := range endpoints {
		fmt.Fprintf(&b, "| `%s` | %s |\n", ep.ID(), ep.Description)
	}

	b.WriteString("\n## Results\n\n")

	for _, ep := range endpoints {
		rows := ByEndpoint(results, ep.ID())
		if len(rows) == 0 {
			continue
		}

		sort.SliceStable(rows, func(i, j int) bool { return rows[i].RPS > rows[j].RPS })

		fmt.Fprintf(&b, "### %s\n\n", ep.ID())
		b.WriteString(ResultsHeader + "\n")
		b.WriteString(resultsSeparator + "\n")

		for _, r := range rows {
			b.WriteString(FormatRow(r) + "\n")
		}

		b.WriteString("\n")
	}

	writeSummary(&b, endpoints, results)
	writeVersions(&b, meta.Versions)

	_, err := io.WriteString(w, b.String())

	return err
}

// FormatRow renders one result as a per-endpoint table row.
func FormatRow(r bench.Result) string {
	return fmt.Sprintf("| %s | %s | %s | %s | %d |",
		r.Framework,
		formatRPS(r.RPS),
		formatMs(r.LatencyAvgMs),
		formatMs(r.LatencyP99Ms),
		r.Errors,
	)
}

// GenerateJSON writes the results document as indented JSON.
func GenerateJSON(w io.Writer, meta Meta, results []bench.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(Document{Meta: meta, Results: results})
}

// LoadJSON reads a document written by GenerateJSON.
func LoadJSON(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return doc, fmt.Errorf("decode results: %w", err)
	}

	if len(doc.Results) == 0 {
		return doc, fmt.Errorf("results file has no results")
	}

	return doc, nil
}

// Endpoints returns the configured endpoints followed by any endpoint that
// appears only in results, in first-seen order.
func Endpoints(configured []framework.Endpoint, results []bench.Result) []framework.Endpoint {
	out := make([]framework.Endpoint, 0, len(configured))
	seen := make(map[string]bool, len(configured))

	for _, ep := range configured {
		if !seen[ep.ID()] {
			seen[ep.ID()] = true
			out = append(out, ep)
		}
	}

	for _, r := range results {
		if !seen[r.Endpoint] {
			seen[r.Endpoint] = true
			out = append(out, framework.Endpoint{Path: r.Endpoint})
		}
	}

	return out
}

// Frameworks returns framework names in first-seen order.
func Frameworks(results []bench.Result) []string {
	var names []string

	seen := make(map[string]bool)
	for _, r := range results {
		if !seen[r.Framework] {
			seen[r.Framework] = true
			names = append(names, r.Framework)
		}
	}

	return names
}

// ByEndpoint returns a copy of the results for one endpoint.
func ByEndpoint(results []bench.Result, endpoint string) []bench.Result {
	var out []bench.Result
	for _, r := range results {
		if r.Endpoint == endpoint {
			out = append(out, r)
		}
	}

	return out
}

func lookup(results []bench.Result, fw, endpoint string) (bench.Result, bool) {
	for _, r := range results {
		if r.Framework == fw && r.Endpoint == endpoint {
			return r, true
		}
	}

	return bench.Result{}, false
}

func writeSummary(b *strings.Builder, endpoints []framework.Endpoint, results []bench.Result) {
	b.WriteString("## Summary (RPS by Endpoint)\n\n")

	header := "| Framework |"
	separator := "|-----------|"

	for _, ep := range endpoints {
		header += " " + ep.ID() + " |"
		separator += "--------:|"
	}

	b.WriteString(header + "\n")
	b.WriteString(separator + "\n")

	for _, fw := range Frameworks(results) {
		row := "| " + fw + " |"

		for _, ep := range endpoints {
			if r, ok := lookup(results, fw, ep.ID()); ok {
				row += " " + formatRPS(r.RPS) + " |"
			} else {
				row += " - |"
			}
		}

		b.WriteString(row + "\n")
	}

	b.WriteString("\n")
}

func writeVersions(b *strings.Builder, versions map[string]payload.VersionInfo) {
	if len(versions) == 0 {
		return
	}

	names := make([]string, 0, len(versions))
	for name := range versions {
		names = append(names, name)
	}

	sort.Strings(names)

	b.WriteString("## Versions\n\n")
	b.WriteString("| Framework | Go | Packages |\n")
	b.WriteString("|-----------|----|----------|\n")

	for _, name := range names {
		v := versions[name]

		pkgs := make([]string, 0, len(v.Packages))
		for _, m := range v.ModuleNames() {
			pkgs = append(pkgs, m+" "+v.Packages[m])
		}

		packages := strings.Join(pkgs, ", ")
		if packages == "" {
			packages = "-"
		}

		goVersion := v.Go
		if goVersion == "" {
			goVersion = "-"
		}

		fmt.Fprintf(b, "| %s | %s | %s |\n", name, goVersion, packages)
	}

	b.WriteString("\n")
}

// formatRPS renders requests per second rounded, with thousands separators.
func formatRPS(rps float64) string {
	n := int64(math.Round(rps))

	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	digits := strconv.FormatInt(n, 10)

	var out strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out.WriteByte(',')
		}

		out.WriteRune(d)
	}

	return sign + out.String()
}

func formatMs(ms float64) string {
	return fmt.Sprintf("%.2fms", ms)
}

func formatBytes(b uint64) string {
	if b == 0 {
		return "-"
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(b)
	unit := 0

	for size >= 1024 && unit < len(units)-1 {
		size /= 1024
		unit++
	}

	formatted := fmt.Sprintf("%.1f", size)
	formatted = strings.TrimRight(formatted, "0")
	formatted = strings.TrimRight(formatted, ".")

	return formatted + " " + units[unit]
}
