// Package bench runs the load generator against every framework endpoint
// and keeps the best of several runs.
package bench

// Result is one row of the results table: the best run of one framework
// against one endpoint.
type Result struct {
	Framework    string  `json:"framework"`
	Endpoint     string  `json:"endpoint"`
	RPS          float64 `json:"rps"`
	LatencyAvgMs float64 `json:"latency_avg_ms"`
	LatencyP99Ms float64 `json:"latency_p99_ms"`
	Errors       int64   `json:"errors"`
	DurationS    float64 `json:"duration_s"`
	// Runs is the number of runs that produced a measurement.
	Runs int `json:"runs"`
}
