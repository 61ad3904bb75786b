package framework

import (
	"strings"
)

// SlowPath is the endpoint dropped by --skip-slow.
const SlowPath = "/slow"

// Endpoint is one request shape measured against every framework.
type Endpoint struct {
	Path        string `yaml:"path" json:"path"`
	Name        string `yaml:"name" json:"name,omitempty"`
	Description string `yaml:"description" json:"description,omitempty"`
	// Method defaults to GET. GraphQL targets use POST with a Body.
	Method  string   `yaml:"method" json:"method,omitempty"`
	Body    string   `yaml:"body" json:"body,omitempty"`
	Headers []string `yaml:"headers" json:"headers,omitempty"`
}

// ID identifies the endpoint in results, reports and file names. Named
// endpoints use their name; otherwise the path.
func (e Endpoint) ID() string {
	if e.Name != "" {
		return e.Name
	}

	return e.Path
}

// DisplayName is the human label used in graphs.
func (e Endpoint) DisplayName() string {
	if e.Description != "" {
		return e.Description
	}

	return e.ID()
}

// Slug is a file-name safe form of ID.
func (e Endpoint) Slug() string {
	return Slug(e.ID())
}

// Slug turns an endpoint ID like "/json-1k" into "json_1k".
func Slug(id string) string {
	s := strings.Trim(id, "/")
	s = strings.NewReplacer("/", "_", "-", "_", " ", "_").Replace(s)

	if s == "" {
		return "root"
	}

	return s
}

// DefaultEndpoints returns the endpoint set served by benchserver.
func DefaultEndpoints() []Endpoint {
	return []Endpoint{
		{Path: "/json-1k", Description: "1KB JSON Response"},
		{Path: "/json-10k", Description: "10KB JSON Response"},
		{Path: "/db", Description: "10 Database Reads"},
		{Path: SlowPath, Description: "2s Mock Delay"},
	}
}

// ExtendedEndpoints returns the nested-data and write endpoints that
// benchserver serves beyond the default set.
func ExtendedEndpoints() []Endpoint {
	return []Endpoint{
		{Path: "/nplus1", Description: "50 Users x 3 Orders"},
		{
			Path:        "/items",
			Name:        "create-item",
			Description: "Create Item",
			Method:      "POST",
			Body:        `{"name":"widget","quantity":3}`,
			Headers:     []string{"Content-Type: application/json"},
		},
	}
}

// WithoutSlow drops the slow endpoint, matched by path, by name "slow" or
// by a name ending in "-slow".
func WithoutSlow(endpoints []Endpoint) []Endpoint {
	out := make([]Endpoint, 0, len(endpoints))
	for _, e := range endpoints {
		if e.Path == SlowPath || e.Name == "slow" || strings.HasSuffix(e.Name, "-slow") {
			continue
		}

		out = append(out, e)
	}

	return out
}
