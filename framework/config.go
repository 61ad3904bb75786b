package framework

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a registry from a YAML file of the form
//
//	frameworks:
//	  - name: fastapi
//	    port: 8001
//	    command: uvicorn
//	    args: [app:app, --port, "{port}"]
//	endpoints:
//	  - path: /graphql
//	    name: graphql-json1k
//	    method: POST
//	    body: '{"query":"{ json1k { id } }"}'
//	    headers: ["Content-Type: application/json"]
//
// Frameworks in the file replace the built-in ones. Without an endpoints
// section the default endpoint set is used.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes and validates a YAML registry. Frameworks without a
// probe_path are checked on the first declared endpoint, or on
// DefaultProbePath when the file declares none.
func Parse(data []byte) (*Registry, error) {
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}

	if err := reg.Validate(); err != nil {
		return nil, err
	}

	readyPath := DefaultProbePath
	if len(reg.Endpoints) > 0 {
		readyPath = reg.Endpoints[0].Path
	}

	for i := range reg.Frameworks {
		if reg.Frameworks[i].ProbePath == "" {
			reg.Frameworks[i].ProbePath = readyPath
		}
	}

	return &reg, nil
}

// Validate checks that names are set and unique, that every framework has
// a command and a port, and that endpoint IDs are unique.
func (r *Registry) Validate() error {
	if len(r.Frameworks) == 0 {
		return fmt.Errorf("registry has no frameworks")
	}

	seen := make(map[string]bool, len(r.Frameworks))

	for i, f := range r.Frameworks {
		switch {
		case f.Name == "":
			return fmt.Errorf("framework #%d: name is required", i+1)
		case seen[f.Name]:
			return fmt.Errorf("framework %q: duplicate name", f.Name)
		case f.Command == "":
			return fmt.Errorf("framework %q: command is required", f.Name)
		case f.Port <= 0 || f.Port > 65535:
			return fmt.Errorf("framework %q: invalid port %d", f.Name, f.Port)
		}

		seen[f.Name] = true
	}

	ids := make(map[string]bool, len(r.Endpoints))

	for i, e := range r.Endpoints {
		switch {
		case e.Path == "":
			return fmt.Errorf("endpoint #%d: path is required", i+1)
		case ids[e.ID()]:
			return fmt.Errorf("endpoint %q: duplicate id, set a distinct name", e.ID())
		}

		ids[e.ID()] = true
	}

	return nil
}
