package payload

import (
	"runtime"
	"runtime/debug"
	"sort"
)

// VersionInfo describes the toolchain and modules a target was built with.
type VersionInfo struct {
	Framework string            `json:"framework"`
	Go        string            `json:"go"`
	Packages  map[string]string `json:"packages"`
}

// Versions reports the build information of the running binary. Modules
// without recorded build info are reported as "unknown".
func Versions(framework string, modules []string) VersionInfo {
	info := VersionInfo{
		Framework: framework,
		Go:        runtime.Version(),
		Packages:  make(map[string]string, len(modules)),
	}

	for _, m := range modules {
		info.Packages[m] = "unknown"
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	for _, dep := range bi.Deps {
		if _, wanted := info.Packages[dep.Path]; !wanted {
			continue
		}

		version := dep.Version
		if dep.Replace != nil {
			version = dep.Replace.Version
		}

		info.Packages[dep.Path] = version
	}

	return info
}

// ModuleNames returns the sorted package names of v.
func (v VersionInfo) ModuleNames() []string {
	names := make([]string, 0, len(v.Packages))
	for name := range v.Packages {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
