// Package version reports the module's own version and the dependency
// set embedded in the binary at build time, via runtime/debug.
package version

import (
	"runtime/debug"
	"sort"
)

const modulePath = "github.com/opencite/litgraph"

// DependencyInfo is one module requirement as recorded in the binary.
type DependencyInfo struct {
	Path    string `json:"path"`
	Version string `json:"version"`
	Replace string `json:"replace,omitempty"`
}

// BuildInfo is the build-time metadata the version command prints.
type BuildInfo struct {
	GoVersion    string           `json:"goVersion"`
	MainModule   string           `json:"mainModule"`
	MainVersion  string           `json:"mainVersion"`
	Dependencies []DependencyInfo `json:"dependencies"`
}

// GetBuildInfo reads the metadata the Go toolchain embedded into the
// running binary. The string fields degrade to "unknown", and
// Dependencies to an empty list, when the binary was built without module
// support (e.g. a bare go run of a single file).
func GetBuildInfo() *BuildInfo {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return &BuildInfo{
			GoVersion:    "unknown",
			MainModule:   "unknown",
			MainVersion:  "unknown",
			Dependencies: []DependencyInfo{},
		}
	}

	deps := make([]DependencyInfo, 0, len(info.Deps))
	for _, dep := range info.Deps {
		d := DependencyInfo{Path: dep.Path, Version: dep.Version}
		if dep.Replace != nil {
			d.Replace = dep.Replace.Path + "@" + dep.Replace.Version
		}
		deps = append(deps, d)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Path < deps[j].Path })

	return &BuildInfo{
		GoVersion:    info.GoVersion,
		MainModule:   info.Path,
		MainVersion:  info.Main.Version,
		Dependencies: deps,
	}
}

// GetModuleVersion returns this module's version: the main-module version
// when litgraph is the binary being run, the dependency version when it
// is vendored into another binary, "dev" for a local build, and "unknown"
// when no build info is present at all.
func GetModuleVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	if info.Path == modulePath {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
		return "dev"
	}

	for _, dep := range info.Deps {
		if dep.Path == modulePath {
			if dep.Replace != nil {
				return dep.Replace.Version + " (replaced)"
			}
			return dep.Version
		}
	}
	return "unknown"
}
