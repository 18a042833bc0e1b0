// Package dependency reconstructs the statically-linked library
// dependencies (name, version, candidate feature set) residual build-path
// strings leave behind in a stripped binary.
package dependency

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is a three-component semantic version.
type Version struct {
	Major, Minor, Patch int
}

func (v Version) String() string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
}

// Dependency is an inferred statically-linked library. Features starts as
// the raw, high-false-positive candidate list collected from source
// sub-paths; the Rebuilder narrows it against registry metadata and flips
// Accurate once it has.
type Dependency struct {
	Name     string
	Version  Version
	Features []string
	Accurate bool
}

var crateRootPattern = regexp.MustCompile(`cargo[/\\]registry[/\\]src[/\\][^/\\]+[/\\]([^/\\]+)`)

var sourceSubPathPattern = regexp.MustCompile(
	`cargo[/\\]registry[/\\]src[/\\][^/\\]+[/\\]([^/\\]+)[/\\]([^/\\]+)[/\\][^/\\]+\.rs`)

// Infer scans raw target bytes for two embedded cargo-registry path
// shapes: `cargo/registry/src/<host>/<name>-<X.Y.Z>` captures the crate
// root and is split on its last hyphen into name/version; `.../<name>-<ver>/<subpath>/<file>.rs`
// captures the leading path component under the crate root as a candidate
// feature name. Dependencies are deduplicated by name, last-seen version
// winning — the residual strings are consistent enough in practice that
// this rarely matters.
func Infer(data []byte) []Dependency {
	byName := make(map[string]*Dependency)
	var order []string

	for _, m := range crateRootPattern.FindAllSubmatch(data, -1) {
		name, version, ok := splitNameVersion(string(m[1]))
		if !ok {
			continue
		}
		if _, exists := byName[name]; !exists {
			order = append(order, name)
		}
		byName[name] = &Dependency{Name: name, Version: version}
	}

	for _, m := range sourceSubPathPattern.FindAllSubmatch(data, -1) {
		name, _, ok := splitNameVersion(string(m[1]))
		if !ok {
			continue
		}
		dep, exists := byName[name]
		if !exists {
			continue
		}
		dep.Features = appendUnique(dep.Features, string(m[2]))
	}

	out := make([]Dependency, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out
}

// splitNameVersion splits a "<name>-<X.Y.Z>" registry directory token on
// its last hyphen.
func splitNameVersion(token string) (string, Version, bool) {
	idx := strings.LastIndex(token, "-")
	if idx < 0 || idx == len(token)-1 {
		return "", Version{}, false
	}
	name := token[:idx]
	versionStr := token[idx+1:]
	if !semver.IsValid("v" + versionStr) {
		return "", Version{}, false
	}

	parts := strings.SplitN(versionStr, ".", 3)
	if len(parts) != 3 {
		return "", Version{}, false
	}
	major, err1 := strconv.Atoi(parts[0])
	minor, err2 := strconv.Atoi(parts[1])
	patch, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return "", Version{}, false
	}

	return name, Version{Major: major, Minor: minor, Patch: patch}, true
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
