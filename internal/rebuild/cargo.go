package rebuild

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// CargoBuilder is the default Builder, shelling out to the pinned
// toolchain's cargo binary. No corpus library wraps cargo invocation; the
// build tool is an external collaborator per design, so os/exec is the
// correct and only idiomatic choice here.
type CargoBuilder struct{}

// NewCargoBuilder returns the default Builder.
func NewCargoBuilder() *CargoBuilder {
	return &CargoBuilder{}
}

// Build runs `cargo +<toolchainTag> build --release --lib` with the
// narrowed feature list and debug/strip overrides forced at the command
// line (belt-and-suspenders alongside the manifest patch), then locates
// the resulting staticlib archive and its paired PDB under target/release.
func (CargoBuilder) Build(ctx context.Context, dir, toolchainTag string, features []string) (string, string, error) {
	args := []string{
		"+" + toolchainTag,
		"build",
		"--release",
		"--lib",
		"--config", "profile.release.strip=false",
		"--config", "profile.release.debug=2",
	}
	if len(features) > 0 {
		args = append(args, "--features", strings.Join(features, ","))
	}

	cmd := exec.CommandContext(ctx, "cargo", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", "", fmt.Errorf("cargo build failed: %w: %s", err, string(output))
	}

	releaseDir := filepath.Join(dir, "target", "release")
	// A staticlib build produces .lib/.a; the stdlib bootstrap crate builds
	// as a dylib instead (see stdlib.go) and produces .dll.
	archivePath, err := findByExt(releaseDir, ".lib", ".a", ".dll")
	if err != nil {
		return "", "", err
	}
	debugDBPath, _ := findByExt(releaseDir, ".pdb")

	return archivePath, debugDBPath, nil
}

func findByExt(dir string, exts ...string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		for _, ext := range exts {
			if strings.HasSuffix(m, ext) {
				return m, nil
			}
		}
	}
	return "", fmt.Errorf("no file matching %v found under %s", exts, dir)
}
