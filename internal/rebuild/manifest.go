package rebuild

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// CargoTomlPatcher is the default ManifestPatcher, rewriting a dependency's
// Cargo.toml to force the build shape symbol recovery needs: a static
// archive output with full, unstripped debug info.
type CargoTomlPatcher struct{}

// NewCargoTomlPatcher returns the default ManifestPatcher.
func NewCargoTomlPatcher() *CargoTomlPatcher {
	return &CargoTomlPatcher{}
}

// Patch loads manifestPath, forces [lib] crate-type = ["staticlib"] and
// profile.release.debug/strip, narrows [features] default to the supplied
// list when non-empty, and writes the result back in place.
func (CargoTomlPatcher) Patch(manifestPath string, features []string) error {
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("manifest: read %s: %w", manifestPath, err)
	}

	var doc map[string]interface{}
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("manifest: parse %s: %w", manifestPath, err)
	}

	lib, _ := doc["lib"].(map[string]interface{})
	if lib == nil {
		lib = map[string]interface{}{}
	}
	lib["crate-type"] = []string{"staticlib"}
	doc["lib"] = lib

	profile, _ := doc["profile"].(map[string]interface{})
	if profile == nil {
		profile = map[string]interface{}{}
	}
	release, _ := profile["release"].(map[string]interface{})
	if release == nil {
		release = map[string]interface{}{}
	}
	release["debug"] = 2
	release["strip"] = false
	profile["release"] = release
	doc["profile"] = profile

	if len(features) > 0 {
		featureTable, _ := doc["features"].(map[string]interface{})
		if featureTable == nil {
			featureTable = map[string]interface{}{}
		}
		featureTable["default"] = features
		doc["features"] = featureTable
	}

	out, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("manifest: marshal %s: %w", manifestPath, err)
	}

	return os.WriteFile(manifestPath, out, 0o644)
}
