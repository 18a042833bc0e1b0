package rebuild

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCargoTomlPatcherForcesStaticlib(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "Cargo.toml")
	original := "[package]\nname = \"aho-corasick\"\nversion = \"1.0.2\"\n\n[lib]\ncrate-type = [\"rlib\"]\n"
	require.NoError(t, os.WriteFile(manifestPath, []byte(original), 0o644))

	patcher := NewCargoTomlPatcher()
	require.NoError(t, patcher.Patch(manifestPath, []string{"unicode-case"}))

	out, err := os.ReadFile(manifestPath)
	require.NoError(t, err)
	content := string(out)

	require.Contains(t, content, "staticlib", "patched manifest missing staticlib crate-type")
	require.Contains(t, content, "unicode-case", "patched manifest missing narrowed feature")
}
