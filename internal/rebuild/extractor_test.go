package rebuild

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func buildTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for name, content := range files {
		hdr := &tar.Header{Name: name, Size: int64(len(content)), Mode: 0o644, Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("WriteHeader: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar Close: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip Close: %v", err)
	}
	return buf.Bytes()
}

func TestTarGzExtractorStripsTopLevelDir(t *testing.T) {
	archive := buildTarGz(t, map[string]string{
		"aho-corasick-1.0.2/Cargo.toml": "[package]\nname = \"aho-corasick\"\n",
		"aho-corasick-1.0.2/src/lib.rs": "pub fn find() {}\n",
	})

	dest := t.TempDir()
	if err := NewTarGzExtractor().Extract(archive, dest); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	manifest, err := os.ReadFile(filepath.Join(dest, "Cargo.toml"))
	if err != nil {
		t.Fatalf("Cargo.toml not extracted at stripped path: %v", err)
	}
	if len(manifest) == 0 {
		t.Fatalf("Cargo.toml extracted empty")
	}

	if _, err := os.Stat(filepath.Join(dest, "src", "lib.rs")); err != nil {
		t.Fatalf("src/lib.rs not extracted: %v", err)
	}
}

func TestTarGzExtractorRejectsPathEscape(t *testing.T) {
	archive := buildTarGz(t, map[string]string{
		"aho-corasick-1.0.2/../../etc/passwd": "evil",
	})

	dest := t.TempDir()
	if err := NewTarGzExtractor().Extract(archive, dest); err == nil {
		t.Fatalf("Extract should reject an entry that escapes the destination directory")
	}
}
