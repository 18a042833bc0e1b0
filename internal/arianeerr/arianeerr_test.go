package arianeerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfUnwraps(t *testing.T) {
	base := errors.New("network reset")
	wrapped := Wrap(DownloadFailed, "rebuild.Download", "aho-corasick", base)
	outer := fmt.Errorf("fetch failed: %w", wrapped)

	kind, ok := KindOf(outer)
	if !ok {
		t.Fatalf("KindOf should find the *Error through an fmt.Errorf wrap")
	}
	if kind != DownloadFailed {
		t.Fatalf("KindOf = %v, want DownloadFailed", kind)
	}
}

func TestKindOfNonArianeError(t *testing.T) {
	if _, ok := KindOf(errors.New("plain error")); ok {
		t.Fatalf("KindOf should report false for an error ariane did not originate")
	}
}

func TestFatalClassification(t *testing.T) {
	recoverable := []Kind{DownloadFailed, NoMetadata, NonExistentVersion, CompileFailed, AddressNotInAnySection}
	for _, k := range recoverable {
		if Fatal(k) {
			t.Errorf("Fatal(%v) = true, want false (per-dependency recoverable)", k)
		}
	}

	fatal := []Kind{InvalidInput, IO, NoCompilerFingerprint, NoToolchainResolution, ToolchainInstallFailed}
	for _, k := range fatal {
		if !Fatal(k) {
			t.Errorf("Fatal(%v) = false, want true", k)
		}
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Wrap(IO, "pipeline.MkdirAll", "/tmp/ariane", errors.New("permission denied"))
	msg := err.Error()
	if msg == "" {
		t.Fatalf("Error() returned empty string")
	}
}
