package fingerprint

import "testing"

func TestScanFindsCommit(t *testing.T) {
	commit := "a28077b28a02b92985b3a3faecf92813c18bc620"
	data := []byte("noise before rustc/" + commit + "/library/std/src/lib.rs noise after")

	got, ok := Scan(data)
	if !ok {
		t.Fatalf("Scan should find the embedded commit marker")
	}
	if string(got) != commit {
		t.Fatalf("Scan = %q, want %q", got, commit)
	}
}

func TestScanNoMarker(t *testing.T) {
	if _, ok := Scan([]byte("nothing interesting here")); ok {
		t.Fatalf("Scan should report false when no rustc/<hash> marker is present")
	}
}

func TestScanRejectsShortHash(t *testing.T) {
	data := []byte("rustc/deadbeef/library/std/src/lib.rs")
	if _, ok := Scan(data); ok {
		t.Fatalf("Scan should reject a hash shorter than 40 hex characters")
	}
}
