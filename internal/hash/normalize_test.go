package hash

import "testing"

func TestNormalizeCollapsesCall(t *testing.T) {
	// call $+5 (E8 00 00 00 00), then nop (90).
	data := []byte{0xE8, 0x00, 0x00, 0x00, 0x00, 0x90}
	got := Normalize(data)
	want := []byte{0xE8, 0x90}
	if string(got) != string(want) {
		t.Fatalf("Normalize(call;nop) = % x, want % x", got, want)
	}
}

func TestNormalizeCollapsesJmp(t *testing.T) {
	// jmp $+5 (E9 00 00 00 00), then nop.
	data := []byte{0xE9, 0x00, 0x00, 0x00, 0x00, 0x90}
	got := Normalize(data)
	want := []byte{0xE9, 0x90}
	if string(got) != string(want) {
		t.Fatalf("Normalize(jmp;nop) = % x, want % x", got, want)
	}
}

func TestNormalizeNoOpIsByteIdentity(t *testing.T) {
	// Three nops carry no call/jmp/RIP-relative operand.
	data := []byte{0x90, 0x90, 0x90}
	got := Normalize(data)
	if string(got) != string(data) {
		t.Fatalf("Normalize(nops) = % x, want % x", got, data)
	}
}

func TestNormalizeStopsAfterTwoTerminators(t *testing.T) {
	// nop, int3, int3, nop -- decoding should stop at the second int3 and
	// never reach the trailing nop.
	data := []byte{0x90, 0xCC, 0xCC, 0x90}
	got := Normalize(data)
	if len(got) != 3 {
		t.Fatalf("Normalize(nop;int3;int3;nop) produced %d bytes, want 3 (stop before trailing nop)", len(got))
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	// The collapsed call leaves a bare 0xE8 with only two nops after it,
	// too few bytes to decode as a call, so a second pass copies it through
	// unchanged.
	data := []byte{0xE8, 0x00, 0x00, 0x00, 0x00, 0x90, 0x90}
	once := Normalize(data)
	twice := Normalize(once)
	if string(once) != string(twice) {
		t.Fatalf("Normalize is not idempotent: once=% x twice=% x", once, twice)
	}
}
