package match

import (
	"testing"

	"github.com/ariane-re/ariane/internal/hash"
)

func TestMatchDropsBelowThreshold(t *testing.T) {
	target := []hash.FuzzyFunction{{RVA: 0x1000, Hash: "3:AAAA:AAAA"}}
	index := NameIndex{{Name: "unrelated", Hash: "3:ZZZZ:ZZZZ"}}

	got := Match(target, index, 101)
	if len(got) != 0 {
		t.Fatalf("Match with an unreachable threshold returned %d results, want 0", len(got))
	}
}

func TestMatchKeepsIdenticalHash(t *testing.T) {
	sig := "3:AAAAAAAAAA:AAAAAAAAAA"
	target := []hash.FuzzyFunction{{RVA: 0x2000, Hash: sig}}
	index := NameIndex{{Name: "known_func", Hash: sig}}

	got := Match(target, index, 25)
	if len(got) != 1 {
		t.Fatalf("Match found %d results, want 1: %+v", len(got), got)
	}
	if got[0].Name != "known_func" || got[0].RVA != 0x2000 {
		t.Fatalf("unexpected match: %+v", got[0])
	}
	if got[0].Similarity != 100 {
		t.Fatalf("Similarity = %d, want 100 for an identical signature", got[0].Similarity)
	}
}

func TestMatchEmitsEveryCandidateAboveThreshold(t *testing.T) {
	sig := "3:AAAAAAAAAA:AAAAAAAAAA"
	target := []hash.FuzzyFunction{{RVA: 0x4000, Hash: sig}}
	index := NameIndex{
		{Name: "lib_func_a", Hash: sig},
		{Name: "lib_func_b", Hash: sig},
	}

	got := Match(target, index, 25)
	if len(got) != 2 {
		t.Fatalf("Match found %d results, want 2 (both library functions share one target match): %+v", len(got), got)
	}
	if got[0].Name == got[1].Name {
		t.Fatalf("both matches report the same name: %+v", got)
	}
	for _, m := range got {
		if m.RVA != 0x4000 {
			t.Fatalf("unexpected RVA on match: %+v", m)
		}
	}
}

func TestMatchThresholdIsStrictlyGreaterThan(t *testing.T) {
	target := []hash.FuzzyFunction{{RVA: 0x5000, Hash: "3:AAAA:AAAA"}}
	index := NameIndex{{Name: "borderline", Hash: "3:AAAA:AAAA"}}

	// Identical hashes score 100, not useful for a boundary check, so use
	// Similarity itself to find a threshold the pair actually lands on.
	score := hash.Similarity(target[0].Hash, index[0].Hash)

	got := Match(target, index, score)
	if len(got) != 0 {
		t.Fatalf("Match(threshold=score=%d) returned %d results, want 0: score must be strictly greater than threshold", score, len(got))
	}

	got = Match(target, index, score-1)
	if len(got) != 1 {
		t.Fatalf("Match(threshold=score-1=%d) returned %d results, want 1", score-1, len(got))
	}
}

func TestMatchSortedByRVA(t *testing.T) {
	sig := "3:AAAAAAAAAA:AAAAAAAAAA"
	target := []hash.FuzzyFunction{
		{RVA: 0x3000, Hash: sig},
		{RVA: 0x1000, Hash: sig},
	}
	index := NameIndex{{Name: "f", Hash: sig}}

	got := Match(target, index, 25)
	if len(got) != 2 {
		t.Fatalf("Match found %d results, want 2", len(got))
	}
	if got[0].RVA > got[1].RVA {
		t.Fatalf("Match results not sorted by RVA: %+v", got)
	}
}
