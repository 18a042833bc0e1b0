package hash

import "testing"

func TestHashDropsShortBodies(t *testing.T) {
	data := make([]byte, 5)
	for i := range data {
		data[i] = 0x90
	}
	if _, ok := Hash(data, 0, "tiny"); ok {
		t.Fatalf("Hash should drop a body normalizing below MinFuncBytes")
	}
}

func TestHashAcceptsLongBody(t *testing.T) {
	data := make([]byte, MinFuncBytes+10)
	for i := range data {
		data[i] = 0x90
	}
	fn, ok := Hash(data, 0x1000, "long_enough")
	if !ok {
		t.Fatalf("Hash should accept a body at/above MinFuncBytes")
	}
	if fn.Hash == "" {
		t.Fatalf("Hash returned an empty signature")
	}
	if fn.RVA != 0x1000 || fn.Name != "long_enough" {
		t.Fatalf("Hash did not preserve RVA/Name: %+v", fn)
	}
}

func TestSimilarityIdenticalIsMax(t *testing.T) {
	data := make([]byte, MinFuncBytes+40)
	for i := range data {
		data[i] = 0x90
	}
	a, ok := Hash(data, 0, "a")
	if !ok {
		t.Fatalf("Hash failed unexpectedly")
	}
	score := Similarity(a.Hash, a.Hash)
	if score != 100 {
		t.Fatalf("Similarity(x, x) = %d, want 100", score)
	}
}
