package hash

import "github.com/glaslos/ssdeep"

// MinFuncBytes is the minimum normalized length a function body must reach
// before it gets hashed; a CTPH signature of a tiny chunk carries almost no
// discriminative power and mostly generates noise matches.
const MinFuncBytes = 20

// FuzzyFunction pairs an ssdeep signature with enough of the originating
// Function to report a match: its RVA in the target, or its name when it
// came from a rebuilt dependency.
type FuzzyFunction struct {
	RVA  uint32
	Name string
	Hash string
}

// Hash normalizes data and, once it clears MinFuncBytes, computes its
// ssdeep signature. The second return value is false for bodies too short
// to hash, which callers drop rather than propagate as an error.
func Hash(data []byte, rva uint32, name string) (FuzzyFunction, bool) {
	normalized := Normalize(data)
	if len(normalized) < MinFuncBytes {
		return FuzzyFunction{}, false
	}

	sig, err := ssdeep.FuzzyBytes(normalized)
	if err != nil {
		return FuzzyFunction{}, false
	}

	return FuzzyFunction{RVA: rva, Name: name, Hash: sig}, true
}

// Similarity returns the 0-100 ssdeep similarity score between two
// signatures produced by Hash. A comparison error (mismatched chunk sizes,
// malformed signature) reports as zero similarity rather than propagating,
// since the matcher treats "no match" and "couldn't compare" identically.
func Similarity(a, b string) int {
	score, err := ssdeep.Compare(a, b)
	if err != nil {
		return 0
	}
	return score
}
