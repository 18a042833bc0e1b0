// Package match compares a target's hashed functions against a rebuilt
// dependency's name index and reports which names recovered above a
// similarity threshold.
package match

import (
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ariane-re/ariane/internal/hash"
)

// NameIndex maps an ssdeep signature (as produced by internal/hash) to the
// function name it came from, built from a rebuilt dependency's library
// and debug-database extraction.
type NameIndex []hash.FuzzyFunction

// RecoveredSymbol is one target function matched back to a name.
type RecoveredSymbol struct {
	RVA        uint32
	Name       string
	Similarity int
}

// Match compares every target function against every index entry and
// keeps every candidate scoring above threshold, not just the best one:
// two differently-named library functions can both legitimately match
// the same target function, and both must surface. Each target function
// is read-only against a read-only index, so the comparison fans out
// over a bounded worker pool.
func Match(target []hash.FuzzyFunction, index NameIndex, threshold int) []RecoveredSymbol {
	perTarget := make([][]RecoveredSymbol, len(target))

	g := new(errgroup.Group)
	g.SetLimit(8)

	for i, fn := range target {
		i, fn := i, fn
		g.Go(func() error {
			var matches []RecoveredSymbol
			for _, candidate := range index {
				score := hash.Similarity(fn.Hash, candidate.Hash)
				if score > threshold {
					matches = append(matches, RecoveredSymbol{
						RVA:        fn.RVA,
						Name:       candidate.Name,
						Similarity: score,
					})
				}
			}
			perTarget[i] = matches
			return nil
		})
	}
	_ = g.Wait()

	var out []RecoveredSymbol
	for _, matches := range perTarget {
		out = append(out, matches...)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].RVA != out[j].RVA {
			return out[i].RVA < out[j].RVA
		}
		return out[i].Name < out[j].Name
	})

	return out
}
