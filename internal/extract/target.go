package extract

import (
	pe "github.com/ariane-re/ariane"
)

// DefaultMinFuncBytes is the minimum post-extraction function size; bodies
// shorter than this are dropped as noise.
const DefaultMinFuncBytes = 20

// invalidOffset is the sentinel pe.GetOffsetFromRva returns when an RVA
// lies in no section and is not below the file size; an RVA in no section
// but below the file size comes back unchanged.
const invalidOffset = ^uint32(0)

// FromTarget walks the target's exception/unwind directory. Both ends of
// each entry translate RVA to file offset; the lenient sum-based sanity
// check (`start_pa + end_pa < file_size`) is carried over unchanged from
// the original tool rather than "fixed", since tightening it would change
// which functions are extracted.
func FromTarget(img *pe.File, minFuncBytes uint32) ([]Function, error) {
	if minFuncBytes == 0 {
		minFuncBytes = DefaultMinFuncBytes
	}

	fileSize := img.Size()
	var out []Function

	for _, exc := range img.Exceptions {
		beginRVA := exc.RuntimeFunction.BeginAddress
		endRVA := exc.RuntimeFunction.EndAddress
		if endRVA <= beginRVA {
			continue
		}

		startPA := img.GetOffsetFromRva(beginRVA)
		endPA := img.GetOffsetFromRva(endRVA)
		if startPA == invalidOffset || endPA == invalidOffset {
			continue
		}
		if startPA+endPA >= fileSize {
			continue
		}
		if endPA <= startPA {
			continue
		}

		data, err := img.ReadBytesAtOffset(startPA, endPA-startPA)
		if err != nil {
			continue
		}
		if uint32(len(data)) < minFuncBytes {
			continue
		}

		out = append(out, Function{
			Origin: Target,
			Data:   data,
			RVA:    beginRVA,
		})
	}

	return out, nil
}
