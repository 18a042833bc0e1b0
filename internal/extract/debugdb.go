package extract

import (
	"sort"

	pe "github.com/ariane-re/ariane"
)

// symbolRef is a debug-database symbol resolved to a position in the
// rebuilt dependency's own image, ready to be sorted and sliced.
type symbolRef struct {
	fileOffset uint32
	rva        uint32
	name       string
}

// FromDebugDB walks a rebuilt dependency's public and per-module procedure
// symbols, resolves each (segment, offset) pair against the accompanying
// image's section table, dedups by file offset (first occurrence wins,
// since public and procedure symbols frequently name the same address
// twice), sorts ascending, and slices each function's body up to the next
// symbol's file offset. The padding-trim rule then absorbs whatever
// compiler padding landed inside that span.
func FromDebugDB(db *pe.DebugDB, image []byte, sections []pe.Section) ([]Function, error) {
	seen := make(map[uint32]bool)
	var symbols []symbolRef

	add := func(segment uint16, offset uint32, name string) {
		if segment == 0 || int(segment) > len(sections) {
			return
		}
		hdr := sections[segment-1].Header
		fileOffset := hdr.PointerToRawData + offset
		if seen[fileOffset] {
			return
		}
		seen[fileOffset] = true
		symbols = append(symbols, symbolRef{
			fileOffset: fileOffset,
			rva:        hdr.VirtualAddress + offset,
			name:       name,
		})
	}

	for _, pub := range db.PublicSymbols() {
		add(pub.Segment, pub.Offset, pub.Name)
	}
	for _, proc := range db.ProcedureSymbols() {
		add(proc.Segment, proc.Offset, proc.Name)
	}

	sort.Slice(symbols, func(i, j int) bool { return symbols[i].fileOffset < symbols[j].fileOffset })

	imageSize := uint32(len(image))
	var out []Function
	for i, sym := range symbols {
		if sym.fileOffset >= imageSize {
			continue
		}

		end := imageSize
		if i+1 < len(symbols) && symbols[i+1].fileOffset < end {
			end = symbols[i+1].fileOffset
		}
		if end <= sym.fileOffset {
			continue
		}

		body := image[sym.fileOffset:end]
		size := TrimPadding(body)
		if size == 0 {
			continue
		}

		out = append(out, Function{
			Origin: DebugDB,
			Data:   body[:size],
			Name:   sym.name,
		})
	}

	return out, nil
}
