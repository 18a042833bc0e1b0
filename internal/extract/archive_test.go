package extract

import (
	"bytes"
	"encoding/binary"
	"testing"

	pe "github.com/ariane-re/ariane"
)

// buildCOFFObject assembles a minimal headerless COFF object with one
// section and one function symbol, matching the byte layout pe.ParseObject
// expects: file header, section table, section data, symbol table.
func buildCOFFObject(t *testing.T, symbolName string, sectionData []byte) []byte {
	t.Helper()

	const hdrSize = 20 // ImageFileHeader is 20 bytes on the wire
	const secHdrSize = 40
	const symSize = 18

	sectionOffset := uint32(hdrSize + secHdrSize)
	symTableOffset := sectionOffset + uint32(len(sectionData))

	var buf bytes.Buffer

	fh := pe.ImageFileHeader{
		Machine:              0x8664,
		NumberOfSections:     1,
		PointerToSymbolTable: symTableOffset,
		NumberOfSymbols:      1,
	}
	if err := binary.Write(&buf, binary.LittleEndian, fh); err != nil {
		t.Fatalf("write file header: %v", err)
	}

	var name [8]byte
	copy(name[:], ".text")
	sec := pe.ImageSectionHeader{
		Name:             name,
		SizeOfRawData:    uint32(len(sectionData)),
		PointerToRawData: sectionOffset,
	}
	if err := binary.Write(&buf, binary.LittleEndian, sec); err != nil {
		t.Fatalf("write section header: %v", err)
	}

	buf.Write(sectionData)

	var symName [8]byte
	copy(symName[:], symbolName)
	sym := pe.COFFSymbol{
		Name:          symName,
		SectionNumber: 1,
		Type:          0x20, // function
	}
	if err := binary.Write(&buf, binary.LittleEndian, sym); err != nil {
		t.Fatalf("write symbol: %v", err)
	}

	out := buf.Bytes()
	if len(out) != int(symTableOffset)+symSize {
		t.Fatalf("unexpected object length %d, want %d", len(out), symTableOffset+symSize)
	}
	return out
}

func TestFromArchiveEmitsFunctionSymbols(t *testing.T) {
	body := bytes.Repeat([]byte{0x90}, 32)
	obj := buildCOFFObject(t, "do_work", body)

	ar := &pe.Archive{Members: []pe.ArchiveMember{{Name: "do_work.o", Data: obj}}}

	funcs, err := FromArchive(ar)
	if err != nil {
		t.Fatalf("FromArchive returned error: %v", err)
	}
	if len(funcs) != 1 {
		t.Fatalf("FromArchive returned %d functions, want 1: %+v", len(funcs), funcs)
	}
	if funcs[0].Name != "do_work" {
		t.Fatalf("Name = %q, want do_work", funcs[0].Name)
	}
	if funcs[0].Origin != Library {
		t.Fatalf("Origin = %v, want Library", funcs[0].Origin)
	}
	if !bytes.Equal(funcs[0].Data, body) {
		t.Fatalf("Data = %v, want %v", funcs[0].Data, body)
	}
}

func TestFromArchiveSkipsUnparsableMembers(t *testing.T) {
	ar := &pe.Archive{Members: []pe.ArchiveMember{{Name: "garbage.o", Data: []byte{1, 2, 3}}}}

	funcs, err := FromArchive(ar)
	if err != nil {
		t.Fatalf("FromArchive returned error: %v", err)
	}
	if len(funcs) != 0 {
		t.Fatalf("FromArchive returned %d functions for a truncated member, want 0", len(funcs))
	}
}

func TestFromArchiveSkipsDataSymbols(t *testing.T) {
	body := bytes.Repeat([]byte{0x90}, 32)
	// buildCOFFObject always marks its symbol as a function (Type 0x20);
	// flip the Type field to zero here to exercise the non-function skip
	// path. Symbol record layout is Name[8] Value(4) SectionNumber(2)
	// Type(2) StorageClass(1) NumberOfAuxSymbols(1), so Type sits at
	// offset 14..16 within the trailing 18-byte symbol record.
	obj := buildCOFFObject(t, "a_global", body)
	obj[len(obj)-4] = 0
	obj[len(obj)-3] = 0

	ar := &pe.Archive{Members: []pe.ArchiveMember{{Name: "data.o", Data: obj}}}
	funcs, err := FromArchive(ar)
	if err != nil {
		t.Fatalf("FromArchive returned error: %v", err)
	}
	if len(funcs) != 0 {
		t.Fatalf("FromArchive returned %d functions for a non-function symbol, want 0: %+v", len(funcs), funcs)
	}
}
