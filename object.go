// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
)

// ErrObjectTruncated is returned when an object's header, section table or
// symbol table runs past the end of its archive member.
var ErrObjectTruncated = errors.New("truncated COFF object")

// ObjectSymbol is a single entry from an object's COFF symbol table,
// resolved against its own section table.
type ObjectSymbol struct {
	Name          string
	IsFunction    bool
	SectionNumber int16
	Value         uint32
	Section       ImageSectionHeader
}

// Object is a headerless COFF object file: an ImageFileHeader, a section
// table and a COFF symbol table, with no DOS/NT/Optional header. This is
// the exact byte layout `ar` stores each archive member in, and it reuses
// the same ImageFileHeader/ImageSectionHeader/COFFSymbol struct layouts
// the PE image reader already parses out of a full executable.
type Object struct {
	FileHeader ImageFileHeader
	Sections   []ImageSectionHeader
	Symbols    []ObjectSymbol
}

// ParseObject parses a single archive member's bytes as a headerless COFF
// object and resolves its symbol table against its section table.
func ParseObject(data []byte) (*Object, error) {
	hdrSize := uint32(binary.Size(ImageFileHeader{}))
	if uint32(len(data)) < hdrSize {
		return nil, ErrObjectTruncated
	}

	var fh ImageFileHeader
	if err := binary.Read(bytes.NewReader(data[:hdrSize]), binary.LittleEndian, &fh); err != nil {
		return nil, err
	}

	obj := &Object{FileHeader: fh}

	secSize := uint32(binary.Size(ImageSectionHeader{}))
	offset := hdrSize
	for i := uint16(0); i < fh.NumberOfSections; i++ {
		if offset+secSize > uint32(len(data)) {
			return nil, ErrObjectTruncated
		}
		var sec ImageSectionHeader
		if err := binary.Read(bytes.NewReader(data[offset:offset+secSize]), binary.LittleEndian, &sec); err != nil {
			return nil, err
		}
		obj.Sections = append(obj.Sections, sec)
		offset += secSize
	}

	if fh.PointerToSymbolTable == 0 || fh.NumberOfSymbols == 0 {
		return obj, nil
	}

	symSize := uint32(binary.Size(COFFSymbol{}))
	symOffset := fh.PointerToSymbolTable
	symbols := make([]COFFSymbol, fh.NumberOfSymbols)
	for i := uint32(0); i < fh.NumberOfSymbols; i++ {
		if symOffset+symSize > uint32(len(data)) {
			return nil, ErrObjectTruncated
		}
		if err := binary.Read(bytes.NewReader(data[symOffset:symOffset+symSize]), binary.LittleEndian, &symbols[i]); err != nil {
			return nil, err
		}
		symOffset += symSize
	}

	strTableOffset := fh.PointerToSymbolTable + symSize*fh.NumberOfSymbols
	stringTable := parseObjectStringTable(data, strTableOffset)

	for _, sym := range symbols {
		name := objectSymbolName(sym, stringTable)
		isFunc := sym.Type == 0x20 && sym.SectionNumber > 0
		var sec ImageSectionHeader
		if isFunc && int(sym.SectionNumber) <= len(obj.Sections) {
			sec = obj.Sections[sym.SectionNumber-1]
		}
		obj.Symbols = append(obj.Symbols, ObjectSymbol{
			Name:          name,
			IsFunction:    isFunc,
			SectionNumber: sym.SectionNumber,
			Value:         sym.Value,
			Section:       sec,
		})
	}

	return obj, nil
}

// SectionData returns the raw bytes a section occupies within the object
// member, bounded by the member's own buffer.
func (o *Object) SectionData(data []byte, sec ImageSectionHeader) []byte {
	start := sec.PointerToRawData
	end := start + sec.SizeOfRawData
	if uint64(end) > uint64(len(data)) || start > end {
		return nil
	}
	return data[start:end]
}

// parseObjectStringTable reads the COFF string table that follows the
// symbol table. Keys are stored relative to the table start, matching the
// convention a long-name symbol record's offset field already uses.
func parseObjectStringTable(data []byte, tableOffset uint32) map[uint32]string {
	m := make(map[uint32]string)
	if tableOffset+4 > uint32(len(data)) {
		return m
	}
	size := binary.LittleEndian.Uint32(data[tableOffset : tableOffset+4])
	if size <= 4 {
		return m
	}
	end := tableOffset + size
	if end > uint32(len(data)) {
		end = uint32(len(data))
	}
	for p := tableOffset + 4; p < end; {
		n := bytes.IndexByte(data[p:end], 0)
		if n < 0 {
			break
		}
		m[p-tableOffset] = string(data[p : p+uint32(n)])
		p += uint32(n) + 1
	}
	return m
}

// objectSymbolName decodes a COFFSymbol's Name union: either an inline
// 8-byte string, or a zero short-word followed by a string-table offset.
func objectSymbolName(sym COFFSymbol, stringTable map[uint32]string) string {
	short := binary.LittleEndian.Uint32(sym.Name[:4])
	if short != 0 {
		return strings.TrimRight(string(sym.Name[:]), "\x00")
	}
	long := binary.LittleEndian.Uint32(sym.Name[4:])
	return stringTable[long]
}
