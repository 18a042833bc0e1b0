// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/jtang613/gopdb/pkg/pdb/codeview"
)

var msfMagic = []byte("Microsoft C/C++ MSF 7.00\r\n\x1aDS\x00\x00\x00")

var (
	// ErrNotPDB is returned when the buffer does not start with the MSF magic.
	ErrNotPDB = errors.New("not an MSF-format debug database")

	// ErrPDBTruncated is returned when the super block, block map or stream
	// directory cannot be fully read.
	ErrPDBTruncated = errors.New("truncated debug database")
)

// msfSuperBlock is the fixed-size header immediately following the magic.
type msfSuperBlock struct {
	BlockSize         uint32
	FreeBlockMapBlock uint32
	NumBlocks         uint32
	NumDirectoryBytes uint32
	Unknown           uint32
	BlockMapAddr      uint32
}

// Fixed MSF stream indices that never carry symbol records: the old
// directory, the PDB info stream, the type-info stream, the DBI stream and
// the IPI (id-info) stream.
// Walking past these avoids feeding non-symbol streams to the CodeView
// parser.
var reservedStreams = map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true}

// DebugDB is a parsed MSF container, split into its component streams and
// ready for CodeView symbol-record parsing.
type DebugDB struct {
	streams [][]byte
}

// OpenDebugDB parses the MSF super block and stream directory of a
// PDB-compatible debug database. Resolving which individual stream holds
// the global-symbol records versus a given module's procedure records
// requires parsing the DBI stream's module substream, a format undocumented
// outside Microsoft's own PDB sources; instead, every non-reserved stream
// is handed to the CodeView parser, and PublicSymbols/ProcedureSymbols
// classify records by kind rather than by stream index. This is more work
// than necessary but cannot silently associate a record with the wrong
// stream.
func OpenDebugDB(data []byte) (*DebugDB, error) {
	if len(data) < len(msfMagic) || !bytes.Equal(data[:len(msfMagic)], msfMagic) {
		return nil, ErrNotPDB
	}

	hdr := data[len(msfMagic):]
	if len(hdr) < 24 {
		return nil, ErrPDBTruncated
	}

	var sb msfSuperBlock
	if err := binary.Read(bytes.NewReader(hdr[:24]), binary.LittleEndian, &sb); err != nil {
		return nil, err
	}
	if sb.BlockSize == 0 {
		return nil, ErrPDBTruncated
	}

	readBlock := func(i uint32) ([]byte, error) {
		start := uint64(i) * uint64(sb.BlockSize)
		end := start + uint64(sb.BlockSize)
		if end > uint64(len(data)) {
			return nil, ErrPDBTruncated
		}
		return data[start:end], nil
	}

	numDirBlocks := (sb.NumDirectoryBytes + sb.BlockSize - 1) / sb.BlockSize
	blockMapBlock, err := readBlock(sb.BlockMapAddr)
	if err != nil {
		return nil, err
	}
	if uint32(len(blockMapBlock)) < numDirBlocks*4 {
		return nil, ErrPDBTruncated
	}

	dirBlockIndices := make([]uint32, numDirBlocks)
	if err := binary.Read(bytes.NewReader(blockMapBlock[:numDirBlocks*4]), binary.LittleEndian, &dirBlockIndices); err != nil {
		return nil, err
	}

	var dirBytes []byte
	for _, bi := range dirBlockIndices {
		b, err := readBlock(bi)
		if err != nil {
			return nil, err
		}
		dirBytes = append(dirBytes, b...)
	}
	if uint32(len(dirBytes)) < sb.NumDirectoryBytes {
		return nil, ErrPDBTruncated
	}
	dirBytes = dirBytes[:sb.NumDirectoryBytes]

	r := bytes.NewReader(dirBytes)
	var numStreams uint32
	if err := binary.Read(r, binary.LittleEndian, &numStreams); err != nil {
		return nil, err
	}

	streamSizes := make([]uint32, numStreams)
	if err := binary.Read(r, binary.LittleEndian, &streamSizes); err != nil {
		return nil, err
	}

	db := &DebugDB{streams: make([][]byte, numStreams)}
	for i, size := range streamSizes {
		if size == 0 || size == 0xFFFFFFFF {
			continue
		}
		numBlocks := (size + sb.BlockSize - 1) / sb.BlockSize
		blockIndices := make([]uint32, numBlocks)
		if err := binary.Read(r, binary.LittleEndian, &blockIndices); err != nil {
			return nil, err
		}

		var streamBytes []byte
		for _, bi := range blockIndices {
			b, err := readBlock(bi)
			if err != nil {
				return nil, err
			}
			streamBytes = append(streamBytes, b...)
		}
		if uint32(len(streamBytes)) < size {
			return nil, ErrPDBTruncated
		}
		db.streams[i] = streamBytes[:size]
	}

	return db, nil
}

// PublicSymbol is a CodeView S_PUB32 record: an exported/public name at a
// (segment, offset).
type PublicSymbol struct {
	Name    string
	Segment uint16
	Offset  uint32
}

// ProcedureSymbol is a CodeView S_GPROC32/S_LPROC32 record: a function
// definition at a (segment, offset) with a known length.
type ProcedureSymbol struct {
	Name    string
	Segment uint16
	Offset  uint32
	Length  uint32
}

// PublicSymbols returns every S_PUB32 record found across all streams.
func (db *DebugDB) PublicSymbols() []PublicSymbol {
	var out []PublicSymbol
	for i, s := range db.streams {
		if reservedStreams[i] || len(s) == 0 {
			continue
		}
		records, err := codeview.ParseSymbols(s)
		if err != nil {
			continue
		}
		for _, rec := range records {
			if !codeview.IsGlobalSymbol(rec.Kind) {
				continue
			}
			pub, err := codeview.ParsePubSym(rec.Data)
			if err != nil {
				continue
			}
			out = append(out, PublicSymbol{Name: pub.Name, Segment: pub.Segment, Offset: pub.Offset})
		}
	}
	return out
}

// ProcedureSymbols returns every S_GPROC32/S_LPROC32 record found across
// all streams.
func (db *DebugDB) ProcedureSymbols() []ProcedureSymbol {
	var out []ProcedureSymbol
	for i, s := range db.streams {
		if reservedStreams[i] || len(s) == 0 {
			continue
		}
		records, err := codeview.ParseSymbols(s)
		if err != nil {
			continue
		}
		for _, rec := range records {
			if !codeview.IsProcSymbol(rec.Kind) {
				continue
			}
			proc, err := codeview.ParseProcSym(rec.Data)
			if err != nil {
				continue
			}
			out = append(out, ProcedureSymbol{
				Name:    proc.Name,
				Segment: proc.Segment,
				Offset:  proc.Offset,
				Length:  proc.Length,
			})
		}
	}
	return out
}
