// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
)

var archiveMagic = []byte("!<arch>\n")

var (
	// ErrNotArchive is returned when the buffer does not start with the
	// `!<arch>\n` magic.
	ErrNotArchive = errors.New("not an ar-style archive")

	// ErrArchiveTruncated is returned when a member header or its payload
	// runs past the end of the buffer.
	ErrArchiveTruncated = errors.New("truncated archive member header")
)

const archiveMemberHeaderSize = 60

// ArchiveMember is one named byte range inside a static-library archive.
type ArchiveMember struct {
	Name string
	Data []byte
}

// Archive is a parsed `!<arch>\n` static library (.lib produced by a
// release build with crate-type = ["staticlib"]). Each member is an
// MS-COFF object file, parseable by ParseObject.
type Archive struct {
	Members []ArchiveMember
}

// ParseArchive walks the SVR4/System V `ar` container: a fixed 60-byte
// member header (name, mtime, uid, gid, mode, size, end-of-header magic)
// followed by the member's bytes, padded to an even offset. Names longer
// than 16 bytes are stored in a `//` long-name-table member and referenced
// by later members as `/<offset>`.
func ParseArchive(data []byte) (*Archive, error) {
	if len(data) < len(archiveMagic) || !bytes.Equal(data[:len(archiveMagic)], archiveMagic) {
		return nil, ErrNotArchive
	}

	ar := &Archive{}
	var longNames string
	offset := len(archiveMagic)

	for offset+archiveMemberHeaderSize <= len(data) {
		hdr := data[offset : offset+archiveMemberHeaderSize]
		offset += archiveMemberHeaderSize

		name := strings.TrimRight(string(hdr[0:16]), " ")
		sizeField := strings.TrimSpace(string(hdr[48:58]))
		size, err := strconv.ParseUint(sizeField, 10, 64)
		if err != nil {
			return nil, ErrArchiveTruncated
		}

		if offset+int(size) > len(data) {
			return nil, ErrArchiveTruncated
		}
		memberData := data[offset : offset+int(size)]
		offset += int(size)
		if size%2 == 1 && offset < len(data) {
			// Members are padded to a 2-byte boundary with a trailing '\n'.
			offset++
		}

		switch {
		case name == "//":
			longNames = string(memberData)
			continue
		case name == "/" || name == "/SYM64/":
			// Symbol index member; not a member we extract functions from.
			continue
		case strings.HasPrefix(name, "/"):
			idx, err := strconv.Atoi(strings.TrimRight(name[1:], "/"))
			if err != nil || idx < 0 || idx >= len(longNames) {
				break
			}
			end := strings.IndexAny(longNames[idx:], "/\n")
			if end >= 0 {
				name = longNames[idx : idx+end]
			} else {
				name = longNames[idx:]
			}
		default:
			name = strings.TrimSuffix(name, "/")
		}

		ar.Members = append(ar.Members, ArchiveMember{Name: name, Data: memberData})
	}

	return ar, nil
}
