// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "testing"

func TestParseObjectTruncated(t *testing.T) {
	_, err := ParseObject([]byte{1, 2, 3})
	if err != ErrObjectTruncated {
		t.Fatalf("got %v, want ErrObjectTruncated", err)
	}
}

func TestParseObjectNoSections(t *testing.T) {
	// A minimal ImageFileHeader (20 bytes) declaring zero sections and no
	// symbol table.
	data := make([]byte, 20)
	data[2] = 0 // NumberOfSections low byte

	obj, err := ParseObject(data)
	if err != nil {
		t.Fatalf("ParseObject failed: %v", err)
	}
	if len(obj.Sections) != 0 {
		t.Fatalf("got %d sections, want 0", len(obj.Sections))
	}
	if len(obj.Symbols) != 0 {
		t.Fatalf("got %d symbols, want 0", len(obj.Symbols))
	}
}
