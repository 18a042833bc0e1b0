// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "testing"

func TestOpenDebugDBRejectsBadMagic(t *testing.T) {
	_, err := OpenDebugDB([]byte("not a pdb"))
	if err != ErrNotPDB {
		t.Fatalf("got %v, want ErrNotPDB", err)
	}
}

func TestOpenDebugDBTruncatedHeader(t *testing.T) {
	data := append([]byte{}, msfMagic...)
	data = append(data, 0, 0, 0) // fewer than 24 header bytes
	_, err := OpenDebugDB(data)
	if err != ErrPDBTruncated {
		t.Fatalf("got %v, want ErrPDBTruncated", err)
	}
}
