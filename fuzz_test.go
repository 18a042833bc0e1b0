package pe

import "testing"

// FuzzParse exercises the full header/data-directory parse path against
// arbitrary bytes. A crash here is the bug; a non-nil error is expected
// for most inputs and is not itself a failure.
func FuzzParse(f *testing.F) {
	f.Add([]byte("MZ"))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		file, err := NewBytes(data, &Options{Fast: false, SectionEntropy: true})
		if err != nil {
			return
		}
		_ = file.Parse()
	})
}
