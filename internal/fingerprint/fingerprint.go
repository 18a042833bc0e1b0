// Package fingerprint recovers the exact compiler build that produced a
// target and resolves it to a human-readable toolchain release tag.
package fingerprint

import "regexp"

// CommitHash is the 40-character hex compiler build identifier the
// toolchain embeds in every binary it produces.
type CommitHash string

var commitPattern = regexp.MustCompile(`rustc/([0-9a-f]{40})`)

// Scan searches raw target bytes for an embedded `rustc/<40-hex>` marker.
// It reports the first match; a target built by a single toolchain never
// carries more than one.
func Scan(data []byte) (CommitHash, bool) {
	m := commitPattern.FindSubmatch(data)
	if m == nil {
		return "", false
	}
	return CommitHash(m[1]), true
}
