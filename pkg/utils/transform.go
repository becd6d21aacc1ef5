package utils

import (
	"encoding/hex"
	"strings"
)

// Dedup trims trailing slashes and drops repeated entries, keeping first-seen order.
func Dedup(in []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, e := range in {
		e = strings.TrimRight(e, "/")
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

// ParseHash32 decodes a 64 character hex string into a 32 byte hash.
func ParseHash32(s string) ([32]byte, bool) {
	var out [32]byte
	if len(s) != hex.EncodedLen(len(out)) {
		return out, false
	}
	if _, err := hex.Decode(out[:], []byte(s)); err != nil {
		return out, false
	}
	return out, true
}
