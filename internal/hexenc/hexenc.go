// Package hexenc converts between raw byte strings and the lowercase hex
// text stored in credential and session columns.
package hexenc

import "encoding/hex"

// Encode returns the lowercase hex representation of b.
func Encode(b []byte) string {
	return hex.EncodeToString(b)
}

// Decode parses a hex string back into bytes. Odd-length input or a non-hex
// digit yields an error; callers treat that as a failed match, never as a
// wildcard value.
func Decode(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
