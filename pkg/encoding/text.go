// Package encoding decodes text stored in binary scene files.
package encoding

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DecodeName converts a stored name to UTF-8. Files written by older tools
// hold names in the platform code page; anything that is not valid UTF-8
// is read as Windows-1252. Returns the raw bytes as a string if decoding
// fails.
func DecodeName(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// CString decodes a NUL-terminated name from the start of data.
func CString(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return DecodeName(data)
}

// EncodeName converts a UTF-8 name to Windows-1252, the inverse of
// DecodeName for names outside ASCII. Returns the input bytes if the name
// has no Windows-1252 representation.
func EncodeName(s string) []byte {
	result, _, err := transform.Bytes(charmap.Windows1252.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}
