package core

// encoding.go normalizes uploaded spreadsheet text to UTF-8.
//
// Files exported by Excel on Windows arrive either as UTF-8 with a byte
// order mark or as Windows-1252. Both are turned into plain UTF-8 before
// any CSV parsing.

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeText strips a BOM and returns UTF-8 text. Input that is not valid
// UTF-8 and has no BOM is decoded as Windows-1252.
func DecodeText(data []byte) ([]byte, error) {
	fallback := encoding.Nop.NewDecoder()
	if !utf8.Valid(data) {
		fallback = charmap.Windows1252.NewDecoder()
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(fallback), data)
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}
	return out, nil
}
