package scan

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNotUTF8 is returned when a file cannot be decoded as UTF-8 text.
// The caller skips the file with a warning; the run continues.
var ErrNotUTF8 = errors.New("content is not valid UTF-8")

// utf16BOMs are byte-order marks that identify UTF-16 encoded files.
// The corpus is assumed UTF-8; UTF-16 files are an encoding failure
// rather than something to transcode silently.
var utf16BOMs = [][]byte{
	{0xFF, 0xFE},
	{0xFE, 0xFF},
}

// Decode validates data as UTF-8 text and strips a leading byte-order
// mark if present. It returns ErrNotUTF8 for UTF-16 content or byte
// sequences that are not valid UTF-8.
func Decode(data []byte) ([]byte, error) {
	for _, bom := range utf16BOMs {
		if bytes.HasPrefix(data, bom) {
			return nil, ErrNotUTF8
		}
	}

	// Validate before transforming: the decoder substitutes U+FFFD for
	// invalid bytes rather than failing.
	if !utf8.Valid(data) {
		return nil, ErrNotUTF8
	}

	out, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), data)
	if err != nil {
		return nil, ErrNotUTF8
	}
	return out, nil
}
