package perf

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// EncodeUnicodeText returns s as NUL-terminated UTF-16LE, the payload of a
// PERF_TEXT_UNICODE counter.
func EncodeUnicodeText(s string) ([]byte, error) {
	b, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode utf-16: %w", err)
	}
	return append(b, 0, 0), nil
}

// DecodeUnicodeText decodes NUL-terminated UTF-16LE text. Bytes after the first
// terminator are ignored; a missing terminator is an error.
func DecodeUnicodeText(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", ErrBadSize
	}
	end := -1
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			end = i
			break
		}
	}
	if end < 0 {
		return "", ErrStringFormat
	}
	s, err := utf16le.NewDecoder().Bytes(b[:end])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStringFormat, err)
	}
	return string(s), nil
}

// DecodeASCIIText decodes a PERF_TEXT_ASCII value, trimming trailing NULs.
// Bytes above 0x7f are read as Windows-1252, the usual code page of such counters.
func DecodeASCIIText(b []byte) (string, error) {
	b = bytes.TrimRight(b, "\x00")
	s, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStringFormat, err)
	}
	return string(s), nil
}
