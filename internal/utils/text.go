package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalidEncoding indicates that input bytes are not valid UTF-8 text.
var ErrInvalidEncoding = errors.New("input is not valid UTF-8")

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// DecodeText converts data to a string, dropping a leading UTF-8 byte order mark.
// Data that is not valid UTF-8 is rejected; no fallback encoding is attempted.
func DecodeText(data []byte) (string, error) {
	trimmed := bytes.TrimPrefix(data, byteOrderMark)
	if !utf8.Valid(trimmed) {
		return "", fmt.Errorf("%w: invalid byte sequence at offset %d", ErrInvalidEncoding, firstInvalidOffset(trimmed)+len(data)-len(trimmed))
	}
	return string(trimmed), nil
}

func firstInvalidOffset(data []byte) int {
	offset := 0
	for offset < len(data) {
		decodedRune, runeSize := utf8.DecodeRune(data[offset:])
		if decodedRune == utf8.RuneError && runeSize <= 1 {
			return offset
		}
		offset += runeSize
	}
	return offset
}

// FormatFileSize renders a byte count using lower-case binary units, e.g. "512b" or "1.5kb".
func FormatFileSize(byteCount int64) string {
	if byteCount < 0 {
		byteCount = 0
	}
	units := []string{"b", "kb", "mb", "gb", "tb"}
	value := float64(byteCount)
	unitIndex := 0
	for value >= 1024 && unitIndex < len(units)-1 {
		value /= 1024
		unitIndex++
	}
	if unitIndex == 0 {
		return fmt.Sprintf("%d%s", byteCount, units[unitIndex])
	}
	if value < 10 {
		return strings.TrimSuffix(fmt.Sprintf("%.1f", value), ".0") + units[unitIndex]
	}
	return fmt.Sprintf("%.0f%s", value, units[unitIndex])
}
