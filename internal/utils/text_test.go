package utils_test

import (
	"errors"
	"testing"

	"github.com/temirov/unbundle/internal/utils"
)

func TestDecodeText(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		input         []byte
		expected      string
		expectedError error
	}{
		{name: "plain text", input: []byte("File: a\n"), expected: "File: a\n"},
		{name: "byte order mark dropped", input: append([]byte{0xEF, 0xBB, 0xBF}, []byte("ñ")...), expected: "ñ"},
		{name: "invalid sequence", input: []byte{'a', 0xff, 'b'}, expectedError: utils.ErrInvalidEncoding},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			decoded, err := utils.DecodeText(testCase.input)
			if testCase.expectedError != nil {
				if !errors.Is(err, testCase.expectedError) {
					t.Fatalf("expected error %v, got %v", testCase.expectedError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeText error: %v", err)
			}
			if decoded != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, decoded)
			}
		})
	}
}

func TestFormatFileSize(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    int64
		expected string
	}{
		{input: -1, expected: "0b"},
		{input: 0, expected: "0b"},
		{input: 512, expected: "512b"},
		{input: 1024, expected: "1kb"},
		{input: 1536, expected: "1.5kb"},
		{input: 20 * 1024, expected: "20kb"},
		{input: 3 * 1024 * 1024, expected: "3mb"},
	}
	for _, testCase := range testCases {
		if actual := utils.FormatFileSize(testCase.input); actual != testCase.expected {
			t.Fatalf("FormatFileSize(%d) = %q, want %q", testCase.input, actual, testCase.expected)
		}
	}
}
