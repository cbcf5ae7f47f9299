package output_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/temirov/unbundle/internal/output"
	"github.com/temirov/unbundle/internal/types"
)

func sampleReport() types.ExtractionReport {
	return types.ExtractionReport{
		Archive:            "combined.txt",
		OutputRoot:         "extracted_files",
		ExtractedCount:     2,
		DirectoriesCreated: 1,
		TreeEntryCount:     3,
		Delta:              1,
		TotalSize:          "12b",
		ExtractedPaths:     []string{"main.go", "pkg/util.go"},
		TreePaths:          []string{"main.go", "pkg", "util.go"},
		Files: []types.ExtractedFile{
			{Path: "main.go", Size: "7b", SizeBytes: 7},
			{Path: "pkg/util.go", Size: "5b", SizeBytes: 5},
		},
	}
}

func TestRenderReportRaw(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	if err := output.RenderReport(&buffer, sampleReport(), types.FormatRaw); err != nil {
		t.Fatalf("RenderReport error: %v", err)
	}
	expected := strings.Join([]string{
		"Extracted 2 files.",
		"Created 1 directories.",
		"Difference between files listed in the 'tree' and the extracted files: 1",
		"File paths extracted:",
		"- main.go",
		"- pkg/util.go",
		"File paths listed in the tree:",
		"- main.go",
		"- pkg",
		"- util.go",
		"",
	}, "\n")
	if buffer.String() != expected {
		t.Fatalf("unexpected raw output:\n%s", buffer.String())
	}
}

func TestRenderReportRawOptionalLines(t *testing.T) {
	t.Parallel()

	report := sampleReport()
	report.DryRun = true
	report.TotalTokens = 42
	report.Model = "gpt-4o"
	report.Delta = -1

	var buffer bytes.Buffer
	if err := output.RenderReport(&buffer, report, "RAW"); err != nil {
		t.Fatalf("RenderReport error: %v", err)
	}
	for _, fragment := range []string{
		"Dry run: nothing was written to extracted_files.\n",
		"extracted files: -1\n",
		"Tokens: 42 (gpt-4o)\n",
	} {
		if !strings.Contains(buffer.String(), fragment) {
			t.Fatalf("expected fragment %q in output:\n%s", fragment, buffer.String())
		}
	}
}

func TestRenderReportRawZeroTokens(t *testing.T) {
	t.Parallel()

	report := sampleReport()
	report.Model = "cl100k_base"

	var buffer bytes.Buffer
	if err := output.RenderReport(&buffer, report, types.FormatRaw); err != nil {
		t.Fatalf("RenderReport error: %v", err)
	}
	if !strings.Contains(buffer.String(), "extracted files: 1\nTokens: 0 (cl100k_base)\n") {
		t.Fatalf("expected zero token line after the difference line:\n%s", buffer.String())
	}
}

func TestRenderReportStructuredFormats(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		format   string
		validate func(t *testing.T, rendered []byte)
	}{
		{
			format: types.FormatJSON,
			validate: func(t *testing.T, rendered []byte) {
				var decoded map[string]any
				if err := json.Unmarshal(rendered, &decoded); err != nil {
					t.Fatalf("invalid JSON: %v", err)
				}
				if decoded["delta"] != float64(1) || decoded["extractedCount"] != float64(2) {
					t.Fatalf("unexpected JSON document: %v", decoded)
				}
			},
		},
		{
			format: types.FormatXML,
			validate: func(t *testing.T, rendered []byte) {
				text := string(rendered)
				for _, fragment := range []string{"<?xml", "<report>", "<delta>1</delta>", "<path>pkg/util.go</path>"} {
					if !strings.Contains(text, fragment) {
						t.Fatalf("expected %q in XML:\n%s", fragment, text)
					}
				}
			},
		},
		{
			format: types.FormatYAML,
			validate: func(t *testing.T, rendered []byte) {
				var decoded map[string]any
				if err := yaml.Unmarshal(rendered, &decoded); err != nil {
					t.Fatalf("invalid YAML: %v", err)
				}
				if decoded["treeEntryCount"] != 3 {
					t.Fatalf("unexpected YAML document: %v", decoded)
				}
			},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.format, func(t *testing.T) {
			t.Parallel()
			var buffer bytes.Buffer
			if err := output.RenderReport(&buffer, sampleReport(), testCase.format); err != nil {
				t.Fatalf("RenderReport error: %v", err)
			}
			testCase.validate(t, buffer.Bytes())
		})
	}
}

func TestRenderTreeListing(t *testing.T) {
	t.Parallel()

	listing := types.TreeListing{Archive: "combined.txt", Count: 2, Paths: []string{"a", "b"}}

	var rawBuffer bytes.Buffer
	if err := output.RenderTreeListing(&rawBuffer, listing, types.FormatRaw); err != nil {
		t.Fatalf("RenderTreeListing error: %v", err)
	}
	if rawBuffer.String() != "Tree entries: 2\n- a\n- b\n" {
		t.Fatalf("unexpected raw listing %q", rawBuffer.String())
	}

	var jsonBuffer bytes.Buffer
	if err := output.RenderTreeListing(&jsonBuffer, listing, types.FormatJSON); err != nil {
		t.Fatalf("RenderTreeListing error: %v", err)
	}
	if !strings.Contains(jsonBuffer.String(), `"count": 2`) {
		t.Fatalf("unexpected JSON listing %s", jsonBuffer.String())
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	if output.IsSupportedFormat("toml") {
		t.Fatalf("toml must not be supported")
	}
	err := output.RenderReport(&bytes.Buffer{}, sampleReport(), "toml")
	if !errors.Is(err, output.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
