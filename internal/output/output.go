// Package output renders extraction reports and tree listings.
package output

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/unbundle/internal/types"
)

const (
	indentPrefix = ""
	indentSpacer = "  "
	yamlIndent   = 2

	errorUnsupportedFormat = "%w: %q"
	errorEncodeFormat      = "encode %s output: %w"
)

// ErrUnsupportedFormat indicates a format outside raw, json, xml and yaml.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// IsSupportedFormat reports whether format names a known renderer.
func IsSupportedFormat(format string) bool {
	switch strings.ToLower(format) {
	case types.FormatRaw, types.FormatJSON, types.FormatXML, types.FormatYAML:
		return true
	default:
		return false
	}
}

// RenderReport writes report to writer in the requested format.
func RenderReport(writer io.Writer, report types.ExtractionReport, format string) error {
	if strings.ToLower(format) == types.FormatRaw {
		return writeReportRaw(writer, report)
	}
	return renderStructured(writer, report, format)
}

// RenderTreeListing writes listing to writer in the requested format.
func RenderTreeListing(writer io.Writer, listing types.TreeListing, format string) error {
	if strings.ToLower(format) == types.FormatRaw {
		return writeTreeRaw(writer, listing)
	}
	return renderStructured(writer, listing, format)
}

func renderStructured(writer io.Writer, value any, format string) error {
	normalizedFormat := strings.ToLower(format)
	var encodeError error
	switch normalizedFormat {
	case types.FormatJSON:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent(indentPrefix, indentSpacer)
		encodeError = encoder.Encode(value)
	case types.FormatXML:
		if _, headerError := io.WriteString(writer, xml.Header); headerError != nil {
			return headerError
		}
		encoder := xml.NewEncoder(writer)
		encoder.Indent(indentPrefix, indentSpacer)
		if encodeError = encoder.Encode(value); encodeError == nil {
			_, encodeError = io.WriteString(writer, "\n")
		}
	case types.FormatYAML:
		encoder := yaml.NewEncoder(writer)
		encoder.SetIndent(yamlIndent)
		if encodeError = encoder.Encode(value); encodeError == nil {
			encodeError = encoder.Close()
		}
	default:
		return fmt.Errorf(errorUnsupportedFormat, ErrUnsupportedFormat, format)
	}
	if encodeError != nil {
		return fmt.Errorf(errorEncodeFormat, normalizedFormat, encodeError)
	}
	return nil
}
