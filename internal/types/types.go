// Package types defines every cross‑package data structure used by the unbundle CLI.
package types

import "encoding/xml"

const (
	CommandExtract = "extract"
	CommandInspect = "inspect"
	CommandTree    = "tree"

	FormatRaw  = "raw"
	FormatJSON = "json"
	FormatXML  = "xml"
	FormatYAML = "yaml"
)

// ExtractedFile describes one archive record materialized under the output root.
type ExtractedFile struct {
	Path        string `json:"path" xml:"path" yaml:"path"`
	Size        string `json:"size" xml:"size" yaml:"size"`
	SizeBytes   int64  `json:"sizeBytes" xml:"sizeBytes" yaml:"sizeBytes"`
	Overwritten bool   `json:"overwritten,omitempty" xml:"overwritten,omitempty" yaml:"overwritten,omitempty"`
	Tokens      int    `json:"tokens,omitempty" xml:"tokens,omitempty" yaml:"tokens,omitempty"`
}

// ExtractionReport reconciles the extracted records with the archive's tree listing.
// Delta is TreeEntryCount minus ExtractedCount and is informational only.
type ExtractionReport struct {
	XMLName            xml.Name        `json:"-" xml:"report" yaml:"-"`
	Archive            string          `json:"archive,omitempty" xml:"archive,omitempty" yaml:"archive,omitempty"`
	OutputRoot         string          `json:"outputRoot,omitempty" xml:"outputRoot,omitempty" yaml:"outputRoot,omitempty"`
	DryRun             bool            `json:"dryRun,omitempty" xml:"dryRun,omitempty" yaml:"dryRun,omitempty"`
	ExtractedCount     int             `json:"extractedCount" xml:"extractedCount" yaml:"extractedCount"`
	DirectoriesCreated int             `json:"directoriesCreated" xml:"directoriesCreated" yaml:"directoriesCreated"`
	TreeEntryCount     int             `json:"treeEntryCount" xml:"treeEntryCount" yaml:"treeEntryCount"`
	Delta              int             `json:"delta" xml:"delta" yaml:"delta"`
	TotalSize          string          `json:"totalSize" xml:"totalSize" yaml:"totalSize"`
	TotalTokens        int             `json:"totalTokens,omitempty" xml:"totalTokens,omitempty" yaml:"totalTokens,omitempty"`
	Model              string          `json:"model,omitempty" xml:"model,omitempty" yaml:"model,omitempty"`
	ExtractedPaths     []string        `json:"extractedPaths" xml:"extractedPaths>path" yaml:"extractedPaths"`
	TreePaths          []string        `json:"treePaths" xml:"treePaths>path" yaml:"treePaths"`
	Files              []ExtractedFile `json:"files,omitempty" xml:"files>file,omitempty" yaml:"files,omitempty"`
}

// TreeListing is the result of the tree command.
type TreeListing struct {
	XMLName xml.Name `json:"-" xml:"tree" yaml:"-"`
	Archive string   `json:"archive,omitempty" xml:"archive,omitempty" yaml:"archive,omitempty"`
	Count   int      `json:"count" xml:"count" yaml:"count"`
	Paths   []string `json:"paths" xml:"paths>path" yaml:"paths"`
}
