// Package archive parses combined archive text into file records and the
// tree listing that accompanies them.
package archive

import (
	"path"
	"strings"
)

const (
	// RootRelativePath marks a record that belongs directly under the output root.
	RootRelativePath = "."

	fileHeaderPrefix   = "File: "
	pathHeaderPrefix   = "Path: "
	separatorLength    = 40
	separatorCharacter = "-"

	treeSentinel        = "ARBOL:"
	treeBorderCharacter = "="
	treeBranchConnector = "├──"
	treeLastConnector   = "└──"
	treeVerticalBar     = "│"

	lineBreak      = "\n"
	carriageReturn = "\r"
)

// Record is one file reconstructed from the archive.
type Record struct {
	Filename     string
	RelativePath string
	Content      string
}

// IsRoot reports whether the record belongs directly under the output root.
func (record Record) IsRoot() bool {
	return record.RelativePath == RootRelativePath
}

// DisplayPath returns the slash-separated path of the record relative to the output root.
func (record Record) DisplayPath() string {
	if record.IsRoot() {
		return record.Filename
	}
	return path.Join(record.RelativePath, record.Filename)
}

// TreeEntry is a single line of the tree listing with drawing glyphs removed.
type TreeEntry struct {
	DisplayPath string
}

// Archive holds everything parsed out of a combined archive.
type Archive struct {
	Records []Record
	Tree    []TreeEntry
}

// Parse extracts records and the tree listing from text.
// The tree listing is mandatory; see ParseTree.
func Parse(text string) (Archive, error) {
	treeEntries, treeError := ParseTree(text)
	if treeError != nil {
		return Archive{}, treeError
	}
	return Archive{Records: Extract(text), Tree: treeEntries}, nil
}

// splitLines breaks text into lines, dropping a trailing carriage return from each.
func splitLines(text string) []string {
	lines := strings.Split(text, lineBreak)
	for index, line := range lines {
		lines[index] = strings.TrimSuffix(line, carriageReturn)
	}
	return lines
}

// isSeparatorLine reports whether line is exactly separatorLength dashes.
func isSeparatorLine(line string) bool {
	return line == strings.Repeat(separatorCharacter, separatorLength)
}

// isBorderLine reports whether line consists solely of '=' characters.
func isBorderLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed != "" && strings.Trim(trimmed, treeBorderCharacter) == ""
}

// trailingSectionStart returns the index of the first line after the last line
// starting with "File: ". The tree section is only recognized from there on, so
// an archive format example inside a record stays part of its content.
func trailingSectionStart(lines []string) int {
	start := 0
	for index, line := range lines {
		if strings.HasPrefix(line, fileHeaderPrefix) {
			start = index + 1
		}
	}
	return start
}

// isTreeSentinelAt reports whether the tree heading starts at lines[index].
func isTreeSentinelAt(lines []string, index int) bool {
	if index+1 >= len(lines) {
		return false
	}
	return strings.TrimSpace(lines[index]) == treeSentinel && isBorderLine(lines[index+1])
}
