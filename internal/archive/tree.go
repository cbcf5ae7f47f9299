package archive

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTreeSectionMissing indicates that the archive has no "ARBOL:" heading.
	ErrTreeSectionMissing = errors.New("tree section heading not found")
	// ErrTreeSectionUnterminated indicates that the tree section has no closing border.
	ErrTreeSectionUnterminated = errors.New("tree section closing border not found")
)

const errorUnterminatedFormat = "%w: section opened on line %d"

var treeGlyphReplacer = strings.NewReplacer(
	treeBranchConnector, "",
	treeLastConnector, "",
	treeVerticalBar, "",
)

// ParseTree returns the entries of the tree section of text.
//
// The section opens with an "ARBOL:" line followed by a border of '=' characters
// and closes at the next border line. Only headings after the last "File: "
// line count; earlier ones belong to record content. Only lines carrying a branch connector are
// entries. Entries keep their listing order and are not deduplicated.
func ParseTree(text string) ([]TreeEntry, error) {
	lines := splitLines(text)

	sentinelIndex := -1
	for index := trailingSectionStart(lines); index < len(lines); index++ {
		if isTreeSentinelAt(lines, index) {
			sentinelIndex = index
			break
		}
	}
	if sentinelIndex < 0 {
		return nil, ErrTreeSectionMissing
	}

	entries := []TreeEntry{}
	for index := sentinelIndex + 2; index < len(lines); index++ {
		line := lines[index]
		if isBorderLine(line) {
			return entries, nil
		}
		if entry, isEntry := parseTreeLine(line); isEntry {
			entries = append(entries, entry)
		}
	}
	return nil, fmt.Errorf(errorUnterminatedFormat, ErrTreeSectionUnterminated, sentinelIndex+1)
}

// parseTreeLine strips connector and bar glyphs from a line carrying a connector.
func parseTreeLine(line string) (TreeEntry, bool) {
	if !strings.Contains(line, treeBranchConnector) && !strings.Contains(line, treeLastConnector) {
		return TreeEntry{}, false
	}
	return TreeEntry{DisplayPath: strings.TrimSpace(treeGlyphReplacer.Replace(line))}, true
}
