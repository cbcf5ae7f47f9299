package archive

import (
	"strings"
)

type extractorState int

const (
	stateSeekingHeader extractorState = iota
	stateReadingPath
	stateReadingSeparator
	stateReadingContent
)

// Extract scans text and returns the records it contains in source order.
//
// A record is a "File: <name>" line, a "Path: <relative path>" line, a line of
// exactly forty dashes, and the content lines that follow. Content ends before
// the next line starting with "File: ", before the trailing tree section
// heading, or at the end of the input. Headers that are not followed by a path line and a
// separator are dropped and scanning resumes. Text that belongs to no record is
// ignored; an input without records yields an empty slice.
func Extract(text string) []Record {
	lines := splitLines(text)
	treeSearchStart := trailingSectionStart(lines)
	records := []Record{}

	state := stateSeekingHeader
	var current Record
	var contentLines []string

	for index := 0; index < len(lines); index++ {
		line := lines[index]
		switch state {
		case stateSeekingHeader:
			if filename, isHeader := parseFileHeader(line); isHeader {
				current = Record{Filename: filename}
				state = stateReadingPath
			}
		case stateReadingPath:
			relativePath, isPath := parsePathHeader(line)
			if !isPath {
				state = stateSeekingHeader
				index--
				continue
			}
			current.RelativePath = relativePath
			state = stateReadingSeparator
		case stateReadingSeparator:
			if !isSeparatorLine(line) {
				state = stateSeekingHeader
				index--
				continue
			}
			contentLines = contentLines[:0]
			state = stateReadingContent
		case stateReadingContent:
			if strings.HasPrefix(line, fileHeaderPrefix) || (index >= treeSearchStart && isTreeSentinelAt(lines, index)) {
				records = append(records, completeRecord(current, contentLines))
				state = stateSeekingHeader
				index--
				continue
			}
			contentLines = append(contentLines, line)
		}
	}

	if state == stateReadingContent {
		records = append(records, completeRecord(current, contentLines))
	}
	return records
}

// parseFileHeader returns the trimmed filename of a "File: " header line.
// Headers with an empty filename are not recognized.
func parseFileHeader(line string) (string, bool) {
	if !strings.HasPrefix(line, fileHeaderPrefix) {
		return "", false
	}
	filename := strings.TrimSpace(strings.TrimPrefix(line, fileHeaderPrefix))
	if filename == "" {
		return "", false
	}
	return filename, true
}

// parsePathHeader returns the trimmed relative path of a "Path: " line.
// An empty path is treated as the archive root.
func parsePathHeader(line string) (string, bool) {
	if !strings.HasPrefix(line, pathHeaderPrefix) {
		return "", false
	}
	relativePath := strings.TrimSpace(strings.TrimPrefix(line, pathHeaderPrefix))
	if relativePath == "" {
		relativePath = RootRelativePath
	}
	return relativePath, true
}

func completeRecord(record Record, contentLines []string) Record {
	record.Content = strings.TrimSpace(strings.Join(contentLines, lineBreak))
	return record
}
