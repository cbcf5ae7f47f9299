package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/temirov/unbundle/internal/types"
)

const (
	dryRunLineFormat      = "Dry run: nothing was written to %s.\n"
	extractedLineFormat   = "Extracted %d files.\n"
	directoriesLineFormat = "Created %d directories.\n"
	deltaLineFormat       = "Difference between files listed in the 'tree' and the extracted files: %d\n"
	tokensLineFormat      = "Tokens: %d (%s)\n"
	extractedPathsHeader  = "File paths extracted:"
	treePathsHeader       = "File paths listed in the tree:"
	treeCountLineFormat   = "Tree entries: %d\n"
	bulletLineFormat      = "- %s\n"
)

func writeReportRaw(writer io.Writer, report types.ExtractionReport) error {
	buffered := bufio.NewWriter(writer)
	if report.DryRun {
		fmt.Fprintf(buffered, dryRunLineFormat, report.OutputRoot)
	}
	fmt.Fprintf(buffered, extractedLineFormat, report.ExtractedCount)
	fmt.Fprintf(buffered, directoriesLineFormat, report.DirectoriesCreated)
	fmt.Fprintf(buffered, deltaLineFormat, report.Delta)
	if report.Model != "" {
		fmt.Fprintf(buffered, tokensLineFormat, report.TotalTokens, report.Model)
	}
	writeBulletList(buffered, extractedPathsHeader, report.ExtractedPaths)
	writeBulletList(buffered, treePathsHeader, report.TreePaths)
	return buffered.Flush()
}

func writeTreeRaw(writer io.Writer, listing types.TreeListing) error {
	buffered := bufio.NewWriter(writer)
	fmt.Fprintf(buffered, treeCountLineFormat, listing.Count)
	for _, treePath := range listing.Paths {
		fmt.Fprintf(buffered, bulletLineFormat, treePath)
	}
	return buffered.Flush()
}

func writeBulletList(writer io.Writer, header string, items []string) {
	fmt.Fprintln(writer, header)
	for _, item := range items {
		fmt.Fprintf(writer, bulletLineFormat, item)
	}
}
