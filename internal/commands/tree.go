package commands

import (
	"fmt"

	"github.com/temirov/unbundle/internal/archive"
	"github.com/temirov/unbundle/internal/types"
)

// ListTree returns the tree listing embedded in archiveText.
func ListTree(archiveName string, archiveText string) (types.TreeListing, error) {
	entries, treeError := archive.ParseTree(archiveText)
	if treeError != nil {
		return types.TreeListing{}, fmt.Errorf(errorParseArchiveFormat, archiveName, treeError)
	}
	listing := types.TreeListing{
		Archive: archiveName,
		Count:   len(entries),
		Paths:   make([]string, 0, len(entries)),
	}
	for _, entry := range entries {
		listing.Paths = append(listing.Paths, entry.DisplayPath)
	}
	return listing, nil
}
