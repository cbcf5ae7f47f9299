package reconstruct

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/module"
)

var (
	// ErrPathEscapesRoot indicates a record whose target lies outside the output root.
	ErrPathEscapesRoot = errors.New("path escapes output root")
	// ErrInvalidFilename indicates a record filename that is not a single path element.
	ErrInvalidFilename = errors.New("invalid filename")
)

const (
	parentDirectoryElement  = ".."
	currentDirectoryElement = "."
	slashSeparator          = "/"
	backslashSeparator      = `\`

	errorEscapesRootFormat     = "%w: %q"
	errorInvalidFilenameFormat = "%w: %q"
	errorStrictPathFormat      = "strict path check failed for %q: %w"
)

// validateFilename requires a single, non-special path element.
func validateFilename(filename string) error {
	if filename == "" || filename == currentDirectoryElement || filename == parentDirectoryElement {
		return fmt.Errorf(errorInvalidFilenameFormat, ErrInvalidFilename, filename)
	}
	if strings.ContainsAny(filename, slashSeparator+backslashSeparator) {
		return fmt.Errorf(errorInvalidFilenameFormat, ErrInvalidFilename, filename)
	}
	return nil
}

// resolveDirectory joins the slash-separated relativePath onto root and verifies
// the result stays inside root.
func resolveDirectory(root string, relativePath string) (string, error) {
	normalized := strings.ReplaceAll(relativePath, backslashSeparator, slashSeparator)
	if path.IsAbs(normalized) || filepath.IsAbs(relativePath) || filepath.VolumeName(relativePath) != "" {
		return "", fmt.Errorf(errorEscapesRootFormat, ErrPathEscapesRoot, relativePath)
	}
	cleaned := path.Clean(normalized)
	if cleaned == parentDirectoryElement || strings.HasPrefix(cleaned, parentDirectoryElement+slashSeparator) {
		return "", fmt.Errorf(errorEscapesRootFormat, ErrPathEscapesRoot, relativePath)
	}
	if cleaned == currentDirectoryElement {
		return filepath.Clean(root), nil
	}
	return filepath.Join(root, filepath.FromSlash(cleaned)), nil
}

// checkStrictPath applies the module zip file path rules to displayPath.
func checkStrictPath(displayPath string) error {
	if checkError := module.CheckFilePath(displayPath); checkError != nil {
		return fmt.Errorf(errorStrictPathFormat, displayPath, checkError)
	}
	return nil
}
