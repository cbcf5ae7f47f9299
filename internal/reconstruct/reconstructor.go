// Package reconstruct materializes archive records as files beneath an output root.
package reconstruct

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/unbundle/internal/archive"
)

const (
	// DefaultDirectoryMode is applied to every directory the reconstructor creates.
	DefaultDirectoryMode os.FileMode = 0o755
	// DefaultFileMode is applied to every file the reconstructor writes.
	DefaultFileMode os.FileMode = 0o644

	errorCreateRootFormat      = "create output root %s: %w"
	errorCreateDirectoryFormat = "create directory %s: %w"
	errorInspectPathFormat     = "inspect %s: %w"
	errorWriteFileFormat       = "write file %s: %w"
	errorRecordFormat          = "record %q: %w"

	logDirectoryCreated = "created directory"
	logFileWritten      = "wrote file"
	logFileOverwritten  = "overwrote existing file"
	logDryRunDirectory  = "would create directory"
	logDryRunFile       = "would write file"
	logFieldPath        = "path"
	logFieldBytes       = "bytes"
)

// ErrEmptyRoot indicates that no output root was provided.
var ErrEmptyRoot = errors.New("output root is empty")

// Options configures a Reconstructor.
type Options struct {
	Root          string
	DryRun        bool
	StrictPaths   bool
	DirectoryMode os.FileMode
	FileMode      os.FileMode
}

// WrittenFile describes one record materialized (or, in dry-run mode, planned) on disk.
type WrittenFile struct {
	DisplayPath string
	TargetPath  string
	SizeBytes   int64
	Overwritten bool
}

// Result summarizes a reconstruction run.
type Result struct {
	// DirectoriesCreated counts record directories that did not exist when their
	// record was processed. Parents created implicitly for a deeper record are
	// not counted when a later record names them.
	DirectoriesCreated int
	Files              []WrittenFile
}

// Reconstructor writes archive records to a filesystem.
type Reconstructor struct {
	fileSystem afero.Fs
	options    Options
	logger     *zap.Logger
}

type plannedFile struct {
	record        archive.Record
	directoryPath string
	targetPath    string
}

// NewReconstructor returns a Reconstructor writing to fileSystem.
func NewReconstructor(fileSystem afero.Fs, options Options, logger *zap.Logger) *Reconstructor {
	if options.DirectoryMode == 0 {
		options.DirectoryMode = DefaultDirectoryMode
	}
	if options.FileMode == 0 {
		options.FileMode = DefaultFileMode
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconstructor{fileSystem: fileSystem, options: options, logger: logger}
}

// Write materializes records in order. Every target path is validated before
// anything is written; writes then happen sequentially without rollback.
// Existing files are overwritten.
func (reconstructor *Reconstructor) Write(records []archive.Record) (Result, error) {
	if reconstructor.options.Root == "" {
		return Result{}, ErrEmptyRoot
	}
	plannedFiles, planError := reconstructor.plan(records)
	if planError != nil {
		return Result{}, planError
	}

	if !reconstructor.options.DryRun {
		if createError := reconstructor.fileSystem.MkdirAll(reconstructor.options.Root, reconstructor.options.DirectoryMode); createError != nil {
			return Result{}, fmt.Errorf(errorCreateRootFormat, reconstructor.options.Root, createError)
		}
	}

	tracker := newDirectoryTracker(filepath.Clean(reconstructor.options.Root))
	result := Result{Files: make([]WrittenFile, 0, len(plannedFiles))}
	for _, planned := range plannedFiles {
		if planned.directoryPath != tracker.root {
			created, directoryError := reconstructor.ensureDirectory(tracker, planned.directoryPath)
			if directoryError != nil {
				return result, directoryError
			}
			if created {
				result.DirectoriesCreated++
			}
		}
		writtenFile, writeError := reconstructor.writeFile(planned)
		if writeError != nil {
			return result, writeError
		}
		result.Files = append(result.Files, writtenFile)
	}
	return result, nil
}

func (reconstructor *Reconstructor) plan(records []archive.Record) ([]plannedFile, error) {
	plannedFiles := make([]plannedFile, 0, len(records))
	for _, record := range records {
		if filenameError := validateFilename(record.Filename); filenameError != nil {
			return nil, fmt.Errorf(errorRecordFormat, record.DisplayPath(), filenameError)
		}
		directoryPath, resolveError := resolveDirectory(reconstructor.options.Root, record.RelativePath)
		if resolveError != nil {
			return nil, fmt.Errorf(errorRecordFormat, record.DisplayPath(), resolveError)
		}
		if reconstructor.options.StrictPaths {
			if strictError := checkStrictPath(record.DisplayPath()); strictError != nil {
				return nil, strictError
			}
		}
		plannedFiles = append(plannedFiles, plannedFile{
			record:        record,
			directoryPath: directoryPath,
			targetPath:    filepath.Join(directoryPath, record.Filename),
		})
	}
	return plannedFiles, nil
}

// ensureDirectory creates directoryPath when it does not exist yet and reports
// whether it did. In dry-run mode creation is only recorded in tracker.
func (reconstructor *Reconstructor) ensureDirectory(tracker *directoryTracker, directoryPath string) (bool, error) {
	exists, existsError := afero.Exists(reconstructor.fileSystem, directoryPath)
	if existsError != nil {
		return false, fmt.Errorf(errorInspectPathFormat, directoryPath, existsError)
	}
	if exists || tracker.planned(directoryPath) {
		return false, nil
	}

	if reconstructor.options.DryRun {
		tracker.plan(directoryPath)
		reconstructor.logger.Debug(logDryRunDirectory, zap.String(logFieldPath, directoryPath))
		return true, nil
	}
	if createError := reconstructor.fileSystem.MkdirAll(directoryPath, reconstructor.options.DirectoryMode); createError != nil {
		return false, fmt.Errorf(errorCreateDirectoryFormat, directoryPath, createError)
	}
	reconstructor.logger.Debug(logDirectoryCreated, zap.String(logFieldPath, directoryPath))
	return true, nil
}

func (reconstructor *Reconstructor) writeFile(planned plannedFile) (WrittenFile, error) {
	content := []byte(planned.record.Content)
	existed, existsError := afero.Exists(reconstructor.fileSystem, planned.targetPath)
	if existsError != nil {
		return WrittenFile{}, fmt.Errorf(errorInspectPathFormat, planned.targetPath, existsError)
	}
	writtenFile := WrittenFile{
		DisplayPath: planned.record.DisplayPath(),
		TargetPath:  planned.targetPath,
		SizeBytes:   int64(len(content)),
		Overwritten: existed,
	}

	if reconstructor.options.DryRun {
		reconstructor.logger.Debug(logDryRunFile, zap.String(logFieldPath, planned.targetPath), zap.Int64(logFieldBytes, writtenFile.SizeBytes))
		return writtenFile, nil
	}
	if writeError := afero.WriteFile(reconstructor.fileSystem, planned.targetPath, content, reconstructor.options.FileMode); writeError != nil {
		return WrittenFile{}, fmt.Errorf(errorWriteFileFormat, planned.targetPath, writeError)
	}
	if existed {
		reconstructor.logger.Info(logFileOverwritten, zap.String(logFieldPath, planned.targetPath))
	} else {
		reconstructor.logger.Debug(logFileWritten, zap.String(logFieldPath, planned.targetPath), zap.Int64(logFieldBytes, writtenFile.SizeBytes))
	}
	return writtenFile, nil
}

// directoryTracker remembers directories a dry run would have created, including
// the parents MkdirAll would create along the way.
type directoryTracker struct {
	root    string
	pending map[string]struct{}
}

func newDirectoryTracker(root string) *directoryTracker {
	return &directoryTracker{root: root, pending: map[string]struct{}{}}
}

func (tracker *directoryTracker) planned(directoryPath string) bool {
	_, found := tracker.pending[directoryPath]
	return found
}

func (tracker *directoryTracker) plan(directoryPath string) {
	for current := directoryPath; current != tracker.root; current = filepath.Dir(current) {
		tracker.pending[current] = struct{}{}
		if filepath.Dir(current) == current {
			return
		}
	}
}
