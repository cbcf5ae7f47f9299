// Package commands contains the core logic behind each unbundle command.
package commands

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/unbundle/internal/archive"
	"github.com/temirov/unbundle/internal/reconstruct"
	"github.com/temirov/unbundle/internal/tokenizer"
	"github.com/temirov/unbundle/internal/types"
	"github.com/temirov/unbundle/internal/utils"
)

const (
	// StandardInputArchivePath selects standard input as the archive source.
	StandardInputArchivePath = "-"

	errorReadArchiveFormat   = "read archive %s: %w"
	errorDecodeArchiveFormat = "decode archive %s: %w"
	errorParseArchiveFormat  = "parse archive %s: %w"
	errorReconstructFormat   = "reconstruct archive %s into %s: %w"
	errorTokenCountFormat    = "count tokens for archive %s: %w"

	standardInputDisplayName = "<stdin>"
	warningTokenCount        = "failed to count tokens"
	logFieldPath             = "path"
)

// ExtractOptions configures Extract.
type ExtractOptions struct {
	ArchiveName  string
	OutputRoot   string
	DryRun       bool
	StrictPaths  bool
	TokenCounter tokenizer.Counter
	TokenModel   string
	FileSystem   afero.Fs
	Logger       *zap.Logger
}

// LoadArchive reads and decodes the archive at archivePath, or standardInput when
// archivePath is "-". The whole archive is held in memory.
func LoadArchive(fileSystem afero.Fs, archivePath string, standardInput io.Reader) (string, error) {
	var data []byte
	var readError error
	if archivePath == StandardInputArchivePath {
		data, readError = io.ReadAll(standardInput)
	} else {
		data, readError = afero.ReadFile(fileSystem, archivePath)
	}
	if readError != nil {
		return "", fmt.Errorf(errorReadArchiveFormat, DisplayArchiveName(archivePath), readError)
	}
	return DecodeArchive(DisplayArchiveName(archivePath), data)
}

// DecodeArchive validates archive bytes as UTF-8 text.
func DecodeArchive(archiveName string, data []byte) (string, error) {
	text, decodeError := utils.DecodeText(data)
	if decodeError != nil {
		return "", fmt.Errorf(errorDecodeArchiveFormat, archiveName, decodeError)
	}
	return text, nil
}

// DisplayArchiveName returns the name used for an archive path in reports and errors.
func DisplayArchiveName(archivePath string) string {
	if archivePath == StandardInputArchivePath {
		return standardInputDisplayName
	}
	return archivePath
}

// Extract parses archiveText, writes its records beneath options.OutputRoot and
// reconciles them with the archive's tree listing. The tree listing is parsed
// before anything is written, so an archive without one leaves the disk untouched.
func Extract(archiveText string, options ExtractOptions) (types.ExtractionReport, error) {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fileSystem := options.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}

	parsedArchive, parseError := archive.Parse(archiveText)
	if parseError != nil {
		return types.ExtractionReport{}, fmt.Errorf(errorParseArchiveFormat, options.ArchiveName, parseError)
	}

	reconstructor := reconstruct.NewReconstructor(fileSystem, reconstruct.Options{
		Root:        options.OutputRoot,
		DryRun:      options.DryRun,
		StrictPaths: options.StrictPaths,
	}, logger)
	result, writeError := reconstructor.Write(parsedArchive.Records)
	if writeError != nil {
		return types.ExtractionReport{}, fmt.Errorf(errorReconstructFormat, options.ArchiveName, options.OutputRoot, writeError)
	}

	report := BuildReport(parsedArchive, result)
	report.Archive = options.ArchiveName
	report.OutputRoot = options.OutputRoot
	report.DryRun = options.DryRun
	if options.TokenCounter != nil {
		if tokenError := applyTokenCounts(&report, parsedArchive.Records, options.TokenCounter, options.TokenModel, logger); tokenError != nil {
			return types.ExtractionReport{}, fmt.Errorf(errorTokenCountFormat, options.ArchiveName, tokenError)
		}
	}
	return report, nil
}

// BuildReport composes the reconciliation report for a parsed archive and the
// outcome of writing its records.
func BuildReport(parsedArchive archive.Archive, result reconstruct.Result) types.ExtractionReport {
	report := types.ExtractionReport{
		ExtractedCount:     len(result.Files),
		DirectoriesCreated: result.DirectoriesCreated,
		TreeEntryCount:     len(parsedArchive.Tree),
		ExtractedPaths:     make([]string, 0, len(result.Files)),
		TreePaths:          make([]string, 0, len(parsedArchive.Tree)),
		Files:              make([]types.ExtractedFile, 0, len(result.Files)),
	}
	report.Delta = report.TreeEntryCount - report.ExtractedCount

	var totalBytes int64
	for _, writtenFile := range result.Files {
		report.ExtractedPaths = append(report.ExtractedPaths, writtenFile.DisplayPath)
		report.Files = append(report.Files, types.ExtractedFile{
			Path:        writtenFile.DisplayPath,
			Size:        utils.FormatFileSize(writtenFile.SizeBytes),
			SizeBytes:   writtenFile.SizeBytes,
			Overwritten: writtenFile.Overwritten,
		})
		totalBytes += writtenFile.SizeBytes
	}
	for _, entry := range parsedArchive.Tree {
		report.TreePaths = append(report.TreePaths, entry.DisplayPath)
	}
	report.TotalSize = utils.FormatFileSize(totalBytes)
	return report
}

// applyTokenCounts counts tokens for every extracted file concurrently. A file
// whose count fails is logged and left without a count; the model is reported
// whenever a counter was supplied, even if every file is empty.
func applyTokenCounts(report *types.ExtractionReport, records []archive.Record, counter tokenizer.Counter, model string, logger *zap.Logger) error {
	fileCount := min(len(report.Files), len(records))
	countResults := make([]tokenizer.CountResult, fileCount)

	var group errgroup.Group
	group.SetLimit(runtime.GOMAXPROCS(0))
	for index := 0; index < fileCount; index++ {
		group.Go(func() error {
			countResult, countError := tokenizer.CountText(counter, records[index].Content)
			if countError != nil {
				logger.Warn(warningTokenCount, zap.String(logFieldPath, report.Files[index].Path), zap.Error(countError))
				return nil
			}
			countResults[index] = countResult
			return nil
		})
	}
	if waitError := group.Wait(); waitError != nil {
		return waitError
	}

	for index, countResult := range countResults {
		if countResult.Counted {
			report.Files[index].Tokens = countResult.Tokens
			report.TotalTokens += countResult.Tokens
		}
	}
	if model == "" {
		model = counter.Name()
	}
	report.Model = model
	return nil
}
