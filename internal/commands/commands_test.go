package commands_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/temirov/unbundle/internal/archive"
	"github.com/temirov/unbundle/internal/commands"
	"github.com/temirov/unbundle/internal/utils"
)

const (
	separatorLine = "----------------------------------------"
	borderLine    = "========================================"
	outputRoot    = "/extracted"
)

type archiveFile struct {
	filename     string
	relativePath string
	content      string
}

type stubCounter struct{}

func (stubCounter) Name() string { return "stub" }

func (stubCounter) CountString(input string) (int, error) { return len(strings.Fields(input)), nil }

func composeArchive(files []archiveFile, treeLines []string) string {
	var builder strings.Builder
	for _, file := range files {
		builder.WriteString("File: " + file.filename + "\n")
		builder.WriteString("Path: " + file.relativePath + "\n")
		builder.WriteString(separatorLine + "\n")
		builder.WriteString(file.content + "\n")
	}
	builder.WriteString("ARBOL:\n" + borderLine + "\n")
	for _, line := range treeLines {
		builder.WriteString(line + "\n")
	}
	builder.WriteString(borderLine + "\n")
	return builder.String()
}

func TestExtractRoundTripReproducesContent(t *testing.T) {
	t.Parallel()

	files := []archiveFile{
		{filename: "go.mod", relativePath: ".", content: "module example.com/demo\n\ngo 1.22"},
		{filename: "main.go", relativePath: "cmd/demo", content: "package main\n\n// File: not a header\nfunc main() {}"},
		{filename: "store.go", relativePath: "internal/store", content: "package store"},
	}
	fileSystem := afero.NewMemMapFs()
	text := composeArchive(files, []string{"├── go.mod", "├── cmd", "│   └── demo", "│       └── main.go", "└── internal"})

	report, err := commands.Extract(text, commands.ExtractOptions{ArchiveName: "combined.txt", OutputRoot: outputRoot, FileSystem: fileSystem})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	if report.ExtractedCount != len(files) {
		t.Fatalf("expected %d extracted files, got %d", len(files), report.ExtractedCount)
	}
	expectedPaths := []string{"go.mod", "cmd/demo/main.go", "internal/store/store.go"}
	if !reflect.DeepEqual(report.ExtractedPaths, expectedPaths) {
		t.Fatalf("unexpected extracted paths %v", report.ExtractedPaths)
	}
	for index, file := range files {
		targetPath := filepath.Join(outputRoot, filepath.FromSlash(expectedPaths[index]))
		data, readError := afero.ReadFile(fileSystem, targetPath)
		if readError != nil {
			t.Fatalf("read %s: %v", targetPath, readError)
		}
		if string(data) != file.content {
			t.Fatalf("content mismatch for %s:\n got %q\nwant %q", targetPath, string(data), file.content)
		}
	}
	if report.DirectoriesCreated != 2 {
		t.Fatalf("expected 2 directories created, got %d", report.DirectoriesCreated)
	}
	if report.Archive != "combined.txt" || report.OutputRoot != outputRoot {
		t.Fatalf("unexpected report metadata: %+v", report)
	}
}

func TestExtractReportsDeltaWithoutFailing(t *testing.T) {
	t.Parallel()

	files := []archiveFile{
		{filename: "a.txt", relativePath: ".", content: "a"},
		{filename: "b.txt", relativePath: "x", content: "b"},
		{filename: "c.txt", relativePath: "x/y", content: "c"},
	}
	treeLines := []string{"├── a.txt", "├── x", "│   ├── b.txt", "│   └── y", "└── c.txt"}

	report, err := commands.Extract(composeArchive(files, treeLines), commands.ExtractOptions{OutputRoot: outputRoot, FileSystem: afero.NewMemMapFs()})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if report.ExtractedCount != 3 || report.TreeEntryCount != 5 || report.Delta != 2 {
		t.Fatalf("unexpected counts: extracted=%d tree=%d delta=%d", report.ExtractedCount, report.TreeEntryCount, report.Delta)
	}
	expectedTree := []string{"a.txt", "x", "b.txt", "y", "c.txt"}
	if !reflect.DeepEqual(report.TreePaths, expectedTree) {
		t.Fatalf("unexpected tree paths %v", report.TreePaths)
	}
}

func TestExtractWithoutRecordsProducesEmptyReport(t *testing.T) {
	t.Parallel()

	report, err := commands.Extract(composeArchive(nil, []string{"└── lonely"}), commands.ExtractOptions{OutputRoot: outputRoot, FileSystem: afero.NewMemMapFs()})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if report.ExtractedCount != 0 || len(report.ExtractedPaths) != 0 || report.Delta != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.ExtractedPaths == nil {
		t.Fatalf("extracted paths must be an empty list, not nil")
	}
}

func TestExtractMissingTreeWritesNothing(t *testing.T) {
	t.Parallel()

	fileSystem := afero.NewMemMapFs()
	text := "File: a.txt\nPath: .\n" + separatorLine + "\nalpha\n"
	_, err := commands.Extract(text, commands.ExtractOptions{OutputRoot: outputRoot, FileSystem: fileSystem})
	if !errors.Is(err, archive.ErrTreeSectionMissing) {
		t.Fatalf("expected ErrTreeSectionMissing, got %v", err)
	}
	if exists, _ := afero.Exists(fileSystem, outputRoot); exists {
		t.Fatalf("output root must not be created when the tree section is missing")
	}
}

func TestExtractDryRunAndTokens(t *testing.T) {
	t.Parallel()

	fileSystem := afero.NewMemMapFs()
	files := []archiveFile{
		{filename: "one.txt", relativePath: "docs", content: "three word text"},
		{filename: "two.txt", relativePath: ".", content: "two words"},
	}
	report, err := commands.Extract(composeArchive(files, []string{"└── docs"}), commands.ExtractOptions{
		OutputRoot:   outputRoot,
		DryRun:       true,
		TokenCounter: stubCounter{},
		TokenModel:   "stub-model",
		FileSystem:   fileSystem,
	})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if !report.DryRun || report.DirectoriesCreated != 1 {
		t.Fatalf("unexpected dry-run report %+v", report)
	}
	if report.TotalTokens != 5 || report.Model != "stub-model" {
		t.Fatalf("unexpected token totals: %d %q", report.TotalTokens, report.Model)
	}
	if report.Files[0].Tokens != 3 || report.Files[1].Tokens != 2 {
		t.Fatalf("unexpected per-file tokens: %+v", report.Files)
	}
	if exists, _ := afero.Exists(fileSystem, outputRoot); exists {
		t.Fatalf("dry run must not touch the filesystem")
	}
}

func TestLoadArchive(t *testing.T) {
	t.Parallel()

	fileSystem := afero.NewMemMapFs()
	if err := afero.WriteFile(fileSystem, "/archive.txt", []byte("File: a\n"), 0o644); err != nil {
		t.Fatalf("seed archive: %v", err)
	}
	if err := afero.WriteFile(fileSystem, "/latin1.txt", []byte{'c', 'a', 'f', 0xe9}, 0o644); err != nil {
		t.Fatalf("seed latin1 archive: %v", err)
	}

	text, err := commands.LoadArchive(fileSystem, "/archive.txt", nil)
	if err != nil || text != "File: a\n" {
		t.Fatalf("unexpected load result %q, %v", text, err)
	}

	stdinText, stdinError := commands.LoadArchive(fileSystem, commands.StandardInputArchivePath, strings.NewReader("from stdin"))
	if stdinError != nil || stdinText != "from stdin" {
		t.Fatalf("unexpected stdin load result %q, %v", stdinText, stdinError)
	}

	if _, missingError := commands.LoadArchive(fileSystem, "/missing.txt", nil); !errors.Is(missingError, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", missingError)
	}
	if _, encodingError := commands.LoadArchive(fileSystem, "/latin1.txt", nil); !errors.Is(encodingError, utils.ErrInvalidEncoding) {
		t.Fatalf("expected invalid encoding error, got %v", encodingError)
	}
}

func TestListTree(t *testing.T) {
	t.Parallel()

	listing, err := commands.ListTree("combined.txt", composeArchive(nil, []string{"├── a", "│   └── b", "└── c"}))
	if err != nil {
		t.Fatalf("ListTree error: %v", err)
	}
	if listing.Count != 3 || !reflect.DeepEqual(listing.Paths, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected listing %+v", listing)
	}
	if _, missingError := commands.ListTree("empty.txt", "no tree here"); !errors.Is(missingError, archive.ErrTreeSectionMissing) {
		t.Fatalf("expected ErrTreeSectionMissing, got %v", missingError)
	}
}

type selectiveCounter struct{}

func (selectiveCounter) Name() string { return "selective" }

func (selectiveCounter) CountString(input string) (int, error) {
	if strings.Contains(input, "fail") {
		return 0, errors.New("counter failure")
	}
	return len(input), nil
}

func TestExtractTokenFailuresSkipOnlyAffectedFiles(t *testing.T) {
	t.Parallel()

	files := []archiveFile{
		{filename: "a.txt", relativePath: ".", content: "alpha"},
		{filename: "b.txt", relativePath: ".", content: "please fail"},
		{filename: "c.txt", relativePath: "nested", content: "gamma!"},
	}
	report, err := commands.Extract(composeArchive(files, []string{"└── a.txt"}), commands.ExtractOptions{
		OutputRoot:   outputRoot,
		DryRun:       true,
		TokenCounter: selectiveCounter{},
		TokenModel:   "selective",
		FileSystem:   afero.NewMemMapFs(),
	})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	expectedTokens := []int{5, 0, 6}
	for index, expected := range expectedTokens {
		if report.Files[index].Tokens != expected {
			t.Fatalf("file %s: expected %d tokens, got %d", report.Files[index].Path, expected, report.Files[index].Tokens)
		}
	}
	if report.TotalTokens != 11 || report.Model != "selective" {
		t.Fatalf("unexpected totals: %d %q", report.TotalTokens, report.Model)
	}
}

func TestExtractReportsModelForEmptyFiles(t *testing.T) {
	t.Parallel()

	files := []archiveFile{
		{filename: "empty.txt", relativePath: ".", content: ""},
		{filename: "blank.txt", relativePath: "docs", content: "   "},
	}
	report, err := commands.Extract(composeArchive(files, []string{"└── empty.txt"}), commands.ExtractOptions{
		OutputRoot:   outputRoot,
		DryRun:       true,
		TokenCounter: stubCounter{},
		TokenModel:   "stub-model",
		FileSystem:   afero.NewMemMapFs(),
	})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if report.TotalTokens != 0 || report.Model != "stub-model" {
		t.Fatalf("expected zero tokens reported for stub-model, got %d %q", report.TotalTokens, report.Model)
	}

	unnamed, unnamedError := commands.Extract(composeArchive(files, []string{"└── empty.txt"}), commands.ExtractOptions{
		OutputRoot:   outputRoot,
		DryRun:       true,
		TokenCounter: stubCounter{},
		FileSystem:   afero.NewMemMapFs(),
	})
	if unnamedError != nil {
		t.Fatalf("Extract error: %v", unnamedError)
	}
	if unnamed.Model != "stub" {
		t.Fatalf("expected counter name as model, got %q", unnamed.Model)
	}
}
