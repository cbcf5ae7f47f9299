// Package utils provides logging, version and text helpers shared by unbundle packages.
package utils

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"strings"
)

const (
	unknownVersion     = "unknown"
	develBuildVersion  = "(devel)"
	gitExecutableName  = "git"
	gitDescribeCommand = "describe"
)

var gitDescribeArgumentSets = [][]string{
	{gitDescribeCommand, "--tags", "--exact-match"},
	{gitDescribeCommand, "--tags", "--long", "--dirty"},
}

// GetApplicationVersion reports the module version from build info, falling back
// to git describe when running from a source checkout.
func GetApplicationVersion() string {
	if buildInfo, available := debug.ReadBuildInfo(); available {
		if version := buildInfo.Main.Version; version != "" && version != develBuildVersion {
			return version
		}
	}

	repositoryDirectory := findRepositoryDirectory(".")
	if repositoryDirectory == "" {
		return unknownVersion
	}
	for _, arguments := range gitDescribeArgumentSets {
		// #nosec G204
		describeCommand := exec.Command(gitExecutableName, arguments...)
		describeCommand.Dir = repositoryDirectory
		describeOutput, describeError := describeCommand.Output()
		if describeError == nil && len(describeOutput) > 0 {
			return strings.TrimSpace(string(describeOutput))
		}
	}
	return unknownVersion
}

// findRepositoryDirectory walks upward from startDirectory looking for a .git directory.
// It returns an empty string when none is found.
func findRepositoryDirectory(startDirectory string) string {
	currentDirectory, absoluteError := filepath.Abs(startDirectory)
	if absoluteError != nil {
		return ""
	}
	for {
		information, statError := os.Stat(filepath.Join(currentDirectory, GitDirectoryName))
		if statError == nil && information.IsDir() {
			return currentDirectory
		}
		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			return ""
		}
		currentDirectory = parentDirectory
	}
}
