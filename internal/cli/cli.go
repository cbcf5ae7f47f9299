// Package cli provides the command line interface.
package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/unbundle/internal/commands"
	"github.com/temirov/unbundle/internal/config"
	"github.com/temirov/unbundle/internal/output"
	"github.com/temirov/unbundle/internal/services/clipboard"
	"github.com/temirov/unbundle/internal/tokenizer"
	"github.com/temirov/unbundle/internal/types"
	"github.com/temirov/unbundle/internal/utils"
)

const (
	formatFlagName        = "format"
	dryRunFlagName        = "dry-run"
	strictPathsFlagName   = "strict-paths"
	tokensFlagName        = "tokens"
	modelFlagName         = "model"
	fromClipboardFlagName = "from-clipboard"
	copyFlagName          = "copy"
	configFlagName        = "config"
	verboseFlagName       = "verbose"
	globalFlagName        = "global"
	forceFlagName         = "force"

	versionTemplate      = "unbundle version: {{.Version}}\n"
	rootUse              = "unbundle"
	rootShortDescription = "unbundle command line interface"
	rootLongDescription  = `unbundle restores the files packed into a combined archive text file.
Each record names a file, its directory relative to the output root and its content.
The archive ends with an ARBOL: tree listing that is reconciled against the extracted files.
Use --format to select raw, json, xml, or yaml output and --version to print the application version.`

	extractUse              = "extract <archive> [output-dir]"
	inspectUse              = "inspect <archive>"
	treeUse                 = "tree <archive>"
	initUse                 = "init"
	extractAlias            = "x"
	inspectAlias            = "i"
	treeAlias               = "t"
	extractShortDescription = "extract archive records to disk (" + extractAlias + ")"
	inspectShortDescription = "report what extract would write (" + inspectAlias + ")"
	treeShortDescription    = "list the archive tree section (" + treeAlias + ")"
	initShortDescription    = "write the default configuration file"

	// extractLongDescription provides detailed help for the extract command.
	extractLongDescription = `Write every record of the archive beneath the output directory and report
how the extracted files compare with the archive's tree listing.
Use - as the archive to read standard input, or --from-clipboard to read the clipboard.`
	// extractUsageExample demonstrates extract command usage.
	extractUsageExample = `  # Extract into the default extracted_files directory
  unbundle extract combined.txt

  # Extract into ./restored and print a JSON report
  unbundle extract combined.txt restored --format json

  # Preview the extraction with token counts
  unbundle extract combined.txt --dry-run --tokens`

	inspectLongDescription = `Parse the archive and report the files, directories and tree reconciliation
an extraction would produce, without writing anything.`
	inspectUsageExample = `  unbundle inspect combined.txt --format yaml`

	treeLongDescription = `Print the entries of the archive's ARBOL: tree section.`
	treeUsageExample    = `  unbundle tree combined.txt --format xml`

	initLongDescription = `Write a configuration file with the default settings to ./config.yaml,
or to ~/.unbundle/config.yaml with --global.`

	formatFlagDescription        = "output format (raw, json, xml, yaml)"
	dryRunFlagDescription        = "report the extraction without writing files"
	strictPathsFlagDescription   = "reject paths that are not portable across operating systems"
	tokensFlagDescription        = "include token counts"
	modelFlagDescription         = "tokenizer model to use for token counting"
	fromClipboardFlagDescription = "read the archive from the clipboard"
	copyFlagDescription          = "copy the rendered output to the clipboard"
	configFlagDescription        = "path to a configuration file"
	verboseFlagDescription       = "log every directory and file written"
	globalFlagDescription        = "write the global configuration"
	forceFlagDescription         = "overwrite an existing configuration file"

	// DefaultOutputDirectory receives extracted files when no directory is given.
	DefaultOutputDirectory = "extracted_files"

	invalidFormatMessage         = "invalid format value '%s'"
	errorTooManyArguments        = "too many arguments: %v"
	errorClipboardReadFormat     = "read archive from clipboard: %w"
	errorClipboardCopyFormat     = "copy output to clipboard: %w"
	errorLoadConfigurationFormat = "load configuration: %w"
	errorWorkingDirectoryFormat  = "unable to determine working directory: %w"
	initSuccessFormat            = "Configuration written to %s\n"
	clipboardArchiveName         = "<clipboard>"
	logFieldArchive              = "archive"
	logFieldOutput               = "output"
	logExtractionStarted         = "extracting archive"
)

// ErrArchiveArgumentMissing indicates that neither an archive path nor --from-clipboard was given.
var ErrArchiveArgumentMissing = errors.New("an archive path is required unless --" + fromClipboardFlagName + " is set")

// Dependencies holds the collaborators the commands use. Zero values are
// replaced with the operating system implementations.
type Dependencies struct {
	Logger           *zap.Logger
	LogLevel         *zap.AtomicLevel
	FileSystem       afero.Fs
	Clipboard        clipboard.Clipboard
	WorkingDirectory string
}

func (dependencies Dependencies) withDefaults() Dependencies {
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.FileSystem == nil {
		dependencies.FileSystem = afero.NewOsFs()
	}
	if dependencies.Clipboard == nil {
		dependencies.Clipboard = clipboard.NewService()
	}
	return dependencies
}

// runtimeState is filled in once flags are parsed and shared by every subcommand.
type runtimeState struct {
	dependencies      Dependencies
	configurationPath string
	verbose           bool
	configuration     config.ApplicationConfiguration
	workingDirectory  string
}

// Execute runs the unbundle application.
func Execute(logger *zap.Logger, level *zap.AtomicLevel) error {
	rootCommand := NewRootCommand(Dependencies{Logger: logger, LogLevel: level})
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.Execute()
}

// NewRootCommand builds the root Cobra command with every subcommand attached.
func NewRootCommand(dependencies Dependencies) *cobra.Command {
	state := &runtimeState{dependencies: dependencies.withDefaults()}

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Version:       utils.GetApplicationVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return state.prepare()
		},
	}
	rootCommand.SetVersionTemplate(versionTemplate)
	rootCommand.PersistentFlags().StringVar(&state.configurationPath, configFlagName, "", configFlagDescription)
	registerBooleanFlag(rootCommand.PersistentFlags(), &state.verbose, verboseFlagName, false, verboseFlagDescription)
	rootCommand.AddCommand(
		createExtractionCommand(state, false),
		createExtractionCommand(state, true),
		createTreeCommand(state),
		createInitCommand(state),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

func (state *runtimeState) prepare() error {
	if state.verbose && state.dependencies.LogLevel != nil {
		state.dependencies.LogLevel.SetLevel(zap.DebugLevel)
	}
	state.workingDirectory = state.dependencies.WorkingDirectory
	if state.workingDirectory == "" {
		currentDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return fmt.Errorf(errorWorkingDirectoryFormat, workingDirectoryError)
		}
		state.workingDirectory = currentDirectory
	}
	configuration, loadError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: state.workingDirectory,
		ExplicitFilePath: state.configurationPath,
	})
	if loadError != nil {
		return fmt.Errorf(errorLoadConfigurationFormat, loadError)
	}
	state.configuration = configuration
	return nil
}

type extractionFlags struct {
	format        string
	dryRun        bool
	strictPaths   bool
	tokens        bool
	model         string
	fromClipboard bool
	copyOutput    bool
}

// applyConfiguration fills every flag the user did not set from the loaded configuration.
func (flags *extractionFlags) applyConfiguration(command *cobra.Command, configuration config.ExtractConfiguration) {
	changed := command.Flags().Changed
	if !changed(formatFlagName) && configuration.Format != "" {
		flags.format = configuration.Format
	}
	if !changed(dryRunFlagName) && configuration.DryRun != nil {
		flags.dryRun = *configuration.DryRun
	}
	if !changed(strictPathsFlagName) && configuration.StrictPaths != nil {
		flags.strictPaths = *configuration.StrictPaths
	}
	if !changed(tokensFlagName) && configuration.Tokens.Enabled != nil {
		flags.tokens = *configuration.Tokens.Enabled
	}
	if !changed(modelFlagName) && configuration.Tokens.Model != "" {
		flags.model = configuration.Tokens.Model
	}
	if !changed(copyFlagName) && configuration.Copy != nil {
		flags.copyOutput = *configuration.Copy
	}
}

// createExtractionCommand returns the extract subcommand, or the inspect
// subcommand when inspectOnly is set.
func createExtractionCommand(state *runtimeState, inspectOnly bool) *cobra.Command {
	flags := extractionFlags{format: types.FormatRaw, model: tokenizer.DefaultModel}

	extractionCommand := &cobra.Command{
		Use:     extractUse,
		Aliases: []string{extractAlias},
		Short:   extractShortDescription,
		Long:    extractLongDescription,
		Example: extractUsageExample,
		Args:    cobra.RangeArgs(0, 2),
		RunE: func(command *cobra.Command, arguments []string) error {
			flags.applyConfiguration(command, state.configuration.Extract)
			if inspectOnly {
				flags.dryRun = true
			}
			return runExtraction(command, state, flags, arguments, inspectOnly)
		},
	}
	if inspectOnly {
		extractionCommand.Use = inspectUse
		extractionCommand.Aliases = []string{inspectAlias}
		extractionCommand.Short = inspectShortDescription
		extractionCommand.Long = inspectLongDescription
		extractionCommand.Example = inspectUsageExample
		extractionCommand.Args = cobra.MaximumNArgs(1)
	}

	flagSet := extractionCommand.Flags()
	flagSet.StringVar(&flags.format, formatFlagName, types.FormatRaw, formatFlagDescription)
	if !inspectOnly {
		registerBooleanFlag(flagSet, &flags.dryRun, dryRunFlagName, false, dryRunFlagDescription)
	}
	registerBooleanFlag(flagSet, &flags.strictPaths, strictPathsFlagName, false, strictPathsFlagDescription)
	registerBooleanFlag(flagSet, &flags.tokens, tokensFlagName, false, tokensFlagDescription)
	flagSet.StringVar(&flags.model, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)
	registerBooleanFlag(flagSet, &flags.fromClipboard, fromClipboardFlagName, false, fromClipboardFlagDescription)
	registerBooleanFlag(flagSet, &flags.copyOutput, copyFlagName, false, copyFlagDescription)
	return extractionCommand
}

func runExtraction(command *cobra.Command, state *runtimeState, flags extractionFlags, arguments []string, inspectOnly bool) error {
	format := strings.ToLower(flags.format)
	if !output.IsSupportedFormat(format) {
		return fmt.Errorf(invalidFormatMessage, format)
	}

	archiveName, archiveText, remaining, loadError := loadArchiveText(command, state, flags.fromClipboard, arguments)
	if loadError != nil {
		return loadError
	}
	if inspectOnly && len(remaining) > 0 {
		return fmt.Errorf(errorTooManyArguments, remaining)
	}
	if len(remaining) > 1 {
		return fmt.Errorf(errorTooManyArguments, remaining)
	}

	outputRoot := DefaultOutputDirectory
	if state.configuration.Extract.Output != "" {
		outputRoot = state.configuration.Extract.Output
	}
	if len(remaining) == 1 {
		outputRoot = remaining[0]
	}

	var tokenCounter tokenizer.Counter
	var tokenModel string
	if flags.tokens {
		createdCounter, resolvedModel, counterError := tokenizer.NewCounter(tokenizer.Config{Model: flags.model})
		if counterError != nil {
			return counterError
		}
		tokenCounter = createdCounter
		tokenModel = resolvedModel
	}

	logger := state.dependencies.Logger
	logger.Debug(logExtractionStarted, zap.String(logFieldArchive, archiveName), zap.String(logFieldOutput, outputRoot))
	report, extractError := commands.Extract(archiveText, commands.ExtractOptions{
		ArchiveName:  archiveName,
		OutputRoot:   outputRoot,
		DryRun:       flags.dryRun,
		StrictPaths:  flags.strictPaths,
		TokenCounter: tokenCounter,
		TokenModel:   tokenModel,
		FileSystem:   state.dependencies.FileSystem,
		Logger:       logger,
	})
	if extractError != nil {
		return extractError
	}
	return emit(command, state, flags.copyOutput, func(writer io.Writer) error {
		return output.RenderReport(writer, report, format)
	})
}

// loadArchiveText returns the archive display name, its text and the
// arguments left after the archive argument was consumed.
func loadArchiveText(command *cobra.Command, state *runtimeState, fromClipboard bool, arguments []string) (string, string, []string, error) {
	if fromClipboard {
		clipboardText, pasteError := state.dependencies.Clipboard.Paste()
		if pasteError != nil {
			return "", "", nil, fmt.Errorf(errorClipboardReadFormat, pasteError)
		}
		archiveText, decodeError := commands.DecodeArchive(clipboardArchiveName, []byte(clipboardText))
		if decodeError != nil {
			return "", "", nil, decodeError
		}
		return clipboardArchiveName, archiveText, arguments, nil
	}
	if len(arguments) == 0 {
		return "", "", nil, ErrArchiveArgumentMissing
	}
	archivePath := arguments[0]
	archiveText, loadError := commands.LoadArchive(state.dependencies.FileSystem, archivePath, command.InOrStdin())
	if loadError != nil {
		return "", "", nil, loadError
	}
	return commands.DisplayArchiveName(archivePath), archiveText, arguments[1:], nil
}

// createTreeCommand returns the tree subcommand.
func createTreeCommand(state *runtimeState) *cobra.Command {
	var outputFormat string
	var fromClipboard bool
	var copyOutput bool

	treeCommand := &cobra.Command{
		Use:     treeUse,
		Aliases: []string{treeAlias},
		Short:   treeShortDescription,
		Long:    treeLongDescription,
		Example: treeUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			treeConfiguration := state.configuration.Tree
			if !command.Flags().Changed(formatFlagName) && treeConfiguration.Format != "" {
				outputFormat = treeConfiguration.Format
			}
			if !command.Flags().Changed(copyFlagName) && treeConfiguration.Copy != nil {
				copyOutput = *treeConfiguration.Copy
			}
			format := strings.ToLower(outputFormat)
			if !output.IsSupportedFormat(format) {
				return fmt.Errorf(invalidFormatMessage, format)
			}

			archiveName, archiveText, remaining, loadError := loadArchiveText(command, state, fromClipboard, arguments)
			if loadError != nil {
				return loadError
			}
			if len(remaining) > 0 {
				return fmt.Errorf(errorTooManyArguments, remaining)
			}
			listing, listError := commands.ListTree(archiveName, archiveText)
			if listError != nil {
				return listError
			}
			return emit(command, state, copyOutput, func(writer io.Writer) error {
				return output.RenderTreeListing(writer, listing, format)
			})
		},
	}

	treeCommand.Flags().StringVar(&outputFormat, formatFlagName, types.FormatRaw, formatFlagDescription)
	registerBooleanFlag(treeCommand.Flags(), &fromClipboard, fromClipboardFlagName, false, fromClipboardFlagDescription)
	registerBooleanFlag(treeCommand.Flags(), &copyOutput, copyFlagName, false, copyFlagDescription)
	return treeCommand
}

// createInitCommand returns the init subcommand.
func createInitCommand(state *runtimeState) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			writtenPath, initError := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: state.workingDirectory,
			})
			if initError != nil {
				return initError
			}
			_, printError := fmt.Fprintf(command.OutOrStdout(), initSuccessFormat, writtenPath)
			return printError
		},
	}

	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

// emit renders output to the command's standard output and, when requested,
// to the clipboard as well.
func emit(command *cobra.Command, state *runtimeState, copyOutput bool, render func(io.Writer) error) error {
	var buffer bytes.Buffer
	if renderError := render(&buffer); renderError != nil {
		return renderError
	}
	if _, writeError := command.OutOrStdout().Write(buffer.Bytes()); writeError != nil {
		return writeError
	}
	if !copyOutput {
		return nil
	}
	if copyError := state.dependencies.Clipboard.Copy(buffer.String()); copyError != nil {
		return fmt.Errorf(errorClipboardCopyFormat, copyError)
	}
	return nil
}
