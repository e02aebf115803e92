package inspect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitpublish/internal/dependencies"
	"github.com/temirov/gitpublish/internal/gitrepo"
)

const (
	fileShowUseConstant                = "file-show"
	fileShowShortDescriptionConstant   = "Print a file as recorded at a revision"
	fileShowLongDescriptionConstant    = "file-show prints the contents of a repository file at the given revision and fails when the file does not exist there."
	revisionFlagNameConstant           = "revision"
	revisionFlagDescriptionConstant    = "Revision to read from (commit, branch, or tag)"
	pathFlagNameConstant               = "path"
	pathFlagDescriptionConstant        = "File path, absolute or relative to the repository root"
	missingRevisionMessageConstant     = "revision is required; supply --revision"
	missingPathMessageConstant         = "file path is required; supply --path"
	fileNotFoundMessageConstant        = "file not found at revision"
	fileNotFoundErrorTemplateConstant  = "%w: %s at %s"
	logMessageFileReadConstant         = "read file at revision"
	logFieldRevisionConstant           = "revision"
	logFieldPathConstant               = "path"
	logFieldContentLengthBytesConstant = "content_bytes"
)

// ErrFileNotFoundAtRevision indicates the requested file does not exist at the revision.
var ErrFileNotFoundAtRevision = errors.New(fileNotFoundMessageConstant)

// FileShowCommandBuilder assembles the file-show command.
type FileShowCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConsoleLoggerProvider LoggerProvider
	GitExecutor           gitrepo.GitExecutor
	RepositoryLocator     gitrepo.RepositoryRootProvider
}

// Build constructs the file-show command.
func (builder *FileShowCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   fileShowUseConstant,
		Short: fileShowShortDescriptionConstant,
		Long:  fileShowLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	command.Flags().String(revisionFlagNameConstant, "", revisionFlagDescriptionConstant)
	command.Flags().String(pathFlagNameConstant, "", pathFlagDescriptionConstant)

	return command, nil
}

func (builder *FileShowCommandBuilder) run(command *cobra.Command, arguments []string) error {
	revision, revisionFlagError := command.Flags().GetString(revisionFlagNameConstant)
	if revisionFlagError != nil {
		return revisionFlagError
	}
	if len(strings.TrimSpace(revision)) == 0 {
		_ = command.Help()
		return errors.New(missingRevisionMessageConstant)
	}
	filePath, pathFlagError := command.Flags().GetString(pathFlagNameConstant)
	if pathFlagError != nil {
		return pathFlagError
	}
	if len(strings.TrimSpace(filePath)) == 0 {
		_ = command.Help()
		return errors.New(missingPathMessageConstant)
	}

	logger := resolveLogger(builder.LoggerProvider)
	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, resolveLogger(builder.ConsoleLoggerProvider))
	if executorError != nil {
		return executorError
	}

	revisionReader, readerError := gitrepo.NewRevisionReader(gitExecutor, dependencies.ResolveRepositoryLocator(builder.RepositoryLocator))
	if readerError != nil {
		return readerError
	}

	contents, found, readError := revisionReader.FileAtRevision(command.Context(), filePath, revision)
	if readError != nil {
		return readError
	}
	if !found {
		return fmt.Errorf(fileNotFoundErrorTemplateConstant, ErrFileNotFoundAtRevision, filePath, revision)
	}

	logger.Debug(
		logMessageFileReadConstant,
		zap.String(logFieldRevisionConstant, revision),
		zap.String(logFieldPathConstant, filePath),
		zap.Int(logFieldContentLengthBytesConstant, len(contents)),
	)
	fmt.Fprint(command.OutOrStdout(), contents)
	return nil
}
