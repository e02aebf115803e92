package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/temirov/gitpublish/internal/execshell"
)

const (
	gitShowSubcommandConstant              = "show"
	revisionPathSeparatorConstant          = ":"
	windowsPathSeparatorConstant           = "\\"
	forwardPathSeparatorConstant           = "/"
	parentDirectoryPrefixConstant          = ".."
	revisionReaderExecutorMissingMessage   = "revision reader git executor not configured"
	revisionReaderLocatorMissingMessage    = "revision reader repository locator not configured"
	revisionRequiredMessageConstant        = "revision is required"
	filePathRequiredMessageConstant        = "file path is required"
	pathOutsideRepositoryTemplateConstant  = "%s is outside repository %s"
	relativePathResolutionTemplateConstant = "unable to relate %s to repository %s: %w"
)

var (
	// ErrRevisionReaderExecutorNotConfigured indicates the reader was built without a git executor.
	ErrRevisionReaderExecutorNotConfigured = errors.New(revisionReaderExecutorMissingMessage)
	// ErrRevisionReaderLocatorNotConfigured indicates the reader was built without a repository locator.
	ErrRevisionReaderLocatorNotConfigured = errors.New(revisionReaderLocatorMissingMessage)
	// ErrRevisionRequired indicates an empty revision.
	ErrRevisionRequired = errors.New(revisionRequiredMessageConstant)
	// ErrFilePathRequired indicates an empty file path.
	ErrFilePathRequired = errors.New(filePathRequiredMessageConstant)
)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryRootProvider reports the root of the working repository.
type RepositoryRootProvider interface {
	RepositoryRoot(executionContext context.Context) (string, error)
}

// RevisionReader reads file contents as recorded at a revision.
type RevisionReader struct {
	gitExecutor       GitExecutor
	repositoryLocator RepositoryRootProvider
}

// NewRevisionReader validates dependencies and constructs a RevisionReader.
func NewRevisionReader(gitExecutor GitExecutor, repositoryLocator RepositoryRootProvider) (*RevisionReader, error) {
	if gitExecutor == nil {
		return nil, ErrRevisionReaderExecutorNotConfigured
	}
	if repositoryLocator == nil {
		return nil, ErrRevisionReaderLocatorNotConfigured
	}
	return &RevisionReader{gitExecutor: gitExecutor, repositoryLocator: repositoryLocator}, nil
}

// FileAtRevision returns the file content at revision. The boolean is false when the file or revision does not exist.
func (reader *RevisionReader) FileAtRevision(executionContext context.Context, filePath string, revision string) (string, bool, error) {
	trimmedRevision := strings.TrimSpace(revision)
	if len(trimmedRevision) == 0 {
		return "", false, ErrRevisionRequired
	}
	trimmedFilePath := strings.TrimSpace(filePath)
	if len(trimmedFilePath) == 0 {
		return "", false, ErrFilePathRequired
	}

	repositoryRoot, rootError := reader.repositoryLocator.RepositoryRoot(executionContext)
	if rootError != nil {
		return "", false, rootError
	}

	normalizedPath, normalizeError := NormalizeRepositoryPath(repositoryRoot, trimmedFilePath)
	if normalizeError != nil {
		return "", false, normalizeError
	}

	executionResult, executionError := reader.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitShowSubcommandConstant, trimmedRevision + revisionPathSeparatorConstant + normalizedPath},
		WorkingDirectory:     repositoryRoot,
		DiscardStandardError: true,
	})
	if executionError != nil {
		var failedError execshell.CommandFailedError
		if errors.As(executionError, &failedError) {
			return "", false, nil
		}
		return "", false, executionError
	}

	return executionResult.StandardOutput, true, nil
}

// NormalizeRepositoryPath converts a file path into the forward-slash, root-relative form git expects.
func NormalizeRepositoryPath(repositoryRoot string, filePath string) (string, error) {
	candidatePath := filePath
	if filepath.IsAbs(candidatePath) {
		relativePath, relativeError := filepath.Rel(repositoryRoot, candidatePath)
		if relativeError != nil {
			return "", fmt.Errorf(relativePathResolutionTemplateConstant, filePath, repositoryRoot, relativeError)
		}
		candidatePath = relativePath
	}

	normalizedPath := strings.ReplaceAll(filepath.ToSlash(candidatePath), windowsPathSeparatorConstant, forwardPathSeparatorConstant)
	if normalizedPath == parentDirectoryPrefixConstant || strings.HasPrefix(normalizedPath, parentDirectoryPrefixConstant+forwardPathSeparatorConstant) {
		return "", fmt.Errorf(pathOutsideRepositoryTemplateConstant, filePath, repositoryRoot)
	}
	return normalizedPath, nil
}
