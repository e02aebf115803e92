package gitrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
)

const (
	notRepositoryErrorTemplateConstant          = "%s is not inside a git repository: %s"
	workingDirectoryUnavailableTemplateConstant = "unable to determine working directory: %w"
)

// WorkingDirectoryProvider reports the directory discovery starts from when none is configured.
type WorkingDirectoryProvider func() (string, error)

// NotRepositoryError indicates that no worktree contains the start directory.
type NotRepositoryError struct {
	StartDirectory string
	Cause          error
}

// Error describes the failed discovery.
func (repositoryError NotRepositoryError) Error() string {
	return fmt.Sprintf(notRepositoryErrorTemplateConstant, repositoryError.StartDirectory, repositoryError.Cause)
}

// Unwrap exposes the go-git failure.
func (repositoryError NotRepositoryError) Unwrap() error {
	return repositoryError.Cause
}

// RepositoryLocator finds the root directory of the repository containing a start directory.
type RepositoryLocator struct {
	startDirectory           string
	workingDirectoryProvider WorkingDirectoryProvider
}

// NewRepositoryLocator constructs a locator; an empty start directory means the process working directory.
func NewRepositoryLocator(startDirectory string) *RepositoryLocator {
	return &RepositoryLocator{
		startDirectory:           strings.TrimSpace(startDirectory),
		workingDirectoryProvider: os.Getwd,
	}
}

// RepositoryRoot returns the absolute worktree root, walking up parent directories until a .git entry is found.
func (locator *RepositoryLocator) RepositoryRoot(executionContext context.Context) (string, error) {
	if executionContext != nil {
		if contextError := executionContext.Err(); contextError != nil {
			return "", contextError
		}
	}

	startDirectory, startDirectoryError := locator.resolveStartDirectory()
	if startDirectoryError != nil {
		return "", startDirectoryError
	}

	repository, openError := git.PlainOpenWithOptions(startDirectory, &git.PlainOpenOptions{DetectDotGit: true})
	if openError != nil {
		return "", NotRepositoryError{StartDirectory: startDirectory, Cause: openError}
	}

	worktree, worktreeError := repository.Worktree()
	if worktreeError != nil {
		return "", NotRepositoryError{StartDirectory: startDirectory, Cause: worktreeError}
	}

	return filepath.Clean(worktree.Filesystem.Root()), nil
}

func (locator *RepositoryLocator) resolveStartDirectory() (string, error) {
	if len(locator.startDirectory) > 0 {
		return filepath.Abs(locator.startDirectory)
	}
	workingDirectory, workingDirectoryError := locator.workingDirectoryProvider()
	if workingDirectoryError != nil {
		return "", fmt.Errorf(workingDirectoryUnavailableTemplateConstant, workingDirectoryError)
	}
	return workingDirectory, nil
}
