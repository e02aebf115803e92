// Package dependencies supplies production defaults for collaborators that
// command builders leave unset.
package dependencies

import (
	"context"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/gitpublish/internal/execshell"
	"github.com/temirov/gitpublish/internal/gitrepo"
	"github.com/temirov/gitpublish/internal/ui"
)

// GitHubCLIExecutor runs gh commands.
type GitHubCLIExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default
// that mirrors command events to the console logger.
func ResolveGitExecutor(existing gitrepo.GitExecutor, logger *zap.Logger, consoleLogger *zap.Logger) (gitrepo.GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}
	return newShellExecutor(logger, consoleLogger)
}

// ResolveGitHubCLIExecutor returns the provided executor or constructs a shell-backed default.
func ResolveGitHubCLIExecutor(existing GitHubCLIExecutor, logger *zap.Logger, consoleLogger *zap.Logger) (GitHubCLIExecutor, error) {
	if existing != nil {
		return existing, nil
	}
	return newShellExecutor(logger, consoleLogger)
}

// ResolveRepositoryLocator returns the provided locator or one that starts from the process working directory.
func ResolveRepositoryLocator(existing gitrepo.RepositoryRootProvider) gitrepo.RepositoryRootProvider {
	if existing != nil {
		return existing
	}
	return gitrepo.NewRepositoryLocator("")
}

// ResolveFileSystem returns the provided filesystem or an OS-backed default.
func ResolveFileSystem(existing afero.Fs) afero.Fs {
	if existing != nil {
		return existing
	}
	return afero.NewOsFs()
}

func newShellExecutor(logger *zap.Logger, consoleLogger *zap.Logger) (*execshell.ShellExecutor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	options := make([]execshell.ShellExecutorOption, 0, 1)
	if consoleLogger != nil {
		options = append(options, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(consoleLogger)))
	}
	return execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), options...)
}
