package gitrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/temirov/gitpublish/internal/execshell"
)

const (
	gitRemoteSubcommandConstant          = "remote"
	gitRemoteGetURLSubcommandConstant    = "get-url"
	remoteResolverExecutorMissingMessage = "remote resolver git executor not configured"
	remoteNameRequiredMessageConstant    = "remote name is required"
)

var (
	// ErrRemoteResolverExecutorNotConfigured indicates the resolver was built without a git executor.
	ErrRemoteResolverExecutorNotConfigured = errors.New(remoteResolverExecutorMissingMessage)
	// ErrRemoteNameRequired indicates an empty remote name.
	ErrRemoteNameRequired = errors.New(remoteNameRequiredMessageConstant)
)

// RemoteResolver maps a named git remote onto its GitHub repository identifier.
type RemoteResolver struct {
	gitExecutor GitExecutor
}

// NewRemoteResolver validates dependencies and constructs a RemoteResolver.
func NewRemoteResolver(gitExecutor GitExecutor) (*RemoteResolver, error) {
	if gitExecutor == nil {
		return nil, ErrRemoteResolverExecutorNotConfigured
	}
	return &RemoteResolver{gitExecutor: gitExecutor}, nil
}

// RepositoryIdentifier returns owner/name for the remote configured in repositoryRoot.
func (resolver *RemoteResolver) RepositoryIdentifier(executionContext context.Context, repositoryRoot string, remoteName string) (string, error) {
	trimmedRemoteName := strings.TrimSpace(remoteName)
	if len(trimmedRemoteName) == 0 {
		return "", ErrRemoteNameRequired
	}

	executionResult, executionError := resolver.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRemoteSubcommandConstant, gitRemoteGetURLSubcommandConstant, trimmedRemoteName},
		WorkingDirectory: repositoryRoot,
	})
	if executionError != nil {
		return "", executionError
	}

	remoteURL, parseError := ParseRemoteURL(executionResult.StandardOutput)
	if parseError != nil {
		return "", parseError
	}
	return remoteURL.FullName(), nil
}
