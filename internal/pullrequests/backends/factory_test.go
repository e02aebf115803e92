package backends_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitpublish/internal/execshell"
	"github.com/temirov/gitpublish/internal/githubauth"
	"github.com/temirov/gitpublish/internal/pullrequests"
	"github.com/temirov/gitpublish/internal/pullrequests/backends"
)

type stubGitHubExecutor struct {
	recordedDetails []execshell.CommandDetails
	standardOutput  string
}

func (executor *stubGitHubExecutor) ExecuteGitHubCLI(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedDetails = append(executor.recordedDetails, details)
	return execshell.ExecutionResult{StandardOutput: executor.standardOutput}, nil
}

type stubGitExecutor struct {
	recordedDetails []execshell.CommandDetails
}

func (executor *stubGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedDetails = append(executor.recordedDetails, details)
	return execshell.ExecutionResult{StandardOutput: "git@github.com:brave/brave-core.git\n"}, nil
}

func emptyEnvironment() *githubauth.TokenResolver {
	resolver := githubauth.NewTokenResolverWithLookup(func(string) (string, bool) { return "", false })
	return &resolver
}

func TestNewServiceSelectsCLIBackend(testInstance *testing.T) {
	gitHubExecutor := &stubGitHubExecutor{standardOutput: `[{"number":5}]`}
	service, creationError := backends.NewService(
		context.Background(),
		pullrequests.CommandConfiguration{Backend: pullrequests.BackendKindCLI, Repository: "brave/brave-core"},
		backends.Collaborators{GitHubExecutor: gitHubExecutor},
	)
	require.NoError(testInstance, creationError)

	exists, lookupError := service.PullRequestExists(context.Background(), pullrequests.PullRequestQuery{HeadBranch: "perf-results"})
	require.NoError(testInstance, lookupError)
	require.True(testInstance, exists)
	require.Len(testInstance, gitHubExecutor.recordedDetails, 1)
	require.Contains(testInstance, gitHubExecutor.recordedDetails[0].Arguments, "brave/brave-core")
}

func TestNewServiceRequiresTokenForAPIBackend(testInstance *testing.T) {
	_, creationError := backends.NewService(
		context.Background(),
		pullrequests.CommandConfiguration{Backend: pullrequests.BackendKindAPI},
		backends.Collaborators{TokenResolver: emptyEnvironment(), GitExecutor: &stubGitExecutor{}},
	)
	require.ErrorIs(testInstance, creationError, githubauth.ErrTokenMissing)
}

func TestNewServiceBuildsAPIBackendWithConfiguredToken(testInstance *testing.T) {
	service, creationError := backends.NewService(
		context.Background(),
		pullrequests.CommandConfiguration{Backend: pullrequests.BackendKindAPI, Token: "ghp_configured", APIBaseURL: "http://127.0.0.1:1/"},
		backends.Collaborators{TokenResolver: emptyEnvironment(), GitExecutor: &stubGitExecutor{}},
	)
	require.NoError(testInstance, creationError)
	require.NotNil(testInstance, service)
}

func TestNewServiceRejectsUnknownBackend(testInstance *testing.T) {
	_, creationError := backends.NewService(
		context.Background(),
		pullrequests.CommandConfiguration{Backend: "gerrit"},
		backends.Collaborators{},
	)
	require.ErrorContains(testInstance, creationError, "unsupported pull request backend")
}
