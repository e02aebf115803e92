package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const testRepositoryDirectoryConstant = "/workspace/repo"

func TestBuildStartedMessageForFetchIncludesRemoteAndBranch(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"fetch", "origin", "perf-results"},
			WorkingDirectory: testRepositoryDirectoryConstant,
		},
	}

	message := formatter.BuildStartedMessage(command)

	require.Equal(t, "Fetching perf-results from origin in /workspace/repo", message)
}

func TestBuildFailureMessageForFetchDescribesMissingBranch(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"fetch", "origin", "perf-results"},
			WorkingDirectory: testRepositoryDirectoryConstant,
		},
	}

	message := formatter.BuildFailureMessage(command, ExecutionResult{ExitCode: 128, StandardError: "fatal: couldn't find remote ref perf-results\n"})

	require.Equal(t, "Branch perf-results is not available on origin for /workspace/repo (exit code 128: fatal: couldn't find remote ref perf-results)", message)
}

func TestBuildMessagesSkipIdentityOverrides(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"-c", "user.name=bot", "-c", "user.email=bot@example.com", "commit", "-m", "update report"},
			WorkingDirectory: testRepositoryDirectoryConstant,
		},
	}

	require.Equal(t, `Creating commit in /workspace/repo with message "update report"`, formatter.BuildStartedMessage(command))
	require.Equal(t, `Created commit in /workspace/repo with message "update report"`, formatter.BuildSuccessMessage(command))
}

func TestBuildMessagesForPushUseRefspecDestination(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"push", "origin", "perf-results:perf-results"},
			WorkingDirectory: testRepositoryDirectoryConstant,
		},
	}

	require.Equal(t, "Pushing perf-results to origin from /workspace/repo", formatter.BuildStartedMessage(command))
	require.Equal(t,
		"Failed to push perf-results to origin from /workspace/repo (exit code 1: ! [rejected] (fetch first))",
		formatter.BuildFailureMessage(command, ExecutionResult{ExitCode: 1, StandardError: " ! [rejected] (fetch first)"}),
	)
	require.Equal(t,
		"Unable to push perf-results to origin from /workspace/repo: boom",
		formatter.BuildExecutionFailureMessage(command, errors.New("boom")),
	)
}

func TestBuildMessagesForCheckoutVariants(t *testing.T) {
	formatter := CommandMessageFormatter{}

	baseCommand := ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"checkout", "-f", "FETCH_HEAD"}, WorkingDirectory: testRepositoryDirectoryConstant}}
	require.Equal(t, "Checking out fetched base in /workspace/repo", formatter.BuildStartedMessage(baseCommand))

	branchCommand := ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"checkout", "-B", "perf-results"}, WorkingDirectory: testRepositoryDirectoryConstant}}
	require.Equal(t, "Resetting branch perf-results in /workspace/repo", formatter.BuildStartedMessage(branchCommand))
	require.Equal(t, "/workspace/repo now on branch perf-results", formatter.BuildSuccessMessage(branchCommand))
}

func TestBuildMessagesForShowAndTopLevel(t *testing.T) {
	formatter := CommandMessageFormatter{}

	showCommand := ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"show", "HEAD~1:reports/latest.json"}}}
	require.Equal(t, "Reading HEAD~1:reports/latest.json in current directory", formatter.BuildStartedMessage(showCommand))

	topLevelCommand := ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"rev-parse", "--show-toplevel"}, WorkingDirectory: "/workspace/repo/sub"}}
	require.Equal(t, "Repository root for /workspace/repo/sub is unknown", formatter.BuildSuccessMessage(topLevelCommand))
}

func TestBuildMessagesForGitHubPullRequests(t *testing.T) {
	formatter := CommandMessageFormatter{}

	listCommand := ShellCommand{Name: CommandGitHub, Details: CommandDetails{Arguments: []string{"pr", "list", "--head", "perf-results", "--json", "number"}}}
	require.Equal(t, "Looking up pull requests from perf-results", formatter.BuildStartedMessage(listCommand))

	createCommand := ShellCommand{Name: CommandGitHub, Details: CommandDetails{Arguments: []string{"pr", "create", "--base", "master", "--head", "perf-results", "--title", "t", "--body", "b"}}}
	require.Equal(t, "Opened pull request from perf-results into master", formatter.BuildSuccessMessage(createCommand))
}

func TestBuildMessagesFallBackToGenericLabel(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"--version"}, WorkingDirectory: "."}}

	require.Equal(t, "Running git --version (in .)", formatter.BuildStartedMessage(command))
	require.Equal(t, "git --version (in .) failed with exit code 2", formatter.BuildFailureMessage(command, ExecutionResult{ExitCode: 2}))
}
