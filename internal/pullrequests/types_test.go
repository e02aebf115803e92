package pullrequests_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitpublish/internal/pullrequests"
)

func TestSplitReviewers(testInstance *testing.T) {
	testCases := []struct {
		name          string
		reviewers     []string
		expectedUsers []string
		expectedTeams []string
	}{
		{
			name:          "users_only",
			reviewers:     []string{"alice", " bob "},
			expectedUsers: []string{"alice", "bob"},
			expectedTeams: []string{},
		},
		{
			name:          "teams_use_slug",
			reviewers:     []string{"brave/devops", "alice", "brave/perf-team"},
			expectedUsers: []string{"alice"},
			expectedTeams: []string{"devops", "perf-team"},
		},
		{
			name:          "empty_entries_dropped",
			reviewers:     []string{"", "  ", "brave/"},
			expectedUsers: []string{},
			expectedTeams: []string{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			users, teams := pullrequests.SplitReviewers(testCase.reviewers)
			require.Equal(subtest, testCase.expectedUsers, users)
			require.Equal(subtest, testCase.expectedTeams, teams)
		})
	}
}

func TestNormalizeReviewersKeepsFirstOccurrence(testInstance *testing.T) {
	normalized := pullrequests.NormalizeReviewers([]string{" alice", "bob", "alice ", "", "brave/devops", "bob"})
	require.Equal(testInstance, []string{"alice", "bob", "brave/devops"}, normalized)
}

func TestCommandConfigurationSanitizeRestoresDefaults(testInstance *testing.T) {
	sanitized := pullrequests.CommandConfiguration{
		Backend:    " API ",
		Repository: " brave/brave-core ",
		Reviewers:  []string{"alice", " alice"},
		Token:      " secret ",
	}.Sanitize()

	require.Equal(testInstance, pullrequests.BackendKindAPI, sanitized.Backend)
	require.Equal(testInstance, "brave/brave-core", sanitized.Repository)
	require.Equal(testInstance, "origin", sanitized.RemoteName)
	require.Equal(testInstance, "master", sanitized.BaseBranch)
	require.Equal(testInstance, []string{"alice"}, sanitized.Reviewers)
	require.Equal(testInstance, "secret", sanitized.Token)

	require.Equal(testInstance, pullrequests.BackendKindCLI, pullrequests.CommandConfiguration{}.Sanitize().Backend)
}
