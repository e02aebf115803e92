package githubauth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitpublish/internal/githubauth"
)

func TestTokenResolverPreference(testInstance *testing.T) {
	testCases := []struct {
		name            string
		configuredToken string
		environment     map[string]string
		expectedToken   string
		expectMissing   bool
	}{
		{
			name:            "configured_token_wins",
			configuredToken: " configured ",
			environment:     map[string]string{githubauth.EnvGitHubCLIToken: "cli"},
			expectedToken:   "configured",
		},
		{
			name:          "gh_token_before_github_token",
			environment:   map[string]string{githubauth.EnvGitHubCLIToken: "cli", githubauth.EnvGitHubToken: "actions"},
			expectedToken: "cli",
		},
		{
			name:          "blank_values_skipped",
			environment:   map[string]string{githubauth.EnvGitHubCLIToken: "  ", githubauth.EnvGitHubAPIToken: "api"},
			expectedToken: "api",
		},
		{
			name:          "nothing_available",
			environment:   map[string]string{},
			expectMissing: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			resolver := githubauth.NewTokenResolverWithLookup(func(key string) (string, bool) {
				value, exists := testCase.environment[key]
				return value, exists
			})

			token, resolveError := resolver.Resolve(testCase.configuredToken)
			if testCase.expectMissing {
				require.ErrorIs(subtest, resolveError, githubauth.ErrTokenMissing)
				require.Empty(subtest, token)
				return
			}
			require.NoError(subtest, resolveError)
			require.Equal(subtest, testCase.expectedToken, token)
		})
	}
}
