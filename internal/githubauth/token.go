package githubauth

import (
	"errors"
	"os"
	"strings"
)

// Environment variable names consulted for GitHub credentials, in preference order.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

const tokenMissingMessageConstant = "github token not found: set token in configuration or one of GH_TOKEN, GITHUB_TOKEN, GITHUB_API_TOKEN"

// ErrTokenMissing indicates that no configured or environment token was available.
var ErrTokenMissing = errors.New(tokenMissingMessageConstant)

var tokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// EnvironmentLookup reads a single environment variable.
type EnvironmentLookup func(key string) (string, bool)

// TokenResolver picks the GitHub token for API calls.
type TokenResolver struct {
	lookup EnvironmentLookup
}

// NewTokenResolver builds a resolver over the process environment.
func NewTokenResolver() TokenResolver {
	return TokenResolver{lookup: os.LookupEnv}
}

// NewTokenResolverWithLookup builds a resolver over a custom environment source.
func NewTokenResolverWithLookup(lookup EnvironmentLookup) TokenResolver {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return TokenResolver{lookup: lookup}
}

// Resolve returns the configured token when set, otherwise the first non-empty environment token.
func (resolver TokenResolver) Resolve(configuredToken string) (string, error) {
	if trimmedToken := strings.TrimSpace(configuredToken); len(trimmedToken) > 0 {
		return trimmedToken, nil
	}
	lookup := resolver.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, key := range tokenPreference {
		value, exists := lookup(key)
		if !exists {
			continue
		}
		if trimmedValue := strings.TrimSpace(value); len(trimmedValue) > 0 {
			return trimmedValue, nil
		}
	}
	return "", ErrTokenMissing
}
