package backends

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/gitpublish/internal/dependencies"
	"github.com/temirov/gitpublish/internal/githubapi"
	"github.com/temirov/gitpublish/internal/githubauth"
	"github.com/temirov/gitpublish/internal/githubcli"
	"github.com/temirov/gitpublish/internal/gitrepo"
	"github.com/temirov/gitpublish/internal/pullrequests"
)

const unsupportedBackendTemplateConstant = "unsupported pull request backend %q; expected cli or api"

// Collaborators supplies optional overrides for the backends' external dependencies.
type Collaborators struct {
	GitHubExecutor dependencies.GitHubCLIExecutor
	GitExecutor    gitrepo.GitExecutor
	TokenResolver  *githubauth.TokenResolver
	Logger         *zap.Logger
	ConsoleLogger  *zap.Logger
}

// NewService builds a pullrequests.Service over the backend selected by configuration.
func NewService(executionContext context.Context, configuration pullrequests.CommandConfiguration, collaborators Collaborators) (*pullrequests.Service, error) {
	configuration = configuration.Sanitize()
	logger := collaborators.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	settings := pullrequests.Settings{
		DefaultRepository: configuration.Repository,
		RemoteName:        configuration.RemoteName,
		DefaultReviewers:  configuration.Reviewers,
	}

	switch configuration.Backend {
	case pullrequests.BackendKindCLI:
		gitHubExecutor, executorError := dependencies.ResolveGitHubCLIExecutor(collaborators.GitHubExecutor, logger, collaborators.ConsoleLogger)
		if executorError != nil {
			return nil, executorError
		}
		client, clientError := githubcli.NewClient(gitHubExecutor, githubcli.WithToken(configuration.Token))
		if clientError != nil {
			return nil, clientError
		}
		return pullrequests.NewService(pullrequests.Dependencies{Backend: client, Logger: logger}, settings)

	case pullrequests.BackendKindAPI:
		tokenResolver := githubauth.NewTokenResolver()
		if collaborators.TokenResolver != nil {
			tokenResolver = *collaborators.TokenResolver
		}
		token, tokenError := tokenResolver.Resolve(configuration.Token)
		if tokenError != nil {
			return nil, tokenError
		}
		client, clientError := githubapi.NewClient(executionContext, githubapi.Configuration{Token: token, BaseURL: configuration.APIBaseURL})
		if clientError != nil {
			return nil, clientError
		}
		gitExecutor, executorError := dependencies.ResolveGitExecutor(collaborators.GitExecutor, logger, collaborators.ConsoleLogger)
		if executorError != nil {
			return nil, executorError
		}
		remoteResolver, resolverError := gitrepo.NewRemoteResolver(gitExecutor)
		if resolverError != nil {
			return nil, resolverError
		}
		settings.RequireRepository = true
		return pullrequests.NewService(pullrequests.Dependencies{Backend: client, RepositoryResolver: remoteResolver, Logger: logger}, settings)

	default:
		return nil, fmt.Errorf(unsupportedBackendTemplateConstant, configuration.Backend)
	}
}
