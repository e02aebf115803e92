package pullrequests

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	backendMissingMessageConstant        = "pull request backend not configured"
	headBranchRequiredMessageConstant    = "head branch must be provided"
	baseBranchRequiredMessageConstant    = "base branch must be provided"
	titleRequiredMessageConstant         = "pull request title must be provided"
	repositoryUnresolvedMessageConstant  = "repository must be configured or resolvable from a remote"
	repositoryResolutionErrorTemplate    = "failed to resolve repository from remote %s: %w"
	logMessageLookupCompletedConstant    = "looked up open pull requests"
	logMessagePullRequestCreatedConstant = "opened pull request"
	logFieldRepositoryConstant           = "repository"
	logFieldHeadBranchConstant           = "head"
	logFieldBaseBranchConstant           = "base"
	logFieldExistsConstant               = "exists"
	logFieldURLConstant                  = "url"
	logFieldReviewersConstant            = "reviewers"
)

var (
	// ErrBackendNotConfigured indicates the service was constructed without a backend.
	ErrBackendNotConfigured = errors.New(backendMissingMessageConstant)
	// ErrHeadBranchRequired indicates an empty head branch.
	ErrHeadBranchRequired = errors.New(headBranchRequiredMessageConstant)
	// ErrBaseBranchRequired indicates an empty base branch.
	ErrBaseBranchRequired = errors.New(baseBranchRequiredMessageConstant)
	// ErrTitleRequired indicates an empty pull request title.
	ErrTitleRequired = errors.New(titleRequiredMessageConstant)
	// ErrRepositoryUnresolved indicates that a backend needing owner/name could not obtain one.
	ErrRepositoryUnresolved = errors.New(repositoryUnresolvedMessageConstant)
)

// RepositoryResolver maps a checkout's remote onto an owner/name identifier.
type RepositoryResolver interface {
	RepositoryIdentifier(executionContext context.Context, repositoryRoot string, remoteName string) (string, error)
}

// Dependencies enumerates collaborators required by Service.
type Dependencies struct {
	Backend            Backend
	RepositoryResolver RepositoryResolver
	Logger             *zap.Logger
}

// Settings tunes how Service prepares requests for its backend.
type Settings struct {
	// RequireRepository makes the service resolve owner/name when a request omits it.
	RequireRepository bool
	DefaultRepository string
	RemoteName        string
	DefaultReviewers  []string
}

// Service validates pull request operations and delegates them to a Backend.
type Service struct {
	backend            Backend
	repositoryResolver RepositoryResolver
	logger             *zap.Logger
	settings           Settings
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies Dependencies, settings Settings) (*Service, error) {
	if dependencies.Backend == nil {
		return nil, ErrBackendNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	settings.DefaultRepository = strings.TrimSpace(settings.DefaultRepository)
	settings.RemoteName = strings.TrimSpace(settings.RemoteName)
	if len(settings.RemoteName) == 0 {
		settings.RemoteName = defaultRemoteNameConstant
	}
	settings.DefaultReviewers = NormalizeReviewers(settings.DefaultReviewers)
	return &Service{
		backend:            dependencies.Backend,
		repositoryResolver: dependencies.RepositoryResolver,
		logger:             logger,
		settings:           settings,
	}, nil
}

// PullRequestExists reports whether an open pull request has the query's head and base branches.
func (service *Service) PullRequestExists(executionContext context.Context, query PullRequestQuery) (bool, error) {
	query.HeadBranch = strings.TrimSpace(query.HeadBranch)
	if len(query.HeadBranch) == 0 {
		return false, ErrHeadBranchRequired
	}
	query.BaseBranch = strings.TrimSpace(query.BaseBranch)

	repository, repositoryError := service.resolveRepository(executionContext, query.Repository, query.WorkingDirectory)
	if repositoryError != nil {
		return false, repositoryError
	}
	query.Repository = repository

	exists, lookupError := service.backend.PullRequestExists(executionContext, query)
	if lookupError != nil {
		return false, lookupError
	}

	service.logger.Debug(
		logMessageLookupCompletedConstant,
		zap.String(logFieldRepositoryConstant, query.Repository),
		zap.String(logFieldHeadBranchConstant, query.HeadBranch),
		zap.String(logFieldBaseBranchConstant, query.BaseBranch),
		zap.Bool(logFieldExistsConstant, exists),
	)
	return exists, nil
}

// CreatePullRequest opens a pull request, adding the default reviewers to the requested ones.
func (service *Service) CreatePullRequest(executionContext context.Context, request PullRequestRequest) (PullRequestResult, error) {
	request.HeadBranch = strings.TrimSpace(request.HeadBranch)
	if len(request.HeadBranch) == 0 {
		return PullRequestResult{}, ErrHeadBranchRequired
	}
	request.BaseBranch = strings.TrimSpace(request.BaseBranch)
	if len(request.BaseBranch) == 0 {
		return PullRequestResult{}, ErrBaseBranchRequired
	}
	if len(strings.TrimSpace(request.Title)) == 0 {
		return PullRequestResult{}, ErrTitleRequired
	}

	repository, repositoryError := service.resolveRepository(executionContext, request.Repository, request.WorkingDirectory)
	if repositoryError != nil {
		return PullRequestResult{}, repositoryError
	}
	request.Repository = repository
	request.Reviewers = NormalizeReviewers(append(append([]string{}, request.Reviewers...), service.settings.DefaultReviewers...))

	// A backend may report a created pull request together with a reviewer request failure.
	result, creationError := service.backend.CreatePullRequest(executionContext, request)
	if creationError != nil {
		return result, creationError
	}

	service.logger.Info(
		logMessagePullRequestCreatedConstant,
		zap.String(logFieldRepositoryConstant, request.Repository),
		zap.String(logFieldHeadBranchConstant, request.HeadBranch),
		zap.String(logFieldBaseBranchConstant, request.BaseBranch),
		zap.Strings(logFieldReviewersConstant, request.Reviewers),
		zap.String(logFieldURLConstant, result.URL),
	)
	return result, nil
}

func (service *Service) resolveRepository(executionContext context.Context, requestedRepository string, workingDirectory string) (string, error) {
	repository := strings.TrimSpace(requestedRepository)
	if len(repository) == 0 {
		repository = service.settings.DefaultRepository
	}
	if len(repository) > 0 || !service.settings.RequireRepository {
		return repository, nil
	}
	if service.repositoryResolver == nil {
		return "", ErrRepositoryUnresolved
	}
	resolvedRepository, resolutionError := service.repositoryResolver.RepositoryIdentifier(executionContext, workingDirectory, service.settings.RemoteName)
	if resolutionError != nil {
		return "", fmt.Errorf(repositoryResolutionErrorTemplate, service.settings.RemoteName, resolutionError)
	}
	return resolvedRepository, nil
}
