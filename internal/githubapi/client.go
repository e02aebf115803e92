package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/temirov/gitpublish/internal/pullrequests"
)

const (
	repositorySeparatorConstant            = "/"
	urlPathSeparatorConstant               = "/"
	openStateConstant                      = "open"
	headReferenceTemplateConstant          = "%s:%s"
	tokenRequiredMessageConstant           = "github api token must be provided"
	repositoryFieldNameConstant            = "repository"
	headBranchFieldNameConstant            = "head_branch"
	baseBranchFieldNameConstant            = "base_branch"
	titleFieldNameConstant                 = "title"
	extraArgumentsFieldNameConstant        = "extra_arguments"
	requiredValueMessageConstant           = "value required"
	repositoryFormatMessageConstant        = "expected owner/name"
	extraArgumentsUnsupportedMessage       = "extra arguments are only supported by the cli backend"
	invalidInputErrorTemplateConstant      = "%s: %s"
	operationErrorTemplateConstant         = "%s operation failed: %s"
	baseURLParseErrorTemplateConstant      = "invalid github api base url %q: %w"
	reviewerRequestErrorTemplateConstant   = "pull request %s opened but reviewers could not be requested: %w"
	pullRequestExistsOperationNameConstant = OperationName("PullRequestExists")
	createPullRequestOperationNameConstant = OperationName("CreatePullRequest")
	requestReviewersOperationNameConstant  = OperationName("RequestReviewers")
	pullRequestLookupPageSizeConstant      = 1
)

// OperationName identifies a REST workflow performed by the client.
type OperationName string

// ErrTokenRequired indicates the client was constructed without an access token.
var ErrTokenRequired = errors.New(tokenRequiredMessageConstant)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps REST failures.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	return fmt.Sprintf(operationErrorTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying go-github error.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// Configuration describes how to reach the GitHub REST API.
type Configuration struct {
	Token string
	// BaseURL targets GitHub Enterprise or a test server; empty means api.github.com.
	BaseURL string
}

// Client implements pull request operations with the GitHub REST API.
type Client struct {
	pullRequests *github.PullRequestsService
}

// NewClient builds an authenticated REST client.
func NewClient(executionContext context.Context, configuration Configuration) (*Client, error) {
	token := strings.TrimSpace(configuration.Token)
	if len(token) == 0 {
		return nil, ErrTokenRequired
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	githubClient := github.NewClient(oauth2.NewClient(executionContext, tokenSource))

	if baseURL := strings.TrimSpace(configuration.BaseURL); len(baseURL) > 0 {
		if !strings.HasSuffix(baseURL, urlPathSeparatorConstant) {
			baseURL += urlPathSeparatorConstant
		}
		parsedBaseURL, parseError := url.Parse(baseURL)
		if parseError != nil {
			return nil, fmt.Errorf(baseURLParseErrorTemplateConstant, baseURL, parseError)
		}
		githubClient.BaseURL = parsedBaseURL
		githubClient.UploadURL = parsedBaseURL
	}

	return &Client{pullRequests: githubClient.PullRequests}, nil
}

// PullRequestExists lists open pull requests whose head is owner:branch and reports whether any exist.
func (client *Client) PullRequestExists(executionContext context.Context, query pullrequests.PullRequestQuery) (bool, error) {
	owner, name, repositoryError := splitRepository(query.Repository)
	if repositoryError != nil {
		return false, repositoryError
	}
	headBranch := strings.TrimSpace(query.HeadBranch)
	if len(headBranch) == 0 {
		return false, InvalidInputError{FieldName: headBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}

	listOptions := &github.PullRequestListOptions{
		State:       openStateConstant,
		Head:        fmt.Sprintf(headReferenceTemplateConstant, owner, headBranch),
		Base:        strings.TrimSpace(query.BaseBranch),
		ListOptions: github.ListOptions{PerPage: pullRequestLookupPageSizeConstant},
	}
	openPullRequests, _, listError := client.pullRequests.List(executionContext, owner, name, listOptions)
	if listError != nil {
		return false, OperationError{Operation: pullRequestExistsOperationNameConstant, Cause: listError}
	}
	return len(openPullRequests) > 0, nil
}

// CreatePullRequest opens a pull request and requests the user and team reviewers.
func (client *Client) CreatePullRequest(executionContext context.Context, request pullrequests.PullRequestRequest) (pullrequests.PullRequestResult, error) {
	owner, name, repositoryError := splitRepository(request.Repository)
	if repositoryError != nil {
		return pullrequests.PullRequestResult{}, repositoryError
	}
	if len(request.ExtraArguments) > 0 {
		return pullrequests.PullRequestResult{}, InvalidInputError{FieldName: extraArgumentsFieldNameConstant, Message: extraArgumentsUnsupportedMessage}
	}
	headBranch := strings.TrimSpace(request.HeadBranch)
	if len(headBranch) == 0 {
		return pullrequests.PullRequestResult{}, InvalidInputError{FieldName: headBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}
	baseBranch := strings.TrimSpace(request.BaseBranch)
	if len(baseBranch) == 0 {
		return pullrequests.PullRequestResult{}, InvalidInputError{FieldName: baseBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(request.Title)) == 0 {
		return pullrequests.PullRequestResult{}, InvalidInputError{FieldName: titleFieldNameConstant, Message: requiredValueMessageConstant}
	}

	createdPullRequest, _, createError := client.pullRequests.Create(executionContext, owner, name, &github.NewPullRequest{
		Title: github.Ptr(request.Title),
		Head:  github.Ptr(headBranch),
		Base:  github.Ptr(baseBranch),
		Body:  github.Ptr(request.Body),
	})
	if createError != nil {
		return pullrequests.PullRequestResult{}, OperationError{Operation: createPullRequestOperationNameConstant, Cause: createError}
	}
	result := pullrequests.PullRequestResult{URL: createdPullRequest.GetHTMLURL(), Number: createdPullRequest.GetNumber()}

	userReviewers, teamReviewers := pullrequests.SplitReviewers(pullrequests.NormalizeReviewers(request.Reviewers))
	if len(userReviewers) == 0 && len(teamReviewers) == 0 {
		return result, nil
	}
	_, _, reviewError := client.pullRequests.RequestReviewers(executionContext, owner, name, result.Number, github.ReviewersRequest{
		Reviewers:     userReviewers,
		TeamReviewers: teamReviewers,
	})
	if reviewError != nil {
		return result, fmt.Errorf(reviewerRequestErrorTemplateConstant, result.URL, OperationError{Operation: requestReviewersOperationNameConstant, Cause: reviewError})
	}
	return result, nil
}

func splitRepository(repository string) (string, string, error) {
	trimmedRepository := strings.TrimSpace(repository)
	if len(trimmedRepository) == 0 {
		return "", "", InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	owner, name, found := strings.Cut(trimmedRepository, repositorySeparatorConstant)
	if !found || len(owner) == 0 || len(name) == 0 || strings.Contains(name, repositorySeparatorConstant) {
		return "", "", InvalidInputError{FieldName: repositoryFieldNameConstant, Message: repositoryFormatMessageConstant}
	}
	return owner, name, nil
}
