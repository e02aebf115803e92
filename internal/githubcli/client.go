package githubcli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/temirov/gitpublish/internal/execshell"
	"github.com/temirov/gitpublish/internal/pullrequests"
)

const (
	pullRequestSubcommandConstant           = "pr"
	listSubcommandConstant                  = "list"
	createSubcommandConstant                = "create"
	jsonFlagConstant                        = "--json"
	repoFlagConstant                        = "--repo"
	headFlagConstant                        = "--head"
	baseFlagConstant                        = "--base"
	stateFlagConstant                       = "--state"
	titleFlagConstant                       = "--title"
	bodyFlagConstant                        = "--body"
	reviewerFlagConstant                    = "--reviewer"
	openStateConstant                       = "open"
	pullRequestNumberJSONFieldConstant      = "number"
	headBranchFieldNameConstant             = "head_branch"
	baseBranchFieldNameConstant             = "base_branch"
	titleFieldNameConstant                  = "title"
	requiredValueMessageConstant            = "value required"
	executorNotConfiguredMessageConstant    = "github cli executor not configured"
	emptyCreateOutputMessageConstant        = "gh pr create printed no pull request url"
	operationErrorMessageTemplateConstant   = "%s operation failed"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	githubTokenEnvironmentNameConstant      = "GH_TOKEN"
	githubPromptDisabledEnvironmentName     = "GH_PROMPT_DISABLED"
	githubPromptDisabledEnvironmentValue    = "1"
	pullRequestExistsOperationNameConstant  = OperationName("PullRequestExists")
	createPullRequestOperationNameConstant  = OperationName("CreatePullRequest")
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ClientOption customizes a Client during construction.
type ClientOption func(client *Client)

// WithToken exports the token to gh as GH_TOKEN for every invocation.
func WithToken(token string) ClientOption {
	return func(client *Client) {
		client.token = strings.TrimSpace(token)
	}
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor GitHubCommandExecutor
	token    string
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrEmptyCreateOutput indicates gh pr create succeeded without printing the pull request URL.
	ErrEmptyCreateOutput = errors.New(emptyCreateOutputMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// NewClient constructs a GitHub CLI client.
func NewClient(executor GitHubCommandExecutor, options ...ClientOption) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	client := &Client{executor: executor}
	for _, option := range options {
		if option != nil {
			option(client)
		}
	}
	return client, nil
}

// PullRequestExists runs gh pr list filtered by head (and base) branch and reports whether any open pull request matched.
func (client *Client) PullRequestExists(executionContext context.Context, query pullrequests.PullRequestQuery) (bool, error) {
	headBranch := strings.TrimSpace(query.HeadBranch)
	if len(headBranch) == 0 {
		return false, InvalidInputError{FieldName: headBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}

	arguments := []string{
		pullRequestSubcommandConstant,
		listSubcommandConstant,
		headFlagConstant,
		headBranch,
		stateFlagConstant,
		openStateConstant,
		jsonFlagConstant,
		pullRequestNumberJSONFieldConstant,
	}
	if baseBranch := strings.TrimSpace(query.BaseBranch); len(baseBranch) > 0 {
		arguments = append(arguments, baseFlagConstant, baseBranch)
	}
	arguments = appendRepository(arguments, query.Repository)

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, client.commandDetails(arguments, query.WorkingDirectory))
	if executionError != nil {
		return false, OperationError{Operation: pullRequestExistsOperationNameConstant, Cause: executionError}
	}

	var response []struct {
		Number int `json:"number"`
	}
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response); decodingError != nil {
		return false, ResponseDecodingError{Operation: pullRequestExistsOperationNameConstant, Cause: decodingError}
	}

	return len(response) > 0, nil
}

// CreatePullRequest runs gh pr create and returns the URL it prints.
func (client *Client) CreatePullRequest(executionContext context.Context, request pullrequests.PullRequestRequest) (pullrequests.PullRequestResult, error) {
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

	arguments := []string{
		pullRequestSubcommandConstant,
		createSubcommandConstant,
		baseFlagConstant,
		baseBranch,
		headFlagConstant,
		headBranch,
		titleFlagConstant,
		request.Title,
		bodyFlagConstant,
		request.Body,
	}
	for _, reviewer := range pullrequests.NormalizeReviewers(request.Reviewers) {
		arguments = append(arguments, reviewerFlagConstant, reviewer)
	}
	arguments = appendRepository(arguments, request.Repository)
	arguments = append(arguments, request.ExtraArguments...)

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, client.commandDetails(arguments, request.WorkingDirectory))
	if executionError != nil {
		return pullrequests.PullRequestResult{}, OperationError{Operation: createPullRequestOperationNameConstant, Cause: executionError}
	}

	pullRequestURL := strings.TrimSpace(executionResult.StandardOutput)
	if len(pullRequestURL) == 0 {
		return pullrequests.PullRequestResult{}, OperationError{Operation: createPullRequestOperationNameConstant, Cause: ErrEmptyCreateOutput}
	}
	return pullrequests.PullRequestResult{URL: pullRequestURL, Number: pullRequestNumberFromURL(pullRequestURL)}, nil
}

func (client *Client) commandDetails(arguments []string, workingDirectory string) execshell.CommandDetails {
	environmentVariables := map[string]string{githubPromptDisabledEnvironmentName: githubPromptDisabledEnvironmentValue}
	if len(client.token) > 0 {
		environmentVariables[githubTokenEnvironmentNameConstant] = client.token
	}
	return execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     strings.TrimSpace(workingDirectory),
		EnvironmentVariables: environmentVariables,
	}
}

func appendRepository(arguments []string, repository string) []string {
	trimmedRepository := strings.TrimSpace(repository)
	if len(trimmedRepository) == 0 {
		return arguments
	}
	return append(arguments, repoFlagConstant, trimmedRepository)
}

// pullRequestNumberFromURL extracts N from .../pull/N and returns 0 when the URL has another shape.
func pullRequestNumberFromURL(pullRequestURL string) int {
	lastSeparatorIndex := strings.LastIndex(pullRequestURL, "/")
	if lastSeparatorIndex == -1 {
		return 0
	}
	pullRequestNumber := 0
	if _, scanError := fmt.Sscanf(pullRequestURL[lastSeparatorIndex+1:], "%d", &pullRequestNumber); scanError != nil {
		return 0
	}
	return pullRequestNumber
}
