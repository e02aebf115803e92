package create

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitpublish/internal/dependencies"
	"github.com/temirov/gitpublish/internal/githubauth"
	"github.com/temirov/gitpublish/internal/gitrepo"
	"github.com/temirov/gitpublish/internal/pullrequests"
	"github.com/temirov/gitpublish/internal/pullrequests/backends"
	"github.com/temirov/gitpublish/internal/utils/flags"
)

const (
	commandUseConstant                = "pr-create"
	commandShortDescriptionConstant   = "Open a pull request for a branch"
	commandLongDescriptionConstant    = "pr-create opens a pull request from the head branch into the base branch, requesting the given reviewers in addition to the configured defaults, and prints its URL."
	branchFlagNameConstant            = "branch"
	branchFlagDescriptionConstant     = "Head branch of the pull request"
	baseFlagNameConstant              = "base"
	baseFlagDescriptionConstant       = "Base branch the pull request targets"
	titleFlagNameConstant             = "title"
	titleFlagDescriptionConstant      = "Pull request title"
	bodyFlagNameConstant              = "body"
	bodyFlagDescriptionConstant       = "Pull request description"
	reviewerFlagNameConstant          = "reviewer"
	reviewerFlagDescriptionConstant   = "Reviewer login or org/team (repeatable)"
	extraArgumentFlagNameConstant     = "extra-arg"
	extraArgumentFlagDescription      = "Additional argument passed verbatim to gh pr create (repeatable, cli backend only)"
	backendFlagNameConstant           = "backend"
	backendFlagDescriptionConstant    = "Pull request backend; overrides configuration"
	repositoryFlagNameConstant        = "repository"
	repositoryFlagDescriptionConstant = "GitHub repository as owner/name (defaults to configuration or the remote of the current checkout)"
	missingBranchNameMessageConstant  = "branch name is required; supply --branch"
	missingTitleMessageConstant       = "pull request title is required; supply --title"
	createdMessageTemplateConstant    = "CREATED: %s\n"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the pr-create command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConsoleLoggerProvider LoggerProvider
	GitHubExecutor        dependencies.GitHubCLIExecutor
	GitExecutor           gitrepo.GitExecutor
	TokenResolver         *githubauth.TokenResolver
	RepositoryLocator     gitrepo.RepositoryRootProvider
	ConfigurationProvider func() pullrequests.CommandConfiguration
}

// Build constructs the pr-create command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	command.Flags().String(branchFlagNameConstant, "", branchFlagDescriptionConstant)
	command.Flags().String(baseFlagNameConstant, "", baseFlagDescriptionConstant)
	command.Flags().String(titleFlagNameConstant, "", titleFlagDescriptionConstant)
	command.Flags().String(bodyFlagNameConstant, "", bodyFlagDescriptionConstant)
	command.Flags().StringArray(reviewerFlagNameConstant, nil, reviewerFlagDescriptionConstant)
	command.Flags().StringArray(extraArgumentFlagNameConstant, nil, extraArgumentFlagDescription)
	command.Flags().String(repositoryFlagNameConstant, "", repositoryFlagDescriptionConstant)
	command.Flags().Var(
		flags.NewChoiceValue("", backendChoices()),
		backendFlagNameConstant,
		flags.FormatChoiceUsage(string(pullrequests.BackendKindCLI), backendChoices(), backendFlagDescriptionConstant),
	)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()

	branchName, branchFlagError := command.Flags().GetString(branchFlagNameConstant)
	if branchFlagError != nil {
		return branchFlagError
	}
	if len(strings.TrimSpace(branchName)) == 0 {
		_ = command.Help()
		return errors.New(missingBranchNameMessageConstant)
	}
	title, titleFlagError := command.Flags().GetString(titleFlagNameConstant)
	if titleFlagError != nil {
		return titleFlagError
	}
	if len(strings.TrimSpace(title)) == 0 {
		_ = command.Help()
		return errors.New(missingTitleMessageConstant)
	}
	body, bodyFlagError := command.Flags().GetString(bodyFlagNameConstant)
	if bodyFlagError != nil {
		return bodyFlagError
	}
	reviewers, reviewerFlagError := command.Flags().GetStringArray(reviewerFlagNameConstant)
	if reviewerFlagError != nil {
		return reviewerFlagError
	}
	extraArguments, extraFlagError := command.Flags().GetStringArray(extraArgumentFlagNameConstant)
	if extraFlagError != nil {
		return extraFlagError
	}

	baseBranch := configuration.BaseBranch
	if command.Flags().Changed(baseFlagNameConstant) {
		baseFlagValue, baseFlagError := command.Flags().GetString(baseFlagNameConstant)
		if baseFlagError != nil {
			return baseFlagError
		}
		baseBranch = baseFlagValue
	}
	if command.Flags().Changed(repositoryFlagNameConstant) {
		repository, repositoryFlagError := command.Flags().GetString(repositoryFlagNameConstant)
		if repositoryFlagError != nil {
			return repositoryFlagError
		}
		configuration.Repository = repository
	}
	if backendFlag := command.Flags().Lookup(backendFlagNameConstant); backendFlag != nil && backendFlag.Changed {
		configuration.Backend = pullrequests.BackendKind(backendFlag.Value.String())
	}

	service, serviceError := backends.NewService(command.Context(), configuration, backends.Collaborators{
		GitHubExecutor: builder.GitHubExecutor,
		GitExecutor:    builder.GitExecutor,
		TokenResolver:  builder.TokenResolver,
		Logger:         resolveLogger(builder.LoggerProvider),
		ConsoleLogger:  resolveLogger(builder.ConsoleLoggerProvider),
	})
	if serviceError != nil {
		return serviceError
	}

	workingDirectory, _ := dependencies.ResolveRepositoryLocator(builder.RepositoryLocator).RepositoryRoot(command.Context())

	result, creationError := service.CreatePullRequest(command.Context(), pullrequests.PullRequestRequest{
		Repository:       configuration.Repository,
		WorkingDirectory: workingDirectory,
		HeadBranch:       branchName,
		BaseBranch:       baseBranch,
		Title:            title,
		Body:             body,
		Reviewers:        reviewers,
		ExtraArguments:   extraArguments,
	})
	if creationError != nil {
		if len(result.URL) > 0 {
			fmt.Fprintf(command.OutOrStdout(), createdMessageTemplateConstant, result.URL)
		}
		return creationError
	}

	fmt.Fprintf(command.OutOrStdout(), createdMessageTemplateConstant, result.URL)
	return nil
}

func (builder *CommandBuilder) resolveConfiguration() pullrequests.CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return pullrequests.DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func backendChoices() []string {
	return []string{string(pullrequests.BackendKindCLI), string(pullrequests.BackendKindAPI)}
}
