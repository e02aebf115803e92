package status

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
	commandUseConstant                = "pr-status"
	commandShortDescriptionConstant   = "Report whether an open pull request exists for a branch"
	commandLongDescriptionConstant    = "pr-status prints OPEN when an open pull request has the given head branch (and base branch, when supplied) and NONE otherwise."
	branchFlagNameConstant            = "branch"
	branchFlagDescriptionConstant     = "Head branch of the pull request"
	baseFlagNameConstant              = "base"
	baseFlagDescriptionConstant       = "Restrict the lookup to pull requests targeting this base branch"
	backendFlagNameConstant           = "backend"
	backendFlagDescriptionConstant    = "Pull request backend; overrides configuration"
	repositoryFlagNameConstant        = "repository"
	repositoryFlagDescriptionConstant = "GitHub repository as owner/name (defaults to configuration or the remote of the current checkout)"
	missingBranchNameMessageConstant  = "branch name is required; supply --branch"
	openStatusLineConstant            = "OPEN\n"
	noneStatusLineConstant            = "NONE\n"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the pr-status command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConsoleLoggerProvider LoggerProvider
	GitHubExecutor        dependencies.GitHubCLIExecutor
	GitExecutor           gitrepo.GitExecutor
	TokenResolver         *githubauth.TokenResolver
	RepositoryLocator     gitrepo.RepositoryRootProvider
	ConfigurationProvider func() pullrequests.CommandConfiguration
}

// Build constructs the pr-status command.
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

	baseBranch, baseFlagError := command.Flags().GetString(baseFlagNameConstant)
	if baseFlagError != nil {
		return baseFlagError
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

	logger := resolveLogger(builder.LoggerProvider)
	service, serviceError := backends.NewService(command.Context(), configuration, backends.Collaborators{
		GitHubExecutor: builder.GitHubExecutor,
		GitExecutor:    builder.GitExecutor,
		TokenResolver:  builder.TokenResolver,
		Logger:         logger,
		ConsoleLogger:  resolveLogger(builder.ConsoleLoggerProvider),
	})
	if serviceError != nil {
		return serviceError
	}

	workingDirectory, _ := dependencies.ResolveRepositoryLocator(builder.RepositoryLocator).RepositoryRoot(command.Context())

	exists, lookupError := service.PullRequestExists(command.Context(), pullrequests.PullRequestQuery{
		Repository:       configuration.Repository,
		WorkingDirectory: workingDirectory,
		HeadBranch:       branchName,
		BaseBranch:       baseBranch,
	})
	if lookupError != nil {
		return lookupError
	}

	if exists {
		fmt.Fprint(command.OutOrStdout(), openStatusLineConstant)
		return nil
	}
	fmt.Fprint(command.OutOrStdout(), noneStatusLineConstant)
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
