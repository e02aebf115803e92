package publish

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitpublish/internal/dependencies"
	"github.com/temirov/gitpublish/internal/gitrepo"
	pathutils "github.com/temirov/gitpublish/internal/utils/path"
)

const (
	commandUseConstant                 = "branch-publish"
	commandShortDescriptionConstant    = "Commit local files to a branch and push it"
	commandLongDescriptionConstant     = "branch-publish copies local files into the repository, commits them on the named branch with the configured committer identity, and pushes the branch, retrying from a fresh fetch when a concurrent publisher wins the race."
	fileFlagNameConstant               = "file"
	fileFlagDescriptionConstant        = "File to publish as local=destination; destination is relative to the repository root (repeatable)"
	branchFlagNameConstant             = "branch"
	branchFlagDescriptionConstant      = "Branch to publish to"
	messageFlagNameConstant            = "message"
	messageFlagDescriptionConstant     = "Commit message"
	repositoryFlagNameConstant         = "repository"
	repositoryFlagDescriptionConstant  = "Repository checkout to publish from (defaults to the repository containing the working directory)"
	remoteFlagNameConstant             = "remote"
	remoteFlagDescriptionConstant      = "Remote to fetch from and push to"
	fileMappingSeparatorConstant       = "="
	invalidFileMappingTemplateConstant = "invalid --file value %q; expected local=destination"
	missingBranchNameMessageConstant   = "branch name is required; supply --branch"
	missingFileMappingMessageConstant  = "at least one --file local=destination is required"
	publishedMessageTemplateConstant   = "PUBLISHED: %s (attempt %d)\n"
	unchangedMessageTemplateConstant   = "UNCHANGED: %s\n"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the branch-publish command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConsoleLoggerProvider LoggerProvider
	GitExecutor           GitExecutor
	FileSystem            afero.Fs
	WorkingCopyLocker     WorkingCopyLocker
	RepositoryLocator     gitrepo.RepositoryRootProvider
	LocalPathResolver     *pathutils.LocalPathResolver
	ConfigurationProvider func() CommandConfiguration
}

// Build constructs the branch-publish command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	command.Flags().StringArray(fileFlagNameConstant, nil, fileFlagDescriptionConstant)
	command.Flags().String(branchFlagNameConstant, "", branchFlagDescriptionConstant)
	command.Flags().String(messageFlagNameConstant, "", messageFlagDescriptionConstant)
	command.Flags().String(repositoryFlagNameConstant, "", repositoryFlagDescriptionConstant)
	command.Flags().String(remoteFlagNameConstant, "", remoteFlagDescriptionConstant)

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

	rawFileMappings, fileFlagError := command.Flags().GetStringArray(fileFlagNameConstant)
	if fileFlagError != nil {
		return fileFlagError
	}
	if len(rawFileMappings) == 0 {
		_ = command.Help()
		return errors.New(missingFileMappingMessageConstant)
	}

	commitMessage, messageFlagError := command.Flags().GetString(messageFlagNameConstant)
	if messageFlagError != nil {
		return messageFlagError
	}

	remoteName := configuration.RemoteName
	if command.Flags().Changed(remoteFlagNameConstant) {
		remoteFlagValue, remoteFlagError := command.Flags().GetString(remoteFlagNameConstant)
		if remoteFlagError != nil {
			return remoteFlagError
		}
		remoteName = remoteFlagValue
	}

	fileMappings, mappingError := builder.parseFileMappings(rawFileMappings)
	if mappingError != nil {
		return mappingError
	}

	repositoryPath, repositoryError := builder.resolveRepositoryPath(command, configuration)
	if repositoryError != nil {
		return repositoryError
	}

	logger := builder.resolveLogger(builder.LoggerProvider)
	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, builder.resolveLogger(builder.ConsoleLoggerProvider))
	if executorError != nil {
		return executorError
	}

	workingCopyLocker := builder.WorkingCopyLocker
	if workingCopyLocker == nil {
		workingCopyLocker = NewFileWorkingCopyLocker(configuration.LockTimeout)
	}

	service, serviceCreationError := NewService(Dependencies{
		GitExecutor:       gitExecutor,
		FileSystem:        dependencies.ResolveFileSystem(builder.FileSystem),
		WorkingCopyLocker: workingCopyLocker,
		Logger:            logger,
	})
	if serviceCreationError != nil {
		return serviceCreationError
	}

	result, publishError := service.Publish(command.Context(), Options{
		RepositoryPath: repositoryPath,
		RemoteName:     remoteName,
		Files:          fileMappings,
		BranchName:     branchName,
		CommitMessage:  commitMessage,
		Identity:       configuration.Identity(),
	})
	if publishError != nil {
		return publishError
	}

	if result.NoChanges {
		fmt.Fprintf(command.OutOrStdout(), unchangedMessageTemplateConstant, result.Branch)
		return nil
	}
	fmt.Fprintf(command.OutOrStdout(), publishedMessageTemplateConstant, result.Branch, result.Attempts)
	return nil
}

func (builder *CommandBuilder) parseFileMappings(rawFileMappings []string) ([]FileMapping, error) {
	localPathResolver := builder.resolveLocalPathResolver()

	fileMappings := make([]FileMapping, 0, len(rawFileMappings))
	for _, rawFileMapping := range rawFileMappings {
		localPath, destinationPath, separatorFound := strings.Cut(rawFileMapping, fileMappingSeparatorConstant)
		if !separatorFound || len(strings.TrimSpace(localPath)) == 0 || len(strings.TrimSpace(destinationPath)) == 0 {
			return nil, fmt.Errorf(invalidFileMappingTemplateConstant, rawFileMapping)
		}
		resolvedLocalPath, resolveError := localPathResolver.Resolve(localPath, "")
		if resolveError != nil {
			return nil, resolveError
		}
		fileMappings = append(fileMappings, FileMapping{LocalPath: resolvedLocalPath, DestinationPath: strings.TrimSpace(destinationPath)})
	}
	return fileMappings, nil
}

func (builder *CommandBuilder) resolveRepositoryPath(command *cobra.Command, configuration CommandConfiguration) (string, error) {
	repositoryPath := configuration.RepositoryPath
	if command.Flags().Changed(repositoryFlagNameConstant) {
		repositoryFlagValue, repositoryFlagError := command.Flags().GetString(repositoryFlagNameConstant)
		if repositoryFlagError != nil {
			return "", repositoryFlagError
		}
		repositoryPath = repositoryFlagValue
	}
	if len(strings.TrimSpace(repositoryPath)) > 0 {
		return builder.resolveLocalPathResolver().Resolve(repositoryPath, "")
	}
	return dependencies.ResolveRepositoryLocator(builder.RepositoryLocator).RepositoryRoot(command.Context())
}

func (builder *CommandBuilder) resolveLocalPathResolver() *pathutils.LocalPathResolver {
	if builder.LocalPathResolver == nil {
		return pathutils.NewLocalPathResolver()
	}
	return builder.LocalPathResolver
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
