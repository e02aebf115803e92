package inspect

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitpublish/internal/dependencies"
	"github.com/temirov/gitpublish/internal/gitrepo"
)

const (
	repositoryRootUseConstant              = "repo-root"
	repositoryRootShortDescriptionConstant = "Print the root of the repository containing the working directory"
	repositoryRootOutputTemplateConstant   = "%s\n"
	logMessageRepositoryRootConstant       = "located repository root"
	logFieldRepositoryRootConstant         = "repository_root"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// RepositoryRootCommandBuilder assembles the repo-root command.
type RepositoryRootCommandBuilder struct {
	LoggerProvider    LoggerProvider
	RepositoryLocator gitrepo.RepositoryRootProvider
}

// Build constructs the repo-root command.
func (builder *RepositoryRootCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   repositoryRootUseConstant,
		Short: repositoryRootShortDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}, nil
}

func (builder *RepositoryRootCommandBuilder) run(command *cobra.Command, arguments []string) error {
	repositoryRoot, locationError := dependencies.ResolveRepositoryLocator(builder.RepositoryLocator).RepositoryRoot(command.Context())
	if locationError != nil {
		return locationError
	}
	resolveLogger(builder.LoggerProvider).Debug(logMessageRepositoryRootConstant, zap.String(logFieldRepositoryRootConstant, repositoryRoot))
	fmt.Fprintf(command.OutOrStdout(), repositoryRootOutputTemplateConstant, repositoryRoot)
	return nil
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
