package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	flagPrefixConstant                      = "-"
	refspecSeparatorConstant                = ":"
)

const (
	gitConfigurationOverrideFlagConstant  = "-c"
	gitDirectoryOverrideFlagConstant      = "-C"
	gitRevParseSubcommandNameConstant     = "rev-parse"
	gitShowTopLevelFlagConstant           = "--show-toplevel"
	gitRemoteSubcommandNameConstant       = "remote"
	gitRemoteGetURLSubcommandNameConstant = "get-url"
	gitCheckoutSubcommandNameConstant     = "checkout"
	gitCheckoutResetBranchFlagConstant    = "-B"
	gitFetchSubcommandNameConstant        = "fetch"
	gitFetchHeadReferenceConstant         = "FETCH_HEAD"
	gitPushSubcommandNameConstant         = "push"
	gitAddSubcommandNameConstant          = "add"
	gitCommitSubcommandNameConstant       = "commit"
	gitMessageFlagConstant                = "-m"
	gitDiffSubcommandNameConstant         = "diff"
	gitResetSubcommandNameConstant        = "reset"
	gitShowSubcommandNameConstant         = "show"
)

const (
	gitTopLevelStartTemplateConstant               = "Locating repository root from %s"
	gitTopLevelSuccessTemplateConstant             = "Repository root for %s is %s"
	gitTopLevelFailureTemplateConstant             = "Could not locate repository root from %s (exit code %d%s)"
	gitTopLevelExecutionFailureTemplateConstant    = "Unable to locate repository root from %s: %s"
	gitRemoteLookupStartTemplateConstant           = "Checking %s remote for %s"
	gitRemoteLookupSuccessTemplateConstant         = "%s remote for %s points to %s"
	gitRemoteLookupFailureTemplateConstant         = "Failed to read %s remote for %s (exit code %d%s)"
	gitRemoteLookupExecutionFailureTemplate        = "Unable to read %s remote for %s: %s"
	gitCheckoutBaseStartTemplateConstant           = "Checking out fetched base in %s"
	gitCheckoutBaseSuccessTemplateConstant         = "Checked out fetched base in %s"
	gitCheckoutBaseFailureTemplateConstant         = "Failed to check out fetched base in %s (exit code %d%s)"
	gitCheckoutBaseExecutionFailureTemplate        = "Unable to check out fetched base in %s: %s"
	gitCheckoutBranchStartTemplateConstant         = "Resetting branch %s in %s"
	gitCheckoutBranchSuccessTemplateConstant       = "%s now on branch %s"
	gitCheckoutBranchFailureTemplateConstant       = "Failed to reset branch %s in %s (exit code %d%s)"
	gitCheckoutBranchExecutionFailureTemplate      = "Unable to reset branch %s in %s: %s"
	gitFetchStartTemplateConstant                  = "Fetching %s from %s in %s"
	gitFetchSuccessTemplateConstant                = "Fetched %s from %s in %s"
	gitFetchFailureTemplateConstant                = "Branch %s is not available on %s for %s (exit code %d%s)"
	gitFetchExecutionFailureTemplateConstant       = "Unable to fetch %s from %s in %s: %s"
	gitPushStartTemplateConstant                   = "Pushing %s to %s from %s"
	gitPushSuccessTemplateConstant                 = "Pushed %s to %s from %s"
	gitPushFailureTemplateConstant                 = "Failed to push %s to %s from %s (exit code %d%s)"
	gitPushExecutionFailureTemplateConstant        = "Unable to push %s to %s from %s: %s"
	gitAddStartTemplateConstant                    = "Staging %s in %s"
	gitAddSuccessTemplateConstant                  = "Staged %s in %s"
	gitAddFailureTemplateConstant                  = "Failed to stage %s in %s (exit code %d%s)"
	gitAddExecutionFailureTemplateConstant         = "Unable to stage %s in %s: %s"
	gitCommitStartTemplateConstant                 = "Creating commit in %s with message %q"
	gitCommitSuccessTemplateConstant               = "Created commit in %s with message %q"
	gitCommitFailureTemplateConstant               = "Failed to create commit in %s with message %q (exit code %d%s)"
	gitCommitExecutionFailureTemplateConstant      = "Unable to create commit in %s with message %q: %s"
	gitStagedChangesStartTemplateConstant          = "Checking staged changes in %s"
	gitStagedChangesSuccessTemplateConstant        = "No staged changes in %s"
	gitStagedChangesFailureTemplateConstant        = "Staged changes present in %s (exit code %d%s)"
	gitStagedChangesExecutionFailureTemplate       = "Unable to check staged changes in %s: %s"
	gitResetStartTemplateConstant                  = "Discarding local changes in %s"
	gitResetSuccessTemplateConstant                = "Discarded local changes in %s"
	gitResetFailureTemplateConstant                = "Failed to discard local changes in %s (exit code %d%s)"
	gitResetExecutionFailureTemplateConstant       = "Unable to discard local changes in %s: %s"
	gitShowStartTemplateConstant                   = "Reading %s in %s"
	gitShowSuccessTemplateConstant                 = "Read %s in %s"
	gitShowFailureTemplateConstant                 = "%s is not available in %s (exit code %d%s)"
	gitShowExecutionFailureTemplateConstant        = "Unable to read %s in %s: %s"
	githubPullRequestListStartTemplateConstant     = "Looking up pull requests from %s"
	githubPullRequestListSuccessTemplateConstant   = "Looked up pull requests from %s"
	githubPullRequestListFailureTemplateConstant   = "Failed to look up pull requests from %s (exit code %d%s)"
	githubPullRequestListExecutionFailureTemplate  = "Unable to look up pull requests from %s: %s"
	githubPullRequestCreateStartTemplateConstant   = "Opening pull request from %s into %s"
	githubPullRequestCreateSuccessTemplateConstant = "Opened pull request from %s into %s"
	githubPullRequestCreateFailureTemplateConstant = "Failed to open pull request from %s into %s (exit code %d%s)"
	githubPullRequestCreateExecutionFailure        = "Unable to open pull request from %s into %s: %s"
)

const (
	githubPullRequestSubcommandNameConstant       = "pr"
	githubPullRequestListSubcommandNameConstant   = "list"
	githubPullRequestCreateSubcommandNameConstant = "create"
	githubHeadFlagConstant                        = "--head"
	githubBaseFlagConstant                        = "--base"
)

// stageTemplates groups the message templates for one command kind.
type stageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch command.Name {
	case CommandGit:
		return formatter.describeGitMessage(command, result, failure, stage)
	case CommandGitHub:
		return formatter.describeGitHubMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := stripGitGlobalOptions(command.Details.Arguments)
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	subcommand := strings.TrimSpace(arguments[0])
	switch subcommand {
	case gitRevParseSubcommandNameConstant:
		if !containsArgument(arguments, gitShowTopLevelFlagConstant) {
			return formatter.buildGenericMessage(command, result, failure, stage)
		}
		if stage == messageStageSuccess {
			return fmt.Sprintf(gitTopLevelSuccessTemplateConstant, workingDirectory, formatter.ensureValue(result.StandardOutput))
		}
		return formatter.renderStage(stageTemplates{
			start:            gitTopLevelStartTemplateConstant,
			failure:          gitTopLevelFailureTemplateConstant,
			executionFailure: gitTopLevelExecutionFailureTemplateConstant,
		}, []any{workingDirectory}, result, failure, stage)
	case gitRemoteSubcommandNameConstant:
		if formatter.argumentAtIndex(arguments, 1) != gitRemoteGetURLSubcommandNameConstant {
			return formatter.buildGenericMessage(command, result, failure, stage)
		}
		remoteName := formatter.ensureValue(formatter.argumentAtIndex(arguments, 2))
		if stage == messageStageSuccess {
			return fmt.Sprintf(gitRemoteLookupSuccessTemplateConstant, remoteName, workingDirectory, formatter.ensureValue(result.StandardOutput))
		}
		return formatter.renderStage(stageTemplates{
			start:            gitRemoteLookupStartTemplateConstant,
			failure:          gitRemoteLookupFailureTemplateConstant,
			executionFailure: gitRemoteLookupExecutionFailureTemplate,
		}, []any{remoteName, workingDirectory}, result, failure, stage)
	case gitCheckoutSubcommandNameConstant:
		return formatter.describeGitCheckoutMessage(arguments, workingDirectory, result, failure, stage)
	case gitFetchSubcommandNameConstant, gitPushSubcommandNameConstant:
		return formatter.describeGitTransferMessage(subcommand, arguments, workingDirectory, result, failure, stage)
	case gitAddSubcommandNameConstant:
		pathLabel := formatter.ensureValue(strings.Join(nonFlagArguments(arguments[1:]), ", "))
		return formatter.renderStage(stageTemplates{
			start:            gitAddStartTemplateConstant,
			success:          gitAddSuccessTemplateConstant,
			failure:          gitAddFailureTemplateConstant,
			executionFailure: gitAddExecutionFailureTemplateConstant,
		}, []any{pathLabel, workingDirectory}, result, failure, stage)
	case gitCommitSubcommandNameConstant:
		commitMessage := formatter.ensureValue(findFlagValue(arguments, gitMessageFlagConstant))
		return formatter.renderStage(stageTemplates{
			start:            gitCommitStartTemplateConstant,
			success:          gitCommitSuccessTemplateConstant,
			failure:          gitCommitFailureTemplateConstant,
			executionFailure: gitCommitExecutionFailureTemplateConstant,
		}, []any{workingDirectory, commitMessage}, result, failure, stage)
	case gitDiffSubcommandNameConstant:
		return formatter.renderStage(stageTemplates{
			start:            gitStagedChangesStartTemplateConstant,
			success:          gitStagedChangesSuccessTemplateConstant,
			failure:          gitStagedChangesFailureTemplateConstant,
			executionFailure: gitStagedChangesExecutionFailureTemplate,
		}, []any{workingDirectory}, result, failure, stage)
	case gitResetSubcommandNameConstant:
		return formatter.renderStage(stageTemplates{
			start:            gitResetStartTemplateConstant,
			success:          gitResetSuccessTemplateConstant,
			failure:          gitResetFailureTemplateConstant,
			executionFailure: gitResetExecutionFailureTemplateConstant,
		}, []any{workingDirectory}, result, failure, stage)
	case gitShowSubcommandNameConstant:
		objectLabel := formatter.ensureValue(formatter.argumentAtIndex(nonFlagArguments(arguments[1:]), 0))
		return formatter.renderStage(stageTemplates{
			start:            gitShowStartTemplateConstant,
			success:          gitShowSuccessTemplateConstant,
			failure:          gitShowFailureTemplateConstant,
			executionFailure: gitShowExecutionFailureTemplateConstant,
		}, []any{objectLabel, workingDirectory}, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitCheckoutMessage(arguments []string, workingDirectory string, result ExecutionResult, failure error, stage messageStage) string {
	if containsArgument(arguments, gitFetchHeadReferenceConstant) {
		return formatter.renderStage(stageTemplates{
			start:            gitCheckoutBaseStartTemplateConstant,
			success:          gitCheckoutBaseSuccessTemplateConstant,
			failure:          gitCheckoutBaseFailureTemplateConstant,
			executionFailure: gitCheckoutBaseExecutionFailureTemplate,
		}, []any{workingDirectory}, result, failure, stage)
	}

	branchName := formatter.ensureValue(findFlagValue(arguments, gitCheckoutResetBranchFlagConstant))
	if stage == messageStageSuccess {
		return fmt.Sprintf(gitCheckoutBranchSuccessTemplateConstant, workingDirectory, branchName)
	}
	return formatter.renderStage(stageTemplates{
		start:            gitCheckoutBranchStartTemplateConstant,
		failure:          gitCheckoutBranchFailureTemplateConstant,
		executionFailure: gitCheckoutBranchExecutionFailureTemplate,
	}, []any{branchName, workingDirectory}, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitTransferMessage(subcommand string, arguments []string, workingDirectory string, result ExecutionResult, failure error, stage messageStage) string {
	positionalArguments := nonFlagArguments(arguments[1:])
	remoteName := formatter.ensureValue(formatter.argumentAtIndex(positionalArguments, 0))
	reference := formatter.argumentAtIndex(positionalArguments, 1)

	if subcommand == gitFetchSubcommandNameConstant {
		return formatter.renderStage(stageTemplates{
			start:            gitFetchStartTemplateConstant,
			success:          gitFetchSuccessTemplateConstant,
			failure:          gitFetchFailureTemplateConstant,
			executionFailure: gitFetchExecutionFailureTemplateConstant,
		}, []any{formatter.ensureValue(reference), remoteName, workingDirectory}, result, failure, stage)
	}

	if separatorIndex := strings.Index(reference, refspecSeparatorConstant); separatorIndex >= 0 {
		reference = reference[separatorIndex+1:]
	}
	return formatter.renderStage(stageTemplates{
		start:            gitPushStartTemplateConstant,
		success:          gitPushSuccessTemplateConstant,
		failure:          gitPushFailureTemplateConstant,
		executionFailure: gitPushExecutionFailureTemplateConstant,
	}, []any{formatter.ensureValue(reference), remoteName, workingDirectory}, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitHubMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if formatter.argumentAtIndex(arguments, 0) != githubPullRequestSubcommandNameConstant {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	headBranch := formatter.ensureValue(findFlagValue(arguments, githubHeadFlagConstant))
	switch formatter.argumentAtIndex(arguments, 1) {
	case githubPullRequestListSubcommandNameConstant:
		return formatter.renderStage(stageTemplates{
			start:            githubPullRequestListStartTemplateConstant,
			success:          githubPullRequestListSuccessTemplateConstant,
			failure:          githubPullRequestListFailureTemplateConstant,
			executionFailure: githubPullRequestListExecutionFailureTemplate,
		}, []any{headBranch}, result, failure, stage)
	case githubPullRequestCreateSubcommandNameConstant:
		baseBranch := formatter.ensureValue(findFlagValue(arguments, githubBaseFlagConstant))
		return formatter.renderStage(stageTemplates{
			start:            githubPullRequestCreateStartTemplateConstant,
			success:          githubPullRequestCreateSuccessTemplateConstant,
			failure:          githubPullRequestCreateFailureTemplateConstant,
			executionFailure: githubPullRequestCreateExecutionFailure,
		}, []any{headBranch, baseBranch}, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

// renderStage applies the template matching stage; failure templates receive the exit code and
// stderr suffix after subjects, execution failure templates receive the failure description.
func (formatter CommandMessageFormatter) renderStage(templates stageTemplates, subjects []any, result ExecutionResult, failure error, stage messageStage) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subjects...)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subjects...)
	case messageStageFailure:
		failureArguments := append(append([]any{}, subjects...), result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		return fmt.Sprintf(templates.failure, failureArguments...)
	case messageStageExecutionFailure:
		executionArguments := append(append([]any{}, subjects...), formatter.describeFailure(failure))
		return fmt.Sprintf(templates.executionFailure, executionArguments...)
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	workingDirectorySuffix := formatter.formatWorkingDirectorySuffix(command)
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index >= 0 && index < len(arguments) {
		return strings.TrimSpace(arguments[index])
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

// stripGitGlobalOptions drops leading "-c key=value" and "-C path" pairs so the subcommand comes first.
func stripGitGlobalOptions(arguments []string) []string {
	remaining := arguments
	for len(remaining) >= 2 {
		leadingArgument := strings.TrimSpace(remaining[0])
		if leadingArgument != gitConfigurationOverrideFlagConstant && leadingArgument != gitDirectoryOverrideFlagConstant {
			break
		}
		remaining = remaining[2:]
	}
	return remaining
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func nonFlagArguments(arguments []string) []string {
	positional := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, flagPrefixConstant) {
			continue
		}
		positional = append(positional, trimmed)
	}
	return positional
}

func findFlagValue(arguments []string, flag string) string {
	for index := 0; index < len(arguments); index++ {
		if strings.TrimSpace(arguments[index]) == flag && index+1 < len(arguments) {
			return strings.TrimSpace(arguments[index+1])
		}
	}
	return emptyStringConstant
}
