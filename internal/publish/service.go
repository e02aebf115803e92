package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/gitpublish/internal/execshell"
)

// MaxAttempts bounds the fetch, commit and push cycles of one publish.
const MaxAttempts = 3

const (
	defaultRemoteNameConstant                   = "origin"
	fetchHeadReferenceConstant                  = "FETCH_HEAD"
	gitConfigurationFlagConstant                = "-c"
	gitUserNameSettingTemplateConstant          = "user.name=%s"
	gitUserEmailSettingTemplateConstant         = "user.email=%s"
	gitFetchSubcommandConstant                  = "fetch"
	gitCheckoutSubcommandConstant               = "checkout"
	gitForceFlagConstant                        = "-f"
	gitResetBranchFlagConstant                  = "-B"
	gitAddSubcommandConstant                    = "add"
	gitPathSeparatorArgumentConstant            = "--"
	gitDiffSubcommandConstant                   = "diff"
	gitCachedFlagConstant                       = "--cached"
	gitQuietFlagConstant                        = "--quiet"
	gitCommitSubcommandConstant                 = "commit"
	gitMessageFlagConstant                      = "-m"
	gitPushSubcommandConstant                   = "push"
	gitResetSubcommandConstant                  = "reset"
	gitHardFlagConstant                         = "--hard"
	gitRevParseSubcommandConstant               = "rev-parse"
	headReferenceConstant                       = "HEAD"
	refspecTemplateConstant                     = "%s:%s"
	gitTerminalPromptEnvironmentNameConstant    = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisableConstant = "0"
	stagedChangesExitCodeConstant               = 1
	parentDirectoryReferenceConstant            = ".."
	directoryPermissionsConstant                = fs.FileMode(0o755)
	stepFetchBaseNameConstant                   = "fetch"
	stepCheckoutBaseNameConstant                = "checkout base"
	stepCheckoutBranchNameConstant              = "checkout branch"
	stepResolveBaseNameConstant                 = "resolve base"
	stepCopyFileNameConstant                    = "copy file"
	stepStageFileNameConstant                   = "stage file"
	stepDetectChangesNameConstant               = "detect staged changes"
	stepCommitNameConstant                      = "commit"
	stepPushNameConstant                        = "push"
	stepDiscardAttemptNameConstant              = "discard attempt"
	copyFileErrorTemplateConstant               = "copy %s to %s: %w"
	logMessagePublishStartedConstant            = "publishing files to branch"
	logMessageAttemptStartedConstant            = "starting publish attempt"
	logMessageNoChangesConstant                 = "branch already contains the published files"
	logMessagePushRejectedConstant              = "push rejected, retrying from a fresh fetch"
	logMessagePushRejectedPermanentlyConstant   = "push rejected permanently"
	logMessagePublishSucceededConstant          = "published files to branch"
	logMessageReleaseFailedConstant             = "failed to release working copy lock"
	logMessageRestoreFailedConstant             = "failed to restore checkout after a failed step"
	logFieldRepositoryConstant                  = "repository"
	logFieldBranchConstant                      = "branch"
	logFieldRemoteConstant                      = "remote"
	logFieldAttemptConstant                     = "attempt"
	logFieldFileCountConstant                   = "files"
	logFieldBranchExistedConstant               = "branch_existed"
	logFieldCommittedConstant                   = "committed"
	logFieldBaseCommitConstant                  = "base_commit"
)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// CommitterIdentity is the name and email recorded on published commits.
type CommitterIdentity struct {
	Name  string
	Email string
}

// FileMapping pairs a local file with its repository-relative destination.
type FileMapping struct {
	LocalPath       string
	DestinationPath string
}

// Dependencies enumerates external collaborators required for publishing.
type Dependencies struct {
	GitExecutor       GitExecutor
	FileSystem        afero.Fs
	WorkingCopyLocker WorkingCopyLocker
	Logger            *zap.Logger
}

// Options configures a single publish.
type Options struct {
	RepositoryPath string
	RemoteName     string
	Files          []FileMapping
	BranchName     string
	CommitMessage  string
	Identity       CommitterIdentity
}

// Result describes a finished publish.
type Result struct {
	Branch        string
	Attempts      int
	Pushed        bool
	Committed     bool
	BranchCreated bool
	NoChanges     bool
}

// Service publishes files to branches.
type Service struct {
	gitExecutor       GitExecutor
	fileSystem        afero.Fs
	workingCopyLocker WorkingCopyLocker
	logger            *zap.Logger
}

type attemptOutcome struct {
	result     Result
	baseCommit string
	pushError  error
}

type publishPlan struct {
	repositoryPath string
	remoteName     string
	branchName     string
	commitMessage  string
	identity       CommitterIdentity
	files          []FileMapping
}

// NewService validates dependencies and constructs a publish Service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if dependencies.WorkingCopyLocker == nil {
		return nil, ErrWorkingCopyLockerNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gitExecutor:       dependencies.GitExecutor,
		fileSystem:        dependencies.FileSystem,
		workingCopyLocker: dependencies.WorkingCopyLocker,
		logger:            logger,
	}, nil
}

// Publish commits the mapped files to the branch and pushes it, retrying rejected pushes up to MaxAttempts times.
// Nothing is executed when a precondition fails. Publishing contents the remote branch already holds is a no-op
// reported through Result.NoChanges. When a step fails after the branch is checked out, the checkout is reset to
// the attempt's base commit and left on the publish branch; a failed fetch or checkout leaves it as git left it.
func (service *Service) Publish(executionContext context.Context, options Options) (Result, error) {
	plan, planError := service.preparePlan(options)
	if planError != nil {
		return Result{}, planError
	}

	release, lockError := service.workingCopyLocker.Lock(executionContext, plan.repositoryPath)
	if lockError != nil {
		return Result{}, lockError
	}
	defer func() {
		if releaseError := release(); releaseError != nil {
			service.logger.Warn(logMessageReleaseFailedConstant, zap.String(logFieldRepositoryConstant, plan.repositoryPath), zap.Error(releaseError))
		}
	}()

	service.logger.Info(
		logMessagePublishStartedConstant,
		zap.String(logFieldRepositoryConstant, plan.repositoryPath),
		zap.String(logFieldBranchConstant, plan.branchName),
		zap.String(logFieldRemoteConstant, plan.remoteName),
		zap.Int(logFieldFileCountConstant, len(plan.files)),
	)

	var lastPushError error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if contextError := executionContext.Err(); contextError != nil {
			return Result{}, contextError
		}

		outcome, attemptError := service.runAttempt(executionContext, plan, attempt)
		if attemptError != nil {
			return Result{}, attemptError
		}
		pushError := outcome.pushError
		if pushError == nil {
			return outcome.result, nil
		}
		lastPushError = pushError

		if discardError := service.discardAttempt(executionContext, plan, outcome.baseCommit); discardError != nil {
			return Result{}, discardError
		}

		if ClassifyPushFailure(pushStandardError(pushError)) == PushRejectionPermanent {
			service.logger.Error(logMessagePushRejectedPermanentlyConstant, zap.String(logFieldBranchConstant, plan.branchName), zap.Int(logFieldAttemptConstant, attempt), zap.Error(pushError))
			return Result{}, PublishFailure{Branch: plan.branchName, Attempts: attempt, Permanent: true, Cause: pushError}
		}
		service.logger.Warn(logMessagePushRejectedConstant, zap.String(logFieldBranchConstant, plan.branchName), zap.Int(logFieldAttemptConstant, attempt), zap.Error(pushError))
	}

	return Result{}, PublishFailure{Branch: plan.branchName, Attempts: MaxAttempts, Cause: lastPushError}
}

// runAttempt reports rejected pushes through the outcome; the returned error aborts the publish.
func (service *Service) runAttempt(executionContext context.Context, plan publishPlan, attempt int) (attemptOutcome, error) {
	service.logger.Debug(logMessageAttemptStartedConstant, zap.String(logFieldBranchConstant, plan.branchName), zap.Int(logFieldAttemptConstant, attempt))

	branchExists, fetchError := service.fetchBranch(executionContext, plan)
	if fetchError != nil {
		return attemptOutcome{}, StepError{Step: stepFetchBaseNameConstant, Branch: plan.branchName, Cause: fetchError}
	}
	if branchExists {
		if checkoutError := service.runGit(executionContext, plan, gitCheckoutSubcommandConstant, gitForceFlagConstant, fetchHeadReferenceConstant); checkoutError != nil {
			return attemptOutcome{}, StepError{Step: stepCheckoutBaseNameConstant, Branch: plan.branchName, Cause: checkoutError}
		}
	}
	if checkoutError := service.runGit(executionContext, plan, gitCheckoutSubcommandConstant, gitResetBranchFlagConstant, plan.branchName); checkoutError != nil {
		return attemptOutcome{}, StepError{Step: stepCheckoutBranchNameConstant, Branch: plan.branchName, Cause: checkoutError}
	}

	baseCommit, baseError := service.resolveHead(executionContext, plan)
	if baseError != nil {
		return attemptOutcome{}, StepError{Step: stepResolveBaseNameConstant, Branch: plan.branchName, Cause: baseError}
	}

	if stageError := service.stageFiles(executionContext, plan); stageError != nil {
		return attemptOutcome{}, service.restoreBase(executionContext, plan, baseCommit, stageError)
	}

	hasStagedChanges, detectError := service.hasStagedChanges(executionContext, plan)
	if detectError != nil {
		return attemptOutcome{}, service.restoreBase(executionContext, plan, baseCommit, StepError{Step: stepDetectChangesNameConstant, Branch: plan.branchName, Cause: detectError})
	}

	if !hasStagedChanges && branchExists {
		service.logger.Info(logMessageNoChangesConstant, zap.String(logFieldBranchConstant, plan.branchName), zap.Int(logFieldAttemptConstant, attempt))
		return attemptOutcome{result: Result{Branch: plan.branchName, Attempts: attempt, NoChanges: true}}, nil
	}

	if hasStagedChanges {
		if commitError := service.commit(executionContext, plan); commitError != nil {
			return attemptOutcome{}, service.restoreBase(executionContext, plan, baseCommit, StepError{Step: stepCommitNameConstant, Branch: plan.branchName, Cause: commitError})
		}
	}

	pushError := service.push(executionContext, plan)
	if pushError != nil {
		var failedError execshell.CommandFailedError
		if !errors.As(pushError, &failedError) {
			return attemptOutcome{}, service.restoreBase(executionContext, plan, baseCommit, StepError{Step: stepPushNameConstant, Branch: plan.branchName, Cause: pushError})
		}
		return attemptOutcome{baseCommit: baseCommit, pushError: pushError}, nil
	}

	service.logger.Info(
		logMessagePublishSucceededConstant,
		zap.String(logFieldBranchConstant, plan.branchName),
		zap.Int(logFieldAttemptConstant, attempt),
		zap.Bool(logFieldBranchExistedConstant, branchExists),
		zap.Bool(logFieldCommittedConstant, hasStagedChanges),
	)
	return attemptOutcome{result: Result{
		Branch:        plan.branchName,
		Attempts:      attempt,
		Pushed:        true,
		Committed:     hasStagedChanges,
		BranchCreated: !branchExists,
	}}, nil
}

// fetchBranch reports whether the remote branch exists; a failed fetch means it does not.
func (service *Service) fetchBranch(executionContext context.Context, plan publishPlan) (bool, error) {
	_, fetchError := service.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitFetchSubcommandConstant, plan.remoteName, plan.branchName},
		WorkingDirectory:     plan.repositoryPath,
		EnvironmentVariables: terminalPromptDisabledEnvironment(),
	})
	if fetchError == nil {
		return true, nil
	}
	var failedError execshell.CommandFailedError
	if errors.As(fetchError, &failedError) {
		return false, nil
	}
	return false, fetchError
}

func (service *Service) stageFiles(executionContext context.Context, plan publishPlan) error {
	for _, fileMapping := range plan.files {
		destinationPath := filepath.Join(plan.repositoryPath, filepath.FromSlash(fileMapping.DestinationPath))
		if copyError := service.copyFile(fileMapping.LocalPath, destinationPath); copyError != nil {
			var failure PreconditionFailure
			if errors.As(copyError, &failure) {
				return failure
			}
			return StepError{Step: stepCopyFileNameConstant, Branch: plan.branchName, Cause: copyError}
		}
		if addError := service.runGit(executionContext, plan, gitAddSubcommandConstant, gitPathSeparatorArgumentConstant, fileMapping.DestinationPath); addError != nil {
			return StepError{Step: stepStageFileNameConstant, Branch: plan.branchName, Cause: addError}
		}
	}
	return nil
}

func (service *Service) copyFile(localPath string, destinationPath string) error {
	localFileInfo, statError := service.checkLocalFile(localPath)
	if statError != nil {
		return statError
	}

	fileContents, readError := afero.ReadFile(service.fileSystem, localPath)
	if readError != nil {
		return fmt.Errorf(copyFileErrorTemplateConstant, localPath, destinationPath, readError)
	}
	if mkdirError := service.fileSystem.MkdirAll(filepath.Dir(destinationPath), directoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(copyFileErrorTemplateConstant, localPath, destinationPath, mkdirError)
	}
	if writeError := afero.WriteFile(service.fileSystem, destinationPath, fileContents, localFileInfo.Mode().Perm()); writeError != nil {
		return fmt.Errorf(copyFileErrorTemplateConstant, localPath, destinationPath, writeError)
	}
	return nil
}

// hasStagedChanges relies on git diff --quiet exiting 1 when the index differs from HEAD.
func (service *Service) hasStagedChanges(executionContext context.Context, plan publishPlan) (bool, error) {
	diffError := service.runGit(executionContext, plan, gitDiffSubcommandConstant, gitCachedFlagConstant, gitQuietFlagConstant)
	if diffError == nil {
		return false, nil
	}
	var failedError execshell.CommandFailedError
	if errors.As(diffError, &failedError) && failedError.Result.ExitCode == stagedChangesExitCodeConstant {
		return true, nil
	}
	return false, diffError
}

func (service *Service) commit(executionContext context.Context, plan publishPlan) error {
	_, commitError := service.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments: []string{
			gitConfigurationFlagConstant, fmt.Sprintf(gitUserNameSettingTemplateConstant, plan.identity.Name),
			gitConfigurationFlagConstant, fmt.Sprintf(gitUserEmailSettingTemplateConstant, plan.identity.Email),
			gitCommitSubcommandConstant, gitMessageFlagConstant, plan.commitMessage,
		},
		WorkingDirectory: plan.repositoryPath,
	})
	return commitError
}

func (service *Service) push(executionContext context.Context, plan publishPlan) error {
	_, pushError := service.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitPushSubcommandConstant, plan.remoteName, fmt.Sprintf(refspecTemplateConstant, plan.branchName, plan.branchName)},
		WorkingDirectory:     plan.repositoryPath,
		EnvironmentVariables: terminalPromptDisabledEnvironment(),
	})
	return pushError
}

// resolveHead returns the commit the publish branch starts from in this attempt.
func (service *Service) resolveHead(executionContext context.Context, plan publishPlan) (string, error) {
	executionResult, revParseError := service.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, headReferenceConstant},
		WorkingDirectory: plan.repositoryPath,
	})
	if revParseError != nil {
		return "", revParseError
	}
	baseCommit := strings.TrimSpace(executionResult.StandardOutput)
	if len(baseCommit) == 0 {
		return "", ErrBaseCommitUnresolved
	}
	return baseCommit, nil
}

// discardAttempt moves the publish branch back to the attempt's base, dropping its commit and copied files.
func (service *Service) discardAttempt(executionContext context.Context, plan publishPlan, baseCommit string) error {
	if resetError := service.runGit(executionContext, plan, gitResetSubcommandConstant, gitHardFlagConstant, baseCommit); resetError != nil {
		return StepError{Step: stepDiscardAttemptNameConstant, Branch: plan.branchName, Cause: resetError}
	}
	return nil
}

func (service *Service) restoreBase(executionContext context.Context, plan publishPlan, baseCommit string, stepError error) error {
	if discardError := service.discardAttempt(executionContext, plan, baseCommit); discardError != nil {
		service.logger.Warn(
			logMessageRestoreFailedConstant,
			zap.String(logFieldBranchConstant, plan.branchName),
			zap.String(logFieldBaseCommitConstant, baseCommit),
			zap.Error(discardError),
		)
	}
	return stepError
}

func (service *Service) runGit(executionContext context.Context, plan publishPlan, arguments ...string) error {
	_, executionError := service.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: plan.repositoryPath,
	})
	return executionError
}

func (service *Service) preparePlan(options Options) (publishPlan, error) {
	repositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(repositoryPath) == 0 {
		return publishPlan{}, PreconditionFailure{Cause: ErrRepositoryPathRequired}
	}
	branchName := strings.TrimSpace(options.BranchName)
	if len(branchName) == 0 {
		return publishPlan{}, PreconditionFailure{Cause: ErrBranchNameRequired}
	}
	if len(options.Files) == 0 {
		return publishPlan{}, PreconditionFailure{Cause: ErrFilesRequired}
	}
	identity := CommitterIdentity{Name: strings.TrimSpace(options.Identity.Name), Email: strings.TrimSpace(options.Identity.Email)}
	if len(identity.Name) == 0 || len(identity.Email) == 0 {
		return publishPlan{}, PreconditionFailure{Cause: ErrCommitterIdentityRequired}
	}
	remoteName := strings.TrimSpace(options.RemoteName)
	if len(remoteName) == 0 {
		remoteName = defaultRemoteNameConstant
	}

	cleanRepositoryPath := filepath.Clean(repositoryPath)
	plannedFiles := make([]FileMapping, 0, len(options.Files))
	for _, fileMapping := range options.Files {
		localPath := strings.TrimSpace(fileMapping.LocalPath)
		if len(localPath) == 0 {
			return publishPlan{}, PreconditionFailure{Path: fileMapping.DestinationPath, Cause: ErrLocalPathRequired}
		}
		if _, checkError := service.checkLocalFile(localPath); checkError != nil {
			return publishPlan{}, checkError
		}
		destinationPath, destinationError := normalizeDestination(fileMapping.DestinationPath)
		if destinationError != nil {
			return publishPlan{}, destinationError
		}
		plannedFiles = append(plannedFiles, FileMapping{LocalPath: localPath, DestinationPath: destinationPath})
	}

	return publishPlan{
		repositoryPath: cleanRepositoryPath,
		remoteName:     remoteName,
		branchName:     branchName,
		commitMessage:  options.CommitMessage,
		identity:       identity,
		files:          plannedFiles,
	}, nil
}

func (service *Service) checkLocalFile(localPath string) (fs.FileInfo, error) {
	localFileInfo, statError := service.fileSystem.Stat(localPath)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return nil, PreconditionFailure{Path: localPath, Cause: ErrLocalFileMissing}
		}
		return nil, PreconditionFailure{Path: localPath, Cause: statError}
	}
	if !localFileInfo.Mode().IsRegular() {
		return nil, PreconditionFailure{Path: localPath, Cause: ErrLocalFileNotRegular}
	}
	return localFileInfo, nil
}

// normalizeDestination returns the slash-separated, root-relative form of a destination path.
func normalizeDestination(destinationPath string) (string, error) {
	trimmedDestination := strings.TrimSpace(destinationPath)
	if len(trimmedDestination) == 0 {
		return "", PreconditionFailure{Cause: ErrDestinationPathRequired}
	}
	slashDestination := strings.ReplaceAll(trimmedDestination, "\\", "/")
	if filepath.IsAbs(slashDestination) || strings.HasPrefix(slashDestination, "/") {
		return "", PreconditionFailure{Path: destinationPath, Cause: ErrDestinationOutsideRepository}
	}
	cleanDestination := filepath.ToSlash(filepath.Clean(filepath.FromSlash(slashDestination)))
	if cleanDestination == "." || cleanDestination == parentDirectoryReferenceConstant || strings.HasPrefix(cleanDestination, parentDirectoryReferenceConstant+"/") {
		return "", PreconditionFailure{Path: destinationPath, Cause: ErrDestinationOutsideRepository}
	}
	return cleanDestination, nil
}

func pushStandardError(pushError error) string {
	var failedError execshell.CommandFailedError
	if errors.As(pushError, &failedError) {
		return failedError.Result.StandardError
	}
	return ""
}

func terminalPromptDisabledEnvironment() map[string]string {
	return map[string]string{gitTerminalPromptEnvironmentNameConstant: gitTerminalPromptEnvironmentDisableConstant}
}
