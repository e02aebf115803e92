package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitpublish/internal/execshell"
)

const (
	testRepositoryPathConstant    = "/workspace/repo"
	testLocalReportPathConstant   = "/tmp/report.json"
	testDestinationPathConstant   = "reports/latest.json"
	testBranchNameConstant        = "perf-results"
	testCommitMessageConstant     = "update report"
	testReportContentsConstant    = `{"speedometer": 41.2}`
	testCommitterNameConstant     = "brave-builds"
	testCommitterEmailConstant    = "brave-builds+devops@brave.com"
	testNonFastForwardStderr      = "! [rejected] perf-results -> perf-results (fetch first)\nerror: failed to push some refs"
	testPermissionDeniedStderr    = "remote: Permission to brave/brave-core.git denied to bot.\nfatal: unable to access: The requested URL returned error: 403"
	testMissingRemoteBranchStderr = "fatal: couldn't find remote ref perf-results"
	testBaseCommitConstant        = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"
)

type scriptedGitExecutor struct {
	remoteBranchExists bool
	stagedChanges      bool
	pushFailures       []string
	failingSubcommand  string
	spawnFailure       error
	recordedCommands   []execshell.CommandDetails
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)
	subcommand := gitSubcommand(details.Arguments)

	if subcommand == executor.failingSubcommand {
		if executor.spawnFailure != nil {
			return execshell.ExecutionResult{}, executor.spawnFailure
		}
		return execshell.ExecutionResult{}, commandFailure(details, 128, "fatal: "+subcommand+" failed")
	}

	switch subcommand {
	case gitFetchSubcommandConstant:
		if !executor.remoteBranchExists {
			return execshell.ExecutionResult{}, commandFailure(details, 128, testMissingRemoteBranchStderr)
		}
	case gitRevParseSubcommandConstant:
		return execshell.ExecutionResult{StandardOutput: testBaseCommitConstant + "\n"}, nil
	case gitDiffSubcommandConstant:
		if executor.stagedChanges {
			return execshell.ExecutionResult{}, commandFailure(details, 1, "")
		}
	case gitPushSubcommandConstant:
		if len(executor.pushFailures) > 0 {
			pushFailure := executor.pushFailures[0]
			executor.pushFailures = executor.pushFailures[1:]
			return execshell.ExecutionResult{}, commandFailure(details, 1, pushFailure)
		}
		executor.remoteBranchExists = true
	}
	return execshell.ExecutionResult{}, nil
}

func (executor *scriptedGitExecutor) commandsFor(subcommand string) []execshell.CommandDetails {
	matchingCommands := make([]execshell.CommandDetails, 0)
	for _, recordedCommand := range executor.recordedCommands {
		if gitSubcommand(recordedCommand.Arguments) == subcommand {
			matchingCommands = append(matchingCommands, recordedCommand)
		}
	}
	return matchingCommands
}

func gitSubcommand(arguments []string) string {
	for index := 0; index < len(arguments); index++ {
		if arguments[index] == gitConfigurationFlagConstant {
			index++
			continue
		}
		return arguments[index]
	}
	return ""
}

func commandFailure(details execshell.CommandDetails, exitCode int, standardError string) error {
	return execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: details},
		Result:  execshell.ExecutionResult{ExitCode: exitCode, StandardError: standardError},
	}
}

type recordingLocker struct {
	lockError    error
	lockedPaths  []string
	releaseCount int
}

func (locker *recordingLocker) Lock(_ context.Context, repositoryPath string) (ReleaseFunc, error) {
	if locker.lockError != nil {
		return nil, locker.lockError
	}
	locker.lockedPaths = append(locker.lockedPaths, repositoryPath)
	return func() error {
		locker.releaseCount++
		return nil
	}, nil
}

type publishFixture struct {
	executor   *scriptedGitExecutor
	fileSystem afero.Fs
	locker     *recordingLocker
	service    *Service
}

func newPublishFixture(testInstance *testing.T, executor *scriptedGitExecutor, logger *zap.Logger) publishFixture {
	testInstance.Helper()
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(fileSystem, testLocalReportPathConstant, []byte(testReportContentsConstant), 0o644))
	require.NoError(testInstance, fileSystem.MkdirAll(testRepositoryPathConstant, 0o755))

	locker := &recordingLocker{}
	service, creationError := NewService(Dependencies{
		GitExecutor:       executor,
		FileSystem:        fileSystem,
		WorkingCopyLocker: locker,
		Logger:            logger,
	})
	require.NoError(testInstance, creationError)

	return publishFixture{executor: executor, fileSystem: fileSystem, locker: locker, service: service}
}

func reportPublishOptions() Options {
	return Options{
		RepositoryPath: testRepositoryPathConstant,
		Files:          []FileMapping{{LocalPath: testLocalReportPathConstant, DestinationPath: testDestinationPathConstant}},
		BranchName:     testBranchNameConstant,
		CommitMessage:  testCommitMessageConstant,
		Identity:       CommitterIdentity{Name: testCommitterNameConstant, Email: testCommitterEmailConstant},
	}
}

func TestNewServiceValidatesDependencies(testInstance *testing.T) {
	testCases := []struct {
		name         string
		dependencies Dependencies
		expectedErr  error
	}{
		{
			name:         "MissingGitExecutor",
			dependencies: Dependencies{FileSystem: afero.NewMemMapFs(), WorkingCopyLocker: &recordingLocker{}},
			expectedErr:  ErrGitExecutorNotConfigured,
		},
		{
			name:         "MissingFileSystem",
			dependencies: Dependencies{GitExecutor: &scriptedGitExecutor{}, WorkingCopyLocker: &recordingLocker{}},
			expectedErr:  ErrFileSystemNotConfigured,
		},
		{
			name:         "MissingWorkingCopyLocker",
			dependencies: Dependencies{GitExecutor: &scriptedGitExecutor{}, FileSystem: afero.NewMemMapFs()},
			expectedErr:  ErrWorkingCopyLockerNotConfigured,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			service, creationError := NewService(testCase.dependencies)
			require.ErrorIs(testInstance, creationError, testCase.expectedErr)
			require.Nil(testInstance, service)
		})
	}
}

func TestPublishCreatesBranchWithSingleCommit(testInstance *testing.T) {
	fixture := newPublishFixture(testInstance, &scriptedGitExecutor{stagedChanges: true}, nil)

	result, publishError := fixture.service.Publish(context.Background(), reportPublishOptions())
	require.NoError(testInstance, publishError)
	require.Equal(testInstance, Result{Branch: testBranchNameConstant, Attempts: 1, Pushed: true, Committed: true, BranchCreated: true}, result)

	recordedArguments := make([][]string, 0, len(fixture.executor.recordedCommands))
	for _, recordedCommand := range fixture.executor.recordedCommands {
		require.Equal(testInstance, testRepositoryPathConstant, recordedCommand.WorkingDirectory)
		recordedArguments = append(recordedArguments, recordedCommand.Arguments)
	}
	require.Equal(testInstance, [][]string{
		{"fetch", "origin", testBranchNameConstant},
		{"checkout", "-B", testBranchNameConstant},
		{"rev-parse", "HEAD"},
		{"add", "--", testDestinationPathConstant},
		{"diff", "--cached", "--quiet"},
		{"-c", "user.name=" + testCommitterNameConstant, "-c", "user.email=" + testCommitterEmailConstant, "commit", "-m", testCommitMessageConstant},
		{"push", "origin", "perf-results:perf-results"},
	}, recordedArguments)

	publishedContents, readError := afero.ReadFile(fixture.fileSystem, testRepositoryPathConstant+"/"+testDestinationPathConstant)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, testReportContentsConstant, string(publishedContents))

	require.Equal(testInstance, []string{testRepositoryPathConstant}, fixture.locker.lockedPaths)
	require.Equal(testInstance, 1, fixture.locker.releaseCount)
}

func TestPublishRebuildsExistingBranchFromFetchedTip(testInstance *testing.T) {
	fixture := newPublishFixture(testInstance, &scriptedGitExecutor{remoteBranchExists: true, stagedChanges: true}, nil)

	options := reportPublishOptions()
	options.RemoteName = "upstream"
	result, publishError := fixture.service.Publish(context.Background(), options)
	require.NoError(testInstance, publishError)
	require.False(testInstance, result.BranchCreated)

	require.Equal(testInstance, []string{"fetch", "upstream", testBranchNameConstant}, fixture.executor.recordedCommands[0].Arguments)
	require.Equal(testInstance, []string{"checkout", "-f", "FETCH_HEAD"}, fixture.executor.recordedCommands[1].Arguments)
	require.Equal(testInstance, []string{"checkout", "-B", testBranchNameConstant}, fixture.executor.recordedCommands[2].Arguments)
	require.Equal(testInstance, map[string]string{"GIT_TERMINAL_PROMPT": "0"}, fixture.executor.recordedCommands[0].EnvironmentVariables)
	require.Equal(testInstance, []string{"push", "upstream", "perf-results:perf-results"}, fixture.executor.commandsFor(gitPushSubcommandConstant)[0].Arguments)
}

func TestPublishRetriesRejectedPushes(testInstance *testing.T) {
	for rejectedPushes := 0; rejectedPushes < MaxAttempts; rejectedPushes++ {
		pushFailures := make([]string, rejectedPushes)
		for index := range pushFailures {
			pushFailures[index] = testNonFastForwardStderr
		}

		fixture := newPublishFixture(testInstance, &scriptedGitExecutor{remoteBranchExists: true, stagedChanges: true, pushFailures: pushFailures}, nil)

		result, publishError := fixture.service.Publish(context.Background(), reportPublishOptions())
		require.NoError(testInstance, publishError)
		require.Equal(testInstance, rejectedPushes+1, result.Attempts)
		require.True(testInstance, result.Pushed)
		require.Len(testInstance, fixture.executor.commandsFor(gitPushSubcommandConstant), rejectedPushes+1)
		require.Len(testInstance, fixture.executor.commandsFor(gitFetchSubcommandConstant), rejectedPushes+1)
		require.Len(testInstance, fixture.executor.commandsFor(gitResetSubcommandConstant), rejectedPushes)
		for _, resetCommand := range fixture.executor.commandsFor(gitResetSubcommandConstant) {
			require.Equal(testInstance, []string{"reset", "--hard", testBaseCommitConstant}, resetCommand.Arguments)
		}
		require.True(testInstance, result.Committed)
		require.Equal(testInstance, 1, fixture.locker.releaseCount)
	}
}

func TestPublishFailsAfterExhaustingAttempts(testInstance *testing.T) {
	observerCore, observedLogs := observer.New(zapcore.WarnLevel)
	executor := &scriptedGitExecutor{
		remoteBranchExists: true,
		stagedChanges:      true,
		pushFailures:       []string{testNonFastForwardStderr, testNonFastForwardStderr, testNonFastForwardStderr, testNonFastForwardStderr},
	}
	fixture := newPublishFixture(testInstance, executor, zap.New(observerCore))

	_, publishError := fixture.service.Publish(context.Background(), reportPublishOptions())
	require.Error(testInstance, publishError)

	var publishFailure PublishFailure
	require.ErrorAs(testInstance, publishError, &publishFailure)
	require.Equal(testInstance, testBranchNameConstant, publishFailure.Branch)
	require.Equal(testInstance, MaxAttempts, publishFailure.Attempts)
	require.False(testInstance, publishFailure.Permanent)
	require.Contains(testInstance, publishError.Error(), testBranchNameConstant)

	var failedError execshell.CommandFailedError
	require.ErrorAs(testInstance, publishError, &failedError)

	require.Len(testInstance, executor.commandsFor(gitPushSubcommandConstant), MaxAttempts)
	require.Len(testInstance, executor.commandsFor(gitResetSubcommandConstant), MaxAttempts)
	require.Len(testInstance, executor.pushFailures, 1)
	require.Len(testInstance, observedLogs.FilterMessage(logMessagePushRejectedConstant).All(), MaxAttempts)
	require.Equal(testInstance, 1, fixture.locker.releaseCount)
}

func TestPublishStopsOnPermanentPushRejection(testInstance *testing.T) {
	executor := &scriptedGitExecutor{stagedChanges: true, pushFailures: []string{testPermissionDeniedStderr}}
	fixture := newPublishFixture(testInstance, executor, nil)

	_, publishError := fixture.service.Publish(context.Background(), reportPublishOptions())

	var publishFailure PublishFailure
	require.ErrorAs(testInstance, publishError, &publishFailure)
	require.True(testInstance, publishFailure.Permanent)
	require.Equal(testInstance, 1, publishFailure.Attempts)
	require.Len(testInstance, executor.commandsFor(gitPushSubcommandConstant), 1)
	require.Len(testInstance, executor.commandsFor(gitResetSubcommandConstant), 1)
}

func TestPublishRejectsInvalidInputBeforeTouchingTheCheckout(testInstance *testing.T) {
	testCases := []struct {
		name          string
		mutate        func(options *Options)
		expectedCause error
	}{
		{
			name:          "missing_local_file",
			mutate:        func(options *Options) { options.Files[0].LocalPath = "/tmp/missing.json" },
			expectedCause: ErrLocalFileMissing,
		},
		{
			name: "second_local_file_missing",
			mutate: func(options *Options) {
				options.Files = append(options.Files, FileMapping{LocalPath: "/tmp/missing.json", DestinationPath: "reports/other.json"})
			},
			expectedCause: ErrLocalFileMissing,
		},
		{
			name:          "local_path_is_directory",
			mutate:        func(options *Options) { options.Files[0].LocalPath = "/tmp" },
			expectedCause: ErrLocalFileNotRegular,
		},
		{
			name:          "destination_escapes_repository",
			mutate:        func(options *Options) { options.Files[0].DestinationPath = "../outside.json" },
			expectedCause: ErrDestinationOutsideRepository,
		},
		{
			name:          "absolute_destination",
			mutate:        func(options *Options) { options.Files[0].DestinationPath = "/etc/report.json" },
			expectedCause: ErrDestinationOutsideRepository,
		},
		{
			name:          "empty_destination",
			mutate:        func(options *Options) { options.Files[0].DestinationPath = " " },
			expectedCause: ErrDestinationPathRequired,
		},
		{
			name:          "missing_branch",
			mutate:        func(options *Options) { options.BranchName = "" },
			expectedCause: ErrBranchNameRequired,
		},
		{
			name:          "missing_repository",
			mutate:        func(options *Options) { options.RepositoryPath = "" },
			expectedCause: ErrRepositoryPathRequired,
		},
		{
			name:          "missing_files",
			mutate:        func(options *Options) { options.Files = nil },
			expectedCause: ErrFilesRequired,
		},
		{
			name:          "missing_identity",
			mutate:        func(options *Options) { options.Identity.Email = "" },
			expectedCause: ErrCommitterIdentityRequired,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newPublishFixture(testInstance, &scriptedGitExecutor{stagedChanges: true}, nil)
			options := reportPublishOptions()
			testCase.mutate(&options)

			_, publishError := fixture.service.Publish(context.Background(), options)

			var preconditionFailure PreconditionFailure
			require.ErrorAs(testInstance, publishError, &preconditionFailure)
			require.ErrorIs(testInstance, publishError, testCase.expectedCause)
			require.Empty(testInstance, fixture.executor.recordedCommands)
			require.Empty(testInstance, fixture.locker.lockedPaths)
		})
	}
}

func TestPublishIsNoOpWhenBranchAlreadyHoldsContents(testInstance *testing.T) {
	fixture := newPublishFixture(testInstance, &scriptedGitExecutor{remoteBranchExists: true, stagedChanges: false}, nil)

	for publishIndex := 0; publishIndex < 2; publishIndex++ {
		result, publishError := fixture.service.Publish(context.Background(), reportPublishOptions())
		require.NoError(testInstance, publishError)
		require.Equal(testInstance, Result{Branch: testBranchNameConstant, Attempts: 1, NoChanges: true}, result)
	}

	require.Empty(testInstance, fixture.executor.commandsFor(gitCommitSubcommandConstant))
	require.Empty(testInstance, fixture.executor.commandsFor(gitPushSubcommandConstant))
	require.Equal(testInstance, 2, fixture.locker.releaseCount)
}

func TestPublishPushesBaseWhenNewBranchHasNoChanges(testInstance *testing.T) {
	fixture := newPublishFixture(testInstance, &scriptedGitExecutor{remoteBranchExists: false, stagedChanges: false}, nil)

	result, publishError := fixture.service.Publish(context.Background(), reportPublishOptions())
	require.NoError(testInstance, publishError)
	require.True(testInstance, result.Pushed)
	require.True(testInstance, result.BranchCreated)
	require.False(testInstance, result.Committed)
	require.Empty(testInstance, fixture.executor.commandsFor(gitCommitSubcommandConstant))
	require.Len(testInstance, fixture.executor.commandsFor(gitPushSubcommandConstant), 1)
}

func TestPublishPropagatesStepFailures(testInstance *testing.T) {
	testCases := []struct {
		name              string
		failingSubcommand string
		spawnFailure      error
		expectedStep      string
		expectedRestore   bool
	}{
		{name: "checkout", failingSubcommand: gitCheckoutSubcommandConstant, expectedStep: stepCheckoutBranchNameConstant},
		{name: "resolve_base", failingSubcommand: gitRevParseSubcommandConstant, expectedStep: stepResolveBaseNameConstant},
		{name: "add", failingSubcommand: gitAddSubcommandConstant, expectedStep: stepStageFileNameConstant, expectedRestore: true},
		{name: "commit", failingSubcommand: gitCommitSubcommandConstant, expectedStep: stepCommitNameConstant, expectedRestore: true},
		{name: "fetch_spawn", failingSubcommand: gitFetchSubcommandConstant, spawnFailure: errors.New("git missing"), expectedStep: stepFetchBaseNameConstant},
		{name: "push_spawn", failingSubcommand: gitPushSubcommandConstant, spawnFailure: errors.New("git missing"), expectedStep: stepPushNameConstant, expectedRestore: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{stagedChanges: true, failingSubcommand: testCase.failingSubcommand, spawnFailure: testCase.spawnFailure}
			fixture := newPublishFixture(testInstance, executor, nil)

			_, publishError := fixture.service.Publish(context.Background(), reportPublishOptions())

			var stepError StepError
			require.ErrorAs(testInstance, publishError, &stepError)
			require.Equal(testInstance, testCase.expectedStep, stepError.Step)
			require.Equal(testInstance, testBranchNameConstant, stepError.Branch)
			require.Equal(testInstance, 1, fixture.locker.releaseCount)
			if testCase.failingSubcommand != gitPushSubcommandConstant {
				require.Empty(testInstance, executor.commandsFor(gitPushSubcommandConstant))
			}
			resetCommands := executor.commandsFor(gitResetSubcommandConstant)
			if testCase.expectedRestore {
				require.Len(testInstance, resetCommands, 1)
				require.Equal(testInstance, []string{"reset", "--hard", testBaseCommitConstant}, resetCommands[0].Arguments)
			} else {
				require.Empty(testInstance, resetCommands)
			}
		})
	}
}

func TestPublishReportsBusyWorkingCopy(testInstance *testing.T) {
	fixture := newPublishFixture(testInstance, &scriptedGitExecutor{}, nil)
	fixture.locker.lockError = ErrWorkingCopyBusy

	_, publishError := fixture.service.Publish(context.Background(), reportPublishOptions())
	require.ErrorIs(testInstance, publishError, ErrWorkingCopyBusy)
	require.Empty(testInstance, fixture.executor.recordedCommands)
}

func TestPublishCopiesFilesInOrderAndCreatesParents(testInstance *testing.T) {
	fixture := newPublishFixture(testInstance, &scriptedGitExecutor{stagedChanges: true}, nil)
	require.NoError(testInstance, afero.WriteFile(fixture.fileSystem, "/tmp/summary.txt", []byte("summary"), 0o600))

	options := reportPublishOptions()
	options.Files = append(options.Files, FileMapping{LocalPath: "/tmp/summary.txt", DestinationPath: `nested\deep\summary.txt`})

	_, publishError := fixture.service.Publish(context.Background(), options)
	require.NoError(testInstance, publishError)

	stagedCommands := fixture.executor.commandsFor(gitAddSubcommandConstant)
	require.Len(testInstance, stagedCommands, 2)
	require.Equal(testInstance, []string{"add", "--", testDestinationPathConstant}, stagedCommands[0].Arguments)
	require.Equal(testInstance, []string{"add", "--", "nested/deep/summary.txt"}, stagedCommands[1].Arguments)

	summaryContents, readError := afero.ReadFile(fixture.fileSystem, testRepositoryPathConstant+"/nested/deep/summary.txt")
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "summary", string(summaryContents))
}

func TestPublishHonorsCanceledContext(testInstance *testing.T) {
	fixture := newPublishFixture(testInstance, &scriptedGitExecutor{}, nil)
	canceledContext, cancel := context.WithCancel(context.Background())
	cancel()

	_, publishError := fixture.service.Publish(canceledContext, reportPublishOptions())
	require.ErrorIs(testInstance, publishError, context.Canceled)
	require.Empty(testInstance, fixture.executor.recordedCommands)
	require.Equal(testInstance, 1, fixture.locker.releaseCount)
}
