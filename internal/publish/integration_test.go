package publish_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gitpublish/internal/execshell"
	"github.com/temirov/gitpublish/internal/publish"
)

const (
	integrationGitExecutableNameConstant   = "git"
	integrationRemoteDirectoryNameConstant = "remote.git"
	integrationLocalDirectoryNameConstant  = "local"
	integrationMainBranchNameConstant      = "master"
	integrationPublishBranchNameConstant   = "perf-results"
	integrationRemoteNameConstant          = "origin"
	integrationDestinationPathConstant     = "reports/latest.json"
	integrationReportContentsConstant      = "{\"score\":42}\n"
	integrationCommitMessageConstant       = "update report"
	integrationCommitterNameConstant       = "brave-builds"
	integrationCommitterEmailConstant      = "brave-builds+devops@brave.com"
	integrationCommandTimeoutConstant      = 10 * time.Second
	integrationRejectOnceHookTemplate      = "#!/bin/sh\nif [ ! -f \"%s\" ]; then\n  touch \"%s\"\n  echo \"simulated concurrent update\" >&2\n  exit 1\nfi\nexit 0\n"
)

type integrationRepositories struct {
	remotePath string
	localPath  string
	reportPath string
}

func requireGit(testInstance *testing.T) {
	testInstance.Helper()
	if _, lookupError := exec.LookPath(integrationGitExecutableNameConstant); lookupError != nil {
		testInstance.Skip("git executable not available")
	}
}

func runGitCommand(testInstance *testing.T, workingDirectory string, arguments ...string) string {
	testInstance.Helper()
	executionContext, cancelFunction := context.WithTimeout(context.Background(), integrationCommandTimeoutConstant)
	defer cancelFunction()

	command := exec.CommandContext(executionContext, integrationGitExecutableNameConstant, arguments...)
	command.Dir = workingDirectory
	outputBytes, commandError := command.CombinedOutput()
	require.NoError(testInstance, commandError, string(outputBytes))
	return string(outputBytes)
}

func prepareIntegrationRepositories(testInstance *testing.T) integrationRepositories {
	testInstance.Helper()
	temporaryRoot := testInstance.TempDir()
	repositories := integrationRepositories{
		remotePath: filepath.Join(temporaryRoot, integrationRemoteDirectoryNameConstant),
		localPath:  filepath.Join(temporaryRoot, integrationLocalDirectoryNameConstant),
		reportPath: filepath.Join(temporaryRoot, "report.json"),
	}

	runGitCommand(testInstance, temporaryRoot, "init", "--bare", repositories.remotePath)
	runGitCommand(testInstance, temporaryRoot, "init", repositories.localPath)
	require.NoError(testInstance, os.WriteFile(filepath.Join(repositories.localPath, "README.md"), []byte("reports\n"), 0o644))
	runGitCommand(testInstance, repositories.localPath, "add", "README.md")
	runGitCommand(testInstance, repositories.localPath, "-c", "user.name=setup", "-c", "user.email=setup@example.com", "commit", "-m", "initial")
	runGitCommand(testInstance, repositories.localPath, "branch", "-M", integrationMainBranchNameConstant)
	runGitCommand(testInstance, repositories.localPath, "remote", "add", integrationRemoteNameConstant, repositories.remotePath)
	runGitCommand(testInstance, repositories.localPath, "push", integrationRemoteNameConstant, integrationMainBranchNameConstant)

	require.NoError(testInstance, os.WriteFile(repositories.reportPath, []byte(integrationReportContentsConstant), 0o644))
	return repositories
}

func newIntegrationService(testInstance *testing.T) *publish.Service {
	testInstance.Helper()
	shellExecutor, executorError := execshell.NewShellExecutor(zap.NewNop(), execshell.NewOSCommandRunner())
	require.NoError(testInstance, executorError)

	service, serviceError := publish.NewService(publish.Dependencies{
		GitExecutor:       shellExecutor,
		FileSystem:        afero.NewOsFs(),
		WorkingCopyLocker: publish.NewFileWorkingCopyLocker(time.Second),
		Logger:            zap.NewNop(),
	})
	require.NoError(testInstance, serviceError)
	return service
}

func integrationOptions(repositories integrationRepositories) publish.Options {
	return publish.Options{
		RepositoryPath: repositories.localPath,
		RemoteName:     integrationRemoteNameConstant,
		Files:          []publish.FileMapping{{LocalPath: repositories.reportPath, DestinationPath: integrationDestinationPathConstant}},
		BranchName:     integrationPublishBranchNameConstant,
		CommitMessage:  integrationCommitMessageConstant,
		Identity:       publish.CommitterIdentity{Name: integrationCommitterNameConstant, Email: integrationCommitterEmailConstant},
	}
}

func TestPublishIntegrationCreatesBranchAndIsIdempotent(testInstance *testing.T) {
	requireGit(testInstance)
	repositories := prepareIntegrationRepositories(testInstance)
	service := newIntegrationService(testInstance)

	firstResult, firstError := service.Publish(context.Background(), integrationOptions(repositories))
	require.NoError(testInstance, firstError)
	require.True(testInstance, firstResult.Pushed)
	require.True(testInstance, firstResult.BranchCreated)
	require.Equal(testInstance, 1, firstResult.Attempts)

	publishedContents := runGitCommand(testInstance, repositories.remotePath, "show", integrationPublishBranchNameConstant+":"+integrationDestinationPathConstant)
	require.Equal(testInstance, integrationReportContentsConstant, publishedContents)

	commitCount := runGitCommand(testInstance, repositories.remotePath, "rev-list", "--count", integrationMainBranchNameConstant+".."+integrationPublishBranchNameConstant)
	require.Equal(testInstance, "1", strings.TrimSpace(commitCount))

	commitMetadata := runGitCommand(testInstance, repositories.remotePath, "log", "-1", "--format=%cn <%ce>|%s", integrationPublishBranchNameConstant)
	require.Equal(testInstance, integrationCommitterNameConstant+" <"+integrationCommitterEmailConstant+">|"+integrationCommitMessageConstant, strings.TrimSpace(commitMetadata))

	localIdentity := exec.Command(integrationGitExecutableNameConstant, "config", "--local", "user.name")
	localIdentity.Dir = repositories.localPath
	_, identityLookupError := localIdentity.Output()
	require.Error(testInstance, identityLookupError)

	secondResult, secondError := service.Publish(context.Background(), integrationOptions(repositories))
	require.NoError(testInstance, secondError)
	require.True(testInstance, secondResult.NoChanges)
	require.False(testInstance, secondResult.Pushed)

	commitCount = runGitCommand(testInstance, repositories.remotePath, "rev-list", "--count", integrationMainBranchNameConstant+".."+integrationPublishBranchNameConstant)
	require.Equal(testInstance, "1", strings.TrimSpace(commitCount))
}

func TestPublishIntegrationRetriesRejectedPush(testInstance *testing.T) {
	requireGit(testInstance)
	repositories := prepareIntegrationRepositories(testInstance)

	markerPath := filepath.Join(filepath.Dir(repositories.remotePath), "rejected-once")
	hookPath := filepath.Join(repositories.remotePath, "hooks", "pre-receive")
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(hookPath), 0o755))
	hookScript := strings.ReplaceAll(integrationRejectOnceHookTemplate, "%s", markerPath)
	require.NoError(testInstance, os.WriteFile(hookPath, []byte(hookScript), 0o755))

	result, publishError := newIntegrationService(testInstance).Publish(context.Background(), integrationOptions(repositories))
	require.NoError(testInstance, publishError)
	require.Equal(testInstance, 2, result.Attempts)
	require.True(testInstance, result.Pushed)
	require.True(testInstance, result.Committed)
	require.True(testInstance, result.BranchCreated)

	publishedContents := runGitCommand(testInstance, repositories.remotePath, "show", integrationPublishBranchNameConstant+":"+integrationDestinationPathConstant)
	require.Equal(testInstance, integrationReportContentsConstant, publishedContents)

	commitCount := runGitCommand(testInstance, repositories.remotePath, "rev-list", "--count", integrationMainBranchNameConstant+".."+integrationPublishBranchNameConstant)
	require.Equal(testInstance, "1", strings.TrimSpace(commitCount))

	mainTip := runGitCommand(testInstance, repositories.remotePath, "rev-parse", integrationMainBranchNameConstant)
	publishedParent := runGitCommand(testInstance, repositories.remotePath, "rev-parse", integrationPublishBranchNameConstant+"^")
	require.Equal(testInstance, strings.TrimSpace(mainTip), strings.TrimSpace(publishedParent))

	localStatus := runGitCommand(testInstance, repositories.localPath, "status", "--porcelain")
	require.Empty(testInstance, strings.TrimSpace(localStatus))
}

func TestPublishIntegrationRestoresBaseAfterFailedCommit(testInstance *testing.T) {
	requireGit(testInstance)
	repositories := prepareIntegrationRepositories(testInstance)

	hookPath := filepath.Join(repositories.localPath, ".git", "hooks", "pre-commit")
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(hookPath), 0o755))
	require.NoError(testInstance, os.WriteFile(hookPath, []byte("#!/bin/sh\nexit 1\n"), 0o755))
	baseCommit := runGitCommand(testInstance, repositories.localPath, "rev-parse", "HEAD")

	_, publishError := newIntegrationService(testInstance).Publish(context.Background(), integrationOptions(repositories))

	var stepError publish.StepError
	require.ErrorAs(testInstance, publishError, &stepError)
	require.Equal(testInstance, integrationPublishBranchNameConstant, stepError.Branch)

	currentCommit := runGitCommand(testInstance, repositories.localPath, "rev-parse", "HEAD")
	require.Equal(testInstance, strings.TrimSpace(baseCommit), strings.TrimSpace(currentCommit))
	localStatus := runGitCommand(testInstance, repositories.localPath, "status", "--porcelain")
	require.Empty(testInstance, strings.TrimSpace(localStatus))
	require.NoFileExists(testInstance, filepath.Join(repositories.localPath, filepath.FromSlash(integrationDestinationPathConstant)))
}
