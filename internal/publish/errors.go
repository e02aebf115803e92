package publish

import (
	"errors"
	"fmt"
)

const (
	gitExecutorMissingMessageConstant        = "git executor not configured"
	fileSystemMissingMessageConstant         = "file system not configured"
	workingCopyLockerMissingMessageConstant  = "working copy locker not configured"
	repositoryPathRequiredMessageConstant    = "repository path must be provided"
	branchNameRequiredMessageConstant        = "branch name must be provided"
	filesRequiredMessageConstant             = "at least one file mapping must be provided"
	localPathRequiredMessageConstant         = "local file path must be provided"
	destinationPathRequiredMessageConstant   = "destination path must be provided"
	committerIdentityRequiredMessageConstant = "committer name and email must be provided"
	localFileMissingMessageConstant          = "local file does not exist"
	localFileNotRegularMessageConstant       = "local file is not a regular file"
	destinationOutsideMessageConstant        = "destination escapes the repository root"
	workingCopyBusyMessageConstant           = "working copy is locked by another publish"
	baseCommitUnresolvedMessageConstant      = "base commit could not be resolved"
	preconditionFailureTemplateConstant      = "publish precondition failed: %v"
	preconditionPathFailureTemplateConstant  = "publish precondition failed for %s: %v"
	publishFailureTemplateConstant           = "failed to publish branch %s after %d attempt(s): %v"
	permanentPublishFailureTemplateConstant  = "failed to publish branch %s: push rejected permanently on attempt %d: %v"
	stepFailureTemplateConstant              = "publish step %s failed for branch %s: %v"
)

var (
	// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
	ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)
	// ErrFileSystemNotConfigured indicates the filesystem dependency was missing.
	ErrFileSystemNotConfigured = errors.New(fileSystemMissingMessageConstant)
	// ErrWorkingCopyLockerNotConfigured indicates the working copy locker dependency was missing.
	ErrWorkingCopyLockerNotConfigured = errors.New(workingCopyLockerMissingMessageConstant)
	// ErrRepositoryPathRequired indicates the repository path option was empty.
	ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)
	// ErrBranchNameRequired indicates the branch name option was empty.
	ErrBranchNameRequired = errors.New(branchNameRequiredMessageConstant)
	// ErrFilesRequired indicates that no file mappings were supplied.
	ErrFilesRequired = errors.New(filesRequiredMessageConstant)
	// ErrLocalPathRequired indicates a file mapping without a local path.
	ErrLocalPathRequired = errors.New(localPathRequiredMessageConstant)
	// ErrDestinationPathRequired indicates a file mapping without a destination path.
	ErrDestinationPathRequired = errors.New(destinationPathRequiredMessageConstant)
	// ErrCommitterIdentityRequired indicates an incomplete committer identity.
	ErrCommitterIdentityRequired = errors.New(committerIdentityRequiredMessageConstant)
	// ErrLocalFileMissing indicates that a local file to publish does not exist.
	ErrLocalFileMissing = errors.New(localFileMissingMessageConstant)
	// ErrLocalFileNotRegular indicates that a local file to publish is a directory or device.
	ErrLocalFileNotRegular = errors.New(localFileNotRegularMessageConstant)
	// ErrDestinationOutsideRepository indicates a destination path that resolves outside the checkout.
	ErrDestinationOutsideRepository = errors.New(destinationOutsideMessageConstant)
	// ErrWorkingCopyBusy indicates the checkout lock could not be acquired in time.
	ErrWorkingCopyBusy = errors.New(workingCopyBusyMessageConstant)
	// ErrBaseCommitUnresolved indicates git reported no commit for the checked out publish branch.
	ErrBaseCommitUnresolved = errors.New(baseCommitUnresolvedMessageConstant)
)

// PreconditionFailure reports invalid input detected before the working copy is touched.
type PreconditionFailure struct {
	Path  string
	Cause error
}

// Error describes the violated precondition.
func (failure PreconditionFailure) Error() string {
	if len(failure.Path) == 0 {
		return fmt.Sprintf(preconditionFailureTemplateConstant, failure.Cause)
	}
	return fmt.Sprintf(preconditionPathFailureTemplateConstant, failure.Path, failure.Cause)
}

// Unwrap exposes the violated precondition sentinel.
func (failure PreconditionFailure) Unwrap() error {
	return failure.Cause
}

// PublishFailure reports that no push succeeded for the branch.
type PublishFailure struct {
	Branch    string
	Attempts  int
	Permanent bool
	Cause     error
}

// Error describes the failed publish.
func (failure PublishFailure) Error() string {
	if failure.Permanent {
		return fmt.Sprintf(permanentPublishFailureTemplateConstant, failure.Branch, failure.Attempts, failure.Cause)
	}
	return fmt.Sprintf(publishFailureTemplateConstant, failure.Branch, failure.Attempts, failure.Cause)
}

// Unwrap exposes the last push error.
func (failure PublishFailure) Unwrap() error {
	return failure.Cause
}

// StepError reports a git step other than push that failed during an attempt.
type StepError struct {
	Step   string
	Branch string
	Cause  error
}

// Error describes the failed step.
func (stepError StepError) Error() string {
	return fmt.Sprintf(stepFailureTemplateConstant, stepError.Step, stepError.Branch, stepError.Cause)
}

// Unwrap exposes the underlying command error.
func (stepError StepError) Unwrap() error {
	return stepError.Cause
}
