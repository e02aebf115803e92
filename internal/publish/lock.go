package publish

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const (
	gitDirectoryNameConstant             = ".git"
	lockFileNameConstant                 = "gitpublish.lock"
	externalLockFileTemplateConstant     = "gitpublish-%s.lock"
	defaultLockTimeoutConstant           = 30 * time.Second
	defaultLockRetryDelayConstant        = 250 * time.Millisecond
	lockAcquisitionErrorTemplateConstant = "unable to lock working copy %s: %w"
)

// ReleaseFunc releases a held working copy lock.
type ReleaseFunc func() error

// WorkingCopyLocker grants exclusive use of a repository checkout.
type WorkingCopyLocker interface {
	Lock(executionContext context.Context, repositoryPath string) (ReleaseFunc, error)
}

// FileWorkingCopyLocker serializes publishes within the process through a per-checkout
// semaphore and across processes through an advisory lock file.
type FileWorkingCopyLocker struct {
	timeout    time.Duration
	retryDelay time.Duration
	guard      sync.Mutex
	semaphores map[string]chan struct{}
}

// NewFileWorkingCopyLocker constructs a locker that waits at most timeout for the checkout.
func NewFileWorkingCopyLocker(timeout time.Duration) *FileWorkingCopyLocker {
	if timeout <= 0 {
		timeout = defaultLockTimeoutConstant
	}
	return &FileWorkingCopyLocker{
		timeout:    timeout,
		retryDelay: defaultLockRetryDelayConstant,
		semaphores: make(map[string]chan struct{}),
	}
}

// Lock blocks until the checkout is free, the timeout elapses, or the context is canceled.
func (locker *FileWorkingCopyLocker) Lock(executionContext context.Context, repositoryPath string) (ReleaseFunc, error) {
	cleanRepositoryPath := filepath.Clean(repositoryPath)
	lockContext, cancel := context.WithTimeout(executionContext, locker.timeout)
	defer cancel()

	semaphore := locker.semaphoreFor(cleanRepositoryPath)
	select {
	case semaphore <- struct{}{}:
	case <-lockContext.Done():
		return nil, locker.acquisitionError(executionContext, cleanRepositoryPath)
	}

	fileLock := flock.New(lockFilePath(cleanRepositoryPath))
	locked, lockError := fileLock.TryLockContext(lockContext, locker.retryDelay)
	if lockError != nil || !locked {
		<-semaphore
		if lockError != nil && !errors.Is(lockError, context.DeadlineExceeded) && !errors.Is(lockError, context.Canceled) {
			return nil, fmt.Errorf(lockAcquisitionErrorTemplateConstant, cleanRepositoryPath, lockError)
		}
		return nil, locker.acquisitionError(executionContext, cleanRepositoryPath)
	}

	var releaseOnce sync.Once
	return func() error {
		var unlockError error
		releaseOnce.Do(func() {
			unlockError = fileLock.Unlock()
			<-semaphore
		})
		return unlockError
	}, nil
}

func (locker *FileWorkingCopyLocker) semaphoreFor(repositoryPath string) chan struct{} {
	locker.guard.Lock()
	defer locker.guard.Unlock()

	semaphore, exists := locker.semaphores[repositoryPath]
	if !exists {
		semaphore = make(chan struct{}, 1)
		locker.semaphores[repositoryPath] = semaphore
	}
	return semaphore
}

func (locker *FileWorkingCopyLocker) acquisitionError(executionContext context.Context, repositoryPath string) error {
	if contextError := executionContext.Err(); contextError != nil {
		return contextError
	}
	return fmt.Errorf(lockAcquisitionErrorTemplateConstant, repositoryPath, ErrWorkingCopyBusy)
}

// lockFilePath keeps the lock file out of the worktree: inside .git when it is a directory,
// otherwise in the temporary directory under a name derived from the checkout path.
func lockFilePath(repositoryPath string) string {
	gitDirectoryPath := filepath.Join(repositoryPath, gitDirectoryNameConstant)
	if gitDirectoryInfo, statError := os.Stat(gitDirectoryPath); statError == nil && gitDirectoryInfo.IsDir() {
		return filepath.Join(gitDirectoryPath, lockFileNameConstant)
	}
	repositoryPathDigest := sha256.Sum256([]byte(repositoryPath))
	return filepath.Join(os.TempDir(), fmt.Sprintf(externalLockFileTemplateConstant, hex.EncodeToString(repositoryPathDigest[:8])))
}
