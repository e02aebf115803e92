package pathutils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant             = "~"
	tildeForwardSlashPrefixConstant = "~/"
	emptyLocalPathMessageConstant   = "local path is empty"
)

var tildeWithPathSeparatorPrefix = tildeSymbolConstant + string(os.PathSeparator)

// ErrEmptyLocalPath indicates that an empty path was supplied for resolution.
var ErrEmptyLocalPath = errors.New(emptyLocalPathMessageConstant)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// LocalPathResolver turns user supplied file arguments into absolute local paths.
type LocalPathResolver struct {
	homeDirectoryProvider HomeDirectoryProvider
	homeDirectory         string
	homeDirectoryError    error
	initializationGuard   sync.Once
}

// NewLocalPathResolver constructs a resolver using the operating system home lookup.
func NewLocalPathResolver() *LocalPathResolver {
	return NewLocalPathResolverWithProvider(os.UserHomeDir)
}

// NewLocalPathResolverWithProvider constructs a resolver with a custom home directory provider.
func NewLocalPathResolverWithProvider(provider HomeDirectoryProvider) *LocalPathResolver {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &LocalPathResolver{homeDirectoryProvider: provider}
}

// Resolve expands a leading tilde and anchors relative paths at baseDirectory.
func (resolver *LocalPathResolver) Resolve(candidatePath string, baseDirectory string) (string, error) {
	trimmedPath := strings.TrimSpace(candidatePath)
	if len(trimmedPath) == 0 {
		return "", ErrEmptyLocalPath
	}

	expandedPath := resolver.ExpandHome(trimmedPath)
	if filepath.IsAbs(expandedPath) {
		return filepath.Clean(expandedPath), nil
	}
	if len(baseDirectory) > 0 {
		return filepath.Join(baseDirectory, expandedPath), nil
	}
	return filepath.Abs(expandedPath)
}

// ExpandHome resolves leading tilde prefixes to the user's home directory.
func (resolver *LocalPathResolver) ExpandHome(candidatePath string) string {
	if resolver == nil || !strings.HasPrefix(candidatePath, tildeSymbolConstant) {
		return candidatePath
	}

	resolvedHomeDirectory := resolver.resolveHomeDirectory()
	if len(resolvedHomeDirectory) == 0 {
		return candidatePath
	}

	switch {
	case candidatePath == tildeSymbolConstant:
		return resolvedHomeDirectory
	case strings.HasPrefix(candidatePath, tildeForwardSlashPrefixConstant):
		return filepath.Join(resolvedHomeDirectory, strings.TrimPrefix(candidatePath, tildeForwardSlashPrefixConstant))
	case strings.HasPrefix(candidatePath, tildeWithPathSeparatorPrefix):
		return filepath.Join(resolvedHomeDirectory, strings.TrimPrefix(candidatePath, tildeWithPathSeparatorPrefix))
	default:
		return candidatePath
	}
}

func (resolver *LocalPathResolver) resolveHomeDirectory() string {
	resolver.initializationGuard.Do(func() {
		resolver.homeDirectory, resolver.homeDirectoryError = resolver.homeDirectoryProvider()
	})
	if resolver.homeDirectoryError != nil {
		return ""
	}
	return resolver.homeDirectory
}
