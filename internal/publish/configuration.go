package publish

import (
	"strings"
	"time"
)

// CommandConfiguration captures configuration values for the branch-publish command.
type CommandConfiguration struct {
	RemoteName     string        `mapstructure:"remote"`
	CommitterName  string        `mapstructure:"committer_name"`
	CommitterEmail string        `mapstructure:"committer_email"`
	LockTimeout    time.Duration `mapstructure:"lock_timeout"`
	RepositoryPath string        `mapstructure:"repository"`
}

// DefaultCommandConfiguration provides baseline configuration values for branch publishing.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RemoteName:     defaultRemoteNameConstant,
		CommitterName:  "",
		CommitterEmail: "",
		LockTimeout:    defaultLockTimeoutConstant,
		RepositoryPath: "",
	}
}

// Sanitize trims configuration values and restores defaults for unusable ones.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.RemoteName = strings.TrimSpace(configuration.RemoteName)
	if len(sanitized.RemoteName) == 0 {
		sanitized.RemoteName = defaultRemoteNameConstant
	}
	sanitized.CommitterName = strings.TrimSpace(configuration.CommitterName)
	sanitized.CommitterEmail = strings.TrimSpace(configuration.CommitterEmail)
	sanitized.RepositoryPath = strings.TrimSpace(configuration.RepositoryPath)
	if sanitized.LockTimeout <= 0 {
		sanitized.LockTimeout = defaultLockTimeoutConstant
	}

	return sanitized
}

// Identity returns the configured committer identity.
func (configuration CommandConfiguration) Identity() CommitterIdentity {
	return CommitterIdentity{Name: configuration.CommitterName, Email: configuration.CommitterEmail}
}
