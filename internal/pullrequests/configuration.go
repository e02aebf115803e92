package pullrequests

import "strings"

// BackendKind selects the implementation used for pull request operations.
type BackendKind string

// Supported backends.
const (
	BackendKindCLI BackendKind = BackendKind("cli")
	BackendKindAPI BackendKind = BackendKind("api")
)

const (
	defaultRemoteNameConstant = "origin"
	defaultBaseBranchConstant = "master"
)

// CommandConfiguration captures configuration values shared by the pull request commands.
type CommandConfiguration struct {
	Backend    BackendKind `mapstructure:"backend"`
	Repository string      `mapstructure:"repository"`
	RemoteName string      `mapstructure:"remote"`
	BaseBranch string      `mapstructure:"base"`
	Reviewers  []string    `mapstructure:"reviewers"`
	APIBaseURL string      `mapstructure:"api_base_url"`
	Token      string      `mapstructure:"token"`
}

// DefaultCommandConfiguration provides baseline configuration values for pull request commands.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Backend:    BackendKindCLI,
		Repository: "",
		RemoteName: defaultRemoteNameConstant,
		BaseBranch: defaultBaseBranchConstant,
		Reviewers:  nil,
		APIBaseURL: "",
		Token:      "",
	}
}

// Sanitize trims configuration values and restores defaults for empty selectors.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.Backend = BackendKind(strings.ToLower(strings.TrimSpace(string(configuration.Backend))))
	if len(sanitized.Backend) == 0 {
		sanitized.Backend = BackendKindCLI
	}
	sanitized.Repository = strings.TrimSpace(configuration.Repository)
	sanitized.RemoteName = strings.TrimSpace(configuration.RemoteName)
	if len(sanitized.RemoteName) == 0 {
		sanitized.RemoteName = defaultRemoteNameConstant
	}
	sanitized.BaseBranch = strings.TrimSpace(configuration.BaseBranch)
	if len(sanitized.BaseBranch) == 0 {
		sanitized.BaseBranch = defaultBaseBranchConstant
	}
	sanitized.Reviewers = NormalizeReviewers(configuration.Reviewers)
	sanitized.APIBaseURL = strings.TrimSpace(configuration.APIBaseURL)
	sanitized.Token = strings.TrimSpace(configuration.Token)

	return sanitized
}
