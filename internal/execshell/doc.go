// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with zap logging and lifecycle events,
// OSCommandRunner is the os/exec backed runner, and CommandMessageFormatter
// renders readable descriptions of the git and gh invocations gitpublish makes.
// Non-zero exit codes surface as CommandFailedError so callers can inspect the
// captured output with errors.As.
package execshell
