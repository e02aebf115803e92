// Package ui renders git and gh command lifecycle events as console messages
// such as "Pushing perf-results to origin from /workspace/repo".
package ui
