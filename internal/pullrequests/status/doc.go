// Package status provides the pr-status command.
package status
