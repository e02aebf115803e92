// Package create provides the pr-create command.
//
// Reviewers given on the command line are combined with the configured
// default reviewers. Extra arguments are forwarded to gh and rejected by the
// REST backend.
package create
