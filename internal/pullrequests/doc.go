// Package pullrequests defines the code-review operations used after a
// branch is published: checking whether a pull request is already open for a
// branch and opening a new one with reviewers. Backends live in githubcli
// (gh) and githubapi (REST); the status and create subpackages expose them as
// commands.
package pullrequests
