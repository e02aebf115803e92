// Package githubcli implements the pull request backend on top of the GitHub CLI.
//
// Commands run through execshell so tests can substitute the executor, and gh
// JSON output is decoded with goccy/go-json.
package githubcli
