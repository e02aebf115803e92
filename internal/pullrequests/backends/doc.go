// Package backends selects the pull request backend named in configuration.
package backends
