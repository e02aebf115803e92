// Package githubauth locates the GitHub token used by the REST backend.
package githubauth
