// Package githubapi implements the pull request backend on top of the GitHub REST API.
//
// Requests are authenticated with an oauth2 static token source. Reviewers
// written as org/team are requested as team reviewers by slug.
package githubapi
