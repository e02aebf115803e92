package pullrequests

import (
	"context"
	"strings"
)

const teamReviewerSeparatorConstant = "/"

// PullRequestQuery identifies open pull requests by head and, optionally, base branch.
type PullRequestQuery struct {
	Repository       string
	WorkingDirectory string
	HeadBranch       string
	BaseBranch       string
}

// PullRequestRequest describes a pull request to open.
type PullRequestRequest struct {
	Repository       string
	WorkingDirectory string
	HeadBranch       string
	BaseBranch       string
	Title            string
	Body             string
	Reviewers        []string
	// ExtraArguments are passed verbatim to backends that accept them.
	ExtraArguments []string
}

// PullRequestResult describes an opened pull request.
type PullRequestResult struct {
	URL    string
	Number int
}

// Backend performs pull request operations against a code-hosting service.
type Backend interface {
	PullRequestExists(executionContext context.Context, query PullRequestQuery) (bool, error)
	CreatePullRequest(executionContext context.Context, request PullRequestRequest) (PullRequestResult, error)
}

// SplitReviewers separates user logins from org/team reviewers, returning team slugs.
func SplitReviewers(reviewers []string) ([]string, []string) {
	userReviewers := make([]string, 0, len(reviewers))
	teamReviewers := make([]string, 0)
	for _, reviewer := range reviewers {
		trimmedReviewer := strings.TrimSpace(reviewer)
		if len(trimmedReviewer) == 0 {
			continue
		}
		if _, teamSlug, isTeam := strings.Cut(trimmedReviewer, teamReviewerSeparatorConstant); isTeam {
			if len(teamSlug) > 0 {
				teamReviewers = append(teamReviewers, teamSlug)
			}
			continue
		}
		userReviewers = append(userReviewers, trimmedReviewer)
	}
	return userReviewers, teamReviewers
}

// NormalizeReviewers trims reviewers and drops empty and duplicate entries while keeping order.
func NormalizeReviewers(reviewers []string) []string {
	normalizedReviewers := make([]string, 0, len(reviewers))
	seenReviewers := make(map[string]struct{}, len(reviewers))
	for _, reviewer := range reviewers {
		trimmedReviewer := strings.TrimSpace(reviewer)
		if len(trimmedReviewer) == 0 {
			continue
		}
		if _, seen := seenReviewers[trimmedReviewer]; seen {
			continue
		}
		seenReviewers[trimmedReviewer] = struct{}{}
		normalizedReviewers = append(normalizedReviewers, trimmedReviewer)
	}
	return normalizedReviewers
}
