// Package gitrepo locates the working repository and reads repository state.
//
// RepositoryLocator discovers the worktree root with go-git, RevisionReader
// reads file contents at a revision through git show, and RemoteResolver maps
// a configured remote onto the owner/name identifier used by GitHub.
package gitrepo
