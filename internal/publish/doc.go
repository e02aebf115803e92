// Package publish commits local files to a named branch and pushes it with a
// bounded optimistic retry loop.
//
// Each attempt rebuilds the branch from the fetched remote tip, copies the
// requested files over their destinations, commits them with an explicit
// committer identity and pushes. Rejected pushes are retried from a fresh
// fetch unless the rejection is permanent. The checkout is held under an
// exclusive lock for the whole publish.
package publish
