// Package inspect provides read-only commands over the working repository:
// repo-root prints the checkout root and file-show prints a file as recorded
// at a revision.
package inspect
