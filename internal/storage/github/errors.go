package github

import "errors"

var (
	// ErrNotConfigured is returned when a remote operation is attempted
	// before a token and repository have been set.
	ErrNotConfigured = errors.New("github remote is not configured")

	// ErrNotFound is returned when the requested file does not exist in the
	// repository. First-time sync treats this as an empty remote.
	ErrNotFound = errors.New("file not found in repository")

	// ErrStaleContent is returned when a save is rejected because the file
	// changed upstream since it was last fetched. The caller should pull,
	// re-merge, and retry.
	ErrStaleContent = errors.New("remote content changed since last fetch")
)
