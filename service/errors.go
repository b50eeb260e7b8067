package service

import "errors"

// Sentinel errors surfaced to the interaction layer. Delivery failures are
// deliberately absent: they are swallowed per-recipient and never reported.
var (
	// ErrPermissionDenied means the caller lacks the required authorization
	// tier for the operation. Nothing was changed.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrWatcherNotFound means no watcher record exists for the pair
	ErrWatcherNotFound = errors.New("watcher not found")

	// ErrWatcherExists means a watcher record already exists for the pair
	ErrWatcherExists = errors.New("watcher already exists")
)
