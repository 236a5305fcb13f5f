package contextstore

import "errors"

var (
	// ErrScopeNotFound is returned when an operation addresses a scope that was never created.
	ErrScopeNotFound = errors.New("context scope does not exist")

	// ErrScopeExists is returned by CreateScope when the scope exists and existOK is false.
	ErrScopeExists = errors.New("context scope already exists")

	// ErrClosed is returned by a SharedStore after Close.
	ErrClosed = errors.New("context store closed")
)
