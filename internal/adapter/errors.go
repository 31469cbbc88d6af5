package adapter

import (
	"errors"
)

var (
	// ErrAuthRequired is returned when no usable credential is on file for a
	// user and it could not be silently refreshed.
	ErrAuthRequired = errors.New("storage authorization required")

	// ErrNotFound is returned when a requested remote resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrTransfer is returned when a download ends before the transfer is
	// complete, including per-call timeouts. Retryable.
	ErrTransfer = errors.New("transfer incomplete")

	// ErrDecode is returned when downloaded bytes are not a decodable image.
	// Not retryable without a source-side fix.
	ErrDecode = errors.New("undecodable image payload")
)
