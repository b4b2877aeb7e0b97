package storage

import "errors"

// Common client storage errors
var (
	// ErrEntryNotFound indicates that no value exists under the requested key
	ErrEntryNotFound = errors.New("entry not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")

	// ErrTransactionFailed wraps any error that aborted a write transaction.
	// Nothing from the aborted transaction is visible afterwards.
	ErrTransactionFailed = errors.New("storage transaction failed")

	// ErrUnknownCollection indicates a read from a collection that was never created
	ErrUnknownCollection = errors.New("unknown collection")
)
