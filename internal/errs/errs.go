// Package errs defines the sentinel failure kinds shared across patina's
// components, mirroring the teacher's storage.ErrDBNotInitialized idiom:
// callers compare with errors.Is rather than string-matching messages.
package errs

import "errors"

var (
	// ErrNotFound means a lookup (event, fact, symbol, commit) found nothing.
	ErrNotFound = errors.New("patina: not found")

	// ErrTransientIO covers retryable I/O failures (disk, forge network).
	ErrTransientIO = errors.New("patina: transient I/O failure")

	// ErrCorruptPayload means a stored or ingested payload failed validation
	// or could not be decoded into its expected shape.
	ErrCorruptPayload = errors.New("patina: corrupt payload")

	// ErrOracleUnavailable means an oracle could not be queried in time or
	// its backing data is not yet materialized.
	ErrOracleUnavailable = errors.New("patina: oracle unavailable")

	// ErrTimeout means a query or RPC call exceeded its soft deadline.
	ErrTimeout = errors.New("patina: deadline exceeded")

	// ErrInvalidRequest means caller input failed validation before any
	// work began (malformed RPC params, bad query mode, etc).
	ErrInvalidRequest = errors.New("patina: invalid request")
)
