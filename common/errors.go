// Package common defines the sentinel errors shared by every layer of
// nimbusdrive. Callers should match them with errors.Is; services wrap them
// with fmt.Errorf("...: %w", ...) to add context without changing the kind.
package common

import "errors"

var (
	// ErrNotFound covers both "object does not exist" and "object is not
	// owned by the caller" — the two are indistinguishable on purpose so
	// that cross-owner existence never leaks.
	ErrNotFound = errors.New("not found")

	// ErrContentNotFound means the metadata row exists but the blob bytes
	// behind its storage key are gone. A detectable inconsistency, not a
	// crash.
	ErrContentNotFound = errors.New("content not found")

	// ErrInvalidArgument is returned for empty or malformed required input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnauthorized covers missing/invalid/expired credentials and
	// purpose- or target-mismatched capability tokens.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyExists is returned on duplicate unique identity, e.g. a
	// registration email collision or a duplicate sibling folder name.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInternal wraps storage-layer or otherwise unexpected failures.
	ErrInternal = errors.New("internal error")
)
