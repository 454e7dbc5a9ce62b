package audren

import (
	"errors"

	"github.com/opd-ai/audren/update"
)

// Sentinel errors for renderer operations.
// These errors enable reliable error classification using errors.Is().

// Construction errors.
var (
	// ErrInvalidParameters indicates renderer parameters outside their bounds.
	ErrInvalidParameters = errors.New("invalid audio renderer parameters")

	// ErrNoGuestMemory indicates Options carried no guest memory.
	ErrNoGuestMemory = errors.New("guest memory is required")

	// ErrTrackOpen indicates the host audio track could not be opened.
	ErrTrackOpen = errors.New("failed to open audio track")
)

// Update errors. These alias the update package sentinels so callers need
// only this package.
var (
	// ErrRevisionMismatch indicates an update for a different revision.
	ErrRevisionMismatch = update.ErrRevisionMismatch

	// ErrSizeMismatch indicates inconsistent update header sizes.
	ErrSizeMismatch = update.ErrSizeMismatch

	// ErrSectionSize indicates a section that is neither absent nor exact.
	ErrSectionSize = update.ErrSectionSize
)

// ErrClosed indicates an operation on a closed renderer.
var ErrClosed = errors.New("audio renderer closed")
