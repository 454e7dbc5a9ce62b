package update

import "errors"

// Sentinel errors for update blob validation. A blob that fails any of these
// checks is rejected whole; no entity state is touched.
var (
	// ErrRevisionMismatch indicates the header revision differs from the renderer's.
	ErrRevisionMismatch = errors.New("update revision mismatch")

	// ErrSizeMismatch indicates the header total size disagrees with the
	// section sizes or with the blob length.
	ErrSizeMismatch = errors.New("update size mismatch")

	// ErrSectionSize indicates a section whose size is neither zero nor the
	// exact size the renderer's entity counts require.
	ErrSectionSize = errors.New("update section size invalid")
)
