package field

import "errors"

// Initialization failures. Both degrade to an empty backdrop; they are
// reported for diagnostics only.
var (
	// ErrSurfaceUnavailable means the host could not provide a
	// graphics-capable render surface.
	ErrSurfaceUnavailable = errors.New("render surface unavailable")
	// ErrShaderCompile means the particle program failed to compile or link.
	ErrShaderCompile = errors.New("shader compile failure")
	// ErrInvalidOptions means the construction options were rejected.
	ErrInvalidOptions = errors.New("invalid field options")
)
