package registry

import "errors"

// Sentinel errors for registry operations.
var (
	// ErrDuplicateTool is returned when a name is registered twice.
	// Fatal at startup; a tool silently shadowing another is worse than
	// refusing to boot.
	ErrDuplicateTool = errors.New("registry: duplicate tool name")

	// ErrToolNotFound is returned when a name resolves to nothing.
	ErrToolNotFound = errors.New("registry: tool not found")

	// ErrInvalidDescriptor is returned for descriptors missing a name or
	// handler.
	ErrInvalidDescriptor = errors.New("registry: descriptor requires name and handler")
)
