package node

import "errors"

// Error definitions returned by control-path node operations.
var (
	ErrNilProcessor      = errors.New("node requires a processor")
	ErrNilNode           = errors.New("nil node")
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	ErrInvalidBlockSize  = errors.New("invalid block size")
	ErrPrepareFailed     = errors.New("processor failed to prepare")
	ErrInvalidKeyRange   = errors.New("invalid key range")
	ErrInvalidTranspose  = errors.New("invalid transpose offset")
	ErrNoParentGraph     = errors.New("node is not attached to a graph")
	ErrDifferentGraph    = errors.New("nodes belong to different graphs")
	ErrConnectionRefused = errors.New("graph refused connection")
	ErrReleased          = errors.New("node already released")
	ErrInvalidState      = errors.New("invalid node state record")
)
