package namaka

import "github.com/lanikai/namaka/internal/media"

// Public error kinds. Operations return these (possibly wrapped); compare
// with errors.Is.
var (
	ErrInvalidRequest   = media.ErrInvalidRequest
	ErrShutdown         = media.ErrShutdown
	ErrNotInitialized   = media.ErrNotInitialized
	ErrInvalidMediaType = media.ErrInvalidMediaType
	ErrInvalidType      = media.ErrInvalidType
	ErrNotFound         = media.ErrNotFound
	ErrNotSupported     = media.ErrNotSupported
	ErrNoClock          = media.ErrNoClock
	ErrTimeout          = media.ErrTimeout
	ErrUnexpected       = media.ErrUnexpected
)
