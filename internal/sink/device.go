package sink

import (
	"time"

	"github.com/lanikai/namaka/internal/media"
)

// DeviceManager hands out the hardware video-acceleration device used to
// resolve GPU-resident frames. One device is opened per stream sink and not
// shared across sinks.
type DeviceManager interface {
	OpenDevice() (Device, error)
}

// Device is the narrow surface of the platform video device.
type Device interface {
	// ResolveTexture resolves the GPU texture backing buf. Returns
	// media.ErrNotFound for plain system-memory buffers; any other error
	// means the handle exists but could not be resolved.
	ResolveTexture(buf media.Buffer) (media.Texture, error)

	Close() error
}

// A Frame is one extracted decoded frame held for downstream presentation.
// Either Data (system memory, coalesced contiguous) or Texture (GPU
// descriptor) is populated.
type Frame struct {
	Data    []byte
	Texture media.TextureDescriptor
	GPU     bool
	Time    time.Duration
}
