//////////////////////////////////////////////////////////////////////////////
//
// Core media types: samples, buffers, and GPU texture handles
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package media

import (
	"time"

	"github.com/lanikai/namaka/internal/logging"
)

var log = logging.DefaultLogger.WithTag("media")

// MajorType is the top-level classification of an elementary stream.
type MajorType int

const (
	MajorTypeUnknown MajorType = iota
	MajorTypeVideo
	MajorTypeAudio
)

func (t MajorType) String() string {
	switch t {
	case MajorTypeVideo:
		return "video"
	case MajorTypeAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// A Buffer holds one piece of a decoded sample. Data is the system-memory
// view. GPU-resident frames additionally carry an opaque platform handle that
// the sink's video device resolves to a Texture; resolution may fail without
// invalidating the sample.
type Buffer struct {
	Data   []byte
	Handle interface{}
}

// A Sample is one unit of decoded media data (e.g. one video frame) as
// delivered to a stream sink. A sample usually carries a single buffer, but
// sources are permitted to split a frame across several.
type Sample struct {
	Buffers  []Buffer
	Time     time.Duration
	Duration time.Duration
	KeyFrame bool
}

// TotalLen returns the byte length of the sample across all buffers.
func (s *Sample) TotalLen() int {
	n := 0
	for i := range s.Buffers {
		n += len(s.Buffers[i].Data)
	}
	return n
}

// Texture is a narrow handle to a GPU-resident decoded frame, owned by the
// platform video device. The sink only ever reads its descriptor.
type Texture interface {
	Describe() (TextureDescriptor, error)
}

// TextureDescriptor carries the dimensions and display format of a GPU
// texture, read back for downstream presentation.
type TextureDescriptor struct {
	Width  int
	Height int
	Format DisplayFormat
}
