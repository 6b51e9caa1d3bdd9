//////////////////////////////////////////////////////////////////////////////
//
// Media source and presentation descriptor contracts
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package media

// A StreamDescriptor describes one elementary stream exposed by a source.
type StreamDescriptor struct {
	// Stream identifier, unique within the presentation.
	ID uint32

	// Whether the stream is selected for playback. Topology construction
	// only builds branches for selected streams.
	Selected bool

	Format FormatDescriptor
}

// A Presentation is one playable unit from a source: the set of stream
// descriptors for a single presentation. A new presentation requires a new
// topology.
type Presentation struct {
	Streams []StreamDescriptor
}

// SelectedCount returns the number of selected streams.
func (p *Presentation) SelectedCount() int {
	n := 0
	for i := range p.Streams {
		if p.Streams[i].Selected {
			n++
		}
	}
	return n
}

// Source is a resolved media source. The session pulls samples from it and
// the player shuts it down exactly once during session close.
type Source interface {
	// Presentation derives the presentation descriptor for the source.
	Presentation() (*Presentation, error)

	// ReadSample returns the next sample for the given stream, or io.EOF
	// when the presentation has ended.
	ReadSample(streamID uint32) (*Sample, error)

	// Shutdown releases the source. Synchronous; no further reads.
	Shutdown() error
}
