//////////////////////////////////////////////////////////////////////////////
//
// Playback topology construction
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

// Package topology builds the directed graph a session executes for one
// presentation: source-stream nodes connected 1:1 to output nodes, one branch
// per selected stream. Construction is pure; the graph is owned by the caller
// and handed to the session without being retained here.
package topology

import (
	"github.com/pkg/errors"

	"github.com/lanikai/namaka/internal/logging"
	"github.com/lanikai/namaka/internal/media"
)

var log = logging.DefaultLogger.WithTag("topology")

// A SourceNode associates one selected stream of a source with the
// presentation it belongs to.
type SourceNode struct {
	Source       media.Source
	Presentation *media.Presentation
	Stream       media.StreamDescriptor
}

// An OutputNode holds the sink object consuming one stream. Object is opaque
// to the builder; the session resolves it to a stream sink by StreamID, the
// sink-side stream identifier reported by the activated object.
type OutputNode struct {
	Object   interface{}
	StreamID uint32
}

// StreamOutput is implemented by activated sink objects that report which of
// their sink's stream identifiers they consume. Objects that do not implement
// it get stream identifier 0.
type StreamOutput interface {
	ID() uint32
}

// A Branch connects a source node's output 0 to an output node's input 0.
type Branch struct {
	Source *SourceNode
	Output *OutputNode
}

// A Graph is the topology for a single presentation. Ephemeral: built fresh
// per open or new-presentation event.
type Graph struct {
	Branches []Branch
}

// ActivateFunc produces the sink object for one stream descriptor. Returning
// a nil object (with nil error) deselects the stream instead of failing the
// topology, e.g. for major types this player has no renderer for.
type ActivateFunc func(sd media.StreamDescriptor) (interface{}, error)

// Build constructs a playback topology for a presentation. One branch is
// added per selected stream; unselected streams are skipped.
func Build(src media.Source, pres *media.Presentation, activate ActivateFunc) (*Graph, error) {
	if src == nil || pres == nil {
		return nil, media.ErrUnexpected
	}
	if activate == nil {
		return nil, errors.Wrap(media.ErrUnexpected, "no activation function")
	}

	g := &Graph{}
	for _, sd := range pres.Streams {
		if !sd.Selected {
			continue
		}

		obj, err := activate(sd)
		if err != nil {
			return nil, errors.Wrapf(err, "activating sink for stream %d", sd.ID)
		}
		if obj == nil {
			log.Debug("No sink for %v stream %d; skipping branch", sd.Format.Major, sd.ID)
			continue
		}

		out := &OutputNode{Object: obj}
		if so, ok := obj.(StreamOutput); ok {
			out.StreamID = so.ID()
		}

		g.Branches = append(g.Branches, Branch{
			Source: &SourceNode{
				Source:       src,
				Presentation: pres,
				Stream:       sd,
			},
			Output: out,
		})
	}

	log.Debug("Built topology with %d branch(es)", len(g.Branches))
	return g, nil
}
