//////////////////////////////////////////////////////////////////////////////
//
// Media pipeline errors
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package media

import "errors"

// Shared error kinds for the playback pipeline. Every public operation in the
// player and sink returns one of these (possibly wrapped) rather than
// panicking. Callers must check the error before relying on any result.
var (
	// Operation is illegal in the object's current lifecycle state.
	ErrInvalidRequest = errors.New("Invalid request for current state")

	// Object is in or past terminal teardown.
	ErrShutdown = errors.New("Shutting down")

	// Query issued before the required prior set-up (e.g. reading the
	// stream format before one has been set).
	ErrNotInitialized = errors.New("Not initialized")

	// Format negotiation rejected the candidate media type.
	ErrInvalidMediaType = errors.New("Invalid media type")

	// Event or payload was not of the expected kind.
	ErrInvalidType = errors.New("Invalid type")

	ErrNotFound     = errors.New("Not found")
	ErrNotSupported = errors.New("Not supported")

	// Clock query before a presentation clock has been bound.
	ErrNoClock = errors.New("No presentation clock")

	// Bounded wait exceeded. Treated as fatal on the close rendezvous.
	ErrTimeout = errors.New("Timeout")

	// Internal consistency violation: a required collaborator is missing
	// when it should exist.
	ErrUnexpected = errors.New("Unexpected")

	// Stream sink lookup errors. The sink topology is fixed at exactly one
	// stream, so these indicate caller bugs, not transient conditions.
	ErrInvalidIndex        = errors.New("Invalid stream index")
	ErrInvalidStreamNumber = errors.New("Invalid stream identifier")
	ErrStreamsFixed        = errors.New("Stream sinks are fixed")
)
