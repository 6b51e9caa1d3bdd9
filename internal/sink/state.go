//////////////////////////////////////////////////////////////////////////////
//
// Stream sink lifecycle states and the operation legality table
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package sink

import "github.com/lanikai/namaka/internal/media"

// State is the lifecycle state of a stream sink. Shutdown is deliberately not
// a State: it is a terminal condition checked before the legality table and
// takes precedence over it.
type State int

const (
	StateTypeNotSet State = iota
	StateReady
	StateStarted
	StatePaused
	StateStopped

	numStates = iota
)

func (s State) String() string {
	switch s {
	case StateTypeNotSet:
		return "TypeNotSet"
	case StateReady:
		return "Ready"
	case StateStarted:
		return "Started"
	case StatePaused:
		return "Paused"
	case StateStopped:
		return "Stopped"
	default:
		return "Invalid"
	}
}

// Operation names a mutating entry point governed by the legality table.
type Operation int

const (
	OpSetFormat Operation = iota
	OpStart
	OpRestart
	OpPause
	OpStop
	OpProcessSample
	OpPlaceMarker

	numOperations = iota
)

func (op Operation) String() string {
	switch op {
	case OpSetFormat:
		return "SetFormat"
	case OpStart:
		return "Start"
	case OpRestart:
		return "Restart"
	case OpPause:
		return "Pause"
	case OpStop:
		return "Stop"
	case OpProcessSample:
		return "ProcessSample"
	case OpPlaceMarker:
		return "PlaceMarker"
	default:
		return "Invalid"
	}
}

// validOps is the fixed states-by-operations legality table. Restart is only
// meaningful after a pause (Ready or Paused). ProcessSample is accepted while
// Paused (buffered, not dropped) but illegal otherwise unless Started.
var validOps = [numStates][numOperations]bool{
	StateTypeNotSet: {
		OpSetFormat: true,
	},
	StateReady: {
		OpSetFormat:   true,
		OpStart:       true,
		OpRestart:     true,
		OpPause:       true,
		OpStop:        true,
		OpPlaceMarker: true,
	},
	StateStarted: {
		OpSetFormat:     true,
		OpStart:         true,
		OpPause:         true,
		OpStop:          true,
		OpProcessSample: true,
		OpPlaceMarker:   true,
	},
	StatePaused: {
		OpSetFormat:     true,
		OpStart:         true,
		OpRestart:       true,
		OpPause:         true,
		OpStop:          true,
		OpProcessSample: true,
		OpPlaceMarker:   true,
	},
	StateStopped: {
		OpSetFormat:   true,
		OpStart:       true,
		OpStop:        true,
		OpPlaceMarker: true,
	},
}

// Validate reports whether op is legal in state s, per the legality table.
// Returns nil if legal, ErrInvalidRequest otherwise. Validation happens
// before any mutation, everywhere.
func Validate(s State, op Operation) error {
	if s < 0 || int(s) >= numStates || op < 0 || int(op) >= numOperations {
		return media.ErrInvalidRequest
	}
	if !validOps[s][op] {
		return media.ErrInvalidRequest
	}
	return nil
}
