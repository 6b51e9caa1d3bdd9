//////////////////////////////////////////////////////////////////////////////
//
// Session, clock, and display-control contracts
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

// Package session defines the narrow contracts through which the player talks
// to the platform session orchestrator, the presentation clock, and the video
// display control. A minimal in-process driver (Local) is included so the
// pipeline can run end to end without a platform session.
package session

import (
	"time"

	"github.com/lanikai/namaka/internal/topology"
)

// PositionCurrent tells Start to resume from the current position.
const PositionCurrent = time.Duration(-1)

// EventType classifies session events.
type EventType int

const (
	EventUnknown EventType = iota

	// Topology readiness changed; see Event.TopologyStatus.
	EventTopologyStatus

	// The presentation played to its end. The session stops itself.
	EventPresentationEnded

	// The source has a new presentation requiring a new topology.
	// Event.Payload carries the *media.Presentation.
	EventNewPresentation

	// Generic status events, forwarded upward to the application.
	EventStarted
	EventPaused
	EventStopped

	// Terminal: the session finished closing. Guaranteed to be the last
	// event the session delivers.
	EventClosed
)

func (t EventType) String() string {
	switch t {
	case EventTopologyStatus:
		return "TopologyStatus"
	case EventPresentationEnded:
		return "PresentationEnded"
	case EventNewPresentation:
		return "NewPresentation"
	case EventStarted:
		return "Started"
	case EventPaused:
		return "Paused"
	case EventStopped:
		return "Stopped"
	case EventClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// TopologyStatus reports how far the session has gotten with a topology.
type TopologyStatus int

const (
	TopologyStatusNone TopologyStatus = iota
	TopologyStatusReady
	TopologyStatusEnded
)

// An Event is one asynchronous notification from the session.
type Event struct {
	Type EventType

	// Status carries the failure of the asynchronous operation that
	// triggered the event, if any.
	Status error

	TopologyStatus TopologyStatus

	// Payload is event-specific: *media.Presentation for
	// EventNewPresentation.
	Payload interface{}
}

// Session is the external orchestrator executing a topology. All methods may
// be called from any goroutine. Close is asynchronous: the session keeps
// delivering events until the terminal EventClosed.
type Session interface {
	SetTopology(g *topology.Graph) error
	Start(pos time.Duration) error
	Pause() error
	Stop() error
	Close() error

	// Shutdown synchronously releases the session. No events follow; if
	// close did not already close the event channel, Shutdown closes it.
	Shutdown() error

	// Events is the session's event stream. The channel is closed after
	// EventClosed has been delivered.
	Events() <-chan Event

	// VideoDisplay returns the display control for the session's video
	// renderer. Fails for audio-only content; callers tolerate that.
	VideoDisplay() (VideoDisplay, error)
}

// VideoDisplay is the narrow painting/positioning surface of the video
// renderer, exposed to the windowing layer.
type VideoDisplay interface {
	SetVideoPosition(width, height int) error
	Repaint() error
}

// Factory creates a fresh session. The player closes and drains any prior
// session before calling it.
type Factory func() (Session, error)
