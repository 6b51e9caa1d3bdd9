package sink

import (
	"sync"

	"github.com/lanikai/namaka/internal/media"
)

// EventType classifies stream sink notifications.
type EventType int

const (
	// The sink wants one more sample from upstream.
	EventRequestSample EventType = iota

	// The stream transitioned to Started.
	EventStarted

	// A marker placed by upstream has been reached (or flushed).
	EventMarker
)

func (t EventType) String() string {
	switch t {
	case EventRequestSample:
		return "RequestSample"
	case EventStarted:
		return "Started"
	case EventMarker:
		return "Marker"
	default:
		return "Unknown"
	}
}

// An Event is one notification from the stream sink's event queue.
type Event struct {
	Type EventType

	// Status of the operation the event acknowledges. Markers flushed
	// before being reached carry ErrShutdown or a flush status.
	Status error

	// Context is the caller's context value for marker events.
	Context interface{}
}

const eventQueueDepth = 16

// eventQueue delivers stream sink notifications to whoever pulls them. The
// channel accessor never blocks the producer: when a consumer falls behind,
// the oldest event is dropped, matching the lossy delivery of the upstream
// notification queue.
type eventQueue struct {
	ch       chan Event
	shutdown bool
	sync.Mutex
}

func newEventQueue() *eventQueue {
	return &eventQueue{ch: make(chan Event, eventQueueDepth)}
}

// put enqueues one event. Never blocks; drops the oldest event if full.
func (q *eventQueue) put(ev Event) {
	q.Lock()
	defer q.Unlock()

	if q.shutdown {
		return
	}

	select {
	case q.ch <- ev:
	default:
		// Drop oldest event, add newest.
		select {
		case <-q.ch:
		default:
		}
		q.ch <- ev
		log.Warn("Event queue overflow; dropped oldest event")
	}
}

// events returns the receive side of the queue. Closed on shutdown.
func (q *eventQueue) events() <-chan Event {
	return q.ch
}

// get blocks until the next event is available. Callers needing non-blocking
// behavior must consume the channel instead; internal code always does.
func (q *eventQueue) get() (Event, error) {
	ev, ok := <-q.ch
	if !ok {
		return Event{}, media.ErrShutdown
	}
	return ev, nil
}

func (q *eventQueue) close() {
	q.Lock()
	defer q.Unlock()

	if q.shutdown {
		return
	}
	q.shutdown = true
	close(q.ch)
}
