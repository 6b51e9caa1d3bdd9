package session

import (
	"io"
	"sync"
	"time"

	"github.com/lanikai/namaka/internal/logging"
	"github.com/lanikai/namaka/internal/media"
	"github.com/lanikai/namaka/internal/sink"
	"github.com/lanikai/namaka/internal/topology"
)

var log = logging.DefaultLogger.WithTag("session")

// Local is a minimal in-process session driver. It executes a topology by
// serving the sink's sample requests from the source, and delivers the same
// event contract a platform session would, including the guaranteed terminal
// EventClosed. It exists so the pipeline runs end to end in demos and tests;
// it is not a general orchestrator (no transform chain, no rate control).
type Local struct {
	mu sync.Mutex

	graph  *topology.Graph
	clock  *localClock
	events chan Event

	display  VideoDisplay
	quit     chan struct{}
	pumps    sync.WaitGroup
	ended    bool
	closing  bool
	shutdown bool
}

// NewLocal creates a local session. Satisfies Factory.
func NewLocal() (Session, error) {
	return &Local{
		clock:  newLocalClock(),
		events: make(chan Event, 32),
		quit:   make(chan struct{}),
	}, nil
}

func (l *Local) emit(ev Event) {
	select {
	case l.events <- ev:
	default:
		log.Warn("Session event queue overflow; dropped %v", ev.Type)
	}
}

// SetTopology resolves each branch, negotiates the stream format with its
// sink, binds the presentation clock, and starts serving sample requests.
// Emits TopologyStatus(Ready) when the full topology is resolved.
func (l *Local) SetTopology(g *topology.Graph) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.shutdown || l.closing {
		return media.ErrShutdown
	}
	if g == nil {
		return media.ErrUnexpected
	}

	for _, branch := range g.Branches {
		obj, ok := branch.Output.Object.(*sink.StreamSink)
		if !ok {
			return media.ErrInvalidType
		}
		stream, err := obj.Sink().StreamByID(branch.Output.StreamID)
		if err != nil {
			return err
		}

		fd := branch.Source.Stream.Format
		if err := stream.IsFormatSupported(fd); err != nil {
			return err
		}
		if err := stream.SetFormat(fd); err != nil {
			return err
		}
		if err := stream.Sink().SetPresentationClock(l.clock); err != nil {
			return err
		}
		if fd.Major == media.MajorTypeVideo && l.display == nil {
			l.display = &localDisplay{}
		}

		l.pumps.Add(1)
		go l.pump(branch.Source.Source, branch.Source.Stream.ID, stream)
	}

	l.graph = g
	l.emit(Event{Type: EventTopologyStatus, TopologyStatus: TopologyStatusReady})
	return nil
}

// pump serves one branch: every sample request from the stream sink is
// answered with the next source sample. Presentation pacing is the sink's
// request scheduler's job, not ours.
func (l *Local) pump(src media.Source, srcStream uint32, stream *sink.StreamSink) {
	defer l.pumps.Done()

	for {
		select {
		case <-l.quit:
			return
		case ev, ok := <-stream.Events():
			if !ok {
				return
			}
			if ev.Type != sink.EventRequestSample {
				continue
			}

			sample, err := src.ReadSample(srcStream)
			if err != nil {
				if err == io.EOF {
					l.presentationEnded()
				} else {
					log.Error("Sample read failed: %v", err)
				}
				return
			}
			if err := stream.ProcessSample(sample); err != nil {
				// Rejected deliveries (e.g. the stream stopped
				// between request and delivery) are dropped.
				log.Debug("Sample delivery rejected: %v", err)
			}
		}
	}
}

// presentationEnded stops the clock (the session stops itself) and reports
// the end of the presentation.
func (l *Local) presentationEnded() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ended || l.closing || l.shutdown {
		return
	}
	l.ended = true
	l.clock.stop()
	l.emit(Event{Type: EventPresentationEnded})
}

// Start begins (or resumes) playback at the given position.
func (l *Local) Start(pos time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.shutdown || l.closing {
		return media.ErrShutdown
	}
	if l.graph == nil {
		return media.ErrNotInitialized
	}
	l.ended = false
	if err := l.clock.start(pos); err != nil {
		return err
	}
	l.emit(Event{Type: EventStarted})
	return nil
}

func (l *Local) Pause() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.shutdown || l.closing {
		return media.ErrShutdown
	}
	if err := l.clock.pause(); err != nil {
		return err
	}
	l.emit(Event{Type: EventPaused})
	return nil
}

func (l *Local) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.shutdown || l.closing {
		return media.ErrShutdown
	}
	if err := l.clock.stop(); err != nil {
		return err
	}
	l.emit(Event{Type: EventStopped})
	return nil
}

// Close tears the session down asynchronously. EventClosed is always the last
// event delivered, then the event channel is closed.
func (l *Local) Close() error {
	l.mu.Lock()
	if l.shutdown {
		l.mu.Unlock()
		return media.ErrShutdown
	}
	if l.closing {
		l.mu.Unlock()
		return nil
	}
	l.closing = true
	close(l.quit)
	l.mu.Unlock()

	go func() {
		l.pumps.Wait()
		l.events <- Event{Type: EventClosed}
		close(l.events)
	}()
	return nil
}

// Shutdown synchronously releases the session. After a completed close the
// event channel is already closed; a bare Shutdown tears down without the
// terminal event and closes the event channel itself, so consumers never
// block on a stream that can no longer produce.
func (l *Local) Shutdown() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.shutdown {
		return nil
	}
	l.shutdown = true

	if !l.closing {
		l.closing = true
		close(l.quit)
		close(l.events)
	}

	if l.graph != nil {
		for _, branch := range l.graph.Branches {
			if stream, ok := branch.Output.Object.(*sink.StreamSink); ok {
				stream.Sink().Shutdown()
			}
		}
		l.graph = nil
	}
	return nil
}

func (l *Local) Events() <-chan Event {
	return l.events
}

// VideoDisplay returns the display control for the video renderer. Fails for
// audio-only topologies.
func (l *Local) VideoDisplay() (VideoDisplay, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.display == nil {
		return nil, media.ErrNotFound
	}
	return l.display, nil
}

// localDisplay is a stand-in display control; the real surface belongs to the
// windowing layer, which is out of scope.
type localDisplay struct {
	mu     sync.Mutex
	width  int
	height int
}

func (d *localDisplay) SetVideoPosition(width, height int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.width, d.height = width, height
	return nil
}

func (d *localDisplay) Repaint() error {
	return nil
}
