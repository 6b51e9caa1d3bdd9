//////////////////////////////////////////////////////////////////////////////
//
// Player owns one playback session at a time and drives it through its
// lifecycle: open, topology construction, start/pause/stop, and a graceful
// shutdown that rendezvouses with the session's asynchronous close.
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package namaka

import (
	"sync"
	"time"

	"github.com/lanikai/namaka/internal/logging"
	"github.com/lanikai/namaka/internal/media"
	"github.com/lanikai/namaka/internal/session"
	"github.com/lanikai/namaka/internal/sink"
	"github.com/lanikai/namaka/internal/topology"
)

var log = logging.DefaultLogger.WithTag("player")

// The session contract guarantees close is always eventually signaled, so
// exceeding this wait indicates a broken invariant, not a retry case.
const closeTimeout = 5 * time.Second

// State is the player's lifecycle state.
type State int

const (
	StateClosed State = iota
	StateReady
	StateOpenPending
	StateStarted
	StatePaused
	StateStopped
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "Closed"
	case StateReady:
		return "Ready"
	case StateOpenPending:
		return "OpenPending"
	case StateStarted:
		return "Started"
	case StatePaused:
		return "Paused"
	case StateStopped:
		return "Stopped"
	case StateClosing:
		return "Closing"
	default:
		return "Invalid"
	}
}

// Player is the playback controller. All public operations validate the
// current state before mutating anything and return a status the caller must
// check.
type Player struct {
	mu  sync.Mutex
	cfg Config

	state   State
	sess    session.Session
	source  media.Source
	display session.VideoDisplay

	// closeDone is signaled by the event pump when the session delivers
	// its terminal close event. closePending, once closed, tells the pump
	// to drain events silently.
	closeDone    chan struct{}
	closePending chan struct{}

	shutdown bool
}

// NewPlayer creates a player. Call Shutdown when done: the session holds a
// callback-forwarding reference back into the player via the event
// subscription, and Shutdown is what breaks that cycle.
func NewPlayer(cfg Config) *Player {
	cfg.applyDefaults()
	return &Player{cfg: cfg, state: StateClosed}
}

// State returns the player's current lifecycle state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Open resolves a URL, builds a playback topology over its streams, and
// hands it to a fresh session. Completion is asynchronous: playback starts
// when the session reports the topology ready. On failure the player is left
// Closed.
func (p *Player) Open(url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shutdown {
		return ErrShutdown
	}

	p.state = StateClosed

	if err := p.createSessionLocked(); err != nil {
		p.state = StateClosed
		return err
	}

	src, err := p.cfg.Resolve(url)
	if err != nil {
		p.state = StateClosed
		return err
	}
	p.source = src

	pres, err := src.Presentation()
	if err != nil {
		p.state = StateClosed
		return err
	}

	graph, err := topology.Build(src, pres, p.activate)
	if err != nil {
		p.state = StateClosed
		return err
	}

	if err := p.sess.SetTopology(graph); err != nil {
		p.state = StateClosed
		return err
	}

	p.state = StateOpenPending
	return nil
}

// activate creates the sink object for one stream. Video streams get a fresh
// custom video sink; other major types have no renderer here and their
// branches are skipped.
func (p *Player) activate(sd media.StreamDescriptor) (interface{}, error) {
	if sd.Format.Major != media.MajorTypeVideo {
		return nil, nil
	}
	vs, err := sink.NewVideoSink(p.cfg.DeviceManager)
	if err != nil {
		return nil, err
	}
	return vs.Stream(), nil
}

// Pause pauses playback. Legal only while Started.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateStarted {
		return ErrInvalidRequest
	}
	if p.sess == nil || p.source == nil {
		return ErrUnexpected
	}

	if err := p.sess.Pause(); err != nil {
		return err
	}
	p.state = StatePaused
	return nil
}

// Stop stops playback. Legal from Started or Paused.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateStarted && p.state != StatePaused {
		return ErrInvalidRequest
	}
	if p.sess == nil {
		return ErrUnexpected
	}

	if err := p.sess.Stop(); err != nil {
		return err
	}
	p.state = StateStopped
	return nil
}

// Play resumes playback from paused or stopped.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePaused && p.state != StateStopped {
		return ErrInvalidRequest
	}
	if p.sess == nil || p.source == nil {
		return ErrUnexpected
	}
	return p.startPlaybackLocked()
}

// Resize forwards the new video rectangle to the display control. No-op for
// audio-only content.
func (p *Player) Resize(width, height int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.display == nil {
		return nil
	}
	return p.display.SetVideoPosition(width, height)
}

// Repaint asks the display control to repaint the video. Call on paint
// events. No-op for audio-only content.
func (p *Player) Repaint() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.display == nil {
		return nil
	}
	return p.display.Repaint()
}

// startPlaybackLocked starts the session at the current position. Start is
// asynchronous, but the state is treated as Started optimistically: a later
// failure surfaces as a status event, not synchronously here.
func (p *Player) startPlaybackLocked() error {
	if p.sess == nil {
		return ErrUnexpected
	}
	if err := p.sess.Start(session.PositionCurrent); err != nil {
		return err
	}
	p.state = StateStarted
	return nil
}

// createSessionLocked closes any prior session synchronously, creates a new
// one, and begins pulling its event stream.
func (p *Player) createSessionLocked() error {
	if err := p.closeSessionLocked(); err != nil {
		return err
	}

	sess, err := p.cfg.NewSession()
	if err != nil {
		return err
	}

	p.sess = sess
	p.closeDone = make(chan struct{})
	p.closePending = make(chan struct{})
	go p.pumpEvents(sess, p.closeDone, p.closePending)

	p.state = StateReady
	return nil
}

// pumpEvents pulls the session's event stream: receive one event, dispatch,
// immediately re-arm for the next. While a close is pending events are
// drained silently, except the terminal close event, which signals the
// waiting closer.
func (p *Player) pumpEvents(sess session.Session, closeDone, closePending chan struct{}) {
	for ev := range sess.Events() {
		if ev.Type == session.EventClosed {
			close(closeDone)
			continue
		}

		select {
		case <-closePending:
			continue
		default:
		}

		p.handleEvent(ev)
	}
}

func (p *Player) handleEvent(ev session.Event) {
	if ev.Status != nil {
		// The operation that triggered this event failed.
		log.Error("Session event %v carries failure: %v", ev.Type, ev.Status)
		p.forward(ev)
		return
	}

	switch ev.Type {
	case session.EventTopologyStatus:
		if ev.TopologyStatus == session.TopologyStatusReady {
			p.onTopologyReady()
		}
	case session.EventPresentationEnded:
		// The session puts itself into the stopped state.
		p.mu.Lock()
		if p.state != StateClosing {
			p.state = StateStopped
		}
		p.mu.Unlock()
	case session.EventNewPresentation:
		if err := p.onNewPresentation(ev); err != nil {
			log.Error("New presentation failed: %v", err)
		}
	default:
		p.forward(ev)
	}
}

func (p *Player) forward(ev session.Event) {
	if p.cfg.OnSessionEvent != nil {
		p.cfg.OnSessionEvent(ev)
	}
}

// onTopologyReady acquires the display control and starts playback. Display
// control acquisition is expected to fail for audio-only content; that is
// tolerated.
func (p *Player) onTopologyReady() {
	p.mu.Lock()
	defer p.mu.Unlock()

	// An event that raced a pending close is dropped here rather than
	// poking a half-closed session.
	if p.sess == nil || p.state == StateClosing {
		return
	}

	if display, err := p.sess.VideoDisplay(); err == nil {
		p.display = display
	}

	if err := p.startPlaybackLocked(); err != nil {
		log.Error("Start failed: %v", err)
	}
}

// onNewPresentation rebuilds the topology for a source's new presentation.
func (p *Player) onNewPresentation(ev session.Event) error {
	pres, ok := ev.Payload.(*media.Presentation)
	if !ok {
		return ErrInvalidType
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateClosing {
		return nil
	}
	if p.sess == nil || p.source == nil {
		return ErrUnexpected
	}

	graph, err := topology.Build(p.source, pres, p.activate)
	if err != nil {
		return err
	}
	if err := p.sess.SetTopology(graph); err != nil {
		return err
	}

	p.state = StateOpenPending
	return nil
}

// closeSessionLocked closes the session and rendezvouses with its
// asynchronous close completion. Session teardown must be fully quiesced
// before a new session can be created or the player destroyed; afterwards the
// source and session are shut down synchronously, exactly once each. A caller
// arriving while another closer holds the rendezvous waits on the same
// completion signal instead of re-running teardown.
func (p *Player) closeSessionLocked() error {
	if p.state == StateClosing {
		closeDone := p.closeDone
		p.mu.Unlock()
		p.awaitClose(closeDone)
		p.mu.Lock()
		return nil
	}

	p.display = nil

	if p.sess == nil {
		p.state = StateClosed
		return nil
	}

	// Teardown works on locals: once the lock is dropped for the
	// rendezvous, the player's own fields may be rebound by a waiter that
	// resumed first (e.g. an Open creating the next session).
	sess := p.sess
	src := p.source
	closeDone := p.closeDone
	p.sess = nil
	p.source = nil
	p.state = StateClosing
	close(p.closePending)

	err := sess.Close()
	if err == nil {
		// The lock is dropped so the event pump can deliver the
		// terminal event.
		p.mu.Unlock()
		p.awaitClose(closeDone)
		p.mu.Lock()
		// Now there will be no more events from this session.
	} else {
		log.Warn("Session close failed: %v", err)
	}

	// Shut down even when the close failed: session shutdown closes the
	// event stream, which is what releases the pump goroutine.
	if src != nil {
		if serr := src.Shutdown(); serr != nil {
			log.Warn("Source shutdown: %v", serr)
		}
	}
	if serr := sess.Shutdown(); serr != nil {
		log.Warn("Session shutdown: %v", serr)
	}

	if p.state == StateClosing {
		p.state = StateClosed
	}
	return err
}

// awaitClose blocks until the session's close-completion signal. The session
// contract guarantees the signal always arrives, so exceeding the bounded
// wait is a broken invariant, not a retry case.
func (p *Player) awaitClose(closeDone <-chan struct{}) {
	if closeDone == nil {
		return
	}
	select {
	case <-closeDone:
	case <-time.After(closeTimeout):
		log.Panicf("Session close not signaled within %v", closeTimeout)
	}
}

// Shutdown releases all resources held by the player. Idempotent. Must be
// called before the player is discarded; it breaks the reference cycle
// between the session and the player's event subscription.
func (p *Player) Shutdown() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shutdown {
		return nil
	}

	err := p.closeSessionLocked()
	p.shutdown = true
	p.closeDone = nil
	p.closePending = nil
	return err
}
