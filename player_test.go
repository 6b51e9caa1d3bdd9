package namaka

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lanikai/namaka/internal/media"
	"github.com/lanikai/namaka/internal/session"
	"github.com/lanikai/namaka/internal/topology"
)

type fakeSource struct {
	mu        sync.Mutex
	pres      *media.Presentation
	shutdowns int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		pres: &media.Presentation{
			Streams: []media.StreamDescriptor{
				{ID: 1, Selected: true, Format: media.FormatDescriptor{
					Major:   media.MajorTypeVideo,
					Subtype: media.SubtypeNV12,
				}},
			},
		},
	}
}

func (fs *fakeSource) Presentation() (*media.Presentation, error) { return fs.pres, nil }

func (fs *fakeSource) ReadSample(streamID uint32) (*media.Sample, error) { return nil, io.EOF }

func (fs *fakeSource) Shutdown() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.shutdowns++
	return nil
}

func (fs *fakeSource) shutdownCount() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.shutdowns
}

type fakeDisplay struct {
	mu       sync.Mutex
	resizes  int
	repaints int
}

func (fd *fakeDisplay) SetVideoPosition(width, height int) error {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.resizes++
	return nil
}

func (fd *fakeDisplay) Repaint() error {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.repaints++
	return nil
}

// fakeSession records the calls the player makes and lets tests inject
// events. Close delivers the terminal event asynchronously, like a real
// session.
type fakeSession struct {
	mu         sync.Mutex
	events     chan session.Event
	topologies []*topology.Graph
	starts     int
	pauses     int
	stops      int
	closes     int
	shutdowns  int
	display    session.VideoDisplay
	displayErr error
	startErr   error
	closeErr   error
	closeDelay time.Duration
	closing    bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		events:  make(chan session.Event, 16),
		display: &fakeDisplay{},
	}
}

func (fs *fakeSession) SetTopology(g *topology.Graph) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.topologies = append(fs.topologies, g)
	return nil
}

func (fs *fakeSession) Start(pos time.Duration) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.startErr != nil {
		return fs.startErr
	}
	fs.starts++
	return nil
}

func (fs *fakeSession) Pause() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.pauses++
	return nil
}

func (fs *fakeSession) Stop() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.stops++
	return nil
}

func (fs *fakeSession) Close() error {
	fs.mu.Lock()
	fs.closes++
	if fs.closeErr != nil {
		err := fs.closeErr
		fs.mu.Unlock()
		return err
	}
	fs.closing = true
	delay := fs.closeDelay
	fs.mu.Unlock()

	go func() {
		if delay > 0 {
			time.Sleep(delay)
		}
		fs.events <- session.Event{Type: session.EventClosed}
		close(fs.events)
	}()
	return nil
}

func (fs *fakeSession) Shutdown() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.shutdowns++
	if !fs.closing {
		fs.closing = true
		close(fs.events)
	}
	return nil
}

func (fs *fakeSession) Events() <-chan session.Event { return fs.events }

func (fs *fakeSession) VideoDisplay() (session.VideoDisplay, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.displayErr != nil {
		return nil, fs.displayErr
	}
	return fs.display, nil
}

func (fs *fakeSession) emit(ev session.Event) { fs.events <- ev }

func (fs *fakeSession) counts() (starts, pauses, stops, closes, shutdowns int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.starts, fs.pauses, fs.stops, fs.closes, fs.shutdowns
}

func (fs *fakeSession) topologyCount() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.topologies)
}

func newTestPlayer(fs *fakeSession, src *fakeSource) *Player {
	return NewPlayer(Config{
		NewSession: func() (session.Session, error) { return fs, nil },
		Resolve:    func(url string) (media.Source, error) { return src, nil },
	})
}

// waitFor polls until the condition holds or the test deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func openStarted(t *testing.T, p *Player, fs *fakeSession) {
	t.Helper()
	if err := p.Open("file:test.mp4"); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, StateOpenPending, p.State())

	fs.emit(session.Event{Type: session.EventTopologyStatus, TopologyStatus: session.TopologyStatusReady})
	waitFor(t, "playback start", func() bool { return p.State() == StateStarted })
}

func TestPlayerOpenStartsOnTopologyReady(t *testing.T) {
	fs := newFakeSession()
	src := newFakeSource()
	p := newTestPlayer(fs, src)
	defer p.Shutdown()

	assert.Equal(t, StateClosed, p.State())
	openStarted(t, p, fs)

	assert.Equal(t, 1, fs.topologyCount())
	starts, _, _, _, _ := fs.counts()
	assert.Equal(t, 1, starts)
}

func TestPlayerPauseOnlyFromStarted(t *testing.T) {
	fs := newFakeSession()
	p := newTestPlayer(fs, newFakeSource())
	defer p.Shutdown()

	// Nothing open yet.
	assert.Equal(t, ErrInvalidRequest, p.Pause())

	openStarted(t, p, fs)

	assert.Nil(t, p.Pause())
	assert.Equal(t, StatePaused, p.State())

	// A second pause is illegal and leaves the state untouched.
	assert.Equal(t, ErrInvalidRequest, p.Pause())
	assert.Equal(t, StatePaused, p.State())

	_, pauses, _, _, _ := fs.counts()
	assert.Equal(t, 1, pauses)
}

func TestPlayerStopAndPlay(t *testing.T) {
	fs := newFakeSession()
	p := newTestPlayer(fs, newFakeSource())
	defer p.Shutdown()

	assert.Equal(t, ErrInvalidRequest, p.Stop())
	assert.Equal(t, ErrInvalidRequest, p.Play())

	openStarted(t, p, fs)

	assert.Nil(t, p.Stop())
	assert.Equal(t, StateStopped, p.State())

	assert.Nil(t, p.Play())
	assert.Equal(t, StateStarted, p.State())

	starts, _, stops, _, _ := fs.counts()
	assert.Equal(t, 2, starts)
	assert.Equal(t, 1, stops)
}

func TestPlayerPresentationEnded(t *testing.T) {
	fs := newFakeSession()
	p := newTestPlayer(fs, newFakeSource())
	defer p.Shutdown()

	openStarted(t, p, fs)

	fs.emit(session.Event{Type: session.EventPresentationEnded})
	waitFor(t, "stopped state", func() bool { return p.State() == StateStopped })

	// Playback can be resumed after the presentation ends.
	assert.Nil(t, p.Play())
	assert.Equal(t, StateStarted, p.State())
}

func TestPlayerNewPresentationRebuildsTopology(t *testing.T) {
	fs := newFakeSession()
	src := newFakeSource()
	p := newTestPlayer(fs, src)
	defer p.Shutdown()

	openStarted(t, p, fs)
	assert.Equal(t, 1, fs.topologyCount())

	fs.emit(session.Event{Type: session.EventNewPresentation, Payload: src.pres})
	waitFor(t, "topology rebuild", func() bool { return fs.topologyCount() == 2 })
	assert.Equal(t, StateOpenPending, p.State())
}

func TestPlayerShutdownClosesSession(t *testing.T) {
	fs := newFakeSession()
	src := newFakeSource()
	p := newTestPlayer(fs, src)

	openStarted(t, p, fs)

	assert.Nil(t, p.Shutdown())
	assert.Equal(t, StateClosed, p.State())

	// Close rendezvoused, then source and session shut down exactly once.
	_, _, _, closes, shutdowns := fs.counts()
	assert.Equal(t, 1, closes)
	assert.Equal(t, 1, shutdowns)
	assert.Equal(t, 1, src.shutdownCount())

	// Idempotent.
	assert.Nil(t, p.Shutdown())
	_, _, _, closes, shutdowns = fs.counts()
	assert.Equal(t, 1, closes)
	assert.Equal(t, 1, shutdowns)
	assert.Equal(t, ErrShutdown, p.Open("file:test.mp4"))
}

func TestPlayerConcurrentShutdown(t *testing.T) {
	fs := newFakeSession()
	fs.closeDelay = 300 * time.Millisecond
	src := newFakeSource()
	p := newTestPlayer(fs, src)

	openStarted(t, p, fs)

	// Two shutdowns overlap: the second arrives while the first is parked
	// waiting for the terminal event. The late one must join the wait, not
	// tear down a second time.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			time.Sleep(time.Duration(i) * 50 * time.Millisecond)
			errs[i] = p.Shutdown()
		}(i)
	}
	wg.Wait()

	assert.Nil(t, errs[0])
	assert.Nil(t, errs[1])
	assert.Equal(t, StateClosed, p.State())
	_, _, _, closes, shutdowns := fs.counts()
	assert.Equal(t, 1, closes)
	assert.Equal(t, 1, shutdowns)
	assert.Equal(t, 1, src.shutdownCount())
}

func TestPlayerCloseFailureStillShutsDown(t *testing.T) {
	fs := newFakeSession()
	fs.closeErr = ErrUnexpected
	src := newFakeSource()
	p := newTestPlayer(fs, src)

	openStarted(t, p, fs)

	// Close failed, so there is no terminal event to wait for, but the
	// session and source still get released and the player still ends up
	// closed.
	assert.Equal(t, ErrUnexpected, p.Shutdown())
	assert.Equal(t, StateClosed, p.State())
	_, _, _, closes, shutdowns := fs.counts()
	assert.Equal(t, 1, closes)
	assert.Equal(t, 1, shutdowns)
	assert.Equal(t, 1, src.shutdownCount())
}

func TestPlayerOpenFailureLeavesClosed(t *testing.T) {
	fs := newFakeSession()
	p := NewPlayer(Config{
		NewSession: func() (session.Session, error) { return fs, nil },
		Resolve:    func(url string) (media.Source, error) { return nil, ErrNotFound },
	})
	defer p.Shutdown()

	assert.Equal(t, ErrNotFound, p.Open("file:missing.mp4"))
	assert.Equal(t, StateClosed, p.State())
	assert.Equal(t, 0, fs.topologyCount())
}

func TestPlayerForwardsGenericEvents(t *testing.T) {
	fs := newFakeSession()
	forwarded := make(chan session.Event, 1)
	p := NewPlayer(Config{
		NewSession:     func() (session.Session, error) { return fs, nil },
		Resolve:        func(url string) (media.Source, error) { return newFakeSource(), nil },
		OnSessionEvent: func(e session.Event) { forwarded <- e },
	})
	defer p.Shutdown()

	openStarted(t, p, fs)

	fs.emit(session.Event{Type: session.EventStarted})
	select {
	case ev := <-forwarded:
		assert.Equal(t, session.EventStarted, ev.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("event not forwarded")
	}
}

func TestPlayerResizeAndRepaint(t *testing.T) {
	fs := newFakeSession()
	p := newTestPlayer(fs, newFakeSource())
	defer p.Shutdown()

	// No display yet: tolerated.
	assert.Nil(t, p.Resize(640, 480))
	assert.Nil(t, p.Repaint())

	openStarted(t, p, fs)

	assert.Nil(t, p.Resize(1280, 720))
	assert.Nil(t, p.Repaint())

	display := fs.display.(*fakeDisplay)
	display.mu.Lock()
	defer display.mu.Unlock()
	assert.Equal(t, 1, display.resizes)
	assert.Equal(t, 1, display.repaints)
}

func TestPlayerAudioOnlyDisplayFailureTolerated(t *testing.T) {
	fs := newFakeSession()
	fs.displayErr = ErrNotFound
	p := newTestPlayer(fs, newFakeSource())
	defer p.Shutdown()

	openStarted(t, p, fs)
	assert.Nil(t, p.Resize(640, 480))
}

func TestPlayerStateStrings(t *testing.T) {
	assert.Equal(t, "Closed", StateClosed.String())
	assert.Equal(t, "Ready", StateReady.String())
	assert.Equal(t, "OpenPending", StateOpenPending.String())
	assert.Equal(t, "Started", StateStarted.String())
	assert.Equal(t, "Paused", StatePaused.String())
	assert.Equal(t, "Stopped", StateStopped.String())
	assert.Equal(t, "Closing", StateClosing.String())
	assert.Equal(t, "Invalid", State(99).String())
}
