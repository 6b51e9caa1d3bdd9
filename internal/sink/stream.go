//////////////////////////////////////////////////////////////////////////////
//
// Stream sink: per-stream state machine and sample consumption
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package sink

import (
	"sync"
	"time"

	errors "golang.org/x/xerrors"

	"github.com/lanikai/namaka/internal/media"
)

// MarkerType classifies stream markers placed by upstream.
type MarkerType int

const (
	MarkerTypeDefault MarkerType = iota
	MarkerTypeEndOfSegment
	MarkerTypeTick
)

// A Marker travels through the stream in order with samples. When the stream
// reaches it (or flushes it), a marker event carrying Context is queued.
type Marker struct {
	Type    MarkerType
	Value   interface{}
	Context interface{}
}

// pendingItem interleaves buffered samples and markers so acknowledgement
// order matches delivery order.
type pendingItem struct {
	sample *media.Sample
	marker *Marker
}

// StreamSink consumes decoded samples for one elementary stream. All mutating
// entry points take the sink-wide lock shared with the owning VideoSink;
// shutdown is checked first and takes precedence over the legality table.
type StreamSink struct {
	id     uint32
	parent *VideoSink
	mu     *sync.Mutex

	state    State
	shutdown bool

	format        media.FormatDescriptor
	formatSet     bool
	ratio         media.FrameRatio
	displayFormat media.DisplayFormat

	queue *eventQueue
	sched *requestScheduler

	device Device

	// Samples and markers accepted while Paused, drained on start/restart.
	pending []pendingItem

	// Most recently extracted frame, for the presenter.
	current  Frame
	hasFrame bool
}

func newStreamSink(id uint32, mu *sync.Mutex, parent *VideoSink, device Device) *StreamSink {
	s := &StreamSink{
		id:     id,
		parent: parent,
		mu:     mu,
		state:  StateTypeNotSet,
		queue:  newEventQueue(),
		device: device,
	}
	s.sched = newRequestScheduler(mu, func() {
		s.queue.put(Event{Type: EventRequestSample})
	})
	return s
}

// ID returns the stream sink identifier.
func (s *StreamSink) ID() uint32 {
	return s.id
}

// Sink returns the media sink this stream belongs to.
func (s *StreamSink) Sink() *VideoSink {
	return s.parent
}

// State returns the current lifecycle state.
func (s *StreamSink) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Events returns the stream's notification queue. The channel is closed on
// shutdown.
func (s *StreamSink) Events() <-chan Event {
	return s.queue.events()
}

// GetEvent blocks until the next notification. By contract this may block
// indefinitely; internal code consumes Events() instead.
func (s *StreamSink) GetEvent() (Event, error) {
	return s.queue.get()
}

// Outstanding returns the current count of outstanding sample requests.
func (s *StreamSink) Outstanding() int {
	return s.sched.outstandingCount()
}

func (s *StreamSink) checkShutdownLocked() error {
	if s.shutdown {
		return media.ErrShutdown
	}
	return nil
}

// MediaTypeCount returns the number of supported media types.
func (s *StreamSink) MediaTypeCount() int {
	return len(media.VideoSubtypes)
}

// MediaTypeByIndex enumerates the fixed list of supported formats.
func (s *StreamSink) MediaTypeByIndex(i int) (media.FormatDescriptor, error) {
	if i < 0 || i >= len(media.VideoSubtypes) {
		return media.FormatDescriptor{}, media.ErrInvalidIndex
	}
	return media.FormatDescriptor{
		Major:   media.MajorTypeVideo,
		Subtype: media.VideoSubtypes[i],
	}, nil
}

// IsFormatSupported accepts or rejects a candidate format. On recognition the
// derived display-format mapping is cached for the presenter; a rejected
// candidate leaves the cached mapping unchanged.
func (s *StreamSink) IsFormatSupported(f media.FormatDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkShutdownLocked(); err != nil {
		return err
	}
	if f.Major != media.MajorTypeVideo || !media.SubtypeSupported(f.Subtype) {
		return media.ErrInvalidMediaType
	}
	s.displayFormat = media.SubtypeDisplayFormat(f.Subtype)
	return nil
}

// SetFormat sets the stream's media format. A format change while the stream
// is running implies a discontinuity, so in-flight samples are flushed first
// and the running state is kept; otherwise the stream becomes Ready.
func (s *StreamSink) SetFormat(f media.FormatDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkShutdownLocked(); err != nil {
		return err
	}
	if err := Validate(s.state, OpSetFormat); err != nil {
		return err
	}
	if f.Major != media.MajorTypeVideo || !media.SubtypeSupported(f.Subtype) {
		return errors.Errorf("%v: %w", f, media.ErrInvalidMediaType)
	}

	s.format = f
	s.formatSet = true
	s.ratio = media.SubtypeRatio(f.Subtype)
	s.displayFormat = media.SubtypeDisplayFormat(f.Subtype)

	switch s.state {
	case StateStarted, StatePaused:
		s.flushLocked(nil)
	default:
		s.state = StateReady
	}

	log.Debug("Stream %d format set to %v (%d/%d bytes per pixel)",
		s.id, f, s.ratio.Num, s.ratio.Den)
	return nil
}

// Format returns the current media format, or NotInitialized before one has
// been set.
func (s *StreamSink) Format() (media.FormatDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkShutdownLocked(); err != nil {
		return media.FormatDescriptor{}, err
	}
	if !s.formatSet {
		return media.FormatDescriptor{}, media.ErrNotInitialized
	}
	return s.format, nil
}

// DisplayFormat returns the cached display-format mapping.
func (s *StreamSink) DisplayFormat() media.DisplayFormat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayFormat
}

// Start begins consumption at the given position: announces the start, kicks
// the sample-request scheduler, and drains anything buffered while paused.
func (s *StreamSink) Start(at time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkShutdownLocked(); err != nil {
		return err
	}
	if err := Validate(s.state, OpStart); err != nil {
		return err
	}
	return s.startLocked(at)
}

func (s *StreamSink) startLocked(at time.Duration) error {
	s.state = StateStarted
	s.queue.put(Event{Type: EventStarted})
	s.sched.kickLocked()
	s.drainPendingLocked()
	log.Debug("Stream %d started at %v", s.id, at)
	return nil
}

// Restart resumes consumption after a pause without re-announcing the start.
func (s *StreamSink) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkShutdownLocked(); err != nil {
		return err
	}
	if err := Validate(s.state, OpRestart); err != nil {
		return err
	}
	return s.restartLocked()
}

func (s *StreamSink) restartLocked() error {
	s.state = StateStarted
	s.drainPendingLocked()
	return nil
}

// Pause suspends processing. Samples delivered while paused are buffered, not
// dropped.
func (s *StreamSink) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkShutdownLocked(); err != nil {
		return err
	}
	if err := Validate(s.state, OpPause); err != nil {
		return err
	}
	return s.pauseLocked()
}

func (s *StreamSink) pauseLocked() error {
	s.state = StatePaused
	return nil
}

// Stop halts consumption. Pending samples are discarded; pending markers are
// acknowledged.
func (s *StreamSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkShutdownLocked(); err != nil {
		return err
	}
	if err := Validate(s.state, OpStop); err != nil {
		return err
	}
	return s.stopLocked()
}

func (s *StreamSink) stopLocked() error {
	s.state = StateStopped
	s.flushLocked(nil)
	return nil
}

// ProcessSample delivers one sample. The outstanding-request counter is
// decremented for every accepted delivery, whether the sample is processed
// now (Started) or buffered (Paused). Rejected deliveries do not touch the
// counter.
func (s *StreamSink) ProcessSample(sample *media.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkShutdownLocked(); err != nil {
		return err
	}
	if err := Validate(s.state, OpProcessSample); err != nil {
		return err
	}
	if sample == nil {
		return media.ErrInvalidType
	}

	s.sched.deliveredLocked()

	if s.state == StatePaused {
		s.pending = append(s.pending, pendingItem{sample: sample})
		return nil
	}
	return s.processSampleLocked(sample)
}

// processSampleLocked extracts the frame for presentation. Texture-resolution
// failure is non-fatal to the sink: the frame is dropped, the request counter
// already decremented.
func (s *StreamSink) processSampleLocked(sample *media.Sample) error {
	if s.device != nil && len(sample.Buffers) > 0 {
		tex, err := s.device.ResolveTexture(sample.Buffers[0])
		switch {
		case err == nil:
			desc, derr := tex.Describe()
			if derr != nil {
				log.Warn("Stream %d: texture descriptor read failed: %v", s.id, derr)
				return nil
			}
			s.current = Frame{Texture: desc, GPU: true, Time: sample.Time}
			s.hasFrame = true
			return nil
		case errors.Is(err, media.ErrNotFound):
			// System-memory sample; fall through.
		default:
			log.Warn("Stream %d: texture resolution failed, dropping frame: %v", s.id, err)
			return nil
		}
	}

	s.current = Frame{Data: coalesce(sample), Time: sample.Time}
	s.hasFrame = true
	return nil
}

// coalesce returns the sample's payload as one contiguous buffer: the single
// buffer fast path, or a copy joining multiple buffers.
func coalesce(sample *media.Sample) []byte {
	if len(sample.Buffers) == 1 {
		return sample.Buffers[0].Data
	}
	data := make([]byte, 0, sample.TotalLen())
	for i := range sample.Buffers {
		data = append(data, sample.Buffers[i].Data...)
	}
	return data
}

// CurrentFrame returns the most recently extracted frame.
func (s *StreamSink) CurrentFrame() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.hasFrame
}

// PlaceMarker places a marker in the stream. While paused the marker queues
// behind buffered samples; otherwise it is acknowledged immediately.
func (s *StreamSink) PlaceMarker(m Marker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkShutdownLocked(); err != nil {
		return err
	}
	if err := Validate(s.state, OpPlaceMarker); err != nil {
		return err
	}

	if s.state == StatePaused {
		marker := m
		s.pending = append(s.pending, pendingItem{marker: &marker})
		return nil
	}
	s.queue.put(Event{Type: EventMarker, Context: m.Context})
	return nil
}

// Flush discards pending samples and acknowledges pending markers.
func (s *StreamSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkShutdownLocked(); err != nil {
		return err
	}
	s.flushLocked(nil)
	return nil
}

// flushLocked drops buffered samples and acknowledges buffered markers with
// the given status.
func (s *StreamSink) flushLocked(status error) {
	dropped := 0
	for _, item := range s.pending {
		if item.marker != nil {
			s.queue.put(Event{Type: EventMarker, Status: status, Context: item.marker.Context})
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		log.Debug("Stream %d flushed %d pending sample(s)", s.id, dropped)
	}
	s.pending = nil
}

// drainPendingLocked processes buffered samples and acknowledges buffered
// markers in arrival order.
func (s *StreamSink) drainPendingLocked() {
	pending := s.pending
	s.pending = nil
	for _, item := range pending {
		if item.marker != nil {
			s.queue.put(Event{Type: EventMarker, Context: item.marker.Context})
			continue
		}
		if err := s.processSampleLocked(item.sample); err != nil {
			log.Warn("Stream %d: buffered sample dropped: %v", s.id, err)
		}
	}
}

// shutdownLocked terminates the stream: cancels scheduled work and tears down
// the event queue. Idempotent; every mutating call after this reports
// ShuttingDown.
func (s *StreamSink) shutdownLocked() {
	if s.shutdown {
		return
	}
	s.shutdown = true
	s.sched.cancelLocked()
	s.flushLocked(media.ErrShutdown)
	s.queue.close()
	if s.device != nil {
		if err := s.device.Close(); err != nil {
			log.Warn("Stream %d: device close failed: %v", s.id, err)
		}
		s.device = nil
	}
}

// Shutdown terminates the stream sink.
func (s *StreamSink) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdownLocked()
	return nil
}
