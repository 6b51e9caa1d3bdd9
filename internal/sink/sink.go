//////////////////////////////////////////////////////////////////////////////
//
// VideoSink: fixed single-stream media sink and clock relay
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

// Package sink implements the custom video sink: a fixed-topology media sink
// aggregating exactly one stream sink, a per-stream lifecycle state machine,
// and the pull-based sample-request scheduler that paces decoder work.
package sink

import (
	"sync"
	"time"

	"github.com/lanikai/namaka/internal/logging"
	"github.com/lanikai/namaka/internal/media"
)

var log = logging.DefaultLogger.WithTag("sink")

// The sink's one stream. Topology shape is static by design.
const streamID = 1

// Characteristics flags reported by the sink.
const (
	CharacteristicFixedStreams = 1 << iota
	CharacteristicCanPreroll
)

// ClockStateSink receives presentation-clock state transitions. The clock
// delivers start/pause/stop in a defined order for a single clock; the sink
// trusts that ordering beyond the state table.
type ClockStateSink interface {
	OnClockStart(at time.Duration) error
	OnClockRestart() error
	OnClockPause() error
	OnClockStop() error
	OnClockSetRate(rate float32) error
}

// PresentationClock is the shared timing authority the sink registers with.
type PresentationClock interface {
	AddStateSink(s ClockStateSink) error
	RemoveStateSink(s ClockStateSink) error
}

// VideoSink is the custom media sink. It owns exactly one StreamSink and
// relays presentation-clock transitions to it. The sink and its stream share
// one lock: they mutate related state.
type VideoSink struct {
	mu       sync.Mutex
	stream   *StreamSink
	clock    PresentationClock
	shutdown bool
}

// NewVideoSink creates the sink and its single stream. The device manager may
// be nil, in which case GPU frame extraction is disabled and samples are
// consumed from system memory.
func NewVideoSink(dm DeviceManager) (*VideoSink, error) {
	var device Device
	if dm != nil {
		var err error
		if device, err = dm.OpenDevice(); err != nil {
			return nil, err
		}
	}

	vs := &VideoSink{}
	vs.stream = newStreamSink(streamID, &vs.mu, vs, device)
	return vs, nil
}

func (vs *VideoSink) checkShutdownLocked() error {
	if vs.shutdown {
		return media.ErrShutdown
	}
	return nil
}

// Characteristics reports the sink's fixed properties.
func (vs *VideoSink) Characteristics() (uint32, error) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if err := vs.checkShutdownLocked(); err != nil {
		return 0, err
	}
	return CharacteristicFixedStreams | CharacteristicCanPreroll, nil
}

// StreamCount returns the number of stream sinks. Always 1.
func (vs *VideoSink) StreamCount() (int, error) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if err := vs.checkShutdownLocked(); err != nil {
		return 0, err
	}
	return 1, nil
}

// StreamByIndex returns the stream sink at the given index. Only index 0
// exists.
func (vs *VideoSink) StreamByIndex(index int) (*StreamSink, error) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if index != 0 {
		return nil, media.ErrInvalidIndex
	}
	if err := vs.checkShutdownLocked(); err != nil {
		return nil, err
	}
	return vs.stream, nil
}

// StreamByID returns the stream sink with the given identifier. Only the
// fixed stream ID exists.
func (vs *VideoSink) StreamByID(id uint32) (*StreamSink, error) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if id != streamID {
		return nil, media.ErrInvalidStreamNumber
	}
	if err := vs.checkShutdownLocked(); err != nil {
		return nil, err
	}
	return vs.stream, nil
}

// AddStreamSink always fails: the sink's topology is fixed.
func (vs *VideoSink) AddStreamSink(id uint32, f media.FormatDescriptor) (*StreamSink, error) {
	return nil, media.ErrStreamsFixed
}

// RemoveStreamSink always fails: the sink's topology is fixed.
func (vs *VideoSink) RemoveStreamSink(id uint32) error {
	return media.ErrStreamsFixed
}

// SetPresentationClock binds the sink to a presentation clock. Re-binding
// deregisters from the old clock before registering with the new one; the
// sink is never registered with both. A nil clock deregisters only.
func (vs *VideoSink) SetPresentationClock(clock PresentationClock) error {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if err := vs.checkShutdownLocked(); err != nil {
		return err
	}

	if vs.clock != nil {
		if err := vs.clock.RemoveStateSink(vs); err != nil {
			return err
		}
	}
	if clock != nil {
		if err := clock.AddStateSink(vs); err != nil {
			vs.clock = nil
			return err
		}
	}
	vs.clock = clock
	return nil
}

// Clock returns the bound presentation clock, or NoClock if none is bound.
func (vs *VideoSink) Clock() (PresentationClock, error) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if err := vs.checkShutdownLocked(); err != nil {
		return nil, err
	}
	if vs.clock == nil {
		return nil, media.ErrNoClock
	}
	return vs.clock, nil
}

// Stream returns the sink's single stream sink without lookup validation.
func (vs *VideoSink) Stream() *StreamSink {
	return vs.stream
}

// OnClockStart flushes stale samples (a start may follow a seek) and starts
// the stream.
func (vs *VideoSink) OnClockStart(at time.Duration) error {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if err := vs.relayCheckLocked(OpStart); err != nil {
		return err
	}
	vs.stream.flushLocked(nil)
	return vs.stream.startLocked(at)
}

// OnClockRestart resumes the stream after a pause.
func (vs *VideoSink) OnClockRestart() error {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if err := vs.relayCheckLocked(OpRestart); err != nil {
		return err
	}
	return vs.stream.restartLocked()
}

// OnClockPause pauses the stream.
func (vs *VideoSink) OnClockPause() error {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if err := vs.relayCheckLocked(OpPause); err != nil {
		return err
	}
	return vs.stream.pauseLocked()
}

// OnClockStop stops the stream.
func (vs *VideoSink) OnClockStop() error {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if err := vs.relayCheckLocked(OpStop); err != nil {
		return err
	}
	return vs.stream.stopLocked()
}

// OnClockSetRate acknowledges a rate change. The sink consumes samples as
// delivered; pacing under a new rate is the session's concern.
func (vs *VideoSink) OnClockSetRate(rate float32) error {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if err := vs.checkShutdownLocked(); err != nil {
		return err
	}
	log.Debug("Clock rate set to %v", rate)
	return nil
}

// relayCheckLocked validates a clock-driven operation against both the sink's
// and the stream's terminal state plus the stream's legality table.
func (vs *VideoSink) relayCheckLocked(op Operation) error {
	if err := vs.checkShutdownLocked(); err != nil {
		return err
	}
	if err := vs.stream.checkShutdownLocked(); err != nil {
		return err
	}
	return Validate(vs.stream.state, op)
}

// Shutdown marks the sink terminal, shuts down the owned stream, and releases
// the clock reference. Always reports ShuttingDown: the result signals
// "already/now terminal", not an operational failure.
func (vs *VideoSink) Shutdown() error {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if !vs.shutdown {
		vs.shutdown = true
		vs.stream.shutdownLocked()
		vs.clock = nil
	}
	return media.ErrShutdown
}
