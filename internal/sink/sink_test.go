package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lanikai/namaka/internal/media"
)

// fakeClock records registration calls, optionally into a log shared between
// clocks so cross-clock ordering is observable.
type fakeClock struct {
	name   string
	log    *[]string
	addErr error
}

func (fc *fakeClock) AddStateSink(s ClockStateSink) error {
	if fc.log != nil {
		*fc.log = append(*fc.log, fc.name+".add")
	}
	return fc.addErr
}

func (fc *fakeClock) RemoveStateSink(s ClockStateSink) error {
	if fc.log != nil {
		*fc.log = append(*fc.log, fc.name+".remove")
	}
	return nil
}

func newTestSink(t *testing.T) *VideoSink {
	t.Helper()

	vs, err := NewVideoSink(nil)
	if err != nil {
		t.Fatal(err)
	}
	return vs
}

func TestSinkCharacteristics(t *testing.T) {
	vs := newTestSink(t)
	defer vs.Shutdown()

	c, err := vs.Characteristics()
	if err != nil {
		t.Fatal(err)
	}
	assert.NotZero(t, c&CharacteristicFixedStreams)
	assert.NotZero(t, c&CharacteristicCanPreroll)
}

func TestSinkFixedStreamLookup(t *testing.T) {
	vs := newTestSink(t)
	defer vs.Shutdown()

	n, err := vs.StreamCount()
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 1, n)

	s, err := vs.StreamByIndex(0)
	assert.Nil(t, err)
	assert.Equal(t, vs.Stream(), s)

	_, err = vs.StreamByIndex(1)
	assert.Equal(t, media.ErrInvalidIndex, err)

	s, err = vs.StreamByID(1)
	assert.Nil(t, err)
	assert.Equal(t, vs.Stream(), s)

	_, err = vs.StreamByID(2)
	assert.Equal(t, media.ErrInvalidStreamNumber, err)
	_, err = vs.StreamByID(0)
	assert.Equal(t, media.ErrInvalidStreamNumber, err)
}

func TestSinkTopologyIsFixed(t *testing.T) {
	vs := newTestSink(t)
	defer vs.Shutdown()

	_, err := vs.AddStreamSink(2, nv12Format())
	assert.Equal(t, media.ErrStreamsFixed, err)
	assert.Equal(t, media.ErrStreamsFixed, vs.RemoveStreamSink(1))
}

func TestSinkClockUnboundByDefault(t *testing.T) {
	vs := newTestSink(t)
	defer vs.Shutdown()

	_, err := vs.Clock()
	assert.Equal(t, media.ErrNoClock, err)
}

func TestSinkClockBindAndRebind(t *testing.T) {
	vs := newTestSink(t)
	defer vs.Shutdown()

	var calls []string
	first := &fakeClock{name: "first", log: &calls}
	second := &fakeClock{name: "second", log: &calls}

	assert.Nil(t, vs.SetPresentationClock(first))
	clock, err := vs.Clock()
	assert.Nil(t, err)
	assert.Equal(t, PresentationClock(first), clock)

	// Re-binding deregisters from the old clock before registering with
	// the new one.
	assert.Nil(t, vs.SetPresentationClock(second))
	assert.Equal(t, []string{"first.add", "first.remove", "second.add"}, calls)

	// Nil deregisters only.
	assert.Nil(t, vs.SetPresentationClock(nil))
	assert.Equal(t, []string{"first.add", "first.remove", "second.add", "second.remove"}, calls)
	_, err = vs.Clock()
	assert.Equal(t, media.ErrNoClock, err)
}

func TestSinkClockAddFailureUnbinds(t *testing.T) {
	vs := newTestSink(t)
	defer vs.Shutdown()

	bad := &fakeClock{addErr: media.ErrUnexpected}
	assert.Equal(t, media.ErrUnexpected, vs.SetPresentationClock(bad))

	_, err := vs.Clock()
	assert.Equal(t, media.ErrNoClock, err)
}

func TestSinkClockRelays(t *testing.T) {
	vs := newTestSink(t)
	defer vs.Shutdown()

	s := vs.Stream()
	if err := s.SetFormat(nv12Format()); err != nil {
		t.Fatal(err)
	}

	assert.Nil(t, vs.OnClockStart(0))
	assert.Equal(t, StateStarted, s.State())

	// Restart is only meaningful after a pause.
	assert.Equal(t, media.ErrInvalidRequest, vs.OnClockRestart())

	assert.Nil(t, vs.OnClockPause())
	assert.Equal(t, StatePaused, s.State())

	assert.Nil(t, vs.OnClockRestart())
	assert.Equal(t, StateStarted, s.State())

	assert.Nil(t, vs.OnClockStop())
	assert.Equal(t, StateStopped, s.State())

	assert.Nil(t, vs.OnClockSetRate(2.0))
}

func TestSinkClockStartFlushesStaleSamples(t *testing.T) {
	vs := newTestSink(t)
	defer vs.Shutdown()

	s := vs.Stream()
	if err := s.SetFormat(nv12Format()); err != nil {
		t.Fatal(err)
	}
	assert.Nil(t, vs.OnClockStart(0))
	assert.Nil(t, vs.OnClockPause())
	assert.Nil(t, s.ProcessSample(systemSample(0, 1)))

	// A start after a seek discards what was buffered before it.
	assert.Nil(t, vs.OnClockStart(0))
	_, ok := s.CurrentFrame()
	assert.False(t, ok)
}

func TestSinkClockRelayBeforeFormat(t *testing.T) {
	vs := newTestSink(t)
	defer vs.Shutdown()

	assert.Equal(t, media.ErrInvalidRequest, vs.OnClockStart(0))
	assert.Equal(t, media.ErrInvalidRequest, vs.OnClockPause())
}

func TestSinkShutdown(t *testing.T) {
	vs := newTestSink(t)

	var calls []string
	clock := &fakeClock{name: "clock", log: &calls}
	assert.Nil(t, vs.SetPresentationClock(clock))

	// Shutdown always reports the terminal condition, including the call
	// that performs it.
	assert.Equal(t, media.ErrShutdown, vs.Shutdown())
	assert.Equal(t, media.ErrShutdown, vs.Shutdown())

	_, err := vs.Characteristics()
	assert.Equal(t, media.ErrShutdown, err)
	_, err = vs.StreamCount()
	assert.Equal(t, media.ErrShutdown, err)
	_, err = vs.StreamByIndex(0)
	assert.Equal(t, media.ErrShutdown, err)
	_, err = vs.StreamByID(1)
	assert.Equal(t, media.ErrShutdown, err)
	_, err = vs.Clock()
	assert.Equal(t, media.ErrShutdown, err)
	assert.Equal(t, media.ErrShutdown, vs.SetPresentationClock(clock))
	assert.Equal(t, media.ErrShutdown, vs.OnClockStart(0))
	assert.Equal(t, media.ErrShutdown, vs.OnClockSetRate(1.0))

	// The owned stream is torn down with the sink.
	assert.Equal(t, media.ErrShutdown, vs.Stream().Start(0))
}
