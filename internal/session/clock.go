package session

import (
	"sync"
	"time"

	"github.com/lanikai/namaka/internal/media"
	"github.com/lanikai/namaka/internal/sink"
)

type clockState int

const (
	clockStopped clockState = iota
	clockRunning
	clockPaused
)

// localClock is the presentation clock for the local session driver. State
// transitions are delivered to registered sinks in registration order;
// start/pause/stop are never reordered relative to each other.
type localClock struct {
	mu    sync.Mutex
	sinks []sink.ClockStateSink
	state clockState
	pos   time.Duration
}

func newLocalClock() *localClock {
	return &localClock{}
}

func (c *localClock) AddStateSink(s sink.ClockStateSink) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.sinks {
		if existing == s {
			return media.ErrUnexpected
		}
	}
	c.sinks = append(c.sinks, s)
	return nil
}

func (c *localClock) RemoveStateSink(s sink.ClockStateSink) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, existing := range c.sinks {
		if existing == s {
			c.sinks = append(c.sinks[:i], c.sinks[i+1:]...)
			return nil
		}
	}
	return media.ErrNotFound
}

// start runs the clock. Resuming from a pause at the current position is a
// restart; anything else is a (re)start at the given position.
func (c *localClock) start(pos time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	restart := c.state == clockPaused && pos == PositionCurrent
	if !restart && pos != PositionCurrent {
		c.pos = pos
	}
	c.state = clockRunning

	for _, s := range c.sinks {
		var err error
		if restart {
			err = s.OnClockRestart()
		} else {
			err = s.OnClockStart(c.pos)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *localClock) pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != clockRunning {
		return media.ErrInvalidRequest
	}
	c.state = clockPaused

	for _, s := range c.sinks {
		if err := s.OnClockPause(); err != nil {
			return err
		}
	}
	return nil
}

func (c *localClock) stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == clockStopped {
		return nil
	}
	c.state = clockStopped
	c.pos = 0

	for _, s := range c.sinks {
		if err := s.OnClockStop(); err != nil {
			return err
		}
	}
	return nil
}
