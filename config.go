//////////////////////////////////////////////////////////////////////////////
//
// Config contains configuration data for Player
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package namaka

import (
	"github.com/lanikai/namaka/internal/media"
	"github.com/lanikai/namaka/internal/session"
	"github.com/lanikai/namaka/internal/sink"
)

type Config struct {
	// NewSession creates the playback session. Defaults to the in-process
	// local driver.
	NewSession session.Factory

	// Resolve resolves a URL to a media source. Defaults to the scheme
	// registry resolver.
	Resolve func(url string) (media.Source, error)

	// DeviceManager supplies the hardware video device used for GPU frame
	// extraction. May be nil; frames are then consumed from system memory.
	DeviceManager sink.DeviceManager

	// OnSessionEvent receives session events the player does not consume
	// itself, for the application/UI layer. Optional. Not invoked while a
	// close is pending.
	OnSessionEvent func(e session.Event)
}

func (c *Config) applyDefaults() {
	if c.NewSession == nil {
		c.NewSession = session.NewLocal
	}
	if c.Resolve == nil {
		c.Resolve = media.Resolve
	}
}
