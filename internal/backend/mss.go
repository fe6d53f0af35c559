// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"sync"

	"github.com/ManuGH/uniplay/internal/errmap"
	"github.com/ManuGH/uniplay/pkg/engine"
)

// Mode is the MSS backend's nested operating mode.
type Mode int

const (
	// ModeNormal plays the SmoothStreaming manifest through the DASH engine.
	ModeNormal Mode = iota
	// ModeDelegatedWebRTC means a manifest period handed playback over to a
	// WebRTC channel; the streaming engine is gone and a peer connection owns
	// the element.
	ModeDelegatedWebRTC
)

// String returns a human-readable label for the mode.
func (m Mode) String() string {
	if m == ModeDelegatedWebRTC {
		return "delegated-webrtc"
	}
	return "normal"
}

// mssBackend plays SmoothStreaming sources. It is a DASH backend until the
// manifest signals a WebRTC period, at which point it destroys the engine and
// delegates to an inner WHPP leg on the same element and bus. Delegation
// forces liveness: the WebRTC transport has no VOD.
type mssBackend struct {
	*dashBackend

	mu            sync.Mutex
	mode          Mode
	leg           *webrtcLeg
	webrtcFactory engine.WebRTCFactory
	client        engine.Doer
}

func newMSS(deps Deps) *mssBackend {
	return &mssBackend{
		dashBackend:   newDASHNamed("mss", deps),
		webrtcFactory: deps.Engines.WebRTC,
		client:        deps.Client,
	}
}

func (b *mssBackend) Load(ctx context.Context, src string, autoplay bool) error {
	return b.load(ctx, src, autoplay, b.delegate)
}

// Mode returns the current operating mode.
func (b *mssBackend) Mode() Mode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode
}

// delegate hands the element over to a WebRTC leg. The streaming engine is
// destroyed before the leg is built: exactly one owner drives the element at
// any point in time.
func (b *mssBackend) delegate(channelURL string) {
	b.mu.Lock()
	if b.mode == ModeDelegatedWebRTC {
		b.mu.Unlock()
		return
	}
	b.mode = ModeDelegatedWebRTC
	b.destroyEngine()
	b.delegated = true
	b.setLive(true)
	leg := newLeg(b.base, b.webrtcFactory, b.client, signalWHPP)
	b.leg = leg
	b.mu.Unlock()

	b.logger.Info().Str("channel_url", channelURL).Msg("delegating playback to webrtc period")
	if err := leg.connect(context.Background(), channelURL); err != nil {
		b.emitError(errmap.NormalizeLoadFailure(b.name, err))
	}
}

func (b *mssBackend) Destroy() {
	b.mu.Lock()
	if b.leg != nil {
		b.leg.close()
		b.leg = nil
	}
	b.destroyEngine()
	b.mu.Unlock()
	b.destroyBase()
}
