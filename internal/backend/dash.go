// SPDX-License-Identifier: MIT

package backend

import (
	"context"

	"github.com/ManuGH/uniplay/internal/errmap"
	"github.com/ManuGH/uniplay/pkg/engine"
	"github.com/ManuGH/uniplay/pkg/model"
)

// dashBackend drives playback through the DASH engine. The MSS backend embeds
// it and adds WebRTC-period delegation on top.
type dashBackend struct {
	*base
	factory engine.DASHFactory
	eng     engine.DASH
}

func newDASH(deps Deps) *dashBackend {
	return newDASHNamed("dash-engine", deps)
}

func newDASHNamed(name string, deps Deps) *dashBackend {
	b := &dashBackend{base: newBase(name, deps), factory: deps.Engines.DASH}
	b.liveSync = func() (float64, bool) {
		if b.eng == nil {
			return 0, false
		}
		return b.eng.LiveEdge()
	}
	b.liveWindow = func() (float64, bool) {
		if b.eng == nil {
			return 0, false
		}
		return b.eng.SeekableWindow()
	}
	return b
}

func (b *dashBackend) Load(ctx context.Context, src string, autoplay bool) error {
	return b.load(ctx, src, autoplay, nil)
}

// load attaches the engine with an optional WebRTC-period hook so the MSS
// backend can reuse the whole DASH path.
func (b *dashBackend) load(ctx context.Context, src string, autoplay bool, onWebRTCPeriod func(channelURL string)) error {
	b.beginLoad(src)
	b.eng = b.factory(b.el, engine.DASHCallbacks{
		Error: func(raw *engine.DASHErrorData) {
			b.emitError(errmap.NormalizeDASH(raw))
		},
		StreamInitialized: func(d engine.DASHDetails) {
			b.setLive(d.Dynamic)
			b.machine.SetAudioTracks(b.eng.AudioTracks())
		},
		QualityChanged: func(l model.VideoLevel) {
			b.emitBitrate(l)
		},
		WebRTCPeriod: onWebRTCPeriod,
	})
	if err := b.eng.Load(ctx, src); err != nil {
		return err
	}
	if autoplay {
		b.el.Play()
	}
	return nil
}

func (b *dashBackend) Destroy() {
	b.destroyEngine()
	b.destroyBase()
}

func (b *dashBackend) destroyEngine() {
	if b.eng != nil {
		b.eng.Destroy()
		b.eng = nil
	}
}

func (b *dashBackend) AudioTracks() []model.AudioTrack {
	if b.eng == nil {
		return nil
	}
	return b.eng.AudioTracks()
}

func (b *dashBackend) SetAudioTrack(id string) error {
	if b.eng == nil {
		return ErrUnsupportedOperation
	}
	if err := b.eng.SetAudioTrack(id); err != nil {
		return err
	}
	b.machine.SetAudioTracks(b.eng.AudioTracks())
	return nil
}

func (b *dashBackend) SetTextTrack(id string) error {
	if b.eng == nil {
		return ErrUnsupportedOperation
	}
	return b.eng.SetTextTrack(id)
}

func (b *dashBackend) VideoLevels() []model.VideoLevel {
	if b.eng == nil {
		return nil
	}
	return b.eng.Levels()
}

func (b *dashBackend) CurrentLevel() int {
	if b.eng == nil {
		return -1
	}
	return b.eng.CurrentLevel()
}
