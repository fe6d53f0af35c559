// SPDX-License-Identifier: MIT

package backend

import (
	"context"

	"github.com/ManuGH/uniplay/internal/errmap"
	"github.com/ManuGH/uniplay/internal/interstitial"
	"github.com/ManuGH/uniplay/pkg/engine"
	"github.com/ManuGH/uniplay/pkg/event"
	"github.com/ManuGH/uniplay/pkg/model"
)

// hlsBackend drives playback through the HLS streaming engine. It owns the
// interstitial tracker: ad-break sessions live and die with this backend.
type hlsBackend struct {
	*base
	factory engine.HLSFactory
	eng     engine.HLS
	tracker *interstitial.Tracker
}

func newHLS(deps Deps) *hlsBackend {
	b := &hlsBackend{base: newBase("hls-engine", deps), factory: deps.Engines.HLS}
	b.tracker = interstitial.New(deps.Client, b.bus)
	b.liveSync = func() (float64, bool) {
		if b.eng == nil {
			return 0, false
		}
		return b.eng.LiveSyncPosition()
	}
	b.liveWindow = func() (float64, bool) {
		if b.eng == nil {
			return 0, false
		}
		return b.eng.LiveWindow()
	}
	// Quartile detection rides the machine's time-update tick.
	b.bus.Subscribe(event.TypeTimeUpdate, func(ev event.Event) {
		if ev.State != nil {
			b.tracker.OnTimeUpdate(ev.State.CurrentTime)
		}
	})
	return b
}

func (b *hlsBackend) Load(ctx context.Context, src string, autoplay bool) error {
	b.beginLoad(src)
	b.eng = b.factory(b.el, engine.HLSCallbacks{
		Error: func(raw *engine.HLSErrorData) {
			b.emitError(errmap.NormalizeHLS(raw))
		},
		ManifestParsed: func(d engine.HLSDetails) {
			b.setLive(d.Live)
			b.machine.SetAudioTracks(b.eng.AudioTracks())
		},
		LevelSwitched: func(l model.VideoLevel) {
			b.emitBitrate(l)
		},
		InterstitialStarted: func(d engine.InterstitialStartData) {
			b.tracker.OnInterstitialStarted(ctx, d)
		},
		InterstitialEnded: b.tracker.OnInterstitialEnded,
		AssetListLoaded:   b.tracker.CaptureAssetList,
		AssetStarted:      b.tracker.OnAssetStarted,
		AssetEnded:        b.tracker.OnAssetEnded,
	})
	if err := b.eng.Load(ctx, src); err != nil {
		return err
	}
	if autoplay {
		b.el.Play()
	}
	return nil
}

func (b *hlsBackend) Destroy() {
	b.tracker.Reset()
	if b.eng != nil {
		b.eng.Destroy()
		b.eng = nil
	}
	b.destroyBase()
}

func (b *hlsBackend) AudioTracks() []model.AudioTrack {
	if b.eng == nil {
		return nil
	}
	return b.eng.AudioTracks()
}

func (b *hlsBackend) SetAudioTrack(id string) error {
	if b.eng == nil {
		return ErrUnsupportedOperation
	}
	if err := b.eng.SetAudioTrack(id); err != nil {
		return err
	}
	b.machine.SetAudioTracks(b.eng.AudioTracks())
	return nil
}

func (b *hlsBackend) SetTextTrack(id string) error {
	if b.eng == nil {
		return ErrUnsupportedOperation
	}
	return b.eng.SetTextTrack(id)
}

func (b *hlsBackend) VideoLevels() []model.VideoLevel {
	if b.eng == nil {
		return nil
	}
	return b.eng.Levels()
}

func (b *hlsBackend) CurrentLevel() int {
	if b.eng == nil {
		return -1
	}
	return b.eng.CurrentLevel()
}
