// SPDX-License-Identifier: MIT

// Package backend implements the playback backends behind the facade. Exactly
// one backend is active at a time; the facade tears the previous one down
// completely before constructing the next.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuGH/uniplay/internal/live"
	"github.com/ManuGH/uniplay/internal/selector"
	"github.com/ManuGH/uniplay/pkg/engine"
	"github.com/ManuGH/uniplay/pkg/event"
	"github.com/ManuGH/uniplay/pkg/media"
	"github.com/ManuGH/uniplay/pkg/model"
)

// ErrUnsupportedOperation is returned by capability methods a backend cannot
// serve (track selection on native playback, levels on WebRTC).
var ErrUnsupportedOperation = errors.New("operation not supported by this backend")

// Backend is the closed capability surface a constructed backend exposes to
// the facade. Load may be called once; Destroy detaches every listener and
// closes the bus, after which the backend emits nothing.
type Backend interface {
	Name() string
	Bus() *event.Bus

	Load(ctx context.Context, src string, autoplay bool) error
	Destroy()

	State() model.PlayerState
	Play()
	Pause()
	Stop()

	SeekTo(seconds float64)
	SeekToLive()
	IsLive() bool
	IsAtLiveEdge() bool

	AudioTracks() []model.AudioTrack
	SetAudioTrack(id string) error
	SetTextTrack(id string) error
	VideoLevels() []model.VideoLevel
	CurrentLevel() int

	SetVolume(v float64)
	SetMuted(muted bool)
}

// Engines bundles the streaming-engine constructors a backend may need.
type Engines struct {
	HLS    engine.HLSFactory
	DASH   engine.DASHFactory
	WebRTC engine.WebRTCFactory
}

// Deps is everything a backend needs beyond its source URL.
type Deps struct {
	Element media.Element
	Client  engine.Doer
	Engines Engines
	Live    live.Policy
}

// New constructs the backend for a selection decision. The zero live policy
// is replaced with the defaults.
func New(kind selector.Kind, deps Deps) (Backend, error) {
	if deps.Live == (live.Policy{}) {
		deps.Live = live.Default()
	}
	switch kind {
	case selector.KindNative:
		return newNative(deps), nil
	case selector.KindHLSEngine:
		if deps.Engines.HLS == nil {
			return nil, errors.New("hls engine factory not configured")
		}
		return newHLS(deps), nil
	case selector.KindDASHEngine:
		if deps.Engines.DASH == nil {
			return nil, errors.New("dash engine factory not configured")
		}
		return newDASH(deps), nil
	case selector.KindMSS:
		if deps.Engines.DASH == nil || deps.Engines.WebRTC == nil {
			return nil, errors.New("mss backend needs dash and webrtc factories")
		}
		return newMSS(deps), nil
	case selector.KindWebRTCChannel:
		if deps.Engines.WebRTC == nil {
			return nil, errors.New("webrtc factory not configured")
		}
		return newWebRTC(kindNameChannel, deps, signalChannel), nil
	case selector.KindWHEP:
		if deps.Engines.WebRTC == nil {
			return nil, errors.New("webrtc factory not configured")
		}
		return newWebRTC(kindNameWHEP, deps, signalWHEP), nil
	case selector.KindWHPP:
		if deps.Engines.WebRTC == nil {
			return nil, errors.New("webrtc factory not configured")
		}
		return newWebRTC(kindNameWHPP, deps, signalWHPP), nil
	default:
		return nil, fmt.Errorf("no backend for kind %q", kind)
	}
}
