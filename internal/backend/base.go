// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/ManuGH/uniplay/internal/live"
	"github.com/ManuGH/uniplay/internal/log"
	"github.com/ManuGH/uniplay/internal/metrics"
	"github.com/ManuGH/uniplay/internal/state"
	"github.com/ManuGH/uniplay/pkg/event"
	"github.com/ManuGH/uniplay/pkg/media"
	"github.com/ManuGH/uniplay/pkg/model"
)

// base carries the machinery every backend shares: the state machine bound to
// the media element, the per-backend event bus and the live-edge policy.
// Concrete backends override the capability methods they can actually serve.
type base struct {
	name    string
	el      media.Element
	bus     *event.Bus
	machine *state.Machine
	pol     live.Policy
	logger  zerolog.Logger

	engineLive bool
	delegated  bool
	readySent  bool

	// liveSync and liveWindow default to the element's seekable range and are
	// replaced by engine-backed queries where an engine knows better.
	liveSync   func() (float64, bool)
	liveWindow func() (float64, bool)
}

func newBase(name string, deps Deps) *base {
	b := &base{
		name:   name,
		el:     deps.Element,
		pol:    deps.Live,
		bus:    event.NewBus(),
		logger: log.WithComponent(name),
	}
	b.machine = state.New(deps.Element, b.bus)
	b.liveSync = b.seekableEnd
	b.liveWindow = b.seekableSpan
	b.bus.Subscribe(event.TypeStateChange, func(ev event.Event) {
		if ev.State != nil && ev.State.State == model.StateReady && !b.readySent {
			b.readySent = true
			b.bus.Emit(event.Event{Type: event.TypeReady})
		}
	})
	return b
}

func (b *base) Name() string { return b.name }

func (b *base) Bus() *event.Bus { return b.bus }

func (b *base) State() model.PlayerState { return b.machine.State() }

func (b *base) Play() { b.el.Play() }

func (b *base) Pause() { b.el.Pause() }

func (b *base) Stop() { b.machine.Stop() }

// beginLoad announces the load and moves the machine into Loading.
func (b *base) beginLoad(src string) {
	b.readySent = false
	b.logger.Debug().Str("src", src).Msg("loading source")
	b.bus.Emit(event.Event{Type: event.TypeReadying})
	b.machine.ForceState(model.StateLoading)
}

// destroyBase emits the final unready, detaches the state machine and closes
// the bus so nothing can fire afterwards.
func (b *base) destroyBase() {
	b.bus.Emit(event.Event{Type: event.TypeUnready})
	b.machine.Detach()
	b.bus.Close()
}

// setLive records the engine's liveness and pushes the policy result onto the
// snapshot.
func (b *base) setLive(engineLive bool) {
	b.engineLive = engineLive
	b.machine.SetLive(b.pol.IsLive(engineLive, b.delegated))
}

func (b *base) IsLive() bool {
	return b.pol.IsLive(b.engineLive, b.delegated)
}

func (b *base) IsAtLiveEdge() bool {
	if !b.IsLive() {
		return false
	}
	sync, ok := b.liveSync()
	if !ok {
		return false
	}
	return b.pol.IsAtLiveEdge(b.el.CurrentTime(), sync)
}

// SeekTo seeks, subject to the live policy: on-demand targets pass through,
// live targets require a sufficient window and are clamped to the live-sync
// position.
func (b *base) SeekTo(seconds float64) {
	if b.IsLive() {
		window, ok := b.liveWindow()
		if !ok || !b.pol.IsSeekable(true, window) {
			b.logger.Debug().Float64("target", seconds).Msg("seek rejected, live window below threshold")
			return
		}
		if sync, ok := b.liveSync(); ok {
			seconds = b.pol.ClampSeek(seconds, sync, true)
		}
	}
	b.machine.SetCurrentTime(seconds)
}

// SeekToLive jumps straight to the live-sync position. No-op on VOD.
func (b *base) SeekToLive() {
	if !b.IsLive() {
		return
	}
	if sync, ok := b.liveSync(); ok {
		b.machine.SetCurrentTime(sync)
	}
}

func (b *base) AudioTracks() []model.AudioTrack { return b.machine.State().AudioTracks }

func (b *base) SetAudioTrack(string) error { return ErrUnsupportedOperation }

func (b *base) SetTextTrack(string) error { return ErrUnsupportedOperation }

func (b *base) VideoLevels() []model.VideoLevel { return nil }

func (b *base) CurrentLevel() int { return -1 }

func (b *base) SetVolume(v float64) { b.machine.SetVolume(v) }

func (b *base) SetMuted(m bool) { b.machine.SetMuted(m) }

func (b *base) emitError(rec model.ErrorRecord) {
	metrics.IncError(rec.Category, rec.Fatal)
	b.bus.Emit(event.Event{
		Type:  event.TypeError,
		Error: &event.ErrorPayload{ErrorData: rec, Fatal: rec.Fatal},
	})
}

func (b *base) emitBitrate(l model.VideoLevel) {
	b.bus.Emit(event.Event{
		Type:    event.TypeBitrateChange,
		Bitrate: &event.BitratePayload{Bitrate: l.Bitrate, Width: l.Width, Height: l.Height},
	})
}

func (b *base) seekableEnd() (float64, bool) {
	_, end, ok := b.el.SeekableRange()
	return end, ok
}

func (b *base) seekableSpan() (float64, bool) {
	start, end, ok := b.el.SeekableRange()
	return end - start, ok
}

// nativeBackend plays the source straight through the media element. Used for
// HLS on runtimes with native playlist support.
type nativeBackend struct {
	*base
	removeLoaded func()
}

func newNative(deps Deps) *nativeBackend {
	b := &nativeBackend{base: newBase("native", deps)}
	// Native playback has no manifest callbacks; an unbounded duration after
	// loadeddata is the only liveness signal.
	b.removeLoaded = b.bus.Subscribe(event.TypeLoadedData, func(event.Event) {
		if math.IsInf(b.el.Duration(), 1) {
			b.setLive(true)
		}
	})
	return b
}

func (b *nativeBackend) Load(_ context.Context, src string, autoplay bool) error {
	b.beginLoad(src)
	b.el.SetSrc(src)
	b.el.Load()
	if autoplay {
		b.el.Play()
	}
	return nil
}

func (b *nativeBackend) Destroy() {
	b.removeLoaded()
	b.el.SetSrc("")
	b.el.Load()
	b.destroyBase()
}
