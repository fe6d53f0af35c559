// SPDX-License-Identifier: MIT

// Package uniplay is a headless playback core. It classifies a source URI,
// selects the backend able to play it, drives the shared media element
// through that backend and fans every resulting event out on one surface.
// Exactly one backend is active at any time; loading a new source tears the
// previous backend down completely before the new one is constructed.
package uniplay

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/uniplay/internal/backend"
	"github.com/ManuGH/uniplay/internal/errmap"
	"github.com/ManuGH/uniplay/internal/log"
	"github.com/ManuGH/uniplay/internal/manifest"
	"github.com/ManuGH/uniplay/internal/metrics"
	"github.com/ManuGH/uniplay/internal/selector"
	"github.com/ManuGH/uniplay/internal/telemetry"
	"github.com/ManuGH/uniplay/pkg/engine"
	"github.com/ManuGH/uniplay/pkg/event"
	"github.com/ManuGH/uniplay/pkg/media"
	"github.com/ManuGH/uniplay/pkg/model"
)

var (
	// ErrDestroyed is returned by operations on a destroyed player.
	ErrDestroyed = errors.New("player destroyed")
	// ErrNoSource is returned by operations that need an active backend.
	ErrNoSource = errors.New("no source loaded")
)

// Options configures a Player. Element is required; everything else has a
// working default, though playback of engine-backed sources needs the
// matching factory in Engines.
type Options struct {
	Element media.Element
	Client  engine.Doer
	Engines backend.Engines
	Config  Config
}

// Player is the playback facade. All methods are safe for concurrent use.
// Event handlers run synchronously and may read the player (State,
// CurrentTime, ...), but must not call Load, Reset or Destroy.
type Player struct {
	// loadMu serializes Load, Reset and Destroy end to end. mu only guards
	// the active-backend pointer, so handlers fired during a load can call
	// back into the accessors without deadlocking.
	loadMu sync.Mutex
	mu     sync.Mutex

	cfg      Config
	el       media.Element
	client   engine.Doer
	engines  backend.Engines
	caps     selector.Capabilities
	resolver *manifest.Resolver
	bus      *event.Bus
	logger   zerolog.Logger
	tracer   trace.Tracer

	active      backend.Backend
	relayCancel func()
	destroyed   bool
}

// New constructs a player around the media element.
func New(opts Options) (*Player, error) {
	if opts.Element == nil {
		return nil, errors.New("uniplay: media element is required")
	}
	cfg := opts.Config
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Configure(log.Config{Level: cfg.LogLevel})

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.ProbeTimeout}
	}

	p := &Player{
		cfg:     cfg,
		el:      opts.Element,
		client:  client,
		engines: opts.Engines,
		caps: selector.Capabilities{
			NativeHLS: cfg.NativeHLS,
			UserAgent: cfg.UserAgent,
		},
		resolver: manifest.New(client),
		bus:      event.NewBus(),
		logger:   log.WithComponent("player"),
		tracer:   telemetry.Tracer("uniplay/player"),
	}
	opts.Element.SetVolume(cfg.StartVolume)
	opts.Element.SetMuted(cfg.StartMuted)
	return p, nil
}

// Load classifies uri, selects a backend and starts playback through it. The
// previous backend is destroyed synchronously first: no event of the old
// source can arrive after Load returns, let alone interleave with the new
// one. Classification and selection failures reject the load without any
// error event; only a backend that actually started loading reports failure
// on the bus. Either way a failed load leaves the player idle.
func (p *Player) Load(ctx context.Context, uri string, autoplay bool) error {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()
	if p.isDestroyed() {
		return ErrDestroyed
	}

	ctx, span := p.tracer.Start(ctx, "uniplay.load")
	defer span.End()
	span.SetAttributes(attribute.String("uri", uri))
	start := time.Now()

	// Synchronous teardown barrier: the old backend is fully gone before the
	// new source is even classified.
	p.teardown()

	mt, err := p.resolver.Resolve(ctx, uri)
	if err != nil {
		p.rejectLoad("resolver", "resolve_error", start, err)
		return err
	}
	dec, err := selector.Decide(mt, p.caps)
	if err != nil {
		p.rejectLoad("selector", "unknown_type", start, err)
		return err
	}
	metrics.IncBackendSelected(dec.Kind.String(), string(dec.Reason))
	span.SetAttributes(attribute.String("backend", dec.Kind.String()))
	p.logger.Info().
		Str("uri", uri).
		Str("manifest_type", mt.String()).
		Str("backend", dec.Kind.String()).
		Str("reason", string(dec.Reason)).
		Msg("backend selected")

	b, err := backend.New(dec.Kind, backend.Deps{
		Element: p.el,
		Client:  p.client,
		Engines: p.engines,
		Live:    p.cfg.livePolicy(),
	})
	if err != nil {
		p.rejectLoad(dec.Kind.String(), "construct_error", start, err)
		return err
	}

	relay := b.Bus().SubscribeAll(p.bus.Emit)
	p.mu.Lock()
	p.active = b
	p.relayCancel = relay
	p.mu.Unlock()

	if err := b.Load(ctx, uri, autoplay); err != nil {
		p.failLoad(b.Name(), start, err)
		return err
	}
	metrics.ObserveLoadDuration(b.Name(), "ok", time.Since(start).Seconds())
	return nil
}

// rejectLoad records a load that never reached a backend. No error event:
// the caller learns from the returned error alone.
func (p *Player) rejectLoad(stage, result string, start time.Time, err error) {
	metrics.ObserveLoadDuration(stage, result, time.Since(start).Seconds())
	p.logger.Warn().Err(err).Str("stage", stage).Msg("load rejected")
}

// failLoad handles a backend whose load started and broke: fatal error event
// by policy, then teardown.
func (p *Player) failLoad(name string, start time.Time, err error) {
	rec := errmap.NormalizeLoadFailure(name, err)
	metrics.IncError(rec.Category, rec.Fatal)
	metrics.ObserveLoadDuration(name, "load_error", time.Since(start).Seconds())
	p.logger.Error().Err(err).Str("backend", name).Msg("load failed")
	p.teardown()
	p.bus.Emit(event.Event{
		Type:  event.TypeError,
		Error: &event.ErrorPayload{ErrorData: rec, Fatal: rec.Fatal},
	})
}

// teardown pops and destroys the active backend. The backend's final events
// (unready) are still relayed; the relay is removed right after. Destruction
// happens outside the pointer lock so relayed events can re-enter accessors.
func (p *Player) teardown() {
	p.mu.Lock()
	b, cancel := p.active, p.relayCancel
	p.active, p.relayCancel = nil, nil
	p.mu.Unlock()
	if b == nil {
		return
	}
	b.Destroy()
	if cancel != nil {
		cancel()
	}
}

func (p *Player) isDestroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

// Reset tears the active backend down and returns the player to idle. The
// player stays usable for another Load.
func (p *Player) Reset() {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()
	p.teardown()
}

// Destroy tears everything down permanently. No event fires afterwards.
func (p *Player) Destroy() {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.destroyed = true
	p.mu.Unlock()
	p.teardown()
	p.bus.Close()
}

// On subscribes to one event type and returns the unsubscribe function.
func (p *Player) On(t event.Type, h event.Handler) func() {
	return p.bus.Subscribe(t, h)
}

// OnAll subscribes to every event and returns the unsubscribe function.
func (p *Player) OnAll(h event.Handler) func() {
	return p.bus.SubscribeAll(h)
}

func (p *Player) backend() backend.Backend {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Play resumes playback. No-op without an active backend.
func (p *Player) Play() {
	if b := p.backend(); b != nil {
		b.Play()
	}
}

// Pause pauses playback.
func (p *Player) Pause() {
	if b := p.backend(); b != nil {
		b.Pause()
	}
}

// Stop halts playback and detaches the source from the element. Unlike Reset
// it keeps the backend alive.
func (p *Player) Stop() {
	if b := p.backend(); b != nil {
		b.Stop()
	}
}

// SeekToPosition seeks to an absolute position, subject to the live policy.
func (p *Player) SeekToPosition(seconds float64) {
	if b := p.backend(); b != nil {
		b.SeekTo(seconds)
	}
}

// SeekByChange seeks relative to the current position.
func (p *Player) SeekByChange(delta float64) {
	if b := p.backend(); b != nil {
		b.SeekTo(b.State().CurrentTime + delta)
	}
}

// SeekToPercentage seeks to a fraction of the total duration. No-op on live
// content, whose duration is unbounded.
func (p *Player) SeekToPercentage(pct float64) {
	b := p.backend()
	if b == nil {
		return
	}
	d := b.State().Duration
	if d <= 0 || model.IsUnbounded(d) {
		return
	}
	if pct < 0 {
		pct = 0
	} else if pct > 100 {
		pct = 100
	}
	b.SeekTo(d * pct / 100)
}

// SeekToLive jumps to the live edge. No-op on VOD.
func (p *Player) SeekToLive() {
	if b := p.backend(); b != nil {
		b.SeekToLive()
	}
}

// SetAudioTrack switches the audio track on the active backend.
func (p *Player) SetAudioTrack(id string) error {
	b := p.backend()
	if b == nil {
		return ErrNoSource
	}
	return b.SetAudioTrack(id)
}

// SetTextTrack switches the text track on the active backend.
func (p *Player) SetTextTrack(id string) error {
	b := p.backend()
	if b == nil {
		return ErrNoSource
	}
	return b.SetTextTrack(id)
}

// SetVolume sets the element volume, clamped to [0,1].
func (p *Player) SetVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	p.el.SetVolume(v)
}

// SetMuted toggles the muted flag without touching the stored volume.
func (p *Player) SetMuted(muted bool) {
	p.el.SetMuted(muted)
}

// State returns the current playback snapshot. Idle when nothing is loaded.
func (p *Player) State() model.PlayerState {
	if b := p.backend(); b != nil {
		return b.State()
	}
	return model.PlayerState{State: model.StateIdle, PrevState: model.StateIdle}
}

// IsPlaying reports whether the player is in the Playing state.
func (p *Player) IsPlaying() bool {
	return p.State().State == model.StatePlaying
}

// IsMuted reports the element's muted flag.
func (p *Player) IsMuted() bool { return p.el.Muted() }

// IsLive reports whether the loaded source is live.
func (p *Player) IsLive() bool {
	if b := p.backend(); b != nil {
		return b.IsLive()
	}
	return false
}

// IsAtLiveEdge reports whether playback is within the edge margin of the
// live-sync position.
func (p *Player) IsAtLiveEdge() bool {
	if b := p.backend(); b != nil {
		return b.IsAtLiveEdge()
	}
	return false
}

// CurrentTime returns the playhead position in seconds.
func (p *Player) CurrentTime() float64 { return p.State().CurrentTime }

// Duration returns the total duration, unbounded for live.
func (p *Player) Duration() float64 { return p.State().Duration }

// AudioTracks lists the selectable audio tracks.
func (p *Player) AudioTracks() []model.AudioTrack {
	if b := p.backend(); b != nil {
		return b.AudioTracks()
	}
	return nil
}

// VideoLevels lists the selectable video quality levels.
func (p *Player) VideoLevels() []model.VideoLevel {
	if b := p.backend(); b != nil {
		return b.VideoLevels()
	}
	return nil
}

// CurrentLevel returns the active video level index, -1 when unknown.
func (p *Player) CurrentLevel() int {
	if b := p.backend(); b != nil {
		return b.CurrentLevel()
	}
	return -1
}

// ActiveBackend names the active backend, empty when idle.
func (p *Player) ActiveBackend() string {
	if b := p.backend(); b != nil {
		return b.Name()
	}
	return ""
}
