// SPDX-License-Identifier: MIT

// Package state derives the canonical playback state from raw media-element
// events. The machine is the only writer of the player snapshot; every
// transition emits one state_change carrying the full snapshot, never a diff.
package state

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/ManuGH/uniplay/internal/errmap"
	"github.com/ManuGH/uniplay/internal/log"
	"github.com/ManuGH/uniplay/internal/metrics"
	"github.com/ManuGH/uniplay/pkg/event"
	"github.com/ManuGH/uniplay/pkg/media"
	"github.com/ManuGH/uniplay/pkg/model"
)

// Machine observes one media element and owns the current PlayerState
// snapshot. It never assigns the element's source or calls its native
// load/play/pause; that is the backend's job. The explicit position, volume
// and mute setters are the one exception.
type Machine struct {
	el      media.Element
	bus     *event.Bus
	logger  zerolog.Logger
	snap    model.PlayerState
	removes []func()
}

// New attaches a machine to the element and starts observing. Initial state
// is Idle.
func New(el media.Element, bus *event.Bus) *Machine {
	m := &Machine{
		el:     el,
		bus:    bus,
		logger: log.WithComponent("state"),
		snap: model.PlayerState{
			State:     model.StateIdle,
			PrevState: model.StateIdle,
		},
	}
	m.attach()
	return m
}

func (m *Machine) attach() {
	on := func(kind media.EventKind, fn func()) {
		m.removes = append(m.removes, m.el.AddListener(kind, fn))
	}

	on(media.EventPlay, func() {
		m.mirror(event.TypePlay)
		m.transition(model.StatePlaying)
	})
	on(media.EventPlaying, func() {
		m.mirror(event.TypePlaying)
		if m.snap.State != model.StatePlaying {
			m.transition(model.StatePlaying)
		}
	})
	on(media.EventPause, func() {
		m.mirror(event.TypePause)
		m.transition(model.StatePaused)
	})
	on(media.EventWaiting, func() {
		m.mirror(event.TypeWaiting)
		if m.snap.State != model.StateSeeking {
			m.transition(model.StateBuffering)
			m.emit(event.Event{Type: event.TypeBuffering})
		}
	})
	on(media.EventSeeking, func() {
		m.mirror(event.TypeSeeking)
		if m.snap.State != model.StateSeeking {
			m.snap.PrevState = m.snap.State
		}
		m.transition(model.StateSeeking)
	})
	on(media.EventSeeked, func() {
		m.mirror(event.TypeSeeked)
		m.transition(m.snap.PrevState)
	})
	on(media.EventEnded, func() {
		m.mirror(event.TypeEnded)
		m.transition(model.StateIdle)
	})
	on(media.EventLoadedData, func() {
		m.mirror(event.TypeLoadedData)
		m.transition(model.StateReady)
	})
	on(media.EventTimeUpdate, func() {
		// Hot path: snapshot assignment and emit only.
		m.snap.CurrentTime = m.el.CurrentTime()
		m.snap.Duration = m.duration()
		m.emitSnapshot(event.TypeTimeUpdate)
	})
	on(media.EventVolumeChange, func() {
		m.snap.IsMuted = m.el.Muted()
		m.emitSnapshot(event.TypeVolumeChange)
	})
	on(media.EventError, func() {
		// The machine does not decide fatality or teardown; it normalizes
		// and forwards, leaving shutdown to the facade's caller.
		rec := errmap.NormalizeMedia(m.el.Err())
		metrics.IncError(rec.Category, rec.Fatal)
		m.emit(event.Event{
			Type:  event.TypeError,
			Error: &event.ErrorPayload{ErrorData: rec, Fatal: rec.Fatal},
		})
	})
}

// Detach removes every media-element listener. The machine stops observing
// and emits nothing afterwards.
func (m *Machine) Detach() {
	for _, remove := range m.removes {
		remove()
	}
	m.removes = nil
}

func (m *Machine) duration() float64 {
	if m.snap.IsLive {
		return model.UnboundedDuration
	}
	d := m.el.Duration()
	if math.IsNaN(d) || d < 0 {
		return 0
	}
	return d
}

func (m *Machine) transition(to model.PlaybackState) {
	from := m.snap.State
	if from == to {
		return
	}
	m.snap.State = to
	metrics.IncStateTransition(from.String(), to.String())
	m.logger.Debug().
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("playback state transition")
	m.emitSnapshot(event.TypeStateChange)
}

func (m *Machine) mirror(t event.Type) {
	m.emit(event.Event{Type: t})
}

func (m *Machine) emitSnapshot(t event.Type) {
	snap := m.snap
	m.emit(event.Event{Type: t, State: &snap})
}

func (m *Machine) emit(ev event.Event) {
	m.bus.Emit(ev)
}

// State returns the current snapshot by value.
func (m *Machine) State() model.PlayerState {
	return m.snap
}

// ForceState moves the machine into a backend-driven state (Loading while a
// load is in flight, Idle on reset).
func (m *Machine) ForceState(s model.PlaybackState) {
	m.transition(s)
}

// Stop enters Idle, clears the element source and forces a reload.
func (m *Machine) Stop() {
	m.el.SetSrc("")
	m.el.Load()
	m.transition(model.StateIdle)
	m.emit(event.Event{Type: event.TypePlayerStopped})
}

// SetLive marks the stream live or on-demand. Live streams report the
// unbounded duration sentinel on the snapshot.
func (m *Machine) SetLive(isLive bool) {
	m.snap.IsLive = isLive
	m.snap.Duration = m.duration()
}

// SetAudioTracks replaces the snapshot's audio track listing.
func (m *Machine) SetAudioTracks(tracks []model.AudioTrack) {
	m.snap.AudioTracks = tracks
}

// SetCurrentTime seeks the element.
func (m *Machine) SetCurrentTime(seconds float64) {
	m.el.SetCurrentTime(seconds)
}

// SetVolume sets the element volume.
func (m *Machine) SetVolume(v float64) {
	m.el.SetVolume(v)
}

// SetMuted toggles the muted flag only; the stored volume level is untouched
// so unmuting restores it exactly.
func (m *Machine) SetMuted(muted bool) {
	m.el.SetMuted(muted)
}
