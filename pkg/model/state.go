// SPDX-License-Identifier: MIT

// Package model holds the shared value types of the playback core: canonical
// playback states, player snapshots, manifest types and normalized errors.
package model

import "math"

// PlaybackState is the canonical state of the player, derived from raw
// media-element events by the state machine.
type PlaybackState int

const (
	StateIdle PlaybackState = iota
	StateLoading
	StateReady
	StatePlaying
	StatePaused
	StateSeeking
	StateBuffering
)

// String returns a human-readable label for the playback state.
func (s PlaybackState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateSeeking:
		return "seeking"
	case StateBuffering:
		return "buffering"
	default:
		return "unknown"
	}
}

// UnboundedDuration is the sentinel duration reported for live streams, where
// the media element has no finite end. The DVR window, if any, is exposed
// separately through seekability.
var UnboundedDuration = math.Inf(1)

// IsUnbounded reports whether d is the live-stream duration sentinel.
func IsUnbounded(d float64) bool {
	return math.IsInf(d, 1)
}

// AudioTrack describes one selectable audio rendition.
type AudioTrack struct {
	ID       string
	Label    string
	Language string
}

// VideoLevel describes one video quality level exposed by an engine.
type VideoLevel struct {
	ID      int
	Width   int
	Height  int
	Bitrate int
}

// PlayerState is an immutable snapshot of the player. Every mutation inside
// the state machine produces a fresh copy; consumers must treat an emitted
// snapshot as authoritative, not incremental.
type PlayerState struct {
	State       PlaybackState
	PrevState   PlaybackState // state held immediately before the latest Seeking
	CurrentTime float64
	Duration    float64 // seconds; non-negative finite or UnboundedDuration, never NaN
	IsLive      bool
	IsMuted     bool
	AudioTracks []AudioTrack
}
