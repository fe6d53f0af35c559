// SPDX-License-Identifier: MIT

// Package event implements the typed publish/subscribe channel the playback
// core fans its events out on. Payloads are a tagged union keyed by event
// type; exactly one payload pointer is set per event.
package event

import "github.com/ManuGH/uniplay/pkg/model"

// Type names one event on the player surface.
type Type string

// Synthetic events produced by the core.
const (
	TypeStateChange   Type = "state_change"
	TypeTimeUpdate    Type = "time_update"
	TypeReady         Type = "ready"
	TypeReadying      Type = "readying"
	TypeUnready       Type = "unready"
	TypeBuffering     Type = "buffering"
	TypeBitrateChange Type = "bitrate_change"
	TypePlayerStopped Type = "player_stopped"
	TypeError         Type = "error"

	TypeInterstitialStarted      Type = "interstitial_started"
	TypeInterstitialEnded        Type = "interstitial_ended"
	TypeInterstitialAssetStarted Type = "interstitial_asset_started"
	TypeInterstitialAssetEnded   Type = "interstitial_asset_ended"
)

// Media lifecycle events mirrored 1:1 from the media element.
const (
	TypePlay         Type = "play"
	TypePlaying      Type = "playing"
	TypePause        Type = "pause"
	TypeWaiting      Type = "waiting"
	TypeSeeking      Type = "seeking"
	TypeSeeked       Type = "seeked"
	TypeVolumeChange Type = "volume_change"
	TypeEnded        Type = "ended"
	TypeLoadedData   Type = "loadeddata"
)

// ErrorPayload carries a normalized error record. Fatal duplicates
// ErrorData.Fatal so consumers can branch without unpacking the record.
type ErrorPayload struct {
	ErrorData model.ErrorRecord
	Fatal     bool
}

// BitratePayload carries the new level after a bitrate switch.
type BitratePayload struct {
	Bitrate int
	Width   int
	Height  int
}

// InterstitialPayload carries ad-break lifecycle details.
type InterstitialPayload struct {
	InterstitialID string
	Event          string
	AssetID        string
	Progress       float64
	TrackingURLs   []string
}

// Event is the tagged union delivered to subscribers.
type Event struct {
	Type         Type
	State        *model.PlayerState
	Error        *ErrorPayload
	Bitrate      *BitratePayload
	Interstitial *InterstitialPayload
}
