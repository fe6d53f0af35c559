// SPDX-License-Identifier: MIT

package engine

import (
	"context"

	"github.com/ManuGH/uniplay/pkg/media"
	"github.com/ManuGH/uniplay/pkg/model"
)

// HLSDetails is the playlist truth the engine reports after (re)loading a
// level playlist. Live comes from the playlist's dynamic flag, never inferred
// from duration.
type HLSDetails struct {
	Live             bool
	TotalDuration    float64 // total playlist duration (live window for live)
	LiveSyncPosition float64
}

// HLSCallbacks are the engine events the HLS backend consumes. Unset
// callbacks are skipped by the engine.
type HLSCallbacks struct {
	Error          func(*HLSErrorData)
	ManifestParsed func(HLSDetails)
	LevelSwitched  func(model.VideoLevel)

	InterstitialStarted func(InterstitialStartData)
	InterstitialEnded   func(id string)
	AssetListLoaded     func(id string, list AssetList)
	AssetStarted        func(InterstitialAsset)
	AssetEnded          func(assetID string)
}

// HLS is the port to the HLS streaming engine.
type HLS interface {
	Load(ctx context.Context, src string) error
	Destroy()

	Levels() []model.VideoLevel
	CurrentLevel() int
	AudioTracks() []model.AudioTrack
	SetAudioTrack(id string) error
	SetTextTrack(id string) error

	IsLive() bool
	LiveSyncPosition() (float64, bool)
	LiveWindow() (float64, bool)
}

// HLSFactory constructs an engine bound to the media element with the given
// callbacks attached.
type HLSFactory func(el media.Element, cb HLSCallbacks) HLS
