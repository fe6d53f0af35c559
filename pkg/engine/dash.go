// SPDX-License-Identifier: MIT

package engine

import (
	"context"

	"github.com/ManuGH/uniplay/pkg/media"
	"github.com/ManuGH/uniplay/pkg/model"
)

// DASHDetails is the manifest truth the engine reports once a stream is
// initialized. Dynamic is the MPD type flag (dynamic = live).
type DASHDetails struct {
	Dynamic  bool
	Duration float64
}

// DASHCallbacks are the engine events the DASH and MSS backends consume.
// WebRTCPeriod fires when a SmoothStreaming manifest signals a WebRTC period,
// handing the MSS backend the channel URL to delegate to.
type DASHCallbacks struct {
	Error             func(*DASHErrorData)
	StreamInitialized func(DASHDetails)
	QualityChanged    func(model.VideoLevel)
	WebRTCPeriod      func(channelURL string)
}

// DASH is the port to the DASH/MSS streaming engine.
type DASH interface {
	Load(ctx context.Context, src string) error
	Destroy()

	Levels() []model.VideoLevel
	CurrentLevel() int
	AudioTracks() []model.AudioTrack
	SetAudioTrack(id string) error
	SetTextTrack(id string) error

	IsDynamic() bool
	LiveEdge() (float64, bool)
	SeekableWindow() (float64, bool)
}

// DASHFactory constructs an engine bound to the media element with the given
// callbacks attached.
type DASHFactory func(el media.Element, cb DASHCallbacks) DASH
