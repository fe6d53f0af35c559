// SPDX-License-Identifier: MIT

// Package live computes liveness, live-edge proximity and seek clamping for
// live content. Everything here is deterministic and side-effect free; the
// state machine calls it on every time-update tick.
package live

// Defaults used when the embedding application configures nothing.
const (
	// DefaultEdgeMargin is how close (seconds) to the live-sync position a
	// playhead may lag and still count as at the live edge.
	DefaultEdgeMargin = 10.0
	// DefaultMinSeekableWindow is the live window (seconds) a stream must
	// retain before seeking is enabled at all. Below it, seeks would land in
	// an unbuffered or already-evicted part of the window.
	DefaultMinSeekableWindow = 300.0
)

// Policy holds the live-edge tunables.
type Policy struct {
	EdgeMargin        float64
	MinSeekableWindow float64
}

// Default returns the policy with default tunables.
func Default() Policy {
	return Policy{
		EdgeMargin:        DefaultEdgeMargin,
		MinSeekableWindow: DefaultMinSeekableWindow,
	}
}

// IsLive passes the engine's dynamic flag through, except while a WebRTC
// delegation is active: the transport has no concept of VOD, so liveness is
// forced true.
func (p Policy) IsLive(engineLive, delegatedWebRTC bool) bool {
	if delegatedWebRTC {
		return true
	}
	return engineLive
}

// IsAtLiveEdge reports whether currentTime is within EdgeMargin of the
// live-sync position.
func (p Policy) IsAtLiveEdge(currentTime, liveSyncPosition float64) bool {
	return currentTime >= liveSyncPosition-p.EdgeMargin
}

// IsSeekable reports whether seeking is allowed. On-demand content is always
// seekable; live content only once the window has reached the minimum
// threshold, regardless of UI intent.
func (p Policy) IsSeekable(isLive bool, windowDuration float64) bool {
	if !isLive {
		return true
	}
	return windowDuration >= p.MinSeekableWindow
}

// ClampSeek caps a live seek target at the live-sync position. On-demand
// targets pass through unclamped.
func (p Policy) ClampSeek(target, liveSyncPosition float64, isLive bool) float64 {
	if !isLive {
		return target
	}
	if target > liveSyncPosition {
		return liveSyncPosition
	}
	return target
}
