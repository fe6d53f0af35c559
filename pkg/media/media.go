// SPDX-License-Identifier: MIT

// Package media defines the port to the host media element. The playback core
// observes the element and mirrors its lifecycle events; only the active
// backend ever assigns its source or drives native load/play/pause.
package media

// EventKind names one standard media lifecycle event.
type EventKind string

const (
	EventPlay         EventKind = "play"
	EventPlaying      EventKind = "playing"
	EventPause        EventKind = "pause"
	EventWaiting      EventKind = "waiting"
	EventSeeking      EventKind = "seeking"
	EventSeeked       EventKind = "seeked"
	EventTimeUpdate   EventKind = "timeupdate"
	EventVolumeChange EventKind = "volumechange"
	EventEnded        EventKind = "ended"
	EventLoadedData   EventKind = "loadeddata"
	EventError        EventKind = "error"
)

// Error is the element's native decode/playback error, readable after an
// EventError fires (HTMLMediaElement .error semantics).
type Error struct {
	Code    int
	Message string
}

// Element is the media-element contract consumed by the core. Listener
// callbacks run synchronously on the host's event loop; AddListener returns
// the function that detaches the listener again.
type Element interface {
	Play()
	Pause()
	Load()

	CurrentTime() float64
	SetCurrentTime(seconds float64)
	Duration() float64

	Volume() float64
	SetVolume(v float64)
	Muted() bool
	SetMuted(muted bool)

	Src() string
	SetSrc(src string)

	// SeekableRange returns the element's seekable time range, when known.
	SeekableRange() (start, end float64, ok bool)

	Err() *Error

	AddListener(kind EventKind, fn func()) (remove func())
}
