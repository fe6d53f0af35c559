// SPDX-License-Identifier: MIT

// Package mediatest provides a scripted in-memory media element for tests.
package mediatest

import (
	"sync"

	"github.com/ManuGH/uniplay/pkg/media"
)

// Element is a fake media.Element. Tests mutate its fields and call Dispatch
// to replay the lifecycle events a real element would emit.
type Element struct {
	mu        sync.Mutex
	listeners map[media.EventKind]map[int]func()
	nextID    int

	Time      float64
	Dur       float64
	Vol       float64
	IsMuted   bool
	Source    string
	LastError *media.Error

	SeekStart   float64
	SeekEnd     float64
	HasSeekable bool

	PlayCalls  int
	PauseCalls int
	LoadCalls  int
}

// New returns an element with volume 1 and no source.
func New() *Element {
	return &Element{
		listeners: make(map[media.EventKind]map[int]func()),
		Vol:       1,
	}
}

func (e *Element) Play()  { e.PlayCalls++ }
func (e *Element) Pause() { e.PauseCalls++ }
func (e *Element) Load()  { e.LoadCalls++ }

func (e *Element) CurrentTime() float64 { return e.Time }
func (e *Element) SetCurrentTime(s float64) {
	e.Time = s
}
func (e *Element) Duration() float64 { return e.Dur }

func (e *Element) Volume() float64     { return e.Vol }
func (e *Element) SetVolume(v float64) { e.Vol = v }
func (e *Element) Muted() bool         { return e.IsMuted }
func (e *Element) SetMuted(m bool)     { e.IsMuted = m }

func (e *Element) Src() string     { return e.Source }
func (e *Element) SetSrc(s string) { e.Source = s }

func (e *Element) SeekableRange() (float64, float64, bool) {
	return e.SeekStart, e.SeekEnd, e.HasSeekable
}

func (e *Element) Err() *media.Error { return e.LastError }

func (e *Element) AddListener(kind media.EventKind, fn func()) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners[kind] == nil {
		e.listeners[kind] = make(map[int]func())
	}
	id := e.nextID
	e.nextID++
	e.listeners[kind][id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners[kind], id)
	}
}

// Dispatch fires every listener registered for kind, in registration order.
func (e *Element) Dispatch(kind media.EventKind) {
	e.mu.Lock()
	fns := make([]func(), 0, len(e.listeners[kind]))
	for id := 0; id < e.nextID; id++ {
		if fn, ok := e.listeners[kind][id]; ok {
			fns = append(fns, fn)
		}
	}
	e.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// ListenerCount reports how many listeners are currently attached across all
// event kinds. Used to assert full detach on teardown.
func (e *Element) ListenerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, m := range e.listeners {
		n += len(m)
	}
	return n
}

// Tick advances the clock and fires a timeupdate.
func (e *Element) Tick(seconds float64) {
	e.Time = seconds
	e.Dispatch(media.EventTimeUpdate)
}

// FailWith records a native error and fires the error event.
func (e *Element) FailWith(code int, msg string) {
	e.LastError = &media.Error{Code: code, Message: msg}
	e.Dispatch(media.EventError)
}
