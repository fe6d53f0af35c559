// SPDX-License-Identifier: MIT

// Package interstitial manages ad-break tracking sessions: signaling
// acquisition, quartile detection and beacon firing with per-session
// duplicate suppression.
package interstitial

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ManuGH/uniplay/internal/log"
	"github.com/ManuGH/uniplay/internal/metrics"
	"github.com/ManuGH/uniplay/pkg/engine"
	"github.com/ManuGH/uniplay/pkg/event"
)

// Tracking event names, in timeline order.
const (
	EventStart         = "start"
	EventFirstQuartile = "firstQuartile"
	EventMidpoint      = "midpoint"
	EventThirdQuartile = "thirdQuartile"
	EventComplete      = "complete"
)

// SessionState is the lifecycle phase of one ad-break occurrence.
type SessionState int

const (
	NoSession SessionState = iota
	AssetListPending
	AssetPlaying
	Ended
)

// String returns a human-readable label for the session state.
func (s SessionState) String() string {
	switch s {
	case AssetListPending:
		return "asset-list-pending"
	case AssetPlaying:
		return "asset-playing"
	case Ended:
		return "ended"
	default:
		return "no-session"
	}
}

type firedKey struct {
	url   string
	event string
}

// session is one ad-break occurrence. Its dedup set and caches die with it;
// a later session may fire the same URLs again.
type session struct {
	id           string
	token        string
	state        SessionState
	fired        map[firedKey]struct{}
	signaling    *engine.TrackingSignaling
	asset        *engine.InterstitialAsset
	progress     float64
	pendingStart bool
}

// Tracker is owned by the HLS backend and reset to no-session whenever that
// backend is torn down.
type Tracker struct {
	mu     sync.Mutex
	client engine.Doer
	bus    *event.Bus
	logger zerolog.Logger
	sf     singleflight.Group

	// cache holds signaling per interstitial identifier so ranked sources 1
	// and 2 are consulted before any fallback fetch, and repeated occurrences
	// of the same identifier skip the network entirely.
	cache map[string]*engine.TrackingSignaling
	sess  *session
}

// New returns a tracker firing beacons through the given network layer.
func New(client engine.Doer, bus *event.Bus) *Tracker {
	return &Tracker{
		client: client,
		bus:    bus,
		logger: log.WithComponent("interstitial"),
		cache:  make(map[string]*engine.TrackingSignaling),
	}
}

// Reset drops the active session without firing anything. Called on backend
// teardown.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sess = nil
}

// State returns the current session state.
func (t *Tracker) State() SessionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sess == nil {
		return NoSession
	}
	return t.sess.state
}

// SessionToken returns the active session token, empty when no session runs.
func (t *Tracker) SessionToken() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sess == nil {
		return ""
	}
	return t.sess.token
}

// mintToken produces a fresh session token per occurrence. A uuid keeps
// tokens unique even when the same identifier starts twice within one
// millisecond, which an identifier+timestamp scheme would not.
func mintToken(id string) string {
	return id + "." + uuid.NewString()
}

// OnInterstitialStarted begins a new tracking session. A fresh token always
// differs from the remembered one, so the dedup-fired set starts empty and a
// re-entrant ad break may re-fire URLs an earlier occurrence already fired.
func (t *Tracker) OnInterstitialStarted(ctx context.Context, ev engine.InterstitialStartData) {
	t.mu.Lock()
	token := mintToken(ev.ID)
	t.sess = &session{
		id:    ev.ID,
		token: token,
		state: AssetListPending,
		fired: make(map[firedKey]struct{}),
	}

	// Ranked signaling sources, first available wins.
	switch {
	case !t.cache[ev.ID].Empty():
		t.adoptSignalingLocked(t.cache[ev.ID], "capture")
	case !ev.Signaling.Empty():
		t.adoptSignalingLocked(ev.Signaling, "payload")
	case ev.AssetListURL != "":
		go t.fallbackFetch(ctx, ev.ID, token, ev.AssetListURL)
	}
	t.mu.Unlock()

	t.bus.Emit(event.Event{
		Type: event.TypeInterstitialStarted,
		Interstitial: &event.InterstitialPayload{
			InterstitialID: ev.ID,
			Event:          "started",
		},
	})
}

// CaptureAssetList records signaling the engine loaded as part of normal
// playback (ranked source 1). It also satisfies a waiting session.
func (t *Tracker) CaptureAssetList(id string, list engine.AssetList) {
	if list.Signaling.Empty() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache[id] = list.Signaling
	if t.sess != nil && t.sess.id == id && t.sess.signaling.Empty() {
		t.adoptSignalingLocked(list.Signaling, "capture")
	}
}

// OnAssetStarted marks an asset as playing and fires "start" exactly once,
// deferring it until signaling arrives if playback got there first.
func (t *Tracker) OnAssetStarted(asset engine.InterstitialAsset) {
	t.mu.Lock()
	if t.sess == nil {
		t.mu.Unlock()
		return
	}
	a := asset
	t.sess.asset = &a
	t.sess.state = AssetPlaying
	t.sess.progress = 0
	if t.sess.signaling.Empty() {
		t.sess.pendingStart = true
	} else {
		t.fireLocked(EventStart)
	}
	urls := t.urlsLocked(EventStart)
	id := t.sess.id
	t.mu.Unlock()

	t.bus.Emit(event.Event{
		Type: event.TypeInterstitialAssetStarted,
		Interstitial: &event.InterstitialPayload{
			InterstitialID: id,
			Event:          EventStart,
			AssetID:        asset.ID,
			Progress:       0,
			TrackingURLs:   urls,
		},
	})
}

// OnTimeUpdate recomputes asset progress and fires the quartile whose window
// the playhead sits in. Dedup keeps each (url, event) pair to one attempt per
// session.
func (t *Tracker) OnTimeUpdate(currentTime float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sess == nil || t.sess.state != AssetPlaying || t.sess.asset == nil {
		return
	}
	a := t.sess.asset
	if a.Duration <= 0 {
		return
	}
	progress := (currentTime - a.StartOffset) / a.Duration * 100
	if progress < 0 {
		progress = 0
	} else if progress > 100 {
		progress = 100
	}
	t.sess.progress = progress
	if q := quartileFor(progress); q != "" {
		t.fireLocked(q)
	}
}

// quartileFor maps a progress percentage to its quartile window.
func quartileFor(progress float64) string {
	switch {
	case progress >= 25 && progress < 50:
		return EventFirstQuartile
	case progress >= 50 && progress < 75:
		return EventMidpoint
	case progress >= 75 && progress < 100:
		return EventThirdQuartile
	default:
		return ""
	}
}

// OnAssetEnded fires "complete" exactly once and clears the asset pointer.
func (t *Tracker) OnAssetEnded(assetID string) {
	t.mu.Lock()
	if t.sess == nil {
		t.mu.Unlock()
		return
	}
	t.fireLocked(EventComplete)
	t.sess.asset = nil
	t.sess.progress = 100
	urls := t.urlsLocked(EventComplete)
	id := t.sess.id
	t.mu.Unlock()

	t.bus.Emit(event.Event{
		Type: event.TypeInterstitialAssetEnded,
		Interstitial: &event.InterstitialPayload{
			InterstitialID: id,
			Event:          EventComplete,
			AssetID:        assetID,
			Progress:       100,
			TrackingURLs:   urls,
		},
	})
}

// OnInterstitialEnded destroys the session and releases that identifier's
// cache; other cached identifiers are unaffected.
func (t *Tracker) OnInterstitialEnded(id string) {
	t.mu.Lock()
	if t.sess != nil && t.sess.id == id {
		t.sess.state = Ended
		t.sess = nil
		delete(t.cache, id)
	}
	t.mu.Unlock()

	t.bus.Emit(event.Event{
		Type: event.TypeInterstitialEnded,
		Interstitial: &event.InterstitialPayload{
			InterstitialID: id,
			Event:          "ended",
		},
	})
}

func (t *Tracker) adoptSignalingLocked(s *engine.TrackingSignaling, source string) {
	t.sess.signaling = s
	t.cache[t.sess.id] = s
	metrics.IncSignalingSource(source)
	if t.sess.pendingStart {
		t.sess.pendingStart = false
		t.fireLocked(EventStart)
	}
}

func (t *Tracker) urlsLocked(eventName string) []string {
	if t.sess == nil || t.sess.signaling == nil {
		return nil
	}
	return t.sess.signaling.Events[eventName]
}

// fireLocked attempts every URL for the event, in list order. Each fire is
// independent: one failing beacon never blocks the others, and failures are
// swallowed (best-effort telemetry).
func (t *Tracker) fireLocked(eventName string) {
	urls := t.urlsLocked(eventName)
	for _, u := range urls {
		key := firedKey{url: u, event: eventName}
		if _, done := t.sess.fired[key]; done {
			metrics.IncTrackingDedup(eventName)
			continue
		}
		t.sess.fired[key] = struct{}{}
		metrics.IncTrackingFire(eventName)
		t.fireURL(u, eventName)
	}
}

func (t *Tracker) fireURL(url, eventName string) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.logger.Debug().Err(err).Str("url", url).Msg("invalid tracking url")
		return
	}
	go func() {
		resp, err := t.client.Do(req)
		if err != nil {
			t.logger.Debug().Err(err).Str("url", url).Str("event", eventName).Msg("tracking fire failed")
			return
		}
		if err := resp.Body.Close(); err != nil {
			t.logger.Debug().Err(err).Msg("failed to close tracking response body")
		}
	}()
}

// assetListDoc is the fallback asset-list wire shape.
type assetListDoc struct {
	Assets []struct {
		URI      string  `json:"URI"`
		Duration float64 `json:"DURATION"`
	} `json:"ASSETS"`
	TrackingEvents map[string][]string `json:"trackingEvents"`
}

// fallbackFetch is ranked source 3: an explicit fetch of the asset-list URL,
// attempted only when capture and payload produced nothing. singleflight
// collapses concurrent fetches per identifier. A completion arriving after
// the session changed is a no-op.
func (t *Tracker) fallbackFetch(ctx context.Context, id, token, url string) {
	v, err, _ := t.sf.Do(id, func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := t.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				t.logger.Debug().Err(err).Msg("failed to close asset list response body")
			}
		}()
		var doc assetListDoc
		if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
			return nil, err
		}
		return &engine.TrackingSignaling{Events: doc.TrackingEvents}, nil
	})
	if err != nil {
		t.logger.Debug().Err(err).Str("interstitial_id", id).Msg("fallback asset list fetch failed")
		return
	}

	signaling, ok := v.(*engine.TrackingSignaling)
	if !ok || signaling.Empty() {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sess == nil || t.sess.token != token {
		return
	}
	t.adoptSignalingLocked(signaling, "fallback")
}
