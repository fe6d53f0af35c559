// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/uniplay/internal/selector"
	"github.com/ManuGH/uniplay/pkg/engine"
	"github.com/ManuGH/uniplay/pkg/event"
	"github.com/ManuGH/uniplay/pkg/media"
	"github.com/ManuGH/uniplay/pkg/media/mediatest"
	"github.com/ManuGH/uniplay/pkg/model"
)

type fakeHLS struct {
	cb        engine.HLSCallbacks
	loadSrc   string
	loadErr   error
	destroyed bool

	levels  []model.VideoLevel
	current int
	tracks  []model.AudioTrack
	track   string

	live    bool
	syncPos float64
	window  float64
	hasLive bool
}

func (f *fakeHLS) factory() engine.HLSFactory {
	return func(_ media.Element, cb engine.HLSCallbacks) engine.HLS {
		f.cb = cb
		return f
	}
}

func (f *fakeHLS) Load(_ context.Context, src string) error {
	f.loadSrc = src
	return f.loadErr
}
func (f *fakeHLS) Destroy() { f.destroyed = true }

func (f *fakeHLS) Levels() []model.VideoLevel { return f.levels }

func (f *fakeHLS) CurrentLevel() int { return f.current }

func (f *fakeHLS) AudioTracks() []model.AudioTrack { return f.tracks }

func (f *fakeHLS) SetAudioTrack(id string) error { f.track = id; return nil }

func (f *fakeHLS) SetTextTrack(string) error { return nil }

func (f *fakeHLS) IsLive() bool { return f.live }

func (f *fakeHLS) LiveSyncPosition() (float64, bool) {
	return f.syncPos, f.hasLive
}
func (f *fakeHLS) LiveWindow() (float64, bool) {
	return f.window, f.hasLive
}

type fakeDASH struct {
	cb        engine.DASHCallbacks
	loadSrc   string
	loadErr   error
	destroyed bool

	levels  []model.VideoLevel
	current int
	tracks  []model.AudioTrack

	dynamic bool
	edge    float64
	window  float64
	hasLive bool
}

func (f *fakeDASH) factory() engine.DASHFactory {
	return func(_ media.Element, cb engine.DASHCallbacks) engine.DASH {
		f.cb = cb
		return f
	}
}

func (f *fakeDASH) Load(_ context.Context, src string) error {
	f.loadSrc = src
	return f.loadErr
}
func (f *fakeDASH) Destroy() { f.destroyed = true }

func (f *fakeDASH) Levels() []model.VideoLevel { return f.levels }

func (f *fakeDASH) CurrentLevel() int { return f.current }

func (f *fakeDASH) AudioTracks() []model.AudioTrack { return f.tracks }

func (f *fakeDASH) SetAudioTrack(string) error { return nil }

func (f *fakeDASH) SetTextTrack(string) error { return nil }

func (f *fakeDASH) IsDynamic() bool { return f.dynamic }

func (f *fakeDASH) LiveEdge() (float64, bool) { return f.edge, f.hasLive }

func (f *fakeDASH) SeekableWindow() (float64, bool) { return f.window, f.hasLive }

type fakeWebRTC struct {
	cb engine.WebRTCCallbacks

	answeredOffer string
	appliedAnswer string
	closed        bool
}

func (f *fakeWebRTC) factory() engine.WebRTCFactory {
	return func(_ media.Element, cb engine.WebRTCCallbacks) engine.WebRTC {
		f.cb = cb
		return f
	}
}

func (f *fakeWebRTC) CreateOffer(context.Context) (string, error) {
	return "local-offer-sdp", nil
}
func (f *fakeWebRTC) AnswerRemoteOffer(_ context.Context, offer string) (string, error) {
	f.answeredOffer = offer
	return "local-answer-sdp", nil
}
func (f *fakeWebRTC) ApplyRemoteAnswer(_ context.Context, answer string) error {
	f.appliedAnswer = answer
	return nil
}
func (f *fakeWebRTC) Close() { f.closed = true }

type recorder struct {
	events []event.Event
}

func record(b Backend) *recorder {
	r := &recorder{}
	b.Bus().SubscribeAll(func(ev event.Event) {
		r.events = append(r.events, ev)
	})
	return r
}

func (r *recorder) types() []event.Type {
	out := make([]event.Type, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func (r *recorder) count(t event.Type) int {
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func (r *recorder) lastError() *event.ErrorPayload {
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == event.TypeError {
			return r.events[i].Error
		}
	}
	return nil
}

func TestNativeLoadAssignsSourceAndAutoplays(t *testing.T) {
	el := mediatest.New()
	b, err := New(selector.KindNative, Deps{Element: el})
	require.NoError(t, err)
	r := record(b)

	require.NoError(t, b.Load(context.Background(), "https://example.com/live.m3u8", true))

	assert.Equal(t, "https://example.com/live.m3u8", el.Source)
	assert.Equal(t, 1, el.LoadCalls)
	assert.Equal(t, 1, el.PlayCalls)
	assert.Equal(t, model.StateLoading, b.State().State)
	assert.Contains(t, r.types(), event.TypeReadying)

	el.Dispatch(media.EventLoadedData)
	assert.Equal(t, model.StateReady, b.State().State)
	assert.Equal(t, 1, r.count(event.TypeReady))
}

func TestNativeLiveDetectionFromUnboundedDuration(t *testing.T) {
	el := mediatest.New()
	el.Dur = math.Inf(1)
	b, err := New(selector.KindNative, Deps{Element: el})
	require.NoError(t, err)

	require.NoError(t, b.Load(context.Background(), "https://example.com/live.m3u8", false))
	assert.False(t, b.IsLive())

	el.Dispatch(media.EventLoadedData)
	assert.True(t, b.IsLive())
	assert.True(t, model.IsUnbounded(b.State().Duration))
}

func TestNativeDestroySilencesAndReleases(t *testing.T) {
	el := mediatest.New()
	b, err := New(selector.KindNative, Deps{Element: el})
	require.NoError(t, err)
	r := record(b)

	require.NoError(t, b.Load(context.Background(), "https://example.com/vod.m3u8", false))
	b.Destroy()

	assert.Contains(t, r.types(), event.TypeUnready)
	assert.Empty(t, el.Source)
	assert.Zero(t, el.ListenerCount())
	assert.True(t, b.Bus().Closed())

	before := len(r.events)
	el.Dispatch(media.EventPlay)
	assert.Equal(t, before, len(r.events), "a destroyed backend must emit nothing")
}

func newHLSBackend(t *testing.T, el *mediatest.Element, f *fakeHLS) Backend {
	t.Helper()
	b, err := New(selector.KindHLSEngine, Deps{
		Element: el,
		Client:  http.DefaultClient,
		Engines: Engines{HLS: f.factory()},
	})
	require.NoError(t, err)
	return b
}

func TestHLSManifestParsedSetsLivenessAndTracks(t *testing.T) {
	el := mediatest.New()
	f := &fakeHLS{tracks: []model.AudioTrack{{ID: "a1", Language: "de"}}}
	b := newHLSBackend(t, el, f)

	require.NoError(t, b.Load(context.Background(), "https://example.com/live.m3u8", false))
	f.cb.ManifestParsed(engine.HLSDetails{Live: true})

	assert.True(t, b.IsLive())
	assert.Equal(t, []model.AudioTrack{{ID: "a1", Language: "de"}}, b.AudioTracks())
	assert.True(t, model.IsUnbounded(b.State().Duration))
}

func TestHLSErrorIsNormalizedOntoBus(t *testing.T) {
	el := mediatest.New()
	f := &fakeHLS{}
	b := newHLSBackend(t, el, f)
	r := record(b)

	require.NoError(t, b.Load(context.Background(), "https://example.com/live.m3u8", false))
	f.cb.Error(&engine.HLSErrorData{
		Type:     "networkError",
		Fatal:    true,
		Response: &engine.HTTPResponse{Code: 503, Text: "Service Unavailable"},
	})

	got := r.lastError()
	require.NotNil(t, got)
	assert.Equal(t, model.CategoryNetwork, got.ErrorData.Category)
	assert.Equal(t, "503", got.ErrorData.Code)
	assert.True(t, got.Fatal)
}

func TestHLSLevelSwitchEmitsBitrateChange(t *testing.T) {
	el := mediatest.New()
	f := &fakeHLS{}
	b := newHLSBackend(t, el, f)
	r := record(b)

	require.NoError(t, b.Load(context.Background(), "https://example.com/live.m3u8", false))
	f.cb.LevelSwitched(model.VideoLevel{Bitrate: 4_500_000, Width: 1920, Height: 1080})

	require.Equal(t, 1, r.count(event.TypeBitrateChange))
	for _, ev := range r.events {
		if ev.Type == event.TypeBitrateChange {
			assert.Equal(t, 4_500_000, ev.Bitrate.Bitrate)
			assert.Equal(t, 1080, ev.Bitrate.Height)
		}
	}
}

func TestHLSLiveSeekClampedAndGated(t *testing.T) {
	el := mediatest.New()
	f := &fakeHLS{syncPos: 1000, window: 600, hasLive: true}
	b := newHLSBackend(t, el, f)

	require.NoError(t, b.Load(context.Background(), "https://example.com/live.m3u8", false))
	f.cb.ManifestParsed(engine.HLSDetails{Live: true})

	// Target beyond the live-sync position is clamped to it.
	b.SeekTo(2000)
	assert.Equal(t, 1000.0, el.Time)

	// A shrunken window disables seeking outright.
	f.window = 100
	b.SeekTo(500)
	assert.Equal(t, 1000.0, el.Time, "seek below window threshold must be ignored")
}

func TestHLSSeekToLiveJumpsToSyncPosition(t *testing.T) {
	el := mediatest.New()
	f := &fakeHLS{syncPos: 740, window: 600, hasLive: true}
	b := newHLSBackend(t, el, f)

	require.NoError(t, b.Load(context.Background(), "https://example.com/live.m3u8", false))
	f.cb.ManifestParsed(engine.HLSDetails{Live: true})

	el.Time = 100
	assert.False(t, b.IsAtLiveEdge())
	b.SeekToLive()
	assert.Equal(t, 740.0, el.Time)
	assert.True(t, b.IsAtLiveEdge())
}

func TestHLSDestroyTearsDownEngine(t *testing.T) {
	el := mediatest.New()
	f := &fakeHLS{}
	b := newHLSBackend(t, el, f)

	require.NoError(t, b.Load(context.Background(), "https://example.com/live.m3u8", false))
	b.Destroy()

	assert.True(t, f.destroyed)
	assert.True(t, b.Bus().Closed())
	assert.Zero(t, el.ListenerCount())
}

func TestHLSLoadFailurePropagates(t *testing.T) {
	el := mediatest.New()
	f := &fakeHLS{loadErr: errors.New("manifest unreachable")}
	b := newHLSBackend(t, el, f)

	err := b.Load(context.Background(), "https://example.com/live.m3u8", true)
	require.Error(t, err)
	assert.Zero(t, el.PlayCalls, "autoplay must not run after a failed load")
}

func TestDASHStreamInitialized(t *testing.T) {
	el := mediatest.New()
	f := &fakeDASH{dynamic: true, tracks: []model.AudioTrack{{ID: "a1"}}}
	b, err := New(selector.KindDASHEngine, Deps{
		Element: el,
		Engines: Engines{DASH: f.factory()},
	})
	require.NoError(t, err)
	r := record(b)

	require.NoError(t, b.Load(context.Background(), "https://example.com/stream.mpd", false))
	f.cb.StreamInitialized(engine.DASHDetails{Dynamic: true, Duration: 0})
	f.cb.QualityChanged(model.VideoLevel{Bitrate: 2_000_000})

	assert.True(t, b.IsLive())
	assert.Len(t, b.AudioTracks(), 1)
	assert.Equal(t, 1, r.count(event.TypeBitrateChange))
}

func TestDASHErrorSeverityMapping(t *testing.T) {
	el := mediatest.New()
	f := &fakeDASH{}
	b, err := New(selector.KindDASHEngine, Deps{
		Element: el,
		Engines: Engines{DASH: f.factory()},
	})
	require.NoError(t, err)
	r := record(b)
	require.NoError(t, b.Load(context.Background(), "https://example.com/stream.mpd", false))

	f.cb.Error(&engine.DASHErrorData{Code: 25, Message: "manifest parse warning", Severity: 1})
	got := r.lastError()
	require.NotNil(t, got)
	assert.False(t, got.Fatal)

	f.cb.Error(&engine.DASHErrorData{Code: 10, Message: "decode broke", Severity: 2})
	got = r.lastError()
	require.NotNil(t, got)
	assert.True(t, got.Fatal)
	assert.Equal(t, "10", got.ErrorData.Code)
}

func whppServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var puts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/channel", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Location", "/channel/session-1")
		w.Header().Set("Content-Type", "application/whpp+json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"offer": "remote-offer-sdp"}`))
	})
	mux.HandleFunc("/channel/session-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "local-answer-sdp")
		puts.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &puts
}

func TestWHPPHandshake(t *testing.T) {
	srv, puts := whppServer(t)
	el := mediatest.New()
	rtc := &fakeWebRTC{}
	b, err := New(selector.KindWHPP, Deps{
		Element: el,
		Client:  srv.Client(),
		Engines: Engines{WebRTC: rtc.factory()},
	})
	require.NoError(t, err)

	require.NoError(t, b.Load(context.Background(), srv.URL+"/channel", true))

	assert.Equal(t, "remote-offer-sdp", rtc.answeredOffer)
	assert.EqualValues(t, 1, puts.Load())
	assert.Equal(t, 1, el.PlayCalls)

	// Connected forces liveness regardless of any manifest.
	rtc.cb.Connected()
	assert.True(t, b.IsLive())

	b.Destroy()
	assert.True(t, rtc.closed)
}

func TestWHEPHandshake(t *testing.T) {
	var gotOffer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/sdp", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		gotOffer = string(body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("remote-answer-sdp"))
	}))
	t.Cleanup(srv.Close)

	el := mediatest.New()
	rtc := &fakeWebRTC{}
	b, err := New(selector.KindWHEP, Deps{
		Element: el,
		Client:  srv.Client(),
		Engines: Engines{WebRTC: rtc.factory()},
	})
	require.NoError(t, err)

	require.NoError(t, b.Load(context.Background(), srv.URL, false))
	assert.Equal(t, "local-offer-sdp", gotOffer)
	assert.Equal(t, "remote-answer-sdp", rtc.appliedAnswer)
}

func TestChannelSignalingOverWebSocket(t *testing.T) {
	answers := make(chan channelMessage, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = c.Close() }()
		_ = c.WriteJSON(channelMessage{Type: "offer", SDP: "remote-offer-sdp"})
		var ans channelMessage
		if err := c.ReadJSON(&ans); err == nil {
			answers <- ans
		}
	}))
	t.Cleanup(srv.Close)

	el := mediatest.New()
	rtc := &fakeWebRTC{}
	b, err := New(selector.KindWebRTCChannel, Deps{
		Element: el,
		Client:  srv.Client(),
		Engines: Engines{WebRTC: rtc.factory()},
	})
	require.NoError(t, err)

	require.NoError(t, b.Load(context.Background(), srv.URL, false))
	assert.Equal(t, "remote-offer-sdp", rtc.answeredOffer)

	select {
	case ans := <-answers:
		assert.Equal(t, "answer", ans.Type)
		assert.Equal(t, "local-answer-sdp", ans.SDP)
	case <-time.After(time.Second):
		t.Fatal("server never received the answer")
	}

	b.Destroy()
	assert.True(t, rtc.closed)
}

func TestMSSDelegatesToWebRTCPeriod(t *testing.T) {
	srv, _ := whppServer(t)
	el := mediatest.New()
	dash := &fakeDASH{}
	rtc := &fakeWebRTC{}
	b, err := New(selector.KindMSS, Deps{
		Element: el,
		Client:  srv.Client(),
		Engines: Engines{DASH: dash.factory(), WebRTC: rtc.factory()},
	})
	require.NoError(t, err)

	require.NoError(t, b.Load(context.Background(), "https://example.com/stream.ism/Manifest", false))
	mss, ok := b.(*mssBackend)
	require.True(t, ok)
	assert.Equal(t, ModeNormal, mss.Mode())

	dash.cb.WebRTCPeriod(srv.URL + "/channel")

	assert.Equal(t, ModeDelegatedWebRTC, mss.Mode())
	assert.True(t, dash.destroyed, "the streaming engine must be gone before the peer connection owns the element")
	assert.Equal(t, "remote-offer-sdp", rtc.answeredOffer)
	assert.True(t, b.IsLive(), "delegation forces liveness")

	// A second period signal is idempotent.
	dash.cb.WebRTCPeriod(srv.URL + "/channel")
	assert.Equal(t, ModeDelegatedWebRTC, mss.Mode())

	b.Destroy()
	assert.True(t, rtc.closed)
	assert.Zero(t, el.ListenerCount())
}

func TestFactoryValidation(t *testing.T) {
	el := mediatest.New()

	_, err := New(selector.KindHLSEngine, Deps{Element: el})
	assert.Error(t, err)

	_, err = New(selector.KindMSS, Deps{Element: el, Engines: Engines{DASH: (&fakeDASH{}).factory()}})
	assert.Error(t, err)

	_, err = New(selector.KindNone, Deps{Element: el})
	assert.Error(t, err)
}

func TestUnsupportedOperationsOnNative(t *testing.T) {
	el := mediatest.New()
	b, err := New(selector.KindNative, Deps{Element: el})
	require.NoError(t, err)

	assert.ErrorIs(t, b.SetAudioTrack("a1"), ErrUnsupportedOperation)
	assert.ErrorIs(t, b.SetTextTrack("s1"), ErrUnsupportedOperation)
	assert.Nil(t, b.VideoLevels())
	assert.Equal(t, -1, b.CurrentLevel())
}
