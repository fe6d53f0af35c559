// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/ManuGH/uniplay/internal/errmap"
	"github.com/ManuGH/uniplay/pkg/engine"
)

const (
	kindNameChannel = "webrtc-channel"
	kindNameWHEP    = "whep"
	kindNameWHPP    = "whpp"
)

// signalFunc performs one signaling exchange against src and completes the
// peer-connection handshake on the leg's engine.
type signalFunc func(ctx context.Context, l *webrtcLeg, src string) error

// webrtcLeg owns a peer connection and its signaling session. It is embedded
// by the standalone WebRTC backends and grafted onto the MSS backend when a
// manifest delegates a period to WebRTC; events always surface on the owner's
// bus.
type webrtcLeg struct {
	owner   *base
	factory engine.WebRTCFactory
	client  engine.Doer
	signal  signalFunc

	eng  engine.WebRTC
	conn *websocket.Conn
}

func newLeg(owner *base, factory engine.WebRTCFactory, client engine.Doer, signal signalFunc) *webrtcLeg {
	return &webrtcLeg{owner: owner, factory: factory, client: client, signal: signal}
}

func (l *webrtcLeg) connect(ctx context.Context, src string) error {
	l.eng = l.factory(l.owner.el, engine.WebRTCCallbacks{
		Error: func(raw *engine.WebRTCErrorData) {
			l.owner.emitError(errmap.NormalizeWebRTC(raw))
		},
		Connected: func() {
			// The transport has no VOD concept.
			l.owner.setLive(true)
		},
		Disconnected: func() {
			l.owner.logger.Debug().Msg("peer connection lost")
		},
	})
	if err := l.signal(ctx, l, src); err != nil {
		l.close()
		return err
	}
	return nil
}

func (l *webrtcLeg) close() {
	if l.conn != nil {
		_ = l.conn.Close()
		l.conn = nil
	}
	if l.eng != nil {
		l.eng.Close()
		l.eng = nil
	}
}

// webrtcBackend is a standalone WebRTC playback backend; the signaling
// protocol is the only thing distinguishing the channel, WHEP and WHPP kinds.
type webrtcBackend struct {
	*base
	leg *webrtcLeg
}

func newWebRTC(name string, deps Deps, signal signalFunc) *webrtcBackend {
	b := &webrtcBackend{base: newBase(name, deps)}
	b.leg = newLeg(b.base, deps.Engines.WebRTC, deps.Client, signal)
	return b
}

func (b *webrtcBackend) Load(ctx context.Context, src string, autoplay bool) error {
	b.beginLoad(src)
	if err := b.leg.connect(ctx, src); err != nil {
		return err
	}
	if autoplay {
		b.el.Play()
	}
	return nil
}

func (b *webrtcBackend) Destroy() {
	b.leg.close()
	b.destroyBase()
}

// signalWHEP runs the WHEP handshake: POST the local offer as application/sdp
// and apply the answer from the response body.
func signalWHEP(ctx context.Context, l *webrtcLeg, src string) error {
	offer, err := l.eng.CreateOffer(ctx)
	if err != nil {
		return fmt.Errorf("whep: create offer: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, src, strings.NewReader(offer))
	if err != nil {
		return fmt.Errorf("whep: %w", err)
	}
	req.Header.Set("Content-Type", "application/sdp")
	req.Header.Set("Accept", "application/sdp")
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("whep: post offer: %w", err)
	}
	defer closeBody(l, resp)
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("whep: unexpected status %d", resp.StatusCode)
	}
	answer, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("whep: read answer: %w", err)
	}
	if err := l.eng.ApplyRemoteAnswer(ctx, string(answer)); err != nil {
		return fmt.Errorf("whep: apply answer: %w", err)
	}
	return nil
}

// whppOfferDoc and whppAnswerDoc are the WHPP wire shapes. The server is the
// offerer: POST creates the channel resource and returns its offer, the
// client PUTs its answer back to the resource.
type whppOfferDoc struct {
	Offer string `json:"offer"`
}

type whppAnswerDoc struct {
	Answer string `json:"answer"`
}

func signalWHPP(ctx context.Context, l *webrtcLeg, src string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, src, strings.NewReader("{}"))
	if err != nil {
		return fmt.Errorf("whpp: %w", err)
	}
	req.Header.Set("Content-Type", "application/whpp+json")
	req.Header.Set("Accept", "application/whpp+json")
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("whpp: create channel: %w", err)
	}
	defer closeBody(l, resp)
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("whpp: unexpected status %d", resp.StatusCode)
	}
	var doc whppOfferDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("whpp: decode offer: %w", err)
	}

	answer, err := l.eng.AnswerRemoteOffer(ctx, doc.Offer)
	if err != nil {
		return fmt.Errorf("whpp: answer offer: %w", err)
	}

	resource, err := resolveLocation(src, resp.Header.Get("Location"))
	if err != nil {
		return fmt.Errorf("whpp: %w", err)
	}
	body, err := json.Marshal(whppAnswerDoc{Answer: answer})
	if err != nil {
		return fmt.Errorf("whpp: %w", err)
	}
	put, err := http.NewRequestWithContext(ctx, http.MethodPut, resource, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("whpp: %w", err)
	}
	put.Header.Set("Content-Type", "application/whpp+json")
	putResp, err := l.client.Do(put)
	if err != nil {
		return fmt.Errorf("whpp: put answer: %w", err)
	}
	defer closeBody(l, putResp)
	if putResp.StatusCode < 200 || putResp.StatusCode > 299 {
		return fmt.Errorf("whpp: answer rejected with status %d", putResp.StatusCode)
	}
	return nil
}

// channelMessage is the JSON frame on the channel websocket.
type channelMessage struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// signalChannel speaks the websocket channel protocol: the server pushes an
// offer, the client replies with its answer on the same connection. The
// connection stays open for the life of the backend.
func signalChannel(ctx context.Context, l *webrtcLeg, src string) error {
	wsURL, err := toWebSocketURL(src)
	if err != nil {
		return fmt.Errorf("channel: %w", err)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("channel: dial %s: %w", wsURL, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	l.conn = conn

	var msg channelMessage
	for msg.Type != "offer" {
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("channel: read offer: %w", err)
		}
	}
	answer, err := l.eng.AnswerRemoteOffer(ctx, msg.SDP)
	if err != nil {
		return fmt.Errorf("channel: answer offer: %w", err)
	}
	if err := conn.WriteJSON(channelMessage{Type: "answer", SDP: answer}); err != nil {
		return fmt.Errorf("channel: send answer: %w", err)
	}

	// Drain the socket until it closes so server-side pings and late frames
	// do not back up; teardown closes the connection and ends the loop.
	go func() {
		for {
			var ignored channelMessage
			if err := conn.ReadJSON(&ignored); err != nil {
				return
			}
		}
	}()
	return nil
}

// resolveLocation resolves a (possibly relative) Location header against the
// request URL. An absent header falls back to the request URL itself.
func resolveLocation(base, loc string) (string, error) {
	if loc == "" {
		return base, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(loc)
	if err != nil {
		return "", err
	}
	return u.ResolveReference(ref).String(), nil
}

// toWebSocketURL maps an http(s) channel URL to its ws(s) equivalent.
func toWebSocketURL(src string) (string, error) {
	u, err := url.Parse(src)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported channel scheme %q", u.Scheme)
	}
	return u.String(), nil
}

func closeBody(l *webrtcLeg, resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		l.owner.logger.Debug().Err(err).Msg("failed to close signaling response body")
	}
}
