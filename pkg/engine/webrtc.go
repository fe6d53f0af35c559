// SPDX-License-Identifier: MIT

package engine

import (
	"context"

	"github.com/ManuGH/uniplay/pkg/media"
)

// WebRTCCallbacks are the peer-connection events the WebRTC backends consume.
type WebRTCCallbacks struct {
	Error        func(*WebRTCErrorData)
	Connected    func()
	Disconnected func()
}

// WebRTC is the port to the peer-connection machinery. The backends implement
// the signaling protocols (WHEP, WHPP, channel); offer/answer generation and
// media transport stay on the engine side.
type WebRTC interface {
	// CreateOffer produces a local offer SDP (offerer role, WHEP).
	CreateOffer(ctx context.Context) (string, error)
	// AnswerRemoteOffer applies a remote offer and returns the local answer
	// SDP (answerer role, WHPP).
	AnswerRemoteOffer(ctx context.Context, offerSDP string) (string, error)
	// ApplyRemoteAnswer completes the offerer handshake.
	ApplyRemoteAnswer(ctx context.Context, answerSDP string) error
	Close()
}

// WebRTCFactory constructs peer-connection machinery bound to the media
// element with the given callbacks attached.
type WebRTCFactory func(el media.Element, cb WebRTCCallbacks) WebRTC
