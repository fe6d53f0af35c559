// SPDX-License-Identifier: MIT

// Package selector decides which backend implementation handles a classified
// source. Decide is a deterministic logic matrix evaluated once per load;
// it performs no side effects.
package selector

import (
	"errors"

	"github.com/ManuGH/uniplay/internal/useragent"
	"github.com/ManuGH/uniplay/pkg/model"
)

// Kind names one concrete backend implementation.
type Kind int

const (
	KindNone Kind = iota
	KindNative
	KindHLSEngine
	KindDASHEngine
	KindMSS
	KindWebRTCChannel
	KindWHEP
	KindWHPP
)

// String returns a human-readable label for the backend kind.
func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindHLSEngine:
		return "hls-engine"
	case KindDASHEngine:
		return "dash-engine"
	case KindMSS:
		return "mss"
	case KindWebRTCChannel:
		return "webrtc-channel"
	case KindWHEP:
		return "whep"
	case KindWHPP:
		return "whpp"
	default:
		return "none"
	}
}

// Reason explains a selection for observability.
type Reason string

const (
	ReasonNativeHLS   Reason = "native-hls-capable-apple"
	ReasonHLSEngine   Reason = "hls-engine-default"
	ReasonDASH        Reason = "dash-manifest"
	ReasonMSS         Reason = "mss-manifest"
	ReasonWebRTC      Reason = "webrtc-signaling"
	ReasonUnknownType Reason = "unknown-manifest-type"
)

// Capabilities is the synchronous environment probe the selector consumes.
type Capabilities struct {
	// NativeHLS reports whether the runtime can natively decode HLS
	// (canPlayType-style query).
	NativeHLS bool
	// UserAgent identifies the client; selection pairs it with NativeHLS
	// because the feature probe alone over-reports on some platforms.
	UserAgent string
}

// Decision is the outcome of one selection.
type Decision struct {
	Kind   Kind
	Reason Reason
}

// ErrUnknownManifestType means no backend can be selected for the source.
var ErrUnknownManifestType = errors.New("no backend for unknown manifest type")

// Decide maps a manifest type to a backend kind, first match wins. Exactly
// one backend is ever active; the facade enforces the teardown barrier.
func Decide(mt model.ManifestType, caps Capabilities) (Decision, error) {
	switch mt {
	case model.ManifestHLS:
		if caps.NativeHLS && useragent.IsAppleNativeHLS(caps.UserAgent) {
			return Decision{Kind: KindNative, Reason: ReasonNativeHLS}, nil
		}
		return Decision{Kind: KindHLSEngine, Reason: ReasonHLSEngine}, nil
	case model.ManifestDASH:
		return Decision{Kind: KindDASHEngine, Reason: ReasonDASH}, nil
	case model.ManifestSmoothStreaming:
		return Decision{Kind: KindMSS, Reason: ReasonMSS}, nil
	case model.ManifestWebRTCChannel:
		return Decision{Kind: KindWebRTCChannel, Reason: ReasonWebRTC}, nil
	case model.ManifestWHEP:
		return Decision{Kind: KindWHEP, Reason: ReasonWebRTC}, nil
	case model.ManifestWHPP:
		return Decision{Kind: KindWHPP, Reason: ReasonWebRTC}, nil
	default:
		return Decision{Kind: KindNone, Reason: ReasonUnknownType}, ErrUnknownManifestType
	}
}
