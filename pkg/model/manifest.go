// SPDX-License-Identifier: MIT

package model

// ManifestType classifies a source URI. It is computed once per load and is
// immutable for the lifetime of that load.
type ManifestType int

const (
	ManifestUnknown ManifestType = iota
	ManifestHLS
	ManifestDASH
	ManifestSmoothStreaming
	ManifestWebRTCChannel
	ManifestWHEP
	ManifestWHPP
)

// String returns a human-readable label for the manifest type.
func (m ManifestType) String() string {
	switch m {
	case ManifestHLS:
		return "hls"
	case ManifestDASH:
		return "dash"
	case ManifestSmoothStreaming:
		return "mss"
	case ManifestWebRTCChannel:
		return "webrtc-channel"
	case ManifestWHEP:
		return "whep"
	case ManifestWHPP:
		return "whpp"
	default:
		return "unknown"
	}
}
