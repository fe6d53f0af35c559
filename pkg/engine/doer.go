// SPDX-License-Identifier: MIT

// Package engine defines the ports to the concrete streaming engines
// (HLS/DASH/WebRTC libraries) and the shapes of their native error payloads.
// The core consumes engines through these interfaces only; decoding and
// adaptive bitrate stay on the engine side of the boundary.
package engine

import "net/http"

// Doer is the network-layer port: a request function returning headers and
// status. The core performs no network operations beyond what goes through a
// Doer (the manifest probe, WebRTC signaling and the interstitial fallback
// fetch). Timeout semantics belong to the Doer, not to the core.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}
