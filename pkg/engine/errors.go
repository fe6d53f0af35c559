// SPDX-License-Identifier: MIT

package engine

// HTTPResponse is the HTTP-style sub-object some HLS engine errors carry.
type HTTPResponse struct {
	Code int
	Text string
}

// HLSErrorData is the HLS engine's native error payload. Exactly one of
// Response, Reason or Details is usually informative; the normalizer ranks
// them in that order.
type HLSErrorData struct {
	Type     string
	Details  string
	Fatal    bool
	Response *HTTPResponse
	Reason   string
}

// DASHErrorData is the DASH engine's native error payload. Severity grades
// the error: values above 1 are fatal, 1 and below are warnings.
type DASHErrorData struct {
	Code     int
	Message  string
	Data     any
	Severity int
}

// WebRTCErrorData is the WebRTC engine's native error payload. The engine has
// no non-fatal error channel.
type WebRTCErrorData struct {
	Code    int
	Message string
}
