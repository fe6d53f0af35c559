// SPDX-License-Identifier: MIT

// Package errmap converts each backend's native error payload into the
// canonical ErrorRecord. Every function here is pure: same input, same
// output, no I/O. They run synchronously inside event handlers on the hot
// path.
package errmap

import (
	"strconv"
	"strings"

	"github.com/ManuGH/uniplay/pkg/engine"
	"github.com/ManuGH/uniplay/pkg/media"
	"github.com/ManuGH/uniplay/pkg/model"
)

func record() model.ErrorRecord {
	return model.ErrorRecord{
		Category: model.CategoryUnknown,
		Code:     model.DefaultErrorCode,
		Message:  model.DefaultErrorMessage,
	}
}

// NormalizeHLS maps an HLS engine error. Ranking: HTTP response sub-object,
// then parse reason, then the symbolic detail string.
func NormalizeHLS(raw *engine.HLSErrorData) model.ErrorRecord {
	rec := record()
	rec.Message = "HLS engine error"
	if raw == nil {
		return rec
	}
	rec.Data = raw
	rec.Fatal = raw.Fatal
	rec.Category = hlsCategory(raw)

	switch {
	case raw.Response != nil:
		rec.Code = strconv.Itoa(raw.Response.Code)
		rec.Message = raw.Response.Text
	case raw.Reason != "":
		rec.Message = raw.Reason
	case raw.Details != "":
		rec.Message = raw.Details
	}
	return rec
}

func hlsCategory(raw *engine.HLSErrorData) string {
	t := strings.ToLower(raw.Type)
	switch {
	case strings.Contains(t, "network"):
		if strings.Contains(strings.ToLower(raw.Details), "timeout") {
			return model.CategoryTimeout
		}
		return model.CategoryNetwork
	case strings.Contains(t, "media"):
		return model.CategoryMedia
	case raw.Reason != "":
		return model.CategoryParsing
	default:
		return model.CategoryUnknown
	}
}

// NormalizeDASH maps a DASH engine error. Severity above 1 is fatal; 1 and
// below are recoverable warnings.
func NormalizeDASH(raw *engine.DASHErrorData) model.ErrorRecord {
	rec := record()
	rec.Message = "DASH engine error"
	if raw == nil {
		return rec
	}
	rec.Data = raw.Data
	rec.Fatal = raw.Severity > 1
	if raw.Code != 0 {
		rec.Code = strconv.Itoa(raw.Code)
	}
	if raw.Message != "" {
		rec.Message = raw.Message
	}
	return rec
}

// NormalizeWebRTC maps a WebRTC engine error. The engine has no non-fatal
// error channel, so every record is fatal with category MEDIA.
func NormalizeWebRTC(raw *engine.WebRTCErrorData) model.ErrorRecord {
	rec := record()
	rec.Category = model.CategoryMedia
	rec.Fatal = true
	rec.Message = "WebRTC error"
	if raw == nil {
		return rec
	}
	rec.Data = raw
	if raw.Code != 0 {
		rec.Code = strconv.Itoa(raw.Code)
	}
	if raw.Message != "" {
		rec.Message = raw.Message
	}
	return rec
}

// NormalizeMedia maps a native media-element decode error. The element has no
// non-fatal channel either.
func NormalizeMedia(raw *media.Error) model.ErrorRecord {
	rec := record()
	rec.Category = model.CategoryMedia
	rec.Fatal = true
	rec.Message = "Media element error"
	if raw == nil {
		return rec
	}
	rec.Data = raw
	if raw.Code != 0 {
		rec.Code = strconv.Itoa(raw.Code)
	}
	if raw.Message != "" {
		rec.Message = raw.Message
	}
	return rec
}

// NormalizeLoadFailure maps a failed backend load. Load failures are fatal by
// policy regardless of what the underlying error looks like.
func NormalizeLoadFailure(backendName string, err error) model.ErrorRecord {
	rec := record()
	rec.Category = model.CategoryLoad
	rec.Fatal = true
	rec.Message = backendName + " load failed"
	if err != nil {
		rec.Message = err.Error()
		rec.Data = err
	}
	return rec
}
