// SPDX-License-Identifier: MIT

package errmap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/uniplay/pkg/engine"
	"github.com/ManuGH/uniplay/pkg/media"
	"github.com/ManuGH/uniplay/pkg/model"
)

func TestNormalizeHLS(t *testing.T) {
	tests := []struct {
		name string
		raw  *engine.HLSErrorData
		want model.ErrorRecord
	}{
		// 1. Nil input still yields a well-formed record
		{
			name: "Nil_Defaults",
			raw:  nil,
			want: model.ErrorRecord{Category: "unknown", Code: "-1", Message: "HLS engine error"},
		},
		// 2. HTTP response sub-object wins
		{
			name: "HTTP_Response",
			raw: &engine.HLSErrorData{
				Type:     "networkError",
				Details:  "fragLoadError",
				Fatal:    true,
				Response: &engine.HTTPResponse{Code: 404, Text: "Not Found"},
			},
			want: model.ErrorRecord{Category: "NETWORK", Code: "404", Message: "Not Found", Fatal: true},
		},
		// 3. Parse reason when no response
		{
			name: "Parse_Reason",
			raw:  &engine.HLSErrorData{Details: "manifestParsingError", Reason: "invalid target duration"},
			want: model.ErrorRecord{Category: "PARSING", Code: "-1", Message: "invalid target duration"},
		},
		// 4. Symbolic details as last resort
		{
			name: "Details_Fallback",
			raw:  &engine.HLSErrorData{Type: "mediaError", Details: "bufferStalledError"},
			want: model.ErrorRecord{Category: "MEDIA", Code: "-1", Message: "bufferStalledError"},
		},
		// 5. Network timeout detail maps to timeout category
		{
			name: "Network_Timeout",
			raw:  &engine.HLSErrorData{Type: "networkError", Details: "manifestLoadTimeOut"},
			want: model.ErrorRecord{Category: "TIMEOUT", Code: "-1", Message: "manifestLoadTimeOut"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeHLS(tt.raw)
			got.Data = nil
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDASH_SeverityGradesFatality(t *testing.T) {
	warn := NormalizeDASH(&engine.DASHErrorData{Code: 27, Message: "fragment warning", Severity: 1})
	assert.False(t, warn.Fatal)
	assert.Equal(t, "27", warn.Code)
	assert.Equal(t, "fragment warning", warn.Message)

	fatal := NormalizeDASH(&engine.DASHErrorData{Code: 25, Message: "manifest error", Severity: 2})
	assert.True(t, fatal.Fatal)

	def := NormalizeDASH(nil)
	assert.Equal(t, "DASH engine error", def.Message)
	assert.Equal(t, "-1", def.Code)
	assert.False(t, def.Fatal)
}

func TestNormalizeWebRTC_AlwaysFatalMedia(t *testing.T) {
	got := NormalizeWebRTC(&engine.WebRTCErrorData{Code: 7, Message: "ICE failed"})
	assert.True(t, got.Fatal)
	assert.Equal(t, model.CategoryMedia, got.Category)
	assert.Equal(t, "7", got.Code)

	def := NormalizeWebRTC(nil)
	assert.True(t, def.Fatal)
	assert.Equal(t, "WebRTC error", def.Message)
}

func TestNormalizeMedia(t *testing.T) {
	got := NormalizeMedia(&media.Error{Code: 3, Message: "decode error"})
	assert.True(t, got.Fatal)
	assert.Equal(t, "3", got.Code)
	assert.Equal(t, "decode error", got.Message)

	def := NormalizeMedia(nil)
	assert.Equal(t, "Media element error", def.Message)
	assert.Equal(t, "-1", def.Code)
}

func TestNormalizeLoadFailure_FatalByPolicy(t *testing.T) {
	got := NormalizeLoadFailure("hls", errors.New("boom"))
	assert.True(t, got.Fatal)
	assert.Equal(t, model.CategoryLoad, got.Category)
	assert.Equal(t, "boom", got.Message)

	def := NormalizeLoadFailure("dash", nil)
	assert.True(t, def.Fatal)
	assert.Equal(t, "dash load failed", def.Message)
}

// Fields are strings and fatal is a bool for every malformed input shape.
func TestNormalize_WellFormedUnderPartialInput(t *testing.T) {
	records := []model.ErrorRecord{
		NormalizeHLS(&engine.HLSErrorData{}),
		NormalizeHLS(&engine.HLSErrorData{Response: &engine.HTTPResponse{}}),
		NormalizeDASH(&engine.DASHErrorData{}),
		NormalizeWebRTC(&engine.WebRTCErrorData{}),
		NormalizeMedia(&media.Error{}),
	}
	for i, rec := range records {
		require.NotEmpty(t, rec.Category, "record %d category", i)
		require.NotEmpty(t, rec.Code, "record %d code", i)
		// Message may legitimately fall back to the backend default, but it
		// must never be the zero value for records built from empty payloads.
		require.NotNil(t, rec.Message, "record %d message", i)
	}
}
