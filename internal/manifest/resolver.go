// SPDX-License-Identifier: MIT

// Package manifest classifies a source URI into a ManifestType without fully
// downloading it: a lightweight HEAD probe for the content type, suffix
// heuristics for ambiguous responses, and one OPTIONS retry when the probe
// itself fails.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/uniplay/internal/log"
	"github.com/ManuGH/uniplay/internal/metrics"
	"github.com/ManuGH/uniplay/internal/telemetry"
	"github.com/ManuGH/uniplay/pkg/engine"
	"github.com/ManuGH/uniplay/pkg/model"
)

// ErrUnknownType means classification failed; the caller must reject the load
// rather than guess a backend.
var ErrUnknownType = errors.New("unknown manifest type")

// UnknownTypeError wraps ErrUnknownType with the probed URI.
type UnknownTypeError struct {
	URI string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown manifest type: %s", e.URI)
}

func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }

// contentTypes is the fixed content-type table. Keys are lowercase media
// types with any charset suffix already stripped.
var contentTypes = map[string]model.ManifestType{
	"application/vnd.apple.mpegurl":   model.ManifestHLS,
	"application/x-mpegurl":           model.ManifestHLS,
	"audio/mpegurl":                   model.ManifestHLS,
	"audio/x-mpegurl":                 model.ManifestHLS,
	"application/dash+xml":            model.ManifestDASH,
	"video/vnd.mpeg.dash.mpd":         model.ManifestDASH,
	"application/vnd.ms-sstr+xml":     model.ManifestSmoothStreaming,
	"application/sdp":                 model.ManifestWHEP,
	"application/whpp+json":           model.ManifestWHPP,
	"application/webrtc-channel+json": model.ManifestWebRTCChannel,
}

// Resolver probes source URIs through the injected network layer.
type Resolver struct {
	client engine.Doer
	logger zerolog.Logger
	tracer trace.Tracer
}

// New returns a resolver using the given network layer.
func New(client engine.Doer) *Resolver {
	return &Resolver{
		client: client,
		logger: log.WithComponent("manifest"),
		tracer: telemetry.Tracer("uniplay/manifest"),
	}
}

// Resolve classifies uri. It returns ManifestUnknown together with an
// UnknownTypeError when no rule matches.
func (r *Resolver) Resolve(ctx context.Context, uri string) (model.ManifestType, error) {
	ctx, span := r.tracer.Start(ctx, "manifest.resolve")
	defer span.End()
	span.SetAttributes(attribute.String("uri", uri))

	mt := r.classify(ctx, uri)
	metrics.IncProbe(mt.String())
	span.SetAttributes(attribute.String("manifest_type", mt.String()))

	if mt == model.ManifestUnknown {
		return mt, &UnknownTypeError{URI: uri}
	}
	return mt, nil
}

func (r *Resolver) classify(ctx context.Context, uri string) model.ManifestType {
	ct, ok := r.probe(ctx, http.MethodHead, uri)
	if !ok {
		// Probe failed outright: retry once with an options-style probe and
		// take the last media type the endpoint offers.
		if mt, found := r.optionsProbe(ctx, uri); found {
			return mt
		}
		return suffixHeuristic(uri)
	}

	if mt, found := lookup(ct); found {
		return mt
	}

	// Missing, unmapped or generic octet-stream content types fall back to
	// suffix heuristics; those apply to manifest-shaped paths only, never to
	// segment files like .ts.
	return suffixHeuristic(uri)
}

// probe issues one request and returns the normalized content type. ok is
// false when the request failed or the endpoint answered non-2xx.
func (r *Resolver) probe(ctx context.Context, method, uri string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, method, uri, nil)
	if err != nil {
		return "", false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug().Err(err).Str("uri", uri).Str("method", method).Msg("manifest probe failed")
		return "", false
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			r.logger.Debug().Err(err).Msg("failed to close probe response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.logger.Debug().
			Str("uri", uri).
			Str("method", method).
			Int("status", resp.StatusCode).
			Msg("manifest probe rejected")
		return "", false
	}

	return normalizeMediaType(resp.Header.Get("Content-Type")), true
}

// optionsProbe inspects Accept-Post then Accept on an OPTIONS response,
// taking the last comma-separated media type offered.
func (r *Resolver) optionsProbe(ctx context.Context, uri string) (model.ManifestType, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, uri, nil)
	if err != nil {
		return model.ManifestUnknown, false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug().Err(err).Str("uri", uri).Msg("options probe failed")
		return model.ManifestUnknown, false
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			r.logger.Debug().Err(err).Msg("failed to close options response body")
		}
	}()

	offered := resp.Header.Get("Accept-Post")
	if offered == "" {
		offered = resp.Header.Get("Accept")
	}
	if offered == "" {
		return model.ManifestUnknown, false
	}

	parts := strings.Split(offered, ",")
	last := normalizeMediaType(parts[len(parts)-1])
	mt, found := lookup(last)
	if found {
		r.logger.Debug().
			Str("uri", uri).
			Str("media_type", last).
			Str("manifest_type", mt.String()).
			Msg("classified via options probe")
	}
	return mt, found
}

func lookup(mediaType string) (model.ManifestType, bool) {
	mt, ok := contentTypes[mediaType]
	return mt, ok
}

// normalizeMediaType lowercases and strips any parameters (";charset=...").
func normalizeMediaType(ct string) string {
	if idx := strings.Index(ct, ";"); idx != -1 {
		ct = ct[:idx]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// suffixHeuristic maps manifest-shaped path suffixes. Segment suffixes are
// deliberately absent: a .ts path with an ambiguous content type stays
// Unknown.
func suffixHeuristic(uri string) model.ManifestType {
	path := uri
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		path = u.Path
	}
	lower := strings.ToLower(path)

	switch {
	case strings.HasSuffix(lower, ".m3u8"):
		return model.ManifestHLS
	case strings.HasSuffix(lower, ".mpd"):
		return model.ManifestDASH
	case strings.HasSuffix(lower, "manifest"):
		return model.ManifestSmoothStreaming
	default:
		return model.ManifestUnknown
	}
}
