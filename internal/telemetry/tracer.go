// SPDX-License-Identifier: MIT

// Package telemetry provides OpenTelemetry tracing accessors for the playback
// core. The core never installs a provider itself; it picks up whatever the
// embedding application configured globally, and a no-op provider otherwise.
package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns a tracer from the globally registered provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
