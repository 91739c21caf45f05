// Package otel reserves the OpenTelemetry integration point for the
// strand observer hooks.
package otel
