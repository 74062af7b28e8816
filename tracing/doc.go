// Package tracing wraps OpenTelemetry so that every exception handling cycle
// of the kernel can be recorded as a span.
package tracing
