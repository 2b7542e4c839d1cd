// Package tracing wraps OpenTelemetry so the kernel can open one span per
// syscall without importing the SDK. Until Init or InitWithExporter installs
// a provider every span is a no-op.
package tracing
