// Package idgen generates the opaque identifiers tagging boots and queued
// messages. NewFunc may be replaced in tests to get deterministic ids.
package idgen
