// Package progress keeps aggregated kernel counters (processes spawned,
// exited and reaped, context switches, syscalls and deadlock refusals) and
// notifies an optional observer on every change.
package progress
