package clock

import "time"

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }

// Millis returns milliseconds elapsed since the Unix epoch.
func Millis() int64 { return Now().UnixMilli() }

// Since returns milliseconds elapsed since t.
func Since(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return Now().Sub(t).Milliseconds()
}
