package loadgen

import (
	"log/slog"
	"runtime/debug"
)

// runTick runs one iteration of a periodic worker. A panic abandons that
// iteration only; the worker keeps ticking.
func runTick(worker string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("worker tick abandoned",
				"worker", worker,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}
