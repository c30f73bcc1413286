// Package watchdog is a software liveness timer. It does not reset hardware;
// when it fires the caller re-initializes the sensors and services it.
package watchdog

import "github.com/thatsimonsguy/envmon/internal/model"

type Watchdog struct {
	interval uint32 // ms
	last     uint32
}

func New(intervalMs, now uint32) *Watchdog {
	return &Watchdog{interval: intervalMs, last: now}
}

// ShouldFire reports whether the interval has elapsed since the last Service.
// Millisecond stamps may wrap.
func (w *Watchdog) ShouldFire(now uint32) bool {
	return model.Elapsed(now, w.last, w.interval)
}

func (w *Watchdog) Service(now uint32) {
	w.last = now
}
