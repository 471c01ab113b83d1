package main

import (
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"github.com/itohio/sensmon/pkg/scope"
	"github.com/itohio/sensmon/pkg/trend"
)

// updateInterval limits scope redraws to ~60 FPS.
const updateInterval = 16 * time.Millisecond

// throttle drops calls that arrive sooner than interval after the last accepted one.
type throttle struct {
	interval time.Duration
	mu       sync.Mutex
	last     time.Time
}

func (t *throttle) allow(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}

// scopeUpdater returns a trend callback that redraws the scope on the main
// Fyne thread. Fyne widgets cannot be updated directly from goroutines.
func scopeUpdater(w *scope.ScopeWidget) trend.UpdateFunc {
	th := &throttle{interval: updateInterval}

	return func(points []trend.Point, rates []float64, events []trend.Event) {
		if !th.allow(time.Now()) {
			return
		}
		fyne.Do(func() {
			w.UpdateData(points, rates, events)
		})
	}
}
