// Package trend keeps a time window of the readings and alerts received from
// the device for live display.
package trend

import (
	"sync"
	"time"

	"github.com/itohio/sensmon/pkg/config"
	"github.com/itohio/sensmon/pkg/protocol"
	"github.com/itohio/sensmon/pkg/sensor"
)

// Point is a record stamped with the host receive time.
type Point struct {
	Received time.Time
	Record   protocol.Record
}

// Event is an alert stamped with the host receive time.
type Event struct {
	Received time.Time
	Message  string
	Device   protocol.Millis
}

// Stats summarises the points inside the window.
type Stats struct {
	Count        int
	Latest       sensor.Status
	ByStatus     [3]int // Indexed by sensor.Status
	MinTemp      float32
	MaxTemp      float32
	MaxVibration float32
}

// UpdateFunc receives copies of the window contents. Rates[i] is the
// temperature change in °C/min between points[i] and points[i+1].
type UpdateFunc func(points []Point, rates []float64, events []Event)

// Trend is a FIFO buffer of points and events. Entries older than the window
// relative to the newest entry are dropped.
type Trend struct {
	window time.Duration
	now    func() time.Time

	points []Point
	rates  []float64
	events []Event
	mu     sync.RWMutex

	callbacks []UpdateFunc
	cbMu      sync.RWMutex

	shutdown bool
}

// New creates a trend buffer using the display window of cfg.
func New(cfg *config.Config) *Trend {
	return &Trend{
		window: time.Duration(cfg.Display.WindowSeconds * float64(time.Second)),
		now:    time.Now,
		points: make([]Point, 0),
		rates:  make([]float64, 0),
		events: make([]Event, 0),
	}
}

// AddRecord appends a reading received now.
func (t *Trend) AddRecord(rec protocol.Record) {
	t.addPoint(Point{Received: t.now(), Record: rec})
}

// AddAlert appends an alert received now.
func (t *Trend) AddAlert(msg string, ts protocol.Millis) {
	t.mu.Lock()
	ev := Event{Received: t.now(), Message: msg, Device: ts}
	t.events = append(t.events, ev)
	t.trim(ev.Received)
	notify := !t.shutdown
	t.mu.Unlock()

	if notify {
		t.notifyCallbacks()
	}
}

// Stop suppresses further callbacks until ResetShutdown. Data is still buffered.
func (t *Trend) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shutdown = true
}

// ResetShutdown allows callbacks again, for a new capture.
func (t *Trend) ResetShutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shutdown = false
}

func (t *Trend) addPoint(p Point) {
	t.mu.Lock()

	t.points = append(t.points, p)
	if n := len(t.points); n >= 2 {
		prev := t.points[n-2]
		dt := p.Received.Sub(prev.Received).Minutes()
		rate := 0.0
		if dt > 0 {
			rate = float64(p.Record.Snapshot.Temperature-prev.Record.Snapshot.Temperature) / dt
		}
		t.rates = append(t.rates, rate)
	}
	t.trim(p.Received)

	notify := !t.shutdown
	t.mu.Unlock()

	if notify {
		t.notifyCallbacks()
	}
}

// trim drops entries at or before newest-window. Rates stay n-1 for n points.
func (t *Trend) trim(newest time.Time) {
	cutoff := newest.Add(-t.window)

	cut := 0
	for cut < len(t.points) && !t.points[cut].Received.After(cutoff) {
		cut++
	}
	if cut > 0 {
		t.points = t.points[cut:]
		if cut <= len(t.rates) {
			t.rates = t.rates[cut:]
		} else {
			t.rates = t.rates[:0]
		}
	}

	cut = 0
	for cut < len(t.events) && !t.events[cut].Received.After(cutoff) {
		cut++
	}
	t.events = t.events[cut:]
}

// Points returns a copy of the buffered points, oldest first.
func (t *Trend) Points() []Point {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]Point, len(t.points))
	copy(result, t.points)
	return result
}

// Rates returns a copy of the temperature rates.
func (t *Trend) Rates() []float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]float64, len(t.rates))
	copy(result, t.rates)
	return result
}

// Events returns a copy of the buffered alerts, oldest first.
func (t *Trend) Events() []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]Event, len(t.events))
	copy(result, t.events)
	return result
}

// Stats computes a summary of the buffered points.
func (t *Trend) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return Summarize(t.points)
}

// Summarize computes Stats for points.
func Summarize(points []Point) Stats {
	var st Stats
	for i, p := range points {
		snap := p.Record.Snapshot
		if i == 0 || snap.Temperature < st.MinTemp {
			st.MinTemp = snap.Temperature
		}
		if i == 0 || snap.Temperature > st.MaxTemp {
			st.MaxTemp = snap.Temperature
		}
		st.MaxVibration = max(st.MaxVibration, sensor.Vibration(snap))

		if s := p.Record.Status; s >= sensor.Normal && s <= sensor.Critico {
			st.ByStatus[s]++
		}
		st.Latest = p.Record.Status
		st.Count++
	}
	return st
}

// OnUpdate registers a callback invoked after every change.
// The callback should copy what it needs and return quickly.
func (t *Trend) OnUpdate(callback UpdateFunc) {
	t.cbMu.Lock()
	defer t.cbMu.Unlock()
	t.callbacks = append(t.callbacks, callback)
}

func (t *Trend) notifyCallbacks() {
	points := t.Points()
	rates := t.Rates()
	events := t.Events()

	t.cbMu.RLock()
	callbacks := make([]UpdateFunc, len(t.callbacks))
	copy(callbacks, t.callbacks)
	t.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(points, rates, events)
		}
	}
}
