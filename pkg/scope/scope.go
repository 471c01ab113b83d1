package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/sensmon/pkg/config"
	"github.com/itohio/sensmon/pkg/sensor"
	"github.com/itohio/sensmon/pkg/trend"
)

// ScopeWidget is a custom Fyne widget that plots the monitor trend: temperature
// and humidity against a shared axis, vibration on its own scale, and a
// vertical marker for every alert.
type ScopeWidget struct {
	widget.BaseWidget

	cfg *config.Config

	// Data (protected by mu)
	mu     sync.RWMutex
	points []trend.Point
	events []trend.Event
	stats  trend.Stats
	rate   float64 // Latest temperature change, °C/min

	// Display buffer (reused for downsampling)
	displayPoints []trend.Point

	// Auto-scaling
	yMin, yMax float64
	vibMax     float64
	xMin, xMax time.Time
}

// New creates a new ScopeWidget instance.
func New(cfg *config.Config) *ScopeWidget {
	s := &ScopeWidget{
		cfg:           cfg,
		points:        make([]trend.Point, 0),
		events:        make([]trend.Event, 0),
		displayPoints: make([]trend.Point, 0, cfg.Display.MaxPoints),
	}
	s.ExtendBaseWidget(s)
	// Trigger initial refresh to display empty scope
	s.Refresh()
	return s
}

// UpdateData updates the widget with the current trend window.
// This should be called from the trend callback using fyne.Do().
func (s *ScopeWidget) UpdateData(points []trend.Point, rates []float64, events []trend.Event) {
	s.mu.Lock()

	s.displayPoints = trend.Downsample(s.displayPoints, points, s.cfg.Display.MaxPoints)
	s.points = points
	s.events = events
	s.stats = trend.Summarize(points)
	s.rate = 0
	if len(rates) > 0 {
		s.rate = rates[len(rates)-1]
	}

	window := time.Duration(s.cfg.Display.WindowSeconds * float64(time.Second))
	s.yMin, s.yMax, s.vibMax = valueRange(s.displayPoints)
	s.xMin, s.xMax = timeRange(s.displayPoints, window, time.Now())

	s.mu.Unlock()

	// Refresh the widget (must be outside lock to avoid potential deadlock)
	s.Refresh()
}

// valueRange returns the shared temperature/humidity axis with a 10% margin,
// always including the temperature thresholds, and the vibration full scale.
func valueRange(points []trend.Point) (yMin, yMax, vibMax float64) {
	yMin, yMax = 0, sensor.CriticalTemperature
	vibMax = sensor.CriticalVibration

	for _, p := range points {
		snap := p.Record.Snapshot
		for _, v := range []float64{float64(snap.Temperature), float64(snap.Humidity)} {
			yMin = min(yMin, v)
			yMax = max(yMax, v)
		}
		vibMax = max(vibMax, float64(sensor.Vibration(snap)))
	}

	margin := (yMax - yMin) * 0.1
	return yMin - margin, yMax + margin, vibMax
}

// timeRange spans the points, at least one window wide.
func timeRange(points []trend.Point, window time.Duration, now time.Time) (xMin, xMax time.Time) {
	if len(points) == 0 {
		return now, now.Add(window)
	}

	xMin = points[0].Received
	xMax = points[len(points)-1].Received
	if xMax.Sub(xMin) < window {
		xMax = xMin.Add(window)
	}
	return xMin, xMax
}

// statusColor maps a status to the banner color.
func statusColor(s sensor.Status) color.Color {
	switch s {
	case sensor.Critico:
		return color.RGBA{R: 230, G: 50, B: 50, A: 255}
	case sensor.Alerta:
		return color.RGBA{R: 240, G: 190, B: 40, A: 255}
	default:
		return color.RGBA{R: 80, G: 200, B: 120, A: 255}
	}
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:    s,
		grid:     grid,
		objects:  []fyne.CanvasObject{grid},
		lastSize: fyne.Size{Width: 0, Height: 0},
	}
}
