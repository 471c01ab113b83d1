package scope

import (
	"image/color"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/sensmon/pkg/sensor"
	"github.com/itohio/sensmon/pkg/trend"
)

var (
	tempColor     = color.RGBA{R: 255, G: 165, B: 0, A: 255}   // Orange
	humidColor    = color.RGBA{R: 100, G: 200, B: 255, A: 255} // Light blue
	vibColor      = color.RGBA{R: 190, G: 120, B: 255, A: 255} // Violet
	alertColor    = color.RGBA{R: 200, G: 40, B: 40, A: 255}
	thresholdGray = color.RGBA{R: 90, G: 90, B: 90, A: 255}
	labelGray     = color.RGBA{R: 150, G: 150, B: 150, A: 255}
)

// plotArea maps values into widget coordinates.
type plotArea struct {
	x, y, w, h float32
	yMin, yMax float64
	xMin, xMax time.Time
}

func (p plotArea) px(t time.Time) float32 {
	span := p.xMax.Sub(p.xMin).Seconds()
	if span <= 0 {
		return p.x
	}
	return p.x + float32(t.Sub(p.xMin).Seconds()/span)*p.w
}

func (p plotArea) py(v, lo, hi float64) float32 {
	if hi <= lo {
		return p.y + p.h
	}
	return p.y + p.h - float32((v-lo)/(hi-lo))*p.h
}

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	// Background
	grid *canvas.Rectangle

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.grid.Resize(size)

	if r.lastSize.Width != size.Width || r.lastSize.Height != size.Height {
		r.lastSize = size
		// Size changed, redraw with new dimensions
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh updates the widget display.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	points := r.scope.displayPoints
	events := r.scope.events
	stats := r.scope.stats
	rate := r.scope.rate
	vibMax := r.scope.vibMax
	area := plotArea{
		yMin: r.scope.yMin,
		yMax: r.scope.yMax,
		xMin: r.scope.xMin,
		xMax: r.scope.xMax,
	}
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.grid}

	marginLeft := float32(60.0)
	marginRight := float32(50.0)
	marginTop := float32(30.0)
	marginBottom := float32(40.0)

	area.x = marginLeft
	area.y = marginTop
	area.w = size.Width - marginLeft - marginRight
	area.h = size.Height - marginTop - marginBottom

	r.drawGrid(area, vibMax)
	r.drawThreshold(area, sensor.WarningTemperature)
	r.drawThreshold(area, sensor.CriticalTemperature)

	r.drawTrace(area, points, tempColor, area.yMin, area.yMax, func(s sensor.Snapshot) float64 {
		return float64(s.Temperature)
	})
	r.drawTrace(area, points, humidColor, area.yMin, area.yMax, func(s sensor.Snapshot) float64 {
		return float64(s.Humidity)
	})
	r.drawTrace(area, points, vibColor, 0, vibMax, func(s sensor.Snapshot) float64 {
		return float64(sensor.Vibration(s))
	})

	r.drawAlerts(area, events)
	r.drawBanner(area, stats, rate, points)
}

// drawGrid draws the oscilloscope-style grid with both value axes.
func (r *scopeRenderer) drawGrid(area plotArea, vibMax float64) {
	numHLines := 8
	for i := range numHLines + 1 {
		y := area.y + float32(i)*area.h/float32(numHLines)
		r.addLine(color.RGBA{R: 40, G: 40, B: 40, A: 255}, 1, fyne.NewPos(area.x, y), fyne.NewPos(area.x+area.w, y))

		value := area.yMax - float64(i)*(area.yMax-area.yMin)/float64(numHLines)
		r.addText(formatFloat(value, 1), labelGray, 10, fyne.TextAlignTrailing, fyne.NewPos(area.x-5, y-6))

		g := vibMax - float64(i)*vibMax/float64(numHLines)
		r.addText(formatFloat(g, 1)+"g", vibColor, 10, fyne.TextAlignLeading, fyne.NewPos(area.x+area.w+5, y-6))
	}

	numVLines := 10
	for i := range numVLines + 1 {
		x := area.x + float32(i)*area.w/float32(numVLines)
		r.addLine(color.RGBA{R: 40, G: 40, B: 40, A: 255}, 1, fyne.NewPos(x, area.y), fyne.NewPos(x, area.y+area.h))

		offset := time.Duration(float64(i) * float64(area.xMax.Sub(area.xMin)) / float64(numVLines))
		r.addText(formatTime(offset), labelGray, 10, fyne.TextAlignCenter, fyne.NewPos(x-20, area.y+area.h+5))
	}
}

// drawThreshold draws a horizontal line at a temperature threshold.
func (r *scopeRenderer) drawThreshold(area plotArea, value float64) {
	if value < area.yMin || value > area.yMax {
		return
	}
	y := area.py(value, area.yMin, area.yMax)
	r.addLine(thresholdGray, 1, fyne.NewPos(area.x, y), fyne.NewPos(area.x+area.w, y))
}

// drawTrace draws one quantity as connected line segments.
func (r *scopeRenderer) drawTrace(area plotArea, points []trend.Point, c color.Color, lo, hi float64, value func(sensor.Snapshot) float64) {
	if len(points) < 2 {
		return
	}

	prev := fyne.NewPos(area.px(points[0].Received), area.py(value(points[0].Record.Snapshot), lo, hi))
	for _, p := range points[1:] {
		pos := fyne.NewPos(area.px(p.Received), area.py(value(p.Record.Snapshot), lo, hi))
		r.addLine(c, 1.5, prev, pos)
		prev = pos
	}
}

// drawAlerts draws a red vertical line for every alert inside the plot.
func (r *scopeRenderer) drawAlerts(area plotArea, events []trend.Event) {
	for _, ev := range events {
		if ev.Received.Before(area.xMin) || ev.Received.After(area.xMax) {
			continue
		}
		x := area.px(ev.Received)
		r.addLine(alertColor, 1, fyne.NewPos(x, area.y), fyne.NewPos(x, area.y+area.h))
	}
}

// drawBanner shows the latest status and reading above the plot.
func (r *scopeRenderer) drawBanner(area plotArea, stats trend.Stats, rate float64, points []trend.Point) {
	if len(points) == 0 {
		r.addText("Waiting for data", labelGray, 12, fyne.TextAlignLeading, fyne.NewPos(area.x, 6))
		return
	}

	text := bannerText(stats, rate, points[len(points)-1].Record.Snapshot)
	r.addText(text, statusColor(stats.Latest), 13, fyne.TextAlignLeading, fyne.NewPos(area.x, 6))
}

func bannerText(stats trend.Stats, rate float64, snap sensor.Snapshot) string {
	sign := ""
	if rate > 0 {
		sign = "+"
	}
	return stats.Latest.String() + "  " +
		formatFloat(float64(snap.Temperature), 1) + "°C (" + sign + formatFloat(rate, 2) + "°C/min, " +
		formatFloat(float64(stats.MinTemp), 1) + ".." + formatFloat(float64(stats.MaxTemp), 1) + ")  " +
		formatFloat(float64(snap.Humidity), 1) + "%  " +
		formatFloat(float64(sensor.Vibration(snap)), 2) + "g  " +
		"light " + strconv.Itoa(snap.Light) + "%"
}

func (r *scopeRenderer) addLine(c color.Color, width float32, from, to fyne.Position) {
	line := canvas.NewLine(c)
	line.Position1 = from
	line.Position2 = to
	line.StrokeWidth = width
	r.objects = append(r.objects, line)
}

func (r *scopeRenderer) addText(s string, c color.Color, size float32, align fyne.TextAlign, pos fyne.Position) {
	text := canvas.NewText(s, c)
	text.TextSize = size
	text.Alignment = align
	text.Move(pos)
	r.objects = append(r.objects, text)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {
	// Cleanup handled by Fyne
}

func formatTime(d time.Duration) string {
	if d < time.Minute {
		return formatFloat(d.Seconds(), 0) + "s"
	}
	return formatFloat(d.Minutes(), 1) + "m"
}

func formatFloat(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
