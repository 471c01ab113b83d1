package trend

import (
	"sync"
	"testing"
	"time"

	"github.com/itohio/sensmon/pkg/config"
	"github.com/itohio/sensmon/pkg/protocol"
	"github.com/itohio/sensmon/pkg/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTrend(windowSeconds float64) (*Trend, *time.Time) {
	cfg := config.Default()
	cfg.Display.WindowSeconds = windowSeconds
	tr := New(cfg)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }
	return tr, &now
}

func rec(temp float32, status sensor.Status) protocol.Record {
	return protocol.Record{
		Snapshot: sensor.Snapshot{Temperature: temp, Accel: sensor.Vector{Z: 1}},
		Status:   status,
	}
}

func TestTrend_RateCorrespondence(t *testing.T) {
	tr, now := newTestTrend(300)

	temps := []float32{20, 21, 23, 22}
	for _, temp := range temps {
		tr.AddRecord(rec(temp, sensor.Normal))
		*now = now.Add(30 * time.Second)
	}

	points := tr.Points()
	rates := tr.Rates()
	require.Len(t, points, 4)
	require.Len(t, rates, 3, "n-1 rates for n points")

	// rate[i] = (temp[i+1]-temp[i]) / dt, dt = 0.5 min
	assert.InDelta(t, 2.0, rates[0], 1e-9)
	assert.InDelta(t, 4.0, rates[1], 1e-9)
	assert.InDelta(t, -2.0, rates[2], 1e-9)
}

func TestTrend_WindowRemoval(t *testing.T) {
	tr, now := newTestTrend(10)

	tr.AddRecord(rec(20, sensor.Normal))
	tr.AddAlert("WARNING - high humidity", 1)
	*now = now.Add(5 * time.Second)
	tr.AddRecord(rec(21, sensor.Normal))
	*now = now.Add(6 * time.Second)
	tr.AddRecord(rec(22, sensor.Alerta))

	points := tr.Points()
	require.Len(t, points, 2, "first point is outside the window")
	assert.Equal(t, float32(21), points[0].Record.Snapshot.Temperature)
	assert.Len(t, tr.Rates(), 1)
	assert.Empty(t, tr.Events())
}

func TestTrend_RemoveAll(t *testing.T) {
	tr, now := newTestTrend(1)

	tr.AddRecord(rec(20, sensor.Normal))
	tr.AddRecord(rec(20, sensor.Normal))
	*now = now.Add(time.Minute)
	tr.AddRecord(rec(30, sensor.Alerta))

	assert.Len(t, tr.Points(), 1)
	assert.Empty(t, tr.Rates())
}

func TestTrend_ZeroIntervalRate(t *testing.T) {
	tr, _ := newTestTrend(60)

	tr.AddRecord(rec(20, sensor.Normal))
	tr.AddRecord(rec(40, sensor.Critico))

	assert.Equal(t, []float64{0}, tr.Rates())
}

func TestTrend_Events(t *testing.T) {
	tr, now := newTestTrend(60)

	tr.AddAlert("CRITICAL - critical temperature", 3000)
	*now = now.Add(time.Second)
	tr.AddAlert("WARNING - low humidity", 6000)

	events := tr.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "CRITICAL - critical temperature", events[0].Message)
	assert.Equal(t, protocol.Millis(6000), events[1].Device)
	assert.Equal(t, *now, events[1].Received)
}

func TestSummarize(t *testing.T) {
	shaken := rec(30, sensor.Alerta)
	shaken.Snapshot.Accel = sensor.Vector{X: 3, Y: 4}

	points := []Point{
		{Record: rec(24, sensor.Normal)},
		{Record: shaken},
		{Record: rec(36, sensor.Critico)},
		{Record: rec(22, sensor.Normal)},
	}

	st := Summarize(points)
	assert.Equal(t, 4, st.Count)
	assert.Equal(t, sensor.Normal, st.Latest)
	assert.Equal(t, [3]int{2, 1, 1}, st.ByStatus)
	assert.Equal(t, float32(22), st.MinTemp)
	assert.Equal(t, float32(36), st.MaxTemp)
	assert.InDelta(t, 5.0, st.MaxVibration, 1e-6)

	assert.Equal(t, Stats{}, Summarize(nil))
}

func TestTrend_OnUpdate(t *testing.T) {
	tr, _ := newTestTrend(60)

	var (
		mu     sync.Mutex
		calls  int
		points []Point
		events []Event
	)
	tr.OnUpdate(func(p []Point, _ []float64, e []Event) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		points, events = p, e
	})

	tr.AddRecord(rec(20, sensor.Normal))
	tr.AddAlert("x", 1)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
	assert.Len(t, points, 1)
	assert.Len(t, events, 1)
}

// TestTrend_GracefulShutdown tests that no callbacks are sent after Stop,
// until ResetShutdown.
func TestTrend_GracefulShutdown(t *testing.T) {
	tr, _ := newTestTrend(60)

	var (
		mu    sync.Mutex
		calls int
	)
	tr.OnUpdate(func([]Point, []float64, []Event) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return calls
	}

	for i := 0; i < 3; i++ {
		tr.AddRecord(rec(20, sensor.Normal))
	}
	assert.Equal(t, 3, count())

	tr.Stop()
	tr.AddRecord(rec(21, sensor.Normal))
	tr.AddAlert("y", 2)
	assert.Equal(t, 3, count(), "no callbacks after shutdown")
	assert.Len(t, tr.Points(), 4, "data is still buffered")
	assert.Len(t, tr.Events(), 1)

	tr.ResetShutdown()
	tr.AddAlert("x", 1)
	assert.Equal(t, 4, count())
}
