// Package sampler drives the periodic acquire, classify and emit cycle of the
// monitor device. Everything runs on the caller's goroutine.
package sampler

import (
	"context"
	"strconv"
	"time"

	"github.com/itohio/sensmon/pkg/protocol"
	"github.com/itohio/sensmon/pkg/sensor"
)

const (
	// DefaultInterval is the time between two ticks.
	DefaultInterval = 3000 * time.Millisecond
	// FlushEvery is the number of ticks between FLUSH_FILE commands.
	FlushEvery = 10
	// PollDelay is the pause between two polls in Run.
	PollDelay = 100 * time.Millisecond
)

// State of the driver.
type State int

const (
	Uninitialized State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "RUNNING"
	}
	return "UNINITIALIZED"
}

// Option configures a Driver.
type Option func(*Driver)

// WithInterval overrides the sampling interval. Used by the simulated device.
func WithInterval(d time.Duration) Option {
	return func(drv *Driver) {
		if d > 0 {
			drv.interval = d
		}
	}
}

// WithFileName overrides the CSV file name the host is asked to create.
func WithFileName(name string) Option {
	return func(drv *Driver) {
		if name != "" {
			drv.fileName = name
		}
	}
}

// Driver is the sampling loop state machine.
type Driver struct {
	sensors  Sensors
	out      *protocol.Emitter
	clock    Clock
	interval time.Duration
	fileName string

	state    State
	ticked   bool
	lastTick time.Duration
	records  int
}

// New creates a driver in the UNINITIALIZED state.
func New(sensors Sensors, out *protocol.Emitter, clock Clock, opts ...Option) *Driver {
	d := &Driver{
		sensors:  sensors,
		out:      out,
		clock:    clock,
		interval: DefaultInterval,
		fileName: protocol.DefaultFileName,
		state:    Uninitialized,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State returns the current driver state.
func (d *Driver) State() State {
	return d.state
}

// Records returns the number of completed ticks.
func (d *Driver) Records() int {
	return d.records
}

// Start announces the device to the host, asks it to create the CSV file and
// moves the driver to RUNNING. Notes collected during sensor setup are sent as
// LOG lines. Calling Start again has no effect.
func (d *Driver) Start(notes ...string) {
	if d.state == Running {
		return
	}

	d.out.Emit(protocol.Start())
	d.out.Log("=== Industrial sensor monitor ===")
	d.out.Log("CSV file will be generated by the host: " + d.fileName)
	for _, note := range notes {
		d.out.Log(note)
	}

	d.out.Emit(protocol.CreateFile(d.fileName))
	d.out.Emit(protocol.WriteHeader(protocol.Header))
	d.out.Log("=== Starting data collection every " + strconv.Itoa(int(d.interval.Milliseconds())) + " ms ===")

	d.state = Running
}

// Poll runs one tick if the driver is RUNNING and the interval has elapsed since
// the previous tick. The first poll after Start always ticks. It reports whether
// a tick ran.
func (d *Driver) Poll() bool {
	if d.state != Running {
		return false
	}

	now := d.clock.Now()
	if d.ticked && now-d.lastTick < d.interval {
		return false
	}
	d.ticked = true
	d.lastTick = now

	d.tick(protocol.AsMillis(now))
	return true
}

// Run polls until ctx is done. The firmware passes a context that is never cancelled.
func (d *Driver) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		d.Poll()
		d.clock.Sleep(PollDelay)
	}
}

// tick performs acquisition, classification, emission and alert checks in that
// order, all on the same snapshot value.
func (d *Driver) tick(ts protocol.Millis) {
	snap := Acquire(d.sensors)
	rec := protocol.Record{
		Timestamp: ts,
		Snapshot:  snap,
		Status:    sensor.Classify(snap),
	}

	d.out.Emit(protocol.WriteData(rec))

	for _, alert := range sensor.CheckAlerts(snap) {
		d.out.Emit(protocol.AlertNotice(alert.Notice()))
		d.out.Emit(protocol.WriteAlert(alert.Message(), protocol.AsMillis(d.clock.Now())))
	}

	d.records++
	if d.records%FlushEvery == 0 {
		d.out.Log("Records collected: " + strconv.Itoa(d.records))
		d.out.Log("CSV file updated: " + d.fileName)
		d.out.Emit(protocol.FlushFile())
	}

	d.out.Emit(protocol.Data(rec))
}
