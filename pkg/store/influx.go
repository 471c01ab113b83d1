package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/itohio/sensmon/pkg/config"
	"github.com/itohio/sensmon/pkg/protocol"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const (
	// Measurement holds one point per reading.
	Measurement = "sensor_monitor"
	// AlertMeasurement holds one point per alert.
	AlertMeasurement = "sensor_alert"

	writeTimeout = 5 * time.Second
	// retryAfter is how long writes are skipped after a failed one.
	retryAfter = 30 * time.Second
)

// ErrUnavailable is returned while writes are skipped after a failure.
var ErrUnavailable = errors.New("influxdb unavailable")

// pointWriter is the part of api.WriteAPIBlocking the store uses.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Influx mirrors readings and alerts into an InfluxDB bucket. Points are
// stamped with the host receive time.
type Influx struct {
	client influxdb2.Client
	writer pointWriter
	now    func() time.Time

	mu        sync.Mutex
	file      string
	downUntil time.Time
}

// Ensure Influx implements Store.
var _ Store = (*Influx)(nil)

// NewInflux creates a store writing to the configured server.
func NewInflux(cfg config.InfluxConfig) *Influx {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Influx{
		client: client,
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		now:    time.Now,
	}
}

// Create tags subsequent points with the device file name.
func (s *Influx) Create(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.file = name
	return nil
}

// WriteHeader is a no-op; fields are named by the store.
func (s *Influx) WriteHeader(columns []string) error {
	return nil
}

func (s *Influx) tags(extra map[string]string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == "" {
		return nil, ErrNoFile
	}

	tags := map[string]string{"file": s.file}
	for k, v := range extra {
		tags[k] = v
	}
	return tags, nil
}

func (s *Influx) WriteRecord(rec protocol.Record) error {
	tags, err := s.tags(map[string]string{"status": rec.Status.String()})
	if err != nil {
		return err
	}

	snap := rec.Snapshot
	fields := map[string]interface{}{
		"device_ms":   int64(rec.Timestamp),
		"temperature": snap.Temperature,
		"humidity":    snap.Humidity,
		"light":       snap.Light,
		"accel_x":     snap.Accel.X,
		"accel_y":     snap.Accel.Y,
		"accel_z":     snap.Accel.Z,
		"gyro_x":      snap.Gyro.X,
		"gyro_y":      snap.Gyro.Y,
		"gyro_z":      snap.Gyro.Z,
	}

	return s.write(influxdb2.NewPoint(Measurement, tags, fields, s.now()))
}

func (s *Influx) WriteAlert(msg string, ts protocol.Millis) error {
	tags, err := s.tags(nil)
	if err != nil {
		return err
	}

	fields := map[string]interface{}{
		"device_ms": int64(ts),
		"message":   msg,
	}

	return s.write(influxdb2.NewPoint(AlertMeasurement, tags, fields, s.now()))
}

func (s *Influx) write(p *write.Point) error {
	now := s.now()
	s.mu.Lock()
	downUntil := s.downUntil
	s.mu.Unlock()
	if now.Before(downUntil) {
		return fmt.Errorf("%w until %s", ErrUnavailable, downUntil.Format(time.TimeOnly))
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := s.writer.WritePoint(ctx, p); err != nil {
		s.mu.Lock()
		s.downUntil = now.Add(retryAfter)
		s.mu.Unlock()
		return fmt.Errorf("error writing to InfluxDB: %w", err)
	}
	return nil
}

// Flush is a no-op; blocking writes are sent immediately.
func (s *Influx) Flush() error {
	return nil
}

func (s *Influx) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
