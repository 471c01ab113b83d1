package protocol

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/itohio/sensmon/pkg/sensor"
)

const (
	// DefaultFileName is the CSV file the device asks the host to create.
	DefaultFileName = "monitoring_data.csv"

	alertSeparator = " - "
	recordFields   = 11
)

// Header lists the CSV columns of a record, in wire order.
var Header = []string{
	"Timestamp",
	"Temperature",
	"Humidity",
	"Light",
	"Accel_X",
	"Accel_Y",
	"Accel_Z",
	"Gyro_X",
	"Gyro_Y",
	"Gyro_Z",
	"Status",
}

// Millis is a device timestamp in milliseconds since boot.
type Millis uint32

// AsMillis truncates a duration since boot to a device timestamp.
func AsMillis(d time.Duration) Millis {
	return Millis(d / time.Millisecond)
}

// Duration converts the timestamp back into a duration since boot.
func (m Millis) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

func (m Millis) String() string {
	return strconv.FormatUint(uint64(m), 10)
}

// Record is one tick's reading together with its status and timestamp.
type Record struct {
	Timestamp Millis
	Snapshot  sensor.Snapshot
	Status    sensor.Status
}

// Fields renders the record as CSV fields: temperature and humidity with two
// decimals, acceleration with three, angular velocity with two.
func (r Record) Fields() []string {
	s := r.Snapshot
	return []string{
		r.Timestamp.String(),
		fixed(s.Temperature, 2),
		fixed(s.Humidity, 2),
		strconv.Itoa(s.Light),
		fixed(s.Accel.X, 3),
		fixed(s.Accel.Y, 3),
		fixed(s.Accel.Z, 3),
		fixed(s.Gyro.X, 2),
		fixed(s.Gyro.Y, 2),
		fixed(s.Gyro.Z, 2),
		r.Status.String(),
	}
}

// CSV renders the record as one comma separated line.
func (r Record) CSV() string {
	return strings.Join(r.Fields(), ",")
}

// ParseRecord parses the payload of a WRITE_DATA or DATA line.
func ParseRecord(payload string) (Record, error) {
	parts := strings.Split(strings.TrimSpace(payload), ",")
	if len(parts) != recordFields {
		return Record{}, fmt.Errorf("invalid record: expected %d comma-separated values, got %d", recordFields, len(parts))
	}

	ts, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return Record{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	var floats [8]float32
	for i, idx := range []int{1, 2, 4, 5, 6, 7, 8, 9} {
		v, err := strconv.ParseFloat(parts[idx], 32)
		if err != nil {
			return Record{}, fmt.Errorf("invalid %s: %w", Header[idx], err)
		}
		floats[i] = float32(v)
	}

	light, err := strconv.Atoi(parts[3])
	if err != nil {
		return Record{}, fmt.Errorf("invalid light: %w", err)
	}
	if light < 0 || light > sensor.LightMax {
		return Record{}, fmt.Errorf("light out of range: %d (max %d)", light, sensor.LightMax)
	}

	status, err := sensor.ParseStatus(parts[10])
	if err != nil {
		return Record{}, fmt.Errorf("invalid status: %w", err)
	}

	return Record{
		Timestamp: Millis(ts),
		Snapshot: sensor.Snapshot{
			Temperature: floats[0],
			Humidity:    floats[1],
			Light:       light,
			Accel:       sensor.Vector{X: floats[2], Y: floats[3], Z: floats[4]},
			Gyro:        sensor.Vector{X: floats[5], Y: floats[6], Z: floats[7]},
		},
		Status: status,
	}, nil
}

// ParseAlert splits a WRITE_ALERT payload into its message and timestamp.
func ParseAlert(payload string) (string, Millis, error) {
	idx := strings.LastIndex(payload, alertSeparator)
	if idx < 0 {
		return "", 0, fmt.Errorf("invalid alert %q: missing timestamp", payload)
	}

	ts, err := strconv.ParseUint(strings.TrimSpace(payload[idx+len(alertSeparator):]), 10, 32)
	if err != nil {
		return "", 0, fmt.Errorf("invalid alert timestamp: %w", err)
	}

	return payload[:idx], Millis(ts), nil
}

func fixed(v float32, decimals int) string {
	return strconv.FormatFloat(float64(v), 'f', decimals, 32)
}
