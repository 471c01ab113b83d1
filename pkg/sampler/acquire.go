package sampler

import (
	"github.com/itohio/sensmon/pkg/sensor"
)

// Sensors is the hardware binding of the three peripherals.
type Sensors interface {
	// Climate returns temperature (°C) and relative humidity (%).
	Climate() (temperature, humidity float32, err error)
	// Light returns the raw 12-bit LDR reading.
	Light() (uint16, error)
	// Motion returns the raw MPU6050 register frame starting at ACCEL_XOUT_H.
	Motion() ([sensor.MotionFrameSize]byte, error)
}

// Acquire reads every sensor once and builds a snapshot. A failed read yields
// zero values for that sensor; nothing is carried over from a previous tick.
func Acquire(s Sensors) sensor.Snapshot {
	var snap sensor.Snapshot

	if temp, hum, err := s.Climate(); err == nil {
		snap.Temperature = temp
		snap.Humidity = hum
	}

	if raw, err := s.Light(); err == nil {
		snap.Light = sensor.LightLevel(raw)
	}

	if frame, err := s.Motion(); err == nil {
		snap.Accel, snap.Gyro = sensor.DecodeMotion(frame)
	}

	return snap.Normalize()
}
