// Package sensor holds the per-tick reading of the monitored machine and the
// threshold logic that classifies it.
package sensor

import (
	"github.com/chewxy/math32"
)

const (
	// AccelScale converts raw MPU6050 accelerometer counts to g (±2g range).
	AccelScale = 16384.0
	// GyroScale converts raw MPU6050 gyroscope counts to °/s (±250°/s range).
	GyroScale = 131.0

	// LightRawMax is the top of the 12-bit ADC range used by the LDR.
	LightRawMax = 4095
	// LightMax is the top of the mapped light level.
	LightMax = 100

	// MotionFrameSize is the number of bytes read starting at register 0x3B:
	// accel xyz, die temperature, gyro xyz, each a big-endian int16.
	MotionFrameSize = 14
)

// Vector is a three axis measurement.
type Vector struct {
	X, Y, Z float32
}

// Magnitude returns the euclidean length of the vector.
func (v Vector) Magnitude() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Snapshot is one tick's complete set of sensor readings.
type Snapshot struct {
	Temperature float32 // °C
	Humidity    float32 // %RH
	Light       int     // 0-100
	Accel       Vector  // g
	Gyro        Vector  // °/s
}

// Normalize replaces an invalid climate reading with zeros. The DHT22 delivers
// temperature and humidity in the same frame, so if either is bad both are dropped.
func (s Snapshot) Normalize() Snapshot {
	if !valid(s.Temperature) || !valid(s.Humidity) {
		s.Temperature = 0
		s.Humidity = 0
	}
	return s
}

// Vibration returns the magnitude of the acceleration vector in g.
func Vibration(s Snapshot) float32 {
	return s.Accel.Magnitude()
}

// LightLevel maps a raw 12-bit LDR reading onto 0-100 with integer arithmetic.
func LightLevel(raw uint16) int {
	if raw > LightRawMax {
		raw = LightRawMax
	}
	return int(raw) * LightMax / LightRawMax
}

// DecodeMotion converts a raw MPU6050 register frame into physical units.
// The die temperature pair in the middle of the frame is skipped.
func DecodeMotion(frame [MotionFrameSize]byte) (accel, gyro Vector) {
	word := func(i int) float32 {
		return float32(int16(uint16(frame[i])<<8 | uint16(frame[i+1])))
	}

	accel = Vector{
		X: word(0) / AccelScale,
		Y: word(2) / AccelScale,
		Z: word(4) / AccelScale,
	}
	gyro = Vector{
		X: word(8) / GyroScale,
		Y: word(10) / GyroScale,
		Z: word(12) / GyroScale,
	}
	return accel, gyro
}

func valid(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}
