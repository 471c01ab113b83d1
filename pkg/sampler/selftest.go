package sampler

import (
	"strconv"

	"github.com/chewxy/math32"
)

// SelfTest reads every sensor once and describes the outcome as LOG notes for
// Driver.Start.
func SelfTest(s Sensors) []string {
	notes := []string{"=== Initial sensor test ==="}

	temp, hum, err := s.Climate()
	switch {
	case err != nil:
		notes = append(notes, "DHT22 failing, check the DATA line: "+err.Error())
	case math32.IsNaN(temp) || math32.IsNaN(hum):
		notes = append(notes, "DHT22 failing, check the DATA line: invalid reading")
	default:
		notes = append(notes, "DHT22 working: "+oneDecimal(temp)+"°C, "+oneDecimal(hum)+"%")
	}

	if raw, err := s.Light(); err != nil {
		notes = append(notes, "LDR failing: "+err.Error())
	} else {
		notes = append(notes, "LDR working: "+strconv.Itoa(int(raw))+" (0-4095)")
	}

	if _, err := s.Motion(); err != nil {
		notes = append(notes, "MPU6050 not responding: "+err.Error())
	} else {
		notes = append(notes, "MPU6050 communicating via I2C")
	}

	return notes
}

func oneDecimal(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', 1, 32)
}
