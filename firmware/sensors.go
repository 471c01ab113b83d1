//go:build tinygo

package main

import (
	"machine"

	"github.com/itohio/sensmon/pkg/sampler"
	"github.com/itohio/sensmon/pkg/sensor"
	"tinygo.org/x/drivers/dht"
)

// boardSensors binds the DHT22, the LDR and the MPU6050 to sampler.Sensors.
type boardSensors struct {
	climate dht.Device
	ldr     machine.ADC
	i2c     *machine.I2C
}

// setupSensors configures the hardware, reads each sensor once and returns the
// setup notes to report to the host.
func setupSensors() (*boardSensors, []string) {
	s := &boardSensors{}
	var notes []string

	s.climate = dht.New(PIN_DHT, dht.DHT22)
	notes = append(notes, "DHT22 initialized (GPIO 15)")

	s.i2c = machine.I2C0
	err := s.i2c.Configure(machine.I2CConfig{
		SDA:       PIN_SDA,
		SCL:       PIN_SCL,
		Frequency: 400 * machine.KHz,
	})
	if err == nil {
		err = s.i2c.WriteRegister(MPU_ADDRESS, MPU_PWR_MGMT_1, []byte{0})
	}
	if err != nil {
		notes = append(notes, "MPU6050 NOT detected, check wiring: "+err.Error())
	} else {
		notes = append(notes, "MPU6050 detected (I2C: SDA=21, SCL=22)")
	}

	machine.InitADC()
	PIN_LDR.Configure(machine.PinConfig{Mode: machine.PinInput})
	s.ldr = machine.ADC{Pin: PIN_LDR}
	s.ldr.Configure(machine.ADCConfig{})
	notes = append(notes, "LDR configured (GPIO 34)")

	notes = append(notes, sampler.SelfTest(s)...)
	return s, notes
}

// Climate returns temperature in °C and relative humidity in %.
func (s *boardSensors) Climate() (float32, float32, error) {
	temp, hum, err := s.climate.Measurements()
	if err != nil {
		return 0, 0, err
	}
	// The driver reports tenths.
	return float32(temp) / 10, float32(hum) / 10, nil
}

// Light returns the 12 bit LDR reading.
func (s *boardSensors) Light() (uint16, error) {
	// Get scales to 16 bits.
	return s.ldr.Get() >> 4, nil
}

// Motion reads the accelerometer, temperature and gyroscope registers in one burst.
func (s *boardSensors) Motion() ([sensor.MotionFrameSize]byte, error) {
	var frame [sensor.MotionFrameSize]byte
	err := s.i2c.ReadRegister(MPU_ADDRESS, MPU_ACCEL_OUT, frame[:])
	return frame, err
}
