//go:build tinygo

package main

import "machine"

const (
	// Sensor wiring on the ESP32 devkit
	PIN_DHT = machine.GPIO15 // DHT22 data
	PIN_LDR = machine.GPIO34 // LDR divider, ADC1
	PIN_SDA = machine.GPIO21 // MPU6050 I2C
	PIN_SCL = machine.GPIO22

	// MPU6050 registers
	MPU_ADDRESS    = 0x68
	MPU_PWR_MGMT_1 = 0x6B // Writing 0 wakes the device
	MPU_ACCEL_OUT  = 0x3B // First of 14 data registers

	// The host expects 115200 8N1
	UART_BAUD_RATE = 115200

	// Time for the host to open the port after reset
	STARTUP_DELAY_MS = 2000
)
