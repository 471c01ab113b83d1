//go:build tinygo

//go:generate tinygo flash -target=esp32-coreboard-v2

package main

import (
	"context"
	"machine"
	"time"

	"github.com/itohio/sensmon/pkg/protocol"
	"github.com/itohio/sensmon/pkg/sampler"
)

func main() {
	machine.Serial.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	// Give the host time to open the port
	time.Sleep(STARTUP_DELAY_MS * time.Millisecond)

	sensors, notes := setupSensors()

	drv := sampler.New(sensors, protocol.NewEmitter(machine.Serial), sampler.NewSystemClock())
	drv.Start(notes...)

	// Never returns
	drv.Run(context.Background())
}
