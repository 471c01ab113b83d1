package capture

import "github.com/itohio/sensmon/pkg/protocol"

// Device defines the interface for monitor devices (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Lines() <-chan protocol.Line
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
