// Package capture receives the monitor protocol on the host: it owns the
// connection to the device and turns received lines into storage operations.
package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/itohio/sensmon/pkg/protocol"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the UART speed of the monitor firmware.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the lines channel buffer.
	DefaultBufferSize = 100
)

// ErrAlreadyConnected is returned by Connect on an open device. Close on a
// closed device is a no-op.
var ErrAlreadyConnected = errors.New("already connected")

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to the monitor board over a serial port.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	lines     chan protocol.Line
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	connected bool
}

// New creates a new Serial device with the specified port, baud rate, and buffer size.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	return &Serial{
		port:      port,
		baudRate:  baudRate,
		bufSize:   bufSize,
		lines:     make(chan protocol.Line, bufSize),
		connected: false,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Connect opens the serial port and starts reading lines.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return ErrAlreadyConnected
	}

	port, err := serial.Open(d.port, &serial.Mode{
		BaudRate: d.baudRate,
	})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	if d.done != nil {
		// The previous connection closed its channel.
		d.lines = make(chan protocol.Line, d.bufSize)
	}

	d.conn = port
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.done = make(chan struct{})
	d.connected = true

	lines := d.lines
	go func() {
		defer close(d.done)
		readLines(d.ctx, port, lines)
	}()

	return nil
}

// Close closes the port. The lines channel is closed once the reader exits.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	<-d.done
	d.connected = false

	return nil
}

// Lines returns the channel of parsed protocol lines for the current connection.
func (d *Serial) Lines() <-chan protocol.Line {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lines
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readLines scans r line by line, parses each line and sends it to out until
// r is exhausted or ctx is done. It closes out on return.
// Lines that are not part of the protocol (boot ROM noise, partial lines after
// a reset) are logged and skipped.
func readLines(ctx context.Context, r io.Reader, out chan<- protocol.Line) {
	defer close(out)
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Panic in readLines: %v", rec)
		}
	}()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		text := scanner.Text()
		if len(text) == 0 {
			continue
		}

		line, err := protocol.Parse(text)
		if err != nil {
			log.Printf("Skipping line: %v", err)
			continue
		}

		// Every line may carry a persistence command, so wait instead of dropping.
		select {
		case out <- line:
		case <-ctx.Done():
			return
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		log.Printf("Error reading from device: %v", err)
	}
}
