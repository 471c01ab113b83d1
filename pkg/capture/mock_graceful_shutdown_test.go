package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestMock_GracefulShutdown tests that Mock device closes lines channel
// when Close() is called.
func TestMock_GracefulShutdown(t *testing.T) {
	mock := NewMock(testMockConfig())
	err := mock.Connect()
	assert.NoError(t, err)

	lines := mock.Lines()

	// Read a few lines
	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range lines {
			received++
			if received == 3 {
				// Got enough lines, now close device
				mock.Close()
			}
		}
	}()

	// Wait for lines and channel closure
	select {
	case <-done:
		// Channel closed successfully
	case <-time.After(5 * time.Second):
		t.Fatal("Lines channel did not close within timeout")
	}

	assert.GreaterOrEqual(t, received, 3, "Should receive lines before channel closes")
	assert.False(t, mock.IsConnected())

	// Verify channel is closed
	_, ok := <-lines
	assert.False(t, ok, "Channel should be closed")
}

// TestMock_CloseWithoutReader tests that Close does not block when nobody
// consumes the lines channel.
func TestMock_CloseWithoutReader(t *testing.T) {
	mock := NewMock(testMockConfig())
	assert.NoError(t, mock.Connect())

	time.Sleep(50 * time.Millisecond)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		mock.Close()
	}()

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close blocked")
	}
}
