package actuator

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// Porter is the minimal interface the bridge needs from an actuator port.
// The abstraction enables unit testing without real hardware.
type Porter interface {
	io.ReadWriter
	io.Closer
}

// PortOptions configures a real serial actuator port.
type PortOptions struct {
	BaudRate int
}

// DefaultPortOptions returns the mode used by the serial actuator devices.
func DefaultPortOptions() PortOptions {
	return PortOptions{BaudRate: 9600}
}

// OpenSerialBridge opens a serial port at the given path and wraps it in a
// Bridge.
func OpenSerialBridge(path string, opts PortOptions, timeout time.Duration) (*Bridge, error) {
	if opts.BaudRate <= 0 {
		opts = DefaultPortOptions()
	}

	port, err := serial.Open(path, &serial.Mode{BaudRate: opts.BaudRate})
	if err != nil {
		return nil, fmt.Errorf("open actuator port %s: %w", path, err)
	}

	return NewBridge(port, timeout), nil
}
