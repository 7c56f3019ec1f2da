package actuator

import (
	"io"
	"strings"
	"time"
)

// MockPort implements Porter with a loopback device: every command line
// written to it is acknowledged with "ack:<command>" after a configurable
// delay. Used in dev mode and tests in place of real hardware.
type MockPort struct {
	reader *io.PipeReader
	writer *io.PipeWriter

	// AckDelay simulates device latency before each acknowledgment.
	AckDelay time.Duration
}

// NewMockPort creates a loopback actuator port.
func NewMockPort() *MockPort {
	r, w := io.Pipe()
	return &MockPort{reader: r, writer: w}
}

func (m *MockPort) Read(p []byte) (int, error) {
	return m.reader.Read(p)
}

// Write accepts a command and schedules its acknowledgment on the read side.
func (m *MockPort) Write(p []byte) (int, error) {
	command := strings.TrimSpace(string(p))
	go func() {
		if m.AckDelay > 0 {
			time.Sleep(m.AckDelay)
		}
		// Write errors only occur after Close, when the monitor loop has
		// already terminated, so the result is discarded.
		m.writer.Write([]byte("ack:" + command + "\n"))
	}()
	return len(p), nil
}

func (m *MockPort) Close() error {
	m.reader.Close()
	return m.writer.Close()
}

// NewMockBridge creates a Bridge backed by a loopback port.
func NewMockBridge(timeout time.Duration) *Bridge {
	return NewBridge(NewMockPort(), timeout)
}
