// Package actuator bridges classification results to a physical actuator
// over a line-oriented port. One command is written per send and the bridge
// blocks until the device acknowledges with a line, the bounded timeout
// expires, or the caller's context is cancelled. Multiple sessions share one
// bridge; commands are serialized so acknowledgments cannot interleave.
package actuator

import (
	"bufio"
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/strideworks/streampose/internal/monitoring"
)

var (
	// ErrWriteFailed is returned when the port accepts fewer bytes than the
	// command length.
	ErrWriteFailed = fmt.Errorf("failed to write command to actuator port")

	// ErrAckTimeout is returned when the device does not acknowledge a
	// command within the bridge timeout.
	ErrAckTimeout = fmt.Errorf("timed out waiting for actuator acknowledgment")

	// ErrClosed is returned for sends on a closed bridge.
	ErrClosed = fmt.Errorf("actuator bridge is closed")
)

// DefaultAckTimeout bounds how long a stalled device can block a session.
const DefaultAckTimeout = 2 * time.Second

// Bridge multiplexes a single actuator port: sessions send commands through
// it and any number of observers can subscribe to the raw line stream (the
// debug tail uses this).
type Bridge struct {
	port    Porter
	timeout time.Duration

	subscribers  map[string]chan string
	subscriberMu sync.Mutex

	commandMu sync.Mutex

	closing   bool
	closingMu sync.Mutex
}

// NewBridge creates a bridge over the given port. A non-positive timeout
// falls back to DefaultAckTimeout.
func NewBridge(port Porter, timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = DefaultAckTimeout
	}
	return &Bridge{
		port:        port,
		timeout:     timeout,
		subscribers: make(map[string]chan string),
	}
}

// randomID generates a random subscriber ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

// Subscribe creates a new channel receiving every line the device emits. The
// returned ID identifies the channel for Unsubscribe.
func (b *Bridge) Subscribe() (string, chan string) {
	id := randomID()
	ch := make(chan string, 4)
	b.subscriberMu.Lock()
	defer b.subscriberMu.Unlock()
	b.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bridge) Unsubscribe(id string) {
	b.subscriberMu.Lock()
	defer b.subscriberMu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// Send writes a command to the actuator and waits for the next line it emits
// as the acknowledgment. Returns the acknowledgment payload, or an error on
// write failure, timeout, or context cancellation. Safe for concurrent use;
// concurrent sends are serialized.
func (b *Bridge) Send(ctx context.Context, command string) (string, error) {
	b.closingMu.Lock()
	if b.closing {
		b.closingMu.Unlock()
		return "", ErrClosed
	}
	b.closingMu.Unlock()

	b.commandMu.Lock()
	defer b.commandMu.Unlock()

	// Subscribe before writing so the ack cannot race past us.
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	if !strings.HasSuffix(command, "\n") {
		command += "\n"
	}
	n, err := b.port.Write([]byte(command))
	if err != nil {
		return "", fmt.Errorf("write actuator command: %w", err)
	}
	if n != len(command) {
		return "", ErrWriteFailed
	}

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case ack, ok := <-ch:
		if !ok {
			return "", ErrClosed
		}
		return ack, nil
	case <-timer.C:
		return "", ErrAckTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Monitor reads lines from the actuator port and fans them out to
// subscribers until the context is cancelled or the port errors. Run it in
// its own goroutine for the lifetime of the bridge.
func (b *Bridge) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(b.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking scan.Scan runs in its own goroutine so the outer loop can
	// await lines and context cancellation together.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				return scan.Err()
			}

			b.closingMu.Lock()
			if b.closing {
				b.closingMu.Unlock()
				return nil
			}
			b.closingMu.Unlock()

			b.subscriberMu.Lock()
			for _, ch := range b.subscribers {
				select {
				case ch <- line:
				default:
					// never let a slow subscriber block the monitor loop
				}
			}
			b.subscriberMu.Unlock()
		}
	}
}

// Close closes all subscriber channels and the underlying port. In-flight
// sends fail with ErrClosed rather than leaking a blocked caller.
func (b *Bridge) Close() error {
	b.closingMu.Lock()
	if b.closing {
		b.closingMu.Unlock()
		return nil
	}
	b.closing = true
	b.closingMu.Unlock()

	b.subscriberMu.Lock()
	defer b.subscriberMu.Unlock()
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}

	monitoring.Logf("actuator bridge closed")
	return b.port.Close()
}
