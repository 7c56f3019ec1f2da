package actuator

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silentPort accepts writes but never produces any output, simulating a
// stalled device.
type silentPort struct {
	reader *io.PipeReader
	writer *io.PipeWriter
}

func newSilentPort() *silentPort {
	r, w := io.Pipe()
	return &silentPort{reader: r, writer: w}
}

func (p *silentPort) Read(b []byte) (int, error)  { return p.reader.Read(b) }
func (p *silentPort) Write(b []byte) (int, error) { return len(b), nil }
func (p *silentPort) Close() error {
	p.reader.Close()
	return p.writer.Close()
}

func startBridge(t *testing.T, b *Bridge) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Monitor(ctx)
	}()
	t.Cleanup(func() {
		b.Close()
		cancel()
		<-done
	})
}

func TestBridge_SendReceivesAck(t *testing.T) {
	b := NewMockBridge(time.Second)
	startBridge(t, b)

	ack, err := b.Send(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "ack:a", ack)
}

func TestBridge_SendAppendsNewline(t *testing.T) {
	b := NewMockBridge(time.Second)
	startBridge(t, b)

	// command with explicit newline must not double-terminate
	ack, err := b.Send(context.Background(), "go\n")
	require.NoError(t, err)
	assert.Equal(t, "ack:go", ack)
}

func TestBridge_SequentialSends(t *testing.T) {
	b := NewMockBridge(time.Second)
	startBridge(t, b)

	for _, cmd := range []string{"a", "b", "c"} {
		ack, err := b.Send(context.Background(), cmd)
		require.NoError(t, err)
		assert.Equal(t, "ack:"+cmd, ack)
	}
}

func TestBridge_AckTimeout(t *testing.T) {
	b := NewBridge(newSilentPort(), 50*time.Millisecond)
	startBridge(t, b)

	start := time.Now()
	_, err := b.Send(context.Background(), "a")
	require.ErrorIs(t, err, ErrAckTimeout)
	assert.Less(t, time.Since(start), time.Second, "timeout must be bounded")
}

func TestBridge_ContextCancellation(t *testing.T) {
	b := NewBridge(newSilentPort(), time.Minute)
	startBridge(t, b)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := b.Send(ctx, "a")
		errCh <- err
	}()
	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled send leaked a blocked caller")
	}
}

func TestBridge_SendAfterClose(t *testing.T) {
	b := NewMockBridge(time.Second)
	require.NoError(t, b.Close())

	_, err := b.Send(context.Background(), "a")
	require.ErrorIs(t, err, ErrClosed)
}

func TestBridge_SubscribeFanout(t *testing.T) {
	b := NewMockBridge(time.Second)
	startBridge(t, b)

	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	_, err := b.Send(context.Background(), "hello")
	require.NoError(t, err)

	select {
	case line := <-ch:
		assert.Equal(t, "ack:hello", line)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not observe the device line")
	}
}

func TestBridge_UnsubscribeClosesChannel(t *testing.T) {
	b := NewMockBridge(time.Second)

	id, ch := b.Subscribe()
	b.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open, "unsubscribed channel must be closed")
}

func TestAdminSendRoute(t *testing.T) {
	b := NewMockBridge(time.Second)
	startBridge(t, b)

	mux := http.NewServeMux()
	b.AttachAdminRoutes(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.PostForm(server.URL+"/debug/actuator/send", url.Values{"command": {"x"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "ack:x"), "body %q", body)

	// missing command is a client error
	resp2, err := http.PostForm(server.URL+"/debug/actuator/send", nil)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestDefaultTimeoutApplied(t *testing.T) {
	b := NewBridge(newSilentPort(), 0)
	assert.Equal(t, DefaultAckTimeout, b.timeout)
}
