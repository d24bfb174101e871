package adapter

import (
	"context"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// holdHandler keeps its connection open until the peer closes it.
type holdHandler struct {
	conn net.Conn
}

func (h *holdHandler) Serve(ctx context.Context) {
	defer func() { _ = h.conn.Close() }()
	_, _ = io.Copy(io.Discard, h.conn)
}

type testFactory struct {
	rejected atomic.Int32
}

func (f *testFactory) NewConnection(conn net.Conn) ConnectionHandler {
	return &holdHandler{conn: conn}
}

func (f *testFactory) RejectConnection(conn net.Conn) {
	f.rejected.Add(1)
	_, _ = conn.Write([]byte("full\n"))
}

type countingMetrics struct {
	accepted, closed, forceClosed, rejected atomic.Int32
	active                                   atomic.Int32
}

func (m *countingMetrics) RecordConnectionAccepted()    { m.accepted.Add(1) }
func (m *countingMetrics) RecordConnectionClosed()      { m.closed.Add(1) }
func (m *countingMetrics) RecordConnectionForceClosed() { m.forceClosed.Add(1) }
func (m *countingMetrics) RecordConnectionRejected()    { m.rejected.Add(1) }
func (m *countingMetrics) SetActiveConnections(n int32) { m.active.Store(n) }

func serveBase(t *testing.T, cfg BaseConfig, factory ConnectionFactory) (*BaseAdapter, *countingMetrics) {
	t.Helper()

	cfg.BindAddress = "127.0.0.1"
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = time.Second
	}
	b := NewBaseAdapter(cfg, "TEST")
	m := &countingMetrics{}
	b.Metrics = m

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.ServeWithFactory(ctx, factory, nil, nil)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.NotEmpty(t, b.GetListenerAddr())
	return b, m
}

func TestBaseAdapter_RejectsBeyondLimit(t *testing.T) {
	factory := &testFactory{}
	b, m := serveBase(t, BaseConfig{MaxConnections: 1}, factory)

	first, err := net.Dial("tcp", b.GetListenerAddr())
	require.NoError(t, err)
	defer func() { _ = first.Close() }()

	require.Eventually(t, func() bool { return b.GetActiveConnections() == 1 }, 2*time.Second, 5*time.Millisecond)

	second, err := net.Dial("tcp", b.GetListenerAddr())
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	notice, err := io.ReadAll(second)
	require.NoError(t, err)
	assert.Equal(t, "full\n", string(notice))

	assert.Equal(t, int32(1), factory.rejected.Load())
	assert.Equal(t, int32(1), m.rejected.Load())
	assert.Equal(t, int32(1), m.accepted.Load())
	assert.Equal(t, int32(1), b.GetActiveConnections())
}

func TestBaseAdapter_UnlimitedNeverRejects(t *testing.T) {
	factory := &testFactory{}
	b, m := serveBase(t, BaseConfig{}, factory)

	for i := 0; i < 5; i++ {
		c, err := net.Dial("tcp", b.GetListenerAddr())
		require.NoError(t, err)
		defer func() { _ = c.Close() }()
	}

	require.Eventually(t, func() bool { return b.GetActiveConnections() == 5 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), factory.rejected.Load())
	assert.Equal(t, int32(5), m.active.Load())
}

func TestBaseAdapter_StopInterruptsBlockedReads(t *testing.T) {
	b := NewBaseAdapter(BaseConfig{BindAddress: "127.0.0.1", ShutdownTimeout: time.Second}, "TEST")
	m := &countingMetrics{}
	b.Metrics = m

	errCh := make(chan error, 1)
	go func() { errCh <- b.ServeWithFactory(context.Background(), &testFactory{}, nil, nil) }()

	c, err := net.Dial("tcp", b.GetListenerAddr())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	require.Eventually(t, func() bool { return b.GetActiveConnections() == 1 }, 2*time.Second, 5*time.Millisecond)

	// The shutdown read deadline unblocks io.Copy
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, b.Stop(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ServeWithFactory did not return")
	}
	assert.Equal(t, int32(0), b.GetActiveConnections())
}

func TestBaseAdapter_PortAndProtocol(t *testing.T) {
	b := NewBaseAdapter(BaseConfig{Port: 9000}, "LINE")
	assert.Equal(t, 9000, b.Port())
	assert.Equal(t, "LINE", b.Protocol())
}

func TestBaseAdapter_IsListening(t *testing.T) {
	b := NewBaseAdapter(BaseConfig{BindAddress: "127.0.0.1", ShutdownTimeout: time.Second}, "TEST")
	assert.False(t, b.IsListening())

	errCh := make(chan error, 1)
	go func() { errCh <- b.ServeWithFactory(context.Background(), &testFactory{}, nil, nil) }()

	require.NotEmpty(t, b.GetListenerAddr())
	assert.True(t, b.IsListening())

	require.NoError(t, b.Stop(context.Background()))
	<-errCh
	assert.False(t, b.IsListening())
}
