package logger_test

import (
	"errors"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pricefeed/core/logger"
)

func TestGroup(t *testing.T) {
	t.Parallel()
	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

// ============================================================================
// Error Handling Tests
// ============================================================================

func TestErrors(t *testing.T) {
	t.Parallel()
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	empty := logger.Errors(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	t.Parallel()
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	empty := logger.Error(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

// ============================================================================
// Timing Tests
// ============================================================================

func TestDuration(t *testing.T) {
	t.Parallel()
	d := 5 * time.Second
	attr := logger.Duration(d)
	require.Equal(t, "duration", attr.Key)
	assert.Equal(t, d, attr.Value.Duration())
}

func TestInterval(t *testing.T) {
	t.Parallel()
	attr := logger.Interval(500 * time.Millisecond)
	require.Equal(t, "interval", attr.Key)
	assert.Equal(t, 500*time.Millisecond, attr.Value.Duration())
}

func TestElapsed(t *testing.T) {
	t.Parallel()
	start := time.Now().Add(-50 * time.Millisecond)
	attr := logger.Elapsed(start)
	require.Equal(t, "elapsed", attr.Key)
	assert.GreaterOrEqual(t, attr.Value.Duration(), 50*time.Millisecond)
}

// ============================================================================
// Connection and Feed Tests
// ============================================================================

func TestConnID(t *testing.T) {
	t.Parallel()
	attr := logger.ConnID("c-1")
	require.Equal(t, "conn_id", attr.Key)
	assert.Equal(t, "c-1", attr.Value.String())

	assert.True(t, logger.ConnID("").Equal(slog.Attr{}))
}

func TestRemoteAddr(t *testing.T) {
	t.Parallel()
	addr := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 4242}
	attr := logger.RemoteAddr(addr)
	require.Equal(t, "remote_addr", attr.Key)
	assert.Equal(t, "127.0.0.1:4242", attr.Value.String())

	assert.True(t, logger.RemoteAddr(nil).Equal(slog.Attr{}))
}

func TestFeedAttrs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		attr slog.Attr
		key  string
		want string
	}{
		{"addr", logger.Addr(":8080"), "addr", ":8080"},
		{"value", logger.Value("Stock Price: 101.00"), "value", "Stock Price: 101.00"},
		{"symbol", logger.Symbol("AAPL"), "symbol", "AAPL"},
		{"state", logger.State("streaming"), "state", "streaming"},
		{"component", logger.Component("server"), "component", "server"},
		{"event", logger.Event("startup"), "event", "startup"},
		{"result", logger.Result("success"), "result", "success"},
		{"version", logger.Version("v1"), "version", "v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.want, tt.attr.Value.String())
		})
	}

	assert.True(t, logger.Symbol("").Equal(slog.Attr{}))
}

func TestLagged(t *testing.T) {
	t.Parallel()
	attr := logger.Lagged(7)
	require.Equal(t, "lagged", attr.Key)
	assert.Equal(t, uint64(7), attr.Value.Uint64())
}

func TestBytes(t *testing.T) {
	t.Parallel()
	assert.Equal(t, int64(10), logger.BytesIn(10).Value.Int64())
	assert.Equal(t, int64(20), logger.BytesOut(20).Value.Int64())
}

// ============================================================================
// Generic Metadata Tests
// ============================================================================

func TestCount(t *testing.T) {
	t.Parallel()
	attr := logger.Count("subscribers", 3)
	require.Equal(t, "subscribers", attr.Key)
	assert.Equal(t, int64(3), attr.Value.Int64())
}

func TestKey(t *testing.T) {
	t.Parallel()
	attr := logger.Key("k", 42)
	require.Equal(t, "k", attr.Key)
	assert.Equal(t, int64(42), attr.Value.Int64())

	assert.True(t, logger.Key("k", nil).Equal(slog.Attr{}))
}

func TestRetryCount(t *testing.T) {
	t.Parallel()
	attr := logger.RetryCount(2)
	require.Equal(t, "retry_count", attr.Key)
	assert.Equal(t, int64(2), attr.Value.Int64())
}

// ============================================================================
// Debugging Tests
// ============================================================================

func TestStack(t *testing.T) {
	t.Parallel()
	attr := logger.Stack()
	require.Equal(t, "stack", attr.Key)
	assert.True(t, strings.Contains(attr.Value.String(), "goroutine"))
}

func TestPanic(t *testing.T) {
	t.Parallel()
	attr := logger.Panic("boom")
	require.Equal(t, "panic", attr.Key)
	assert.Equal(t, "boom", attr.Value.Any())

	assert.True(t, logger.Panic(nil).Equal(slog.Attr{}))
}
