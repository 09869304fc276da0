package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/pricefeed/core/admission"
	"github.com/dmitrymomot/pricefeed/core/feed"
	"github.com/dmitrymomot/pricefeed/core/logger"
	"github.com/dmitrymomot/pricefeed/core/metrics"
	"github.com/dmitrymomot/pricefeed/pkg/broadcast"
)

// State is the lifecycle stage of a consumer connection.
type State int32

const (
	// StateInit: the connection holds its slot and is subscribing.
	StateInit State = iota
	// StateSendingInitial: the latest value (or placeholder) is being written.
	StateSendingInitial
	// StateStreaming: live values are forwarded as they are published.
	StateStreaming
	// StateClosed: slot, subscription and socket have been released.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateSendingInitial:
		return "sending_initial"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// connection is the per-consumer state machine. It owns conn and permit.
type connection struct {
	id     string
	conn   net.Conn
	permit *admission.Permit
	active *atomic.Int64
	sub    *broadcast.Subscription[feed.Update]
	w      *bufio.Writer
	state  State

	feed         Feed
	placeholder  feed.Value
	writeTimeout time.Duration
	logger       *slog.Logger
	metrics      *metrics.Collector
	stateHook    func(string, State)

	started  time.Time
	bytesOut int64
	bytesIn  atomic.Int64
	lagged   uint64
}

func (s *Server) handle(ctx context.Context, conn net.Conn, permit *admission.Permit) {
	id := uuid.NewString()
	c := &connection{
		id:           id,
		conn:         conn,
		permit:       permit,
		active:       &s.active,
		w:            bufio.NewWriter(conn),
		feed:         s.feed,
		placeholder:  s.placeholder,
		writeTimeout: s.writeTimeout,
		logger: s.logger.With(
			logger.Component("connection"),
			logger.ConnID(id),
			logger.RemoteAddr(conn.RemoteAddr()),
		),
		metrics:   s.metrics,
		stateHook: s.stateHook,
		started:   time.Now(),
	}

	s.metrics.ConnectionsActive.Inc()
	c.logger.InfoContext(ctx, "consumer connected")

	var err error
	defer func() {
		reason := closeReason(ctx, err)
		if r := recover(); r != nil {
			reason = metrics.ReasonPanic
			c.logger.Error("connection handler panicked", logger.Panic(r), logger.Stack())
		}
		c.close(reason, err)
	}()

	err = c.run(ctx)
}

func (c *connection) run(ctx context.Context) error {
	c.setState(StateInit)

	// Subscribe before reading the cache so nothing published in between is missed.
	c.sub = c.feed.Subscribe()
	value, seq := c.feed.Latest()
	if seq == 0 {
		value = c.placeholder
	}

	c.setState(StateSendingInitial)
	if err := c.write(value); err != nil {
		return err
	}
	if err := c.flush(); err != nil {
		return err
	}

	c.setState(StateStreaming)

	g, gctx := errgroup.WithContext(ctx)
	// Closing the socket is what interrupts a blocked Read or Write.
	stop := context.AfterFunc(gctx, func() { _ = c.conn.Close() })
	defer stop()

	// Writing stays on the handler goroutine so its recover covers it.
	g.Go(c.readLoop)
	werr := c.writeLoop(gctx, seq)
	_ = c.conn.Close()
	rerr := g.Wait()

	if rerr != nil && errors.Is(werr, context.Canceled) {
		return rerr
	}
	return werr
}

// writeLoop forwards updates newer than seen. Values already delivered as the
// initial line are skipped.
func (c *connection) writeLoop(ctx context.Context, seen uint64) error {
	for {
		u, err := c.sub.Next(ctx)
		if err != nil {
			var lagErr *broadcast.LaggedError
			if errors.As(err, &lagErr) {
				c.lagged += lagErr.Count
				c.metrics.LaggedValues.Add(float64(lagErr.Count))
				c.logger.WarnContext(ctx, "consumer is lagging, values dropped", logger.Lagged(lagErr.Count))
				continue
			}
			return err
		}

		if u.Seq <= seen {
			continue
		}
		seen = u.Seq

		if err := c.write(u.Value); err != nil {
			return err
		}
		if c.sub.Pending() == 0 {
			if err := c.flush(); err != nil {
				return err
			}
		}
	}
}

// readLoop drains whatever the consumer sends. EOF is an orderly close.
func (c *connection) readLoop() error {
	buf := make([]byte, readBufferSize)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			c.bytesIn.Add(int64(n))
			c.logger.Debug("consumer sent data", logger.BytesIn(int64(n)))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ErrPeerClosed
			}
			return fmt.Errorf("%w: %w", ErrPeerClosed, err)
		}
	}
}

func (c *connection) write(v feed.Value) error {
	if err := c.setDeadline(); err != nil {
		return err
	}
	n, err := c.w.Write(v.Line())
	c.bytesOut += int64(n)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	c.metrics.ValuesSent.Inc()
	return nil
}

func (c *connection) flush() error {
	if err := c.setDeadline(); err != nil {
		return err
	}
	if err := c.w.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

func (c *connection) setDeadline() error {
	if c.writeTimeout <= 0 {
		return nil
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// close releases everything the connection holds. It runs exactly once, on
// every exit path.
func (c *connection) close(reason string, err error) {
	if c.sub != nil {
		c.sub.Close()
	}
	_ = c.conn.Close()
	c.permit.Release()

	c.metrics.ConnectionsActive.Dec()
	c.metrics.ConnectionsClosed.WithLabelValues(reason).Inc()
	c.metrics.PermitsInUse.Dec()
	c.active.Add(-1)

	attrs := []any{
		logger.Result(reason),
		logger.Elapsed(c.started),
		logger.BytesOut(c.bytesOut),
		logger.BytesIn(c.bytesIn.Load()),
	}
	if c.lagged > 0 {
		attrs = append(attrs, logger.Lagged(c.lagged))
	}
	if err != nil && reason != metrics.ReasonPeerClosed && reason != metrics.ReasonShutdown {
		attrs = append(attrs, logger.Error(err))
	}
	c.logger.Info("consumer disconnected", attrs...)

	c.setState(StateClosed)
}

func (c *connection) setState(st State) {
	c.state = st
	c.logger.Debug("connection state changed", logger.State(st.String()))
	if c.stateHook != nil {
		c.stateHook(c.id, st)
	}
}

func closeReason(ctx context.Context, err error) string {
	switch {
	case ctx.Err() != nil:
		return metrics.ReasonShutdown
	case errors.Is(err, broadcast.ErrClosed):
		return metrics.ReasonFeedClosed
	case errors.Is(err, ErrWrite):
		return metrics.ReasonWriteError
	case errors.Is(err, ErrPeerClosed):
		return metrics.ReasonPeerClosed
	default:
		return metrics.ReasonShutdown
	}
}
