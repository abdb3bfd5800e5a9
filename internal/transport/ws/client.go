// Package ws is the websocket transport: it dials the chat backend, reads
// {event, data} frames and reconnects with exponential backoff.
package ws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"client_go/internal/domain"
)

const writeWait = 5 * time.Second

type Options struct {
	URL        string
	Header     http.Header
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Logger     *log.Logger
	Dialer     *websocket.Dialer
}

// Client implements domain.Transport over gorilla/websocket.
type Client struct {
	opts Options

	mu     sync.Mutex
	conn   *websocket.Conn
	writeM sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}
}

func New(opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 100 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 5 * time.Second
	}
	if opts.Dialer == nil {
		opts.Dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}
	return &Client{opts: opts, closed: make(chan struct{})}
}

// backoff returns the wait before retry attempt n (1-based).
func (c *Client) backoff(n int) time.Duration {
	d := c.opts.BaseDelay
	for i := 1; i < n; i++ {
		d *= 2
		if d >= c.opts.MaxDelay {
			return c.opts.MaxDelay
		}
	}
	return d
}

// Run dials and serves the connection until ctx is done or Close is called.
// After MaxRetries consecutive failed dials it gives up.
func (c *Client) Run(ctx context.Context, sink domain.FrameSink) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.closed:
			cancel()
		case <-ctx.Done():
		}
	}()

	failures := 0
	for {
		sink.OnConnecting()
		conn, _, err := c.opts.Dialer.DialContext(ctx, c.opts.URL, c.opts.Header)
		if err != nil {
			if ctx.Err() != nil {
				return c.exitErr(ctx)
			}
			failures++
			c.opts.Logger.Printf("ws: dial %s (attempt %d/%d): %v", c.opts.URL, failures, c.opts.MaxRetries, err)
			sink.OnDisconnected(err)
			if failures >= c.opts.MaxRetries {
				return fmt.Errorf("ws: giving up after %d attempts: %w", failures, err)
			}
			if !c.sleep(ctx, c.backoff(failures)) {
				return c.exitErr(ctx)
			}
			continue
		}
		failures = 0

		c.setConn(conn)
		stop := context.AfterFunc(ctx, func() { conn.Close() })
		sink.OnConnected()
		err = c.readLoop(conn, sink)
		stop()
		c.setConn(nil)
		conn.Close()

		if ctx.Err() != nil {
			sink.OnDisconnected(nil)
			return c.exitErr(ctx)
		}
		sink.OnDisconnected(err)
		failures++
		if !c.sleep(ctx, c.backoff(failures)) {
			return c.exitErr(ctx)
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn, sink domain.FrameSink) error {
	for {
		var f domain.Frame
		if err := conn.ReadJSON(&f); err != nil {
			return err
		}
		if f.Event == "" {
			continue
		}
		sink.OnFrame(f)
	}
}

func (c *Client) exitErr(ctx context.Context) error {
	select {
	case <-c.closed:
		return domain.ErrClosed
	default:
		return ctx.Err()
	}
}

func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

// Send writes one frame. Without a live connection the frame is dropped.
func (c *Client) Send(f domain.Frame) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return domain.ErrNotConnected
	}
	c.writeM.Lock()
	defer c.writeM.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(f); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) {
			return domain.ErrNotConnected
		}
		return err
	}
	return nil
}

// Close ends Run and closes the live connection.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn != nil {
			c.writeM.Lock()
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			c.writeM.Unlock()
		}
	})
	return nil
}
