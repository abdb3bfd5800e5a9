// Package redisbus carries the chat protocol over Redis pub/sub, for
// deployments where a gateway relays between Redis and the backend.
//
// Channels, for prefix p and user u:
//
//	p:client:u   frames addressed to u
//	p:broadcast  frames for every client
//	p:server     frames from clients, wrapped with the sender's username
package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"client_go/internal/domain"
)

// Envelope is what clients publish on the server channel.
type Envelope struct {
	From  string          `json:"from"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type Options struct {
	Addr       string
	Prefix     string
	Username   string
	MaxRetries int
	BaseDelay  time.Duration
	Logger     *log.Logger
}

// Bus implements domain.Transport on a redis client.
type Bus struct {
	rdb    *redis.Client
	opts   Options
	mu     sync.RWMutex
	up     bool
	closed chan struct{}
	once   sync.Once
}

func New(opts Options) *Bus {
	if opts.Prefix == "" {
		opts.Prefix = "chat"
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 100 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	return &Bus{
		rdb:    redis.NewClient(&redis.Options{Addr: opts.Addr}),
		opts:   opts,
		closed: make(chan struct{}),
	}
}

func ClientChannel(prefix, username string) string { return prefix + ":client:" + username }
func BroadcastChannel(prefix string) string        { return prefix + ":broadcast" }
func ServerChannel(prefix string) string           { return prefix + ":server" }

// DecodePayload parses a pub/sub payload into a frame.
func DecodePayload(payload string) (domain.Frame, error) {
	var f domain.Frame
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		return domain.Frame{}, fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err)
	}
	if f.Event == "" {
		return domain.Frame{}, fmt.Errorf("%w: missing event", domain.ErrMalformedEvent)
	}
	return f, nil
}

// EncodeEnvelope wraps an outbound frame with the sender.
func EncodeEnvelope(from string, f domain.Frame) ([]byte, error) {
	return json.Marshal(Envelope{From: from, Event: f.Event, Data: f.Data})
}

func (b *Bus) setUp(v bool) {
	b.mu.Lock()
	b.up = v
	b.mu.Unlock()
}

// Run subscribes and relays frames until ctx is done or Close is called.
func (b *Bus) Run(ctx context.Context, sink domain.FrameSink) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-b.closed:
			cancel()
		case <-ctx.Done():
		}
	}()

	failures := 0
	delay := b.opts.BaseDelay
	for {
		sink.OnConnecting()
		err := b.serve(ctx, sink, func() { failures, delay = 0, b.opts.BaseDelay })
		b.setUp(false)
		if ctx.Err() != nil {
			sink.OnDisconnected(nil)
			return b.exitErr(ctx)
		}
		failures++
		b.opts.Logger.Printf("redisbus: %v (attempt %d/%d)", err, failures, b.opts.MaxRetries)
		sink.OnDisconnected(err)
		if failures >= b.opts.MaxRetries {
			return fmt.Errorf("redisbus: giving up after %d attempts: %w", failures, err)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return b.exitErr(ctx)
		}
		delay *= 2
	}
}

func (b *Bus) exitErr(ctx context.Context) error {
	select {
	case <-b.closed:
		return domain.ErrClosed
	default:
		return ctx.Err()
	}
}

func (b *Bus) serve(ctx context.Context, sink domain.FrameSink, reset func()) error {
	if err := b.rdb.Ping(ctx).Err(); err != nil {
		return err
	}
	pubsub := b.rdb.Subscribe(ctx,
		ClientChannel(b.opts.Prefix, b.opts.Username),
		BroadcastChannel(b.opts.Prefix))
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	reset()
	b.setUp(true)
	sink.OnConnected()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("subscription closed")
			}
			f, err := DecodePayload(msg.Payload)
			if err != nil {
				b.opts.Logger.Printf("redisbus: %v", err)
				continue
			}
			sink.OnFrame(f)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Send publishes a frame to the server channel.
func (b *Bus) Send(f domain.Frame) error {
	b.mu.RLock()
	up := b.up
	b.mu.RUnlock()
	if !up {
		return domain.ErrNotConnected
	}
	payload, err := EncodeEnvelope(b.opts.Username, f)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return b.rdb.Publish(ctx, ServerChannel(b.opts.Prefix), payload).Err()
}

func (b *Bus) Close() error {
	var err error
	b.once.Do(func() {
		close(b.closed)
		b.setUp(false)
		err = b.rdb.Close()
	})
	return err
}
