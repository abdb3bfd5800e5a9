// Package connection owns the transport handle, tracks the connection
// state and performs the join handshake.
package connection

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"client_go/internal/domain"
)

// State of the connection.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Identity is what the local user joins with.
type Identity struct {
	Username string
}

// Manager wraps a transport. It is the only producer of Connected and
// Disconnected events.
type Manager struct {
	transport domain.Transport
	logger    *log.Logger
	debug     bool

	state    atomic.Int32
	identity atomic.Pointer[domain.JoinPayload]
	events   chan domain.Event

	closeOnce sync.Once
	closed    chan struct{}
}

type Options struct {
	Logger *log.Logger
	Debug  bool
	Buffer int
}

func New(t domain.Transport, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	return &Manager{
		transport: t,
		logger:    opts.Logger,
		debug:     opts.Debug,
		events:    make(chan domain.Event, opts.Buffer),
		closed:    make(chan struct{}),
	}
}

// Events delivers decoded inbound events in arrival order.
func (m *Manager) Events() <-chan domain.Event {
	return m.events
}

// State returns the current connection state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// IsConnected reports whether emits currently reach the wire.
func (m *Manager) IsConnected() bool {
	return m.State() == Connected
}

// Connect opens the session and blocks until ctx is done or Close is
// called. An empty username does nothing.
func (m *Manager) Connect(ctx context.Context, id Identity) error {
	if id.Username == "" {
		m.logger.Printf("connection: refusing to connect without a username")
		return nil
	}
	select {
	case <-m.closed:
		return domain.ErrClosed
	default:
	}
	m.identity.Store(&domain.JoinPayload{Username: id.Username, Avatar: domain.AvatarURL(id.Username)})
	m.state.Store(int32(Connecting))

	err := m.transport.Run(ctx, sink{m})
	m.state.Store(int32(Disconnected))
	if errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrClosed) {
		return nil
	}
	return err
}

// Emit sends a command. While disconnected the command is dropped.
func (m *Manager) Emit(event string, payload any) error {
	if !m.IsConnected() {
		if m.debug {
			m.logger.Printf("connection: dropped %s while %s", event, m.State())
		}
		return domain.ErrNotConnected
	}
	f, err := domain.NewFrame(event, payload)
	if err != nil {
		return err
	}
	if m.debug {
		m.logger.Printf("connection: -> %s %s", f.Event, f.Data)
	}
	return m.transport.Send(f)
}

// Close tears the session down for good.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.closed)
		m.state.Store(int32(Disconnected))
		err = m.transport.Close()
	})
	return err
}

func (m *Manager) publish(ev domain.Event) {
	select {
	case m.events <- ev:
	case <-m.closed:
	}
}

type sink struct{ m *Manager }

func (s sink) OnConnecting() {
	s.m.state.Store(int32(Connecting))
}

func (s sink) OnConnected() {
	m := s.m
	m.state.Store(int32(Connected))
	m.logger.Printf("connection: connected")
	if join := m.identity.Load(); join != nil {
		if err := m.Emit(domain.CmdJoin, *join); err != nil {
			m.logger.Printf("connection: join: %v", err)
		}
	}
	m.publish(domain.Connected{})
}

func (s sink) OnDisconnected(err error) {
	m := s.m
	m.state.Store(int32(Disconnected))
	if err != nil {
		m.logger.Printf("connection: disconnected: %v", err)
	} else {
		m.logger.Printf("connection: disconnected")
	}
	m.publish(domain.Disconnected{Err: err})
}

func (s sink) OnFrame(f domain.Frame) {
	m := s.m
	if m.debug {
		m.logger.Printf("connection: <- %s %s", f.Event, f.Data)
	}
	ev, err := domain.DecodeEvent(f)
	if err != nil {
		m.logger.Printf("connection: %v", err)
		return
	}
	m.publish(ev)
}
