// Package engine runs the client's single logical thread: inbound events,
// user commands, typing timer expiries and focus changes are processed one
// at a time to completion, so the conversation store is never mutated
// concurrently.
package engine

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"client_go/internal/connection"
	"client_go/internal/domain"
	"client_go/internal/outbound"
	"client_go/internal/router"
	"client_go/internal/store"
	"client_go/internal/typing"
)

// UpdateFunc is called on the loop after every inbound event is applied.
// It must not call back into the Engine.
type UpdateFunc func(ev domain.Event, snap store.Snapshot)

type Options struct {
	Self          string
	Rooms         []domain.Room
	Notifier      domain.Notifier
	Sound         domain.SoundPlayer
	Focus         domain.FocusSource
	Clock         domain.Clock
	TypingTimeout time.Duration
	OnUpdate      UpdateFunc
	Logger        *log.Logger
	Debug         bool
}

type Engine struct {
	conn     *connection.Manager
	store    *store.Store
	router   *router.Router
	builder  *outbound.Builder
	typing   *typing.Debouncer
	onUpdate UpdateFunc
	logger   *log.Logger
	debug    bool
	self     string

	windowFocused bool

	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
}

func New(conn *connection.Manager, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Clock == nil {
		opts.Clock = domain.SystemClock{}
	}
	e := &Engine{
		conn:          conn,
		store:         store.New(opts.Rooms),
		onUpdate:      opts.OnUpdate,
		logger:        opts.Logger,
		debug:         opts.Debug,
		self:          opts.Self,
		windowFocused: true,
		tasks:         make(chan func()),
		done:          make(chan struct{}),
	}
	e.router = router.New(e.store, router.Options{
		Self:          opts.Self,
		Notifier:      opts.Notifier,
		Sound:         opts.Sound,
		WindowFocused: func() bool { return e.windowFocused },
		Now:           opts.Clock.Now,
		Logger:        opts.Logger,
	})
	e.builder = outbound.New(conn, e.store)
	e.typing = typing.New(typing.Options{
		Clock:    opts.Clock,
		Timeout:  opts.TypingTimeout,
		Signal:   e.sendTyping,
		Schedule: e.post,
	})
	if opts.Focus != nil {
		e.windowFocused = opts.Focus.Focused()
		opts.Focus.OnFocusChange(func(focused bool) {
			e.post(func() { e.focusChanged(focused) })
		})
	}
	return e
}

// Run processes work until ctx is done or Close is called.
func (e *Engine) Run(ctx context.Context) error {
	defer func() {
		e.store.Dispose()
		e.shutdown()
	}()
	events := e.conn.Events()
	for {
		select {
		case ev := <-events:
			e.handle(ev)
		case task := <-e.tasks:
			task()
		case <-ctx.Done():
			return ctx.Err()
		case <-e.done:
			return nil
		}
	}
}

// Close stops Run and disposes the store.
func (e *Engine) Close() {
	e.shutdown()
}

func (e *Engine) shutdown() {
	e.closeOnce.Do(func() {
		close(e.done)
	})
}

func (e *Engine) handle(ev domain.Event) {
	switch ev.(type) {
	case domain.Connected:
		e.logger.Printf("engine: session up as %s", e.self)
	case domain.Disconnected:
		e.typing.Reset()
	}
	e.router.Route(ev)
	if e.onUpdate != nil {
		e.onUpdate(ev, e.store.Snapshot())
	}
}

func (e *Engine) focusChanged(focused bool) {
	e.windowFocused = focused
	if focused {
		e.store.ClearUnread(e.store.Selected())
	}
}

func (e *Engine) sendTyping(key domain.ConversationKey, isTyping bool) {
	if err := e.builder.Typing(key, isTyping); err != nil && e.debug {
		e.logger.Printf("engine: typing: %v", err)
	}
}

func (e *Engine) stopped() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// post queues f on the loop without waiting for it to run.
func (e *Engine) post(f func()) {
	select {
	case e.tasks <- f:
	case <-e.done:
	}
}

// do runs f on the loop and waits for it.
func (e *Engine) do(f func()) error {
	if e.stopped() {
		return domain.ErrClosed
	}
	ran := make(chan struct{})
	select {
	case e.tasks <- func() { f(); close(ran) }:
	case <-e.done:
		return domain.ErrClosed
	}
	select {
	case <-ran:
		return nil
	case <-e.done:
		return domain.ErrClosed
	}
}

func (e *Engine) call(f func() error) error {
	var err error
	if doErr := e.do(func() { err = f() }); doErr != nil {
		return doErr
	}
	return err
}

// SendText sends body to the focused conversation.
func (e *Engine) SendText(body string) error {
	return e.call(func() error {
		err := e.builder.SendText(body, e.store.Selected())
		if err == nil {
			e.typing.Sent()
		}
		return err
	})
}

// SendFile shares an uploaded file with the focused conversation.
func (e *Engine) SendFile(ref domain.FileRef) error {
	return e.call(func() error {
		return e.builder.SendFile(ref, e.store.Selected())
	})
}

// React toggles emoji on a message.
func (e *Engine) React(id domain.ID, emoji string) error {
	return e.call(func() error {
		return e.builder.React(id, emoji)
	})
}

// Select focuses a conversation and clears its unread counter.
func (e *Engine) Select(key domain.ConversationKey) error {
	return e.do(func() {
		e.typing.FocusChanged(key)
		e.store.SelectConversation(key)
	})
}

// Keystroke records input activity in the focused conversation.
func (e *Engine) Keystroke() error {
	return e.do(func() {
		e.typing.Keystroke(e.store.Selected())
	})
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() (store.Snapshot, error) {
	var snap store.Snapshot
	err := e.do(func() { snap = e.store.Snapshot() })
	return snap, err
}

// Messages returns the log of any conversation.
func (e *Engine) Messages(key domain.ConversationKey) ([]domain.Message, error) {
	var msgs []domain.Message
	err := e.do(func() { msgs = e.store.Messages(key) })
	return msgs, err
}

// IsConnected reports the connection state.
func (e *Engine) IsConnected() bool {
	return e.conn.IsConnected()
}

// IsClosed reports whether err means the engine has stopped.
func IsClosed(err error) bool {
	return errors.Is(err, domain.ErrClosed)
}
