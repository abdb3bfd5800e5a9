// Package typing turns local keystrokes into rate-limited typing signals.
package typing

import (
	"time"

	"client_go/internal/domain"
)

// DefaultTimeout is the quiet period after the last keystroke before
// typing:false is sent.
const DefaultTimeout = time.Second

// State of the local typing indicator.
type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// SignalFunc sends a typing signal for the given conversation.
type SignalFunc func(key domain.ConversationKey, isTyping bool)

// Debouncer is the idle/active state machine. It is not safe for concurrent
// use; expiry callbacks go through Schedule so the owner can serialise them.
type Debouncer struct {
	clock    domain.Clock
	timeout  time.Duration
	signal   SignalFunc
	schedule func(func())

	state State
	key   domain.ConversationKey
	timer domain.Timer
	gen   uint64
}

// Options configures a Debouncer. Schedule runs expiry handlers; by default
// they run directly on the timer goroutine.
type Options struct {
	Clock    domain.Clock
	Timeout  time.Duration
	Signal   SignalFunc
	Schedule func(func())
}

func New(opts Options) *Debouncer {
	d := &Debouncer{
		clock:    opts.Clock,
		timeout:  opts.Timeout,
		signal:   opts.Signal,
		schedule: opts.Schedule,
	}
	if d.clock == nil {
		d.clock = domain.SystemClock{}
	}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}
	if d.signal == nil {
		d.signal = func(domain.ConversationKey, bool) {}
	}
	if d.schedule == nil {
		d.schedule = func(f func()) { f() }
	}
	return d
}

// State returns the current state.
func (d *Debouncer) State() State {
	return d.state
}

// Keystroke records input activity in the conversation key.
func (d *Debouncer) Keystroke(key domain.ConversationKey) {
	if d.state == Active && d.key != key {
		d.stop()
		d.signal(d.key, false)
	}
	if d.state == Idle {
		d.state = Active
		d.key = key
		d.signal(key, true)
	}
	d.arm()
}

// Sent ends an active burst after an explicit send. The pending expiry is
// cancelled so typing:false goes out once; an idle debouncer sends nothing.
func (d *Debouncer) Sent() {
	if d.state != Active {
		return
	}
	key := d.key
	d.stop()
	d.signal(key, false)
}

// Reset drops an active burst without signalling, for when the connection
// is gone and nothing can reach the wire.
func (d *Debouncer) Reset() {
	d.stop()
}

// FocusChanged ends an active burst when the user switches conversation.
func (d *Debouncer) FocusChanged(key domain.ConversationKey) {
	if d.state == Active && d.key != key {
		d.stop()
		d.signal(d.key, false)
	}
}

func (d *Debouncer) arm() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.timeout, func() {
		d.schedule(func() { d.expire(gen) })
	})
}

func (d *Debouncer) expire(gen uint64) {
	if d.state != Active || gen != d.gen {
		return
	}
	key := d.key
	d.state = Idle
	d.timer = nil
	d.signal(key, false)
}

func (d *Debouncer) stop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.state = Idle
}
