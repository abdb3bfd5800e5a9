// Package focus provides attention sources: whether the user is currently
// looking at the client.
package focus

import (
	"sync"
	"time"

	"client_go/internal/domain"
)

// DefaultIdleAfter is how long without input before the user counts as away.
const DefaultIdleAfter = 5 * time.Minute

type handlers struct {
	mu   sync.Mutex
	list []func(bool)
}

func (h *handlers) add(f func(bool)) {
	h.mu.Lock()
	h.list = append(h.list, f)
	h.mu.Unlock()
}

func (h *handlers) fire(focused bool) {
	h.mu.Lock()
	list := make([]func(bool), len(h.list))
	copy(list, h.list)
	h.mu.Unlock()
	for _, f := range list {
		f(focused)
	}
}

// Manual is a focus source driven by explicit calls to Set.
type Manual struct {
	mu      sync.Mutex
	focused bool
	h       handlers
}

var _ domain.FocusSource = (*Manual)(nil)

func NewManual(focused bool) *Manual {
	return &Manual{focused: focused}
}

func (m *Manual) Focused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focused
}

func (m *Manual) OnFocusChange(handler func(bool)) {
	m.h.add(handler)
}

// Set changes focus and notifies handlers when the value changed.
func (m *Manual) Set(focused bool) {
	m.mu.Lock()
	changed := m.focused != focused
	m.focused = focused
	m.mu.Unlock()
	if changed {
		m.h.fire(focused)
	}
}

// Idle treats the user as unfocused after a period without input.
// Touch records input.
type Idle struct {
	clock domain.Clock
	after time.Duration

	mu      sync.Mutex
	focused bool
	last    time.Time
	timer   domain.Timer
	closed  bool
	h       handlers
}

var _ domain.FocusSource = (*Idle)(nil)

func NewIdle(clock domain.Clock, after time.Duration) *Idle {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if after <= 0 {
		after = DefaultIdleAfter
	}
	i := &Idle{clock: clock, after: after, focused: true, last: clock.Now()}
	i.mu.Lock()
	i.arm(after)
	i.mu.Unlock()
	return i
}

func (i *Idle) Focused() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.focused
}

func (i *Idle) OnFocusChange(handler func(bool)) {
	i.h.add(handler)
}

// Touch marks user activity.
func (i *Idle) Touch() {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return
	}
	i.last = i.clock.Now()
	regained := !i.focused
	i.focused = true
	if regained {
		i.arm(i.after)
	}
	i.mu.Unlock()
	if regained {
		i.h.fire(true)
	}
}

// Close stops the idle timer.
func (i *Idle) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	if i.timer != nil {
		i.timer.Stop()
	}
}

// arm must be called with mu held.
func (i *Idle) arm(d time.Duration) {
	if i.timer != nil {
		i.timer.Stop()
	}
	i.timer = i.clock.AfterFunc(d, i.check)
}

func (i *Idle) check() {
	i.mu.Lock()
	if i.closed || !i.focused {
		i.mu.Unlock()
		return
	}
	idle := i.clock.Now().Sub(i.last)
	if idle < i.after {
		i.arm(i.after - idle)
		i.mu.Unlock()
		return
	}
	i.focused = false
	i.timer = nil
	i.mu.Unlock()
	i.h.fire(false)
}
