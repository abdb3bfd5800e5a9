package typing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"client_go/internal/domain"
	"client_go/internal/typing"
)

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

type fakeClock struct {
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) AfterFunc(d time.Duration, f func()) domain.Timer {
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward, firing due timers in deadline order with the
// clock set to each deadline.
func (c *fakeClock) Advance(d time.Duration) {
	target := c.now.Add(d)
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			break
		}
		c.now = next.at
		next.fired = true
		next.f()
	}
	c.now = target
}

type signal struct {
	Key      domain.ConversationKey
	IsTyping bool
	At       time.Time
}

func setup() (*typing.Debouncer, *fakeClock, *[]signal) {
	clock := newFakeClock()
	var got []signal
	d := typing.New(typing.Options{
		Clock:   clock,
		Timeout: time.Second,
		Signal: func(key domain.ConversationKey, isTyping bool) {
			got = append(got, signal{Key: key, IsTyping: isTyping, At: clock.Now()})
		},
	})
	return d, clock, &got
}

func TestBurstEmitsOneStartAndOneStop(t *testing.T) {
	d, clock, got := setup()
	general := domain.RoomKey("general")
	start := clock.Now()

	for i := 0; i < 5; i++ {
		d.Keystroke(general)
		clock.Advance(200 * time.Millisecond)
	}
	assert.Equal(t, typing.Active, d.State())
	assert.Len(t, *got, 1)

	lastKey := start.Add(800 * time.Millisecond)
	clock.Advance(time.Second)

	assert.Equal(t, typing.Idle, d.State())
	assert.Equal(t, []signal{
		{Key: general, IsTyping: true, At: start},
		{Key: general, IsTyping: false, At: lastKey.Add(time.Second)},
	}, *got)
}

func TestSendEndsBurstOnce(t *testing.T) {
	d, clock, got := setup()
	general := domain.RoomKey("general")
	start := clock.Now()

	d.Keystroke(general)
	clock.Advance(500 * time.Millisecond)
	d.Sent()
	clock.Advance(5 * time.Second)

	assert.Equal(t, typing.Idle, d.State())
	assert.Equal(t, []signal{
		{Key: general, IsTyping: true, At: start},
		{Key: general, IsTyping: false, At: start.Add(500 * time.Millisecond)},
	}, *got)

	t.Run("SendWhileIdle", func(t *testing.T) {
		d.Sent()
		assert.Equal(t, typing.Idle, d.State())
		assert.Len(t, *got, 2)
	})

	t.Run("NextBurstStartsAgain", func(t *testing.T) {
		d.Keystroke(general)
		assert.Len(t, *got, 3)
		assert.True(t, (*got)[2].IsTyping)
	})
}

func TestResetIsSilent(t *testing.T) {
	d, clock, got := setup()
	d.Keystroke(domain.RoomKey("general"))
	d.Reset()
	clock.Advance(5 * time.Second)

	assert.Equal(t, typing.Idle, d.State())
	assert.Equal(t, []bool{true}, flags(*got))
}

func TestFocusChangeEndsBurst(t *testing.T) {
	d, clock, got := setup()
	general := domain.RoomKey("general")
	bob := domain.PrivateKey("bob")

	d.Keystroke(general)
	d.FocusChanged(bob)
	assert.Equal(t, typing.Idle, d.State())

	d.Keystroke(bob)
	clock.Advance(time.Second)

	assert.Equal(t, []domain.ConversationKey{general, general, bob, bob}, keys(*got))
	assert.Equal(t, []bool{true, false, true, false}, flags(*got))
}

func TestKeystrokeInOtherConversationSwitchesContext(t *testing.T) {
	d, _, got := setup()
	d.Keystroke(domain.RoomKey("general"))
	d.Keystroke(domain.RoomKey("random"))

	assert.Equal(t, []bool{true, false, true}, flags(*got))
	assert.Equal(t, domain.RoomKey("random"), (*got)[2].Key)
}

func TestScheduleWrapsExpiry(t *testing.T) {
	clock := newFakeClock()
	var queued []func()
	var stops int
	d := typing.New(typing.Options{
		Clock: clock,
		Signal: func(_ domain.ConversationKey, isTyping bool) {
			if !isTyping {
				stops++
			}
		},
		Schedule: func(f func()) { queued = append(queued, f) },
	})

	d.Keystroke(domain.RoomKey("general"))
	clock.Advance(typing.DefaultTimeout)
	assert.Equal(t, 0, stops)
	assert.Len(t, queued, 1)

	queued[0]()
	assert.Equal(t, 1, stops)
	assert.Equal(t, typing.Idle, d.State())
}

func TestStaleExpiryIgnored(t *testing.T) {
	clock := newFakeClock()
	var queued []func()
	var stops int
	d := typing.New(typing.Options{
		Clock: clock,
		Signal: func(_ domain.ConversationKey, isTyping bool) {
			if !isTyping {
				stops++
			}
		},
		Schedule: func(f func()) { queued = append(queued, f) },
	})

	d.Keystroke(domain.RoomKey("general"))
	clock.Advance(typing.DefaultTimeout)
	// the expiry is queued but a keystroke lands before it runs
	d.Keystroke(domain.RoomKey("general"))
	queued[0]()

	assert.Equal(t, 0, stops)
	assert.Equal(t, typing.Active, d.State())
}

func keys(s []signal) []domain.ConversationKey {
	var out []domain.ConversationKey
	for _, x := range s {
		out = append(out, x.Key)
	}
	return out
}

func flags(s []signal) []bool {
	var out []bool
	for _, x := range s {
		out = append(out, x.IsTyping)
	}
	return out
}
