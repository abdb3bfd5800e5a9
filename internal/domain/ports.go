package domain

import (
	"context"
	"time"
)

// FrameSink receives transport lifecycle signals and inbound frames.
// Calls arrive from the transport's own goroutine.
type FrameSink interface {
	OnConnecting()
	OnConnected()
	OnDisconnected(err error)
	OnFrame(f Frame)
}

// Transport is the realtime connection collaborator. Run blocks until ctx is
// done or Close is called, reconnecting on its own policy. Send drops the
// frame with ErrNotConnected while no connection is up.
type Transport interface {
	Run(ctx context.Context, sink FrameSink) error
	Send(f Frame) error
	Close() error
}

// Emitter is the outbound half of the connection manager.
type Emitter interface {
	Emit(event string, payload any) error
	IsConnected() bool
}

// NotificationKind enumerates the external notification variants.
type NotificationKind string

const (
	NotifyMessage    NotificationKind = "message"
	NotifyUserJoined NotificationKind = "userJoined"
	NotifyUserLeft   NotificationKind = "userLeft"
	NotifyFileShared NotificationKind = "fileShared"
)

// Notification is the payload handed to the notifier.
type Notification struct {
	Kind   NotificationKind
	Title  string
	Body   string
	Tag    string
	Sender string
}

// Notifier raises an external notification. Fire and forget.
type Notifier interface {
	Notify(n Notification)
}

// SoundPlayer plays the incoming-message cue. Fire and forget.
type SoundPlayer interface {
	PlayMessageCue()
}

// FocusSource reports window/terminal attention changes.
type FocusSource interface {
	Focused() bool
	OnFocusChange(handler func(focused bool))
}

// Uploader is the file upload collaborator.
type Uploader interface {
	Upload(ctx context.Context, path string) (FileRef, error)
}

// Timer is a cancellable single-shot timer.
type Timer interface {
	Stop() bool
}

// Clock schedules single-shot callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
func (SystemClock) Now() time.Time                            { return time.Now() }
