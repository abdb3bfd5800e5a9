// Package router applies inbound events to the conversation store and runs
// the attention policy for each of them.
package router

import (
	"log"
	"time"

	"github.com/google/uuid"

	"client_go/internal/attention"
	"client_go/internal/domain"
	"client_go/internal/store"
)

// Router maps each inbound event to store mutations.
type Router struct {
	store    *store.Store
	self     string
	notifier domain.Notifier
	sound    domain.SoundPlayer
	focused  func() bool
	now      func() time.Time
	logger   *log.Logger
}

// Options configures a Router. Nil collaborators are replaced with no-ops.
type Options struct {
	Self          string
	Notifier      domain.Notifier
	Sound         domain.SoundPlayer
	WindowFocused func() bool
	Now           func() time.Time
	Logger        *log.Logger
}

func New(s *store.Store, opts Options) *Router {
	r := &Router{
		store:    s,
		self:     opts.Self,
		notifier: opts.Notifier,
		sound:    opts.Sound,
		focused:  opts.WindowFocused,
		now:      opts.Now,
		logger:   opts.Logger,
	}
	if r.notifier == nil {
		r.notifier = nopNotifier{}
	}
	if r.sound == nil {
		r.sound = nopSound{}
	}
	if r.focused == nil {
		r.focused = func() bool { return true }
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.logger == nil {
		r.logger = log.Default()
	}
	return r
}

// SetSelf changes the local username used for "is it mine" routing.
func (r *Router) SetSelf(username string) {
	r.self = username
}

// Route applies ev. It never fails; unexpected input is stored as given.
func (r *Router) Route(ev domain.Event) {
	switch e := ev.(type) {
	case domain.OnlineUsers:
		r.store.SetRoster(e.Users)

	case domain.MessageHistory:
		r.store.ReplaceRoomLog(e.Messages)

	case domain.NewMessage:
		m := e.Message
		m.Room = m.RoutedRoom()
		if !r.store.AppendRoomMessage(m) {
			r.logger.Printf("router: duplicate room message %q ignored", m.ID)
			return
		}
		r.apply(attention.EvaluateMessage(r.input(), domain.RoomKey(m.Room), m))

	case domain.NewPrivateMessage:
		m := e.Message
		peer := r.PeerOf(m)
		if !r.store.AppendPrivateMessage(peer, m) {
			r.logger.Printf("router: duplicate private message %q ignored", m.ID)
			return
		}
		r.apply(attention.EvaluateMessage(r.input(), domain.PrivateKey(peer), m))

	case domain.UserJoined:
		r.store.AddToRoster(e.User)
		r.store.AppendRoomMessage(r.systemMessage(e.User.Username + " joined the chat"))
		r.apply(attention.EvaluatePresence(r.input(), e.User, true))

	case domain.UserLeft:
		r.store.RemoveFromRoster(e.User.ID)
		r.store.StopTyping(e.User)
		r.store.AppendRoomMessage(r.systemMessage(e.User.Username + " left the chat"))
		r.apply(attention.EvaluatePresence(r.input(), e.User, false))

	case domain.UserTyping:
		if e.User.Username == r.self {
			return
		}
		r.store.SetTyping(typingKey(e), e.User, e.IsTyping)

	case domain.MessageReaction:
		if !r.store.ReplaceReactions(e.MessageID, e.Reactions) {
			r.logger.Printf("router: reaction for unknown message %q", e.MessageID)
		}

	case domain.Connected, domain.Disconnected:
		// lifecycle is handled by the engine

	default:
		r.logger.Printf("router: unhandled event %T", ev)
	}
}

// typingKey is where a remote typing signal belongs: the sender's private
// conversation when it was addressed to us, otherwise its room.
func typingKey(e domain.UserTyping) domain.ConversationKey {
	if e.Recipient != "" {
		return domain.PrivateKey(e.User.Username)
	}
	if e.Room == "" {
		return domain.RoomKey(domain.DefaultRoom)
	}
	return domain.RoomKey(e.Room)
}

// PeerOf returns the other participant of a private message.
func (r *Router) PeerOf(m domain.Message) string {
	if m.IsFrom(r.self) {
		if m.Recipient == nil {
			return ""
		}
		return m.Recipient.Username
	}
	return m.SenderName()
}

func (r *Router) input() attention.Input {
	return attention.Input{
		Self:          r.self,
		Focused:       r.store.Selected(),
		WindowFocused: r.focused(),
	}
}

func (r *Router) apply(d attention.Decision) {
	if d.Sound {
		r.sound.PlayMessageCue()
	}
	if d.Notification != nil {
		r.notifier.Notify(*d.Notification)
	}
	if d.Unread != nil {
		r.store.IncrementUnread(*d.Unread)
	}
}

func (r *Router) systemMessage(text string) domain.Message {
	return domain.Message{
		ID:        domain.ID("system-" + uuid.NewString()),
		Kind:      domain.KindSystem,
		Text:      text,
		Timestamp: r.now(),
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(domain.Notification) {}

type nopSound struct{}

func (nopSound) PlayMessageCue() {}
