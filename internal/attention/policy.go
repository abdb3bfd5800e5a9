// Package attention decides, for each inbound event, whether to play the
// sound cue, raise an external notification and count the message unread.
package attention

import (
	"fmt"

	"client_go/internal/domain"
)

// MaxBodyRunes caps the notification body of a text message.
const MaxBodyRunes = 100

// Input is everything the policy looks at.
type Input struct {
	Self          string
	Focused       domain.ConversationKey
	WindowFocused bool
}

// Decision is the set of side effects the caller should apply.
type Decision struct {
	Sound        bool
	Notification *domain.Notification
	Unread       *domain.ConversationKey
}

// None reports whether the decision has no effect.
func (d Decision) None() bool {
	return !d.Sound && d.Notification == nil && d.Unread == nil
}

// EvaluateMessage applies the message rules to m, which belongs to key.
func EvaluateMessage(in Input, key domain.ConversationKey, m domain.Message) Decision {
	if m.Sender == nil || m.IsFrom(in.Self) {
		return Decision{}
	}
	d := Decision{Sound: true}
	if !in.WindowFocused {
		n := messageNotification(m)
		d.Notification = &n
	}
	if key != in.Focused {
		k := key
		d.Unread = &k
	}
	return d
}

// EvaluatePresence applies the join/leave rule: notification only, gated
// on window focus.
func EvaluatePresence(in Input, u domain.User, joined bool) Decision {
	if u.Username == in.Self || in.WindowFocused {
		return Decision{}
	}
	var n domain.Notification
	if joined {
		n = domain.Notification{
			Kind:   domain.NotifyUserJoined,
			Title:  "User Joined",
			Body:   u.Username + " joined the chat",
			Tag:    "user-joined",
			Sender: u.Username,
		}
	} else {
		n = domain.Notification{
			Kind:   domain.NotifyUserLeft,
			Title:  "User Left",
			Body:   u.Username + " left the chat",
			Tag:    "user-left",
			Sender: u.Username,
		}
	}
	return Decision{Notification: &n}
}

func messageNotification(m domain.Message) domain.Notification {
	sender := m.SenderName()
	if m.File != nil {
		return domain.Notification{
			Kind:   domain.NotifyFileShared,
			Title:  fmt.Sprintf("File shared by %s", sender),
			Body:   m.File.OriginalName,
			Tag:    "file-" + sender,
			Sender: sender,
		}
	}
	return domain.Notification{
		Kind:   domain.NotifyMessage,
		Title:  fmt.Sprintf("New message from %s", sender),
		Body:   Truncate(m.Text, MaxBodyRunes),
		Tag:    "message-" + sender,
		Sender: sender,
	}
}

// Truncate caps s at max runes, appending "..." when it cut something.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
