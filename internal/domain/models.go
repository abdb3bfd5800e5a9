package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DefaultRoom is the routing key used for room messages that carry no room.
const DefaultRoom = "general"

// ID is an identifier assigned by the backend. The wire may carry it as a
// JSON string or number; it is always held as a string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// User represents a connected chat participant. Username is the routing key.
type User struct {
	ID       ID     `json:"id,omitempty"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// AvatarURL returns the generated avatar reference for a username.
func AvatarURL(username string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(username) + "&background=random"
}

// MessageKind distinguishes text, file and synthesized system messages.
type MessageKind string

const (
	KindText   MessageKind = "text"
	KindFile   MessageKind = "file"
	KindSystem MessageKind = "system"
)

// FileRef is the descriptor returned by the upload collaborator.
type FileRef struct {
	OriginalName string `json:"originalName"`
	URL          string `json:"url"`
	Size         int64  `json:"size,omitempty"`
	MimeType     string `json:"mimeType,omitempty"`
}

// Reactions maps an emoji to the ordered set of users who reacted with it.
// The backend always sends the complete map.
type Reactions map[string][]User

// Clone returns a deep copy.
func (r Reactions) Clone() Reactions {
	if r == nil {
		return nil
	}
	out := make(Reactions, len(r))
	for emoji, users := range r {
		out[emoji] = append([]User(nil), users...)
	}
	return out
}

// Message is a single chat message. Everything except Reactions is
// immutable once stored.
type Message struct {
	ID        ID          `json:"id"`
	Kind      MessageKind `json:"type"`
	Sender    *User       `json:"sender,omitempty"`
	Text      string      `json:"text"`
	File      *FileRef    `json:"file,omitempty"`
	Room      string      `json:"room,omitempty"`
	Recipient *User       `json:"recipient,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Reactions Reactions   `json:"reactions,omitempty"`
}

// SenderName returns the sender's username or "" for system messages.
func (m Message) SenderName() string {
	if m.Sender == nil {
		return ""
	}
	return m.Sender.Username
}

// IsFrom reports whether the message was sent by username.
func (m Message) IsFrom(username string) bool {
	return m.Sender != nil && m.Sender.Username == username
}

// RoutedRoom returns the room the message belongs to, DefaultRoom if absent.
func (m Message) RoutedRoom() string {
	if m.Room == "" {
		return DefaultRoom
	}
	return m.Room
}

// Clone returns a copy that shares no mutable state with m.
func (m Message) Clone() Message {
	m.Reactions = m.Reactions.Clone()
	return m
}

// Room is a shared conversation channel. UserCount is advisory only.
type Room struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UserCount int    `json:"userCount"`
}

// ConversationType tells a room key from a private key.
type ConversationType string

const (
	ConversationRoom    ConversationType = "room"
	ConversationPrivate ConversationType = "private"
)

// ConversationKey identifies one message stream: a room id or a peer username.
type ConversationKey struct {
	Type ConversationType `json:"type"`
	ID   string           `json:"id"`
}

func RoomKey(id string) ConversationKey {
	return ConversationKey{Type: ConversationRoom, ID: id}
}

func PrivateKey(peer string) ConversationKey {
	return ConversationKey{Type: ConversationPrivate, ID: peer}
}

func (k ConversationKey) IsRoom() bool    { return k.Type == ConversationRoom }
func (k ConversationKey) IsPrivate() bool { return k.Type == ConversationPrivate }

// String is the unread-counter key: the bare room id, or "private-<peer>".
func (k ConversationKey) String() string {
	if k.IsPrivate() {
		return "private-" + k.ID
	}
	return k.ID
}

// ParseConversationKey is the inverse of ConversationKey.String.
func ParseConversationKey(s string) ConversationKey {
	if peer, ok := strings.CutPrefix(s, "private-"); ok {
		return PrivateKey(peer)
	}
	return RoomKey(s)
}
