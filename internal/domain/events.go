package domain

import (
	"encoding/json"
	"fmt"
)

// Inbound event names.
const (
	EventOnlineUsers       = "onlineUsers"
	EventMessageHistory    = "messageHistory"
	EventNewMessage        = "newMessage"
	EventNewPrivateMessage = "newPrivateMessage"
	EventUserJoined        = "userJoined"
	EventUserLeft          = "userLeft"
	EventUserTyping        = "userTyping"
	EventMessageReaction   = "messageReaction"
)

// Outbound command names.
const (
	CmdJoin               = "join"
	CmdSendMessage        = "sendMessage"
	CmdSendPrivateMessage = "sendPrivateMessage"
	CmdSendFileMessage    = "sendFileMessage"
	CmdTyping             = "typing"
	CmdAddReaction        = "addReaction"
)

// Frame is the envelope carried by every transport.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewFrame marshals payload into a frame for the named event.
func NewFrame(event string, payload any) (Frame, error) {
	if payload == nil {
		return Frame{Event: event}, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("marshal %s: %w", event, err)
	}
	return Frame{Event: event, Data: b}, nil
}

// Event is the closed set of inbound events. Only types in this package
// implement it.
type Event interface {
	EventName() string
	sealed()
}

type OnlineUsers struct{ Users []User }

type MessageHistory struct{ Messages []Message }

type NewMessage struct{ Message Message }

type NewPrivateMessage struct{ Message Message }

type UserJoined struct{ User User }

type UserLeft struct{ User User }

type UserTyping struct {
	User     User   `json:"user"`
	IsTyping bool   `json:"isTyping"`
	Room     string `json:"room,omitempty"`
	// Recipient is set when the signal was sent privately.
	Recipient string `json:"recipient,omitempty"`
}

type MessageReaction struct {
	MessageID ID        `json:"messageId"`
	Reactions Reactions `json:"reactions"`
}

// Connected and Disconnected are produced only by the connection manager.
type Connected struct{}

type Disconnected struct{ Err error }

func (OnlineUsers) EventName() string       { return EventOnlineUsers }
func (MessageHistory) EventName() string    { return EventMessageHistory }
func (NewMessage) EventName() string        { return EventNewMessage }
func (NewPrivateMessage) EventName() string { return EventNewPrivateMessage }
func (UserJoined) EventName() string        { return EventUserJoined }
func (UserLeft) EventName() string          { return EventUserLeft }
func (UserTyping) EventName() string        { return EventUserTyping }
func (MessageReaction) EventName() string   { return EventMessageReaction }
func (Connected) EventName() string         { return "connect" }
func (Disconnected) EventName() string      { return "disconnect" }

func (OnlineUsers) sealed()       {}
func (MessageHistory) sealed()    {}
func (NewMessage) sealed()        {}
func (NewPrivateMessage) sealed() {}
func (UserJoined) sealed()        {}
func (UserLeft) sealed()          {}
func (UserTyping) sealed()        {}
func (MessageReaction) sealed()   {}
func (Connected) sealed()         {}
func (Disconnected) sealed()      {}

// DecodeEvent turns a wire frame into its typed event. Unknown names yield
// ErrUnknownEvent; bad payloads yield ErrMalformedEvent.
func DecodeEvent(f Frame) (Event, error) {
	var (
		ev  Event
		err error
	)
	switch f.Event {
	case EventOnlineUsers:
		var users []User
		err = decodeData(f, &users)
		ev = OnlineUsers{Users: users}
	case EventMessageHistory:
		var msgs []Message
		err = decodeData(f, &msgs)
		ev = MessageHistory{Messages: msgs}
	case EventNewMessage:
		var m Message
		err = decodeData(f, &m)
		ev = NewMessage{Message: m}
	case EventNewPrivateMessage:
		var m Message
		err = decodeData(f, &m)
		ev = NewPrivateMessage{Message: m}
	case EventUserJoined:
		var u User
		err = decodeData(f, &u)
		ev = UserJoined{User: u}
	case EventUserLeft:
		var u User
		err = decodeData(f, &u)
		ev = UserLeft{User: u}
	case EventUserTyping:
		var t UserTyping
		err = decodeData(f, &t)
		ev = t
	case EventMessageReaction:
		var r MessageReaction
		err = decodeData(f, &r)
		ev = r
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, f.Event)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEvent, f.Event, err)
	}
	return ev, nil
}

func decodeData(f Frame, v any) error {
	if len(f.Data) == 0 {
		return nil
	}
	return json.Unmarshal(f.Data, v)
}

// Outbound payloads.

type JoinPayload struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type SendMessagePayload struct {
	Text string `json:"text"`
	Room string `json:"room"`
}

type SendPrivateMessagePayload struct {
	Text      string   `json:"text"`
	Recipient User     `json:"recipient"`
	File      *FileRef `json:"file,omitempty"`
}

type SendFileMessagePayload struct {
	Text string  `json:"text"`
	Room string  `json:"room"`
	File FileRef `json:"file"`
}

type TypingPayload struct {
	IsTyping  bool   `json:"isTyping"`
	Room      string `json:"room,omitempty"`
	Recipient string `json:"recipient,omitempty"`
}

type AddReactionPayload struct {
	MessageID ID     `json:"messageId"`
	Emoji     string `json:"emoji"`
}
