package fakebackend

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"client_go/internal/domain"
)

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

// makeCheckOrigin admits clients that send no Origin (native clients) and
// browsers whose origin is listed. "*" admits everything.
func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	_, wildcard := allowed["*"]

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" || wildcard {
			return true
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

// MakeHandler returns the websocket endpoint. Frames are {event, data}:
//   - join               -> register, onlineUsers + messageHistory to the joiner, userJoined to others
//   - sendMessage        -> newMessage to everyone
//   - sendFileMessage    -> newMessage (type file) to everyone
//   - sendPrivateMessage -> newPrivateMessage to sender and recipient
//   - typing             -> userTyping to everyone else
//   - addReaction        -> toggle, messageReaction with the full map to everyone
func MakeHandler(hub *Hub, allowedOrigins []string, logger *log.Logger) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{CheckOrigin: checkOrigin}

	return func(w http.ResponseWriter, r *http.Request) {
		if !checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var me *peer
		reply := func(msg string) {
			f, _ := domain.NewFrame("error", map[string]string{"message": msg})
			if me != nil {
				_ = me.send(f)
				return
			}
			_ = conn.WriteJSON(f)
		}
		defer func() {
			if me == nil || !hub.unregister(me) {
				return
			}
			hub.BroadcastAll(domain.EventUserLeft, me.user)
			hub.BroadcastAll(domain.EventOnlineUsers, hub.Online())
		}()

		for {
			var f domain.Frame
			if err := conn.ReadJSON(&f); err != nil {
				break
			}
			hub.record(f)

			if me == nil && f.Event != domain.CmdJoin {
				reply("join first")
				continue
			}

			switch f.Event {

			case domain.CmdJoin:
				var in domain.JoinPayload
				if err := json.Unmarshal(f.Data, &in); err != nil || in.Username == "" {
					reply("join requires a username")
					continue
				}
				me = hub.register(in.Username, in.Avatar, conn)
				hub.BroadcastAll(domain.EventUserJoined, me.user, me.user.Username)
				hub.BroadcastAll(domain.EventOnlineUsers, hub.Online())
				_ = hub.Emit(me.user.Username, domain.EventMessageHistory, hub.History())

			case domain.CmdSendMessage:
				var in domain.SendMessagePayload
				if err := json.Unmarshal(f.Data, &in); err != nil || strings.TrimSpace(in.Text) == "" {
					continue
				}
				sender := me.user
				msg := hub.storeRoomMessage(domain.Message{
					Kind:      domain.KindText,
					Sender:    &sender,
					Text:      in.Text,
					Room:      in.Room,
					Timestamp: time.Now().UTC(),
				})
				hub.BroadcastAll(domain.EventNewMessage, msg)

			case domain.CmdSendFileMessage:
				var in domain.SendFileMessagePayload
				if err := json.Unmarshal(f.Data, &in); err != nil {
					continue
				}
				sender := me.user
				file := in.File
				msg := hub.storeRoomMessage(domain.Message{
					Kind:      domain.KindFile,
					Sender:    &sender,
					Text:      in.Text,
					Room:      in.Room,
					File:      &file,
					Timestamp: time.Now().UTC(),
				})
				hub.BroadcastAll(domain.EventNewMessage, msg)

			case domain.CmdSendPrivateMessage:
				var in domain.SendPrivateMessagePayload
				if err := json.Unmarshal(f.Data, &in); err != nil || in.Recipient.Username == "" {
					continue
				}
				sender, recipient := me.user, in.Recipient
				kind := domain.KindText
				if in.File != nil {
					kind = domain.KindFile
				}
				msg := domain.Message{
					ID:        hub.newPrivateID(),
					Kind:      kind,
					Sender:    &sender,
					Recipient: &recipient,
					Text:      in.Text,
					File:      in.File,
					Timestamp: time.Now().UTC(),
				}
				hub.BroadcastToUsers([]string{sender.Username, recipient.Username}, domain.EventNewPrivateMessage, msg)

			case domain.CmdTyping:
				var in domain.TypingPayload
				if err := json.Unmarshal(f.Data, &in); err != nil {
					continue
				}
				out := domain.UserTyping{User: me.user, IsTyping: in.IsTyping, Room: in.Room, Recipient: in.Recipient}
				if in.Recipient != "" {
					hub.BroadcastToUsers([]string{in.Recipient}, domain.EventUserTyping, out)
				} else {
					hub.BroadcastAll(domain.EventUserTyping, out, me.user.Username)
				}

			case domain.CmdAddReaction:
				var in domain.AddReactionPayload
				if err := json.Unmarshal(f.Data, &in); err != nil || in.MessageID == "" || in.Emoji == "" {
					continue
				}
				hub.BroadcastAll(domain.EventMessageReaction, domain.MessageReaction{
					MessageID: in.MessageID,
					Reactions: hub.toggleReaction(in.MessageID, in.Emoji, me.user),
				})

			default:
				logger.Printf("fakebackend: unknown event %q from %s", f.Event, me.user.Username)
			}
		}
	}
}
