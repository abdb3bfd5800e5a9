// Package store holds the client's authoritative conversation state:
// room and private message logs, the online roster, the typing set,
// unread counters and the focused conversation.
//
// A Store is not safe for concurrent use. It is owned by the engine loop.
package store

import (
	"sort"

	"client_go/internal/domain"
)

type messageLog struct {
	msgs []domain.Message
	ids  map[domain.ID]struct{}
}

func newMessageLog() *messageLog {
	return &messageLog{ids: make(map[domain.ID]struct{})}
}

// append adds m unless a message with the same non-empty id is present.
func (l *messageLog) append(m domain.Message) bool {
	if m.ID != "" {
		if _, dup := l.ids[m.ID]; dup {
			return false
		}
		l.ids[m.ID] = struct{}{}
	}
	l.msgs = append(l.msgs, m.Clone())
	return true
}

func (l *messageLog) replaceReactions(id domain.ID, r domain.Reactions) bool {
	if _, ok := l.ids[id]; !ok {
		return false
	}
	for i := range l.msgs {
		if l.msgs[i].ID == id {
			l.msgs[i].Reactions = r.Clone()
			return true
		}
	}
	return false
}

func (l *messageLog) snapshot() []domain.Message {
	out := make([]domain.Message, len(l.msgs))
	for i, m := range l.msgs {
		out[i] = m.Clone()
	}
	return out
}

// typist is a remote user typing in one conversation.
type typist struct {
	key  domain.ConversationKey
	user domain.User
}

// Store is the conversation state container.
type Store struct {
	rooms    []domain.Room
	roomLog  *messageLog
	private  map[string]*messageLog
	roster   []domain.User
	typing   []typist
	unread   map[string]int
	selected domain.ConversationKey
	live     bool
}

// New returns a store initialised with the given rooms; the first room is
// selected. With no rooms, DefaultRoom is used.
func New(rooms []domain.Room) *Store {
	s := &Store{}
	s.Init(rooms)
	return s
}

// Init resets all state for a new session.
func (s *Store) Init(rooms []domain.Room) {
	if len(rooms) == 0 {
		rooms = []domain.Room{{ID: domain.DefaultRoom, Name: "General"}}
	}
	s.rooms = append([]domain.Room(nil), rooms...)
	s.roomLog = newMessageLog()
	s.private = make(map[string]*messageLog)
	s.roster = nil
	s.typing = nil
	s.unread = make(map[string]int)
	s.selected = domain.RoomKey(rooms[0].ID)
	s.live = true
}

// Dispose drops all state. Mutations after Dispose are ignored until Init.
func (s *Store) Dispose() {
	s.roomLog = newMessageLog()
	s.private = make(map[string]*messageLog)
	s.roster = nil
	s.typing = nil
	s.unread = make(map[string]int)
	s.live = false
}

// SetRoster replaces the online roster wholesale.
func (s *Store) SetRoster(users []domain.User) {
	if !s.live {
		return
	}
	s.roster = append([]domain.User(nil), users...)
}

// AddToRoster appends u unless a user with the same username is present.
func (s *Store) AddToRoster(u domain.User) {
	if !s.live {
		return
	}
	if _, ok := s.FindOnline(u.Username); ok {
		return
	}
	s.roster = append(s.roster, u)
}

// RemoveFromRoster removes every roster entry with the given id.
func (s *Store) RemoveFromRoster(id domain.ID) {
	if !s.live {
		return
	}
	s.roster = removeByID(s.roster, id)
}

// FindOnline looks a user up in the roster by username.
func (s *Store) FindOnline(username string) (domain.User, bool) {
	for _, u := range s.roster {
		if u.Username == username {
			return u, true
		}
	}
	return domain.User{}, false
}

// ReplaceRoomLog replaces the room message log (initial history sync).
func (s *Store) ReplaceRoomLog(msgs []domain.Message) {
	if !s.live {
		return
	}
	s.roomLog = newMessageLog()
	for _, m := range msgs {
		s.roomLog.append(m)
	}
}

// AppendRoomMessage appends m to the room log. It reports false when m was
// ignored as a duplicate.
func (s *Store) AppendRoomMessage(m domain.Message) bool {
	if !s.live {
		return false
	}
	return s.roomLog.append(m)
}

// AppendPrivateMessage appends m to the log kept for peer.
func (s *Store) AppendPrivateMessage(peer string, m domain.Message) bool {
	if !s.live {
		return false
	}
	return s.peerLog(peer).append(m)
}

func (s *Store) peerLog(peer string) *messageLog {
	l, ok := s.private[peer]
	if !ok {
		l = newMessageLog()
		s.private[peer] = l
	}
	return l
}

// ReplaceReactions swaps the reaction map of the first message with id,
// scanning the room log and then private logs in peer order.
func (s *Store) ReplaceReactions(id domain.ID, r domain.Reactions) bool {
	if !s.live {
		return false
	}
	if s.roomLog.replaceReactions(id, r) {
		return true
	}
	for _, peer := range s.peers() {
		if s.private[peer].replaceReactions(id, r) {
			return true
		}
	}
	return false
}

func (s *Store) peers() []string {
	peers := make([]string, 0, len(s.private))
	for p := range s.private {
		peers = append(peers, p)
	}
	sort.Strings(peers)
	return peers
}

// IncrementUnread bumps the counter for key. The selected conversation
// never accumulates unread messages.
func (s *Store) IncrementUnread(key domain.ConversationKey) {
	if !s.live || key == s.selected {
		return
	}
	s.unread[key.String()]++
}

// ClearUnread removes the counter for key.
func (s *Store) ClearUnread(key domain.ConversationKey) {
	delete(s.unread, key.String())
}

// Unread returns the counter for key.
func (s *Store) Unread(key domain.ConversationKey) int {
	return s.unread[key.String()]
}

// SetTyping adds or removes u from the typing set, keyed by user id. A
// user types in one conversation at a time: typing:true in key moves an
// existing entry there, typing:false removes it wherever it is.
func (s *Store) SetTyping(key domain.ConversationKey, u domain.User, isTyping bool) {
	if !s.live {
		return
	}
	for i, t := range s.typing {
		if t.user.ID != u.ID {
			continue
		}
		if !isTyping {
			s.typing = append(s.typing[:i:i], s.typing[i+1:]...)
			return
		}
		s.typing[i].key = key
		return
	}
	if isTyping {
		s.typing = append(s.typing, typist{key: key, user: u})
	}
}

// StopTyping removes u from the typing set.
func (s *Store) StopTyping(u domain.User) {
	s.SetTyping(domain.ConversationKey{}, u, false)
}

// Typing returns the users typing in key, in arrival order.
func (s *Store) Typing(key domain.ConversationKey) []domain.User {
	var out []domain.User
	for _, t := range s.typing {
		if t.key == key {
			out = append(out, t.user)
		}
	}
	return out
}

// SelectConversation focuses key and clears its unread counter in the
// same step. A private key gets an empty log if it has none.
func (s *Store) SelectConversation(key domain.ConversationKey) {
	s.selected = key
	delete(s.unread, key.String())
	if s.live && key.IsPrivate() {
		s.peerLog(key.ID)
	}
}

// Selected returns the focused conversation key.
func (s *Store) Selected() domain.ConversationKey {
	return s.selected
}

// CurrentMessages returns the messages of the focused conversation.
func (s *Store) CurrentMessages() []domain.Message {
	return s.Messages(s.selected)
}

// Messages returns the log of key. For a room this is the subsequence of
// the room log routed to it plus room-less system messages.
func (s *Store) Messages(key domain.ConversationKey) []domain.Message {
	if key.IsPrivate() {
		l, ok := s.private[key.ID]
		if !ok {
			return nil
		}
		return l.snapshot()
	}
	var out []domain.Message
	for _, m := range s.roomLog.msgs {
		if m.RoutedRoom() == key.ID || (m.Kind == domain.KindSystem && m.Room == "") {
			out = append(out, m.Clone())
		}
	}
	return out
}

func removeByID(users []domain.User, id domain.ID) []domain.User {
	out := users[:0:0]
	for _, u := range users {
		if u.ID != id {
			out = append(out, u)
		}
	}
	return out
}
