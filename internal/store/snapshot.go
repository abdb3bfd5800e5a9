package store

import "client_go/internal/domain"

// Snapshot is an immutable copy of the store for rendering.
type Snapshot struct {
	Rooms    []domain.Room
	Selected domain.ConversationKey
	Current  []domain.Message
	Peers    []string
	Roster   []domain.User
	Typing   []domain.User // typists in the selected conversation
	Unread   map[string]int
}

// UnreadFor returns the counter for key in the snapshot.
func (s Snapshot) UnreadFor(key domain.ConversationKey) int {
	return s.Unread[key.String()]
}

// Snapshot copies the current state.
func (s *Store) Snapshot() Snapshot {
	unread := make(map[string]int, len(s.unread))
	for k, v := range s.unread {
		unread[k] = v
	}
	return Snapshot{
		Rooms:    append([]domain.Room(nil), s.rooms...),
		Selected: s.selected,
		Current:  s.CurrentMessages(),
		Peers:    s.peers(),
		Roster:   append([]domain.User(nil), s.roster...),
		Typing:   s.Typing(s.selected),
		Unread:   unread,
	}
}
