package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"client_go/internal/domain"
	"client_go/internal/store"
)

var (
	alice = domain.User{ID: "1", Username: "alice"}
	bob   = domain.User{ID: "2", Username: "bob"}
	carol = domain.User{ID: "3", Username: "carol"}
)

func roomMsg(id, room, text string) domain.Message {
	return domain.Message{ID: domain.ID(id), Kind: domain.KindText, Sender: &bob, Text: text, Room: room}
}

func newStore() *store.Store {
	return store.New([]domain.Room{{ID: "general", Name: "General"}, {ID: "random", Name: "Random"}})
}

func TestRoomRouting(t *testing.T) {
	s := newStore()
	s.AppendRoomMessage(roomMsg("1", "general", "a"))
	s.AppendRoomMessage(roomMsg("2", "random", "b"))
	s.AppendRoomMessage(roomMsg("3", "", "c"))
	s.AppendRoomMessage(roomMsg("4", "random", "d"))

	texts := func(msgs []domain.Message) []string {
		var out []string
		for _, m := range msgs {
			out = append(out, m.Text)
		}
		return out
	}

	assert.Equal(t, []string{"a", "c"}, texts(s.CurrentMessages()))

	s.SelectConversation(domain.RoomKey("random"))
	assert.Equal(t, []string{"b", "d"}, texts(s.CurrentMessages()))
}

func TestSystemMessagesShowInEveryRoom(t *testing.T) {
	s := newStore()
	s.AppendRoomMessage(domain.Message{ID: "system-1", Kind: domain.KindSystem, Text: "bob joined the chat"})

	assert.Len(t, s.Messages(domain.RoomKey("general")), 1)
	assert.Len(t, s.Messages(domain.RoomKey("random")), 1)
}

func TestDuplicateAppendIgnored(t *testing.T) {
	s := newStore()
	assert.True(t, s.AppendRoomMessage(roomMsg("1", "general", "a")))
	assert.False(t, s.AppendRoomMessage(roomMsg("1", "general", "a again")))
	assert.Len(t, s.CurrentMessages(), 1)

	t.Run("PrivateLogsAreIndependent", func(t *testing.T) {
		m := roomMsg("1", "", "private")
		assert.True(t, s.AppendPrivateMessage("bob", m))
		assert.True(t, s.AppendPrivateMessage("carol", m))
		assert.False(t, s.AppendPrivateMessage("bob", m))
	})

	t.Run("EmptyIDsAreNotDeduplicated", func(t *testing.T) {
		assert.True(t, s.AppendRoomMessage(roomMsg("", "general", "x")))
		assert.True(t, s.AppendRoomMessage(roomMsg("", "general", "x")))
	})
}

func TestSelectClearsUnread(t *testing.T) {
	s := newStore()
	key := domain.RoomKey("random")

	s.IncrementUnread(key)
	s.IncrementUnread(key)
	require.Equal(t, 2, s.Unread(key))

	s.SelectConversation(key)
	assert.Equal(t, 0, s.Unread(key))

	s.SelectConversation(key)
	assert.Equal(t, 0, s.Unread(key))
}

func TestSelectedNeverCountsUnread(t *testing.T) {
	s := newStore()
	s.IncrementUnread(domain.RoomKey("general"))
	assert.Equal(t, 0, s.Unread(domain.RoomKey("general")))
	assert.NotContains(t, s.Snapshot().Unread, "general")
}

func TestPrivateUnreadKey(t *testing.T) {
	s := newStore()
	s.IncrementUnread(domain.PrivateKey("bob"))
	assert.Equal(t, 1, s.Snapshot().Unread["private-bob"])
}

func TestReplaceReactions(t *testing.T) {
	s := newStore()
	s.AppendRoomMessage(roomMsg("1", "general", "a"))
	s.AppendPrivateMessage("carol", roomMsg("9", "", "p"))

	r := domain.Reactions{"👍": {alice, carol}}

	require.True(t, s.ReplaceReactions("1", r))
	first := s.Snapshot()
	require.True(t, s.ReplaceReactions("1", r))
	assert.Equal(t, first, s.Snapshot())
	assert.Equal(t, r, s.CurrentMessages()[0].Reactions)

	t.Run("PrivateLog", func(t *testing.T) {
		require.True(t, s.ReplaceReactions("9", domain.Reactions{"🎉": {bob}}))
		msgs := s.Messages(domain.PrivateKey("carol"))
		assert.Equal(t, []domain.User{bob}, msgs[0].Reactions["🎉"])
	})

	t.Run("UnknownID", func(t *testing.T) {
		assert.False(t, s.ReplaceReactions("404", r))
	})

	t.Run("CallerMapIsNotRetained", func(t *testing.T) {
		mine := domain.Reactions{"❤️": {alice}}
		s.ReplaceReactions("1", mine)
		mine["❤️"] = append(mine["❤️"], bob)
		assert.Len(t, s.CurrentMessages()[0].Reactions["❤️"], 1)
	})
}

func TestRoster(t *testing.T) {
	s := newStore()
	s.SetRoster([]domain.User{alice, bob})
	s.AddToRoster(domain.User{ID: "99", Username: "bob"})
	assert.Len(t, s.Snapshot().Roster, 2)

	s.AddToRoster(carol)
	s.RemoveFromRoster(bob.ID)

	_, ok := s.FindOnline("bob")
	assert.False(t, ok)
	assert.Equal(t, []domain.User{alice, carol}, s.Snapshot().Roster)
}

func TestPeerDepartureKeepsPrivateLog(t *testing.T) {
	s := newStore()
	s.SetRoster([]domain.User{alice, bob})
	s.SelectConversation(domain.PrivateKey("bob"))
	s.AppendPrivateMessage("bob", roomMsg("1", "", "hey"))

	s.RemoveFromRoster(bob.ID)

	assert.Len(t, s.CurrentMessages(), 1)
}

func TestTypingSet(t *testing.T) {
	s := newStore()
	general := domain.RoomKey("general")
	s.SetTyping(general, bob, true)
	s.SetTyping(general, bob, true)
	s.SetTyping(general, carol, true)
	assert.Equal(t, []domain.User{bob, carol}, s.Snapshot().Typing)

	s.SetTyping(general, bob, false)
	assert.Equal(t, []domain.User{carol}, s.Snapshot().Typing)

	s.StopTyping(carol)
	assert.Empty(t, s.Snapshot().Typing)
}

func TestTypingIsScopedToConversation(t *testing.T) {
	s := newStore()
	random := domain.RoomKey("random")
	privBob := domain.PrivateKey("bob")

	s.SetTyping(random, carol, true)
	s.SetTyping(privBob, bob, true)
	assert.Empty(t, s.Snapshot().Typing)
	assert.Equal(t, []domain.User{carol}, s.Typing(random))

	s.SelectConversation(privBob)
	assert.Equal(t, []domain.User{bob}, s.Snapshot().Typing)

	// moving to another conversation replaces the old entry
	s.SetTyping(domain.RoomKey("general"), bob, true)
	assert.Empty(t, s.Snapshot().Typing)
	assert.Empty(t, s.Typing(privBob))

	s.SetTyping(random, carol, false)
	assert.Empty(t, s.Typing(random))
}

func TestSelectPrivateCreatesEmptyLog(t *testing.T) {
	s := newStore()
	s.SelectConversation(domain.PrivateKey("carol"))
	assert.Equal(t, []string{"carol"}, s.Snapshot().Peers)
	assert.Empty(t, s.CurrentMessages())
}

func TestDispose(t *testing.T) {
	s := newStore()
	s.AppendRoomMessage(roomMsg("1", "general", "a"))
	s.Dispose()

	assert.False(t, s.AppendRoomMessage(roomMsg("2", "general", "b")))
	assert.Empty(t, s.CurrentMessages())

	s.Init(nil)
	assert.Equal(t, domain.RoomKey(domain.DefaultRoom), s.Selected())
	assert.True(t, s.AppendRoomMessage(roomMsg("2", "general", "b")))
}

func TestHistoryReplacesRoomLog(t *testing.T) {
	s := newStore()
	s.AppendRoomMessage(roomMsg("1", "general", "old"))
	s.ReplaceRoomLog([]domain.Message{roomMsg("2", "", "h1"), roomMsg("3", "general", "h2")})

	msgs := s.CurrentMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "h1", msgs[0].Text)
}
