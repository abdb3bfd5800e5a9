package attention_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"client_go/internal/attention"
	"client_go/internal/domain"
)

var (
	alice = domain.User{ID: "a", Username: "alice"}
	bob   = domain.User{ID: "b", Username: "bob"}
)

func TestEvaluateMessage(t *testing.T) {
	general := domain.RoomKey("general")
	hi := domain.Message{ID: "1", Kind: domain.KindText, Sender: &bob, Text: "hi", Room: "general"}

	t.Run("ViewingRoomWindowUnfocused", func(t *testing.T) {
		d := attention.EvaluateMessage(attention.Input{Self: "alice", Focused: general}, general, hi)
		assert.True(t, d.Sound)
		require.NotNil(t, d.Notification)
		assert.Equal(t, domain.NotifyMessage, d.Notification.Kind)
		assert.Equal(t, "New message from bob", d.Notification.Title)
		assert.Equal(t, "hi", d.Notification.Body)
		assert.Nil(t, d.Unread)
	})

	t.Run("ViewingOtherConversation", func(t *testing.T) {
		in := attention.Input{Self: "alice", Focused: domain.PrivateKey("carol"), WindowFocused: true}
		d := attention.EvaluateMessage(in, general, hi)
		assert.True(t, d.Sound)
		assert.Nil(t, d.Notification)
		require.NotNil(t, d.Unread)
		assert.Equal(t, general, *d.Unread)
	})

	t.Run("PrivateComparesPeer", func(t *testing.T) {
		in := attention.Input{Self: "alice", Focused: domain.PrivateKey("bob"), WindowFocused: true}
		d := attention.EvaluateMessage(in, domain.PrivateKey("bob"), hi)
		assert.Nil(t, d.Unread)

		d = attention.EvaluateMessage(in, domain.PrivateKey("dave"), hi)
		require.NotNil(t, d.Unread)
		assert.Equal(t, "private-dave", d.Unread.String())
	})

	t.Run("RoomAndPeerWithSameNameDiffer", func(t *testing.T) {
		in := attention.Input{Self: "alice", Focused: domain.RoomKey("bob"), WindowFocused: true}
		d := attention.EvaluateMessage(in, domain.PrivateKey("bob"), hi)
		assert.NotNil(t, d.Unread)
	})

	t.Run("FileVariant", func(t *testing.T) {
		m := hi
		m.Kind = domain.KindFile
		m.File = &domain.FileRef{OriginalName: "cat.png", URL: "/uploads/1.png"}
		d := attention.EvaluateMessage(attention.Input{Self: "alice", Focused: general}, general, m)
		require.NotNil(t, d.Notification)
		assert.Equal(t, domain.NotifyFileShared, d.Notification.Kind)
		assert.Equal(t, "File shared by bob", d.Notification.Title)
		assert.Equal(t, "cat.png", d.Notification.Body)
	})

	t.Run("SystemMessageIgnored", func(t *testing.T) {
		m := domain.Message{Kind: domain.KindSystem, Text: "x joined the chat"}
		assert.True(t, attention.EvaluateMessage(attention.Input{Self: "alice"}, general, m).None())
	})
}

func TestSelfMessagesNeverAttract(t *testing.T) {
	mine := domain.Message{ID: "1", Sender: &alice, Text: "me", Room: "random"}
	for _, focused := range []bool{true, false} {
		in := attention.Input{Self: "alice", Focused: domain.RoomKey("general"), WindowFocused: focused}
		assert.True(t, attention.EvaluateMessage(in, domain.RoomKey("random"), mine).None())
		assert.True(t, attention.EvaluateMessage(in, domain.PrivateKey("bob"), mine).None())
	}
}

func TestEvaluatePresence(t *testing.T) {
	in := attention.Input{Self: "alice"}

	d := attention.EvaluatePresence(in, bob, true)
	assert.False(t, d.Sound)
	assert.Nil(t, d.Unread)
	require.NotNil(t, d.Notification)
	assert.Equal(t, "bob joined the chat", d.Notification.Body)

	d = attention.EvaluatePresence(in, bob, false)
	require.NotNil(t, d.Notification)
	assert.Equal(t, domain.NotifyUserLeft, d.Notification.Kind)

	in.WindowFocused = true
	assert.True(t, attention.EvaluatePresence(in, bob, true).None())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", attention.Truncate("short", 100))

	exact := strings.Repeat("a", 100)
	assert.Equal(t, exact, attention.Truncate(exact, 100))

	long := strings.Repeat("é", 150)
	got := attention.Truncate(long, 100)
	assert.Equal(t, strings.Repeat("é", 100)+"...", got)
}
