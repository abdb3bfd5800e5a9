package console

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"client_go/internal/domain"
	"client_go/internal/store"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"hello there", Command{Kind: KindText, Text: "hello there"}},
		{"/room random", Command{Kind: KindRoom, Arg: "random"}},
		{"/pm  bob", Command{Kind: KindPrivate, Arg: "bob"}},
		{"/react 42 👍", Command{Kind: KindReact, Arg: "42", Text: "👍"}},
		{"/file /tmp/a b.txt", Command{Kind: KindFile, Arg: "/tmp/a b.txt"}},
		{"/who", Command{Kind: KindWho}},
		{"/quit", Command{Kind: KindQuit}},
		{"/help", Command{Kind: KindHelp}},
		{"//room is a command", Command{Kind: KindText, Text: "/room is a command"}},
		{"/shrug", Command{Kind: KindText, Text: "/shrug"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Usage(t *testing.T) {
	for _, line := range []string{"/room", "/pm ", "/react 42", "/file"} {
		_, err := Parse(line)
		assert.ErrorIs(t, err, ErrUsage, line)
	}
}

func at(h, m int) time.Time {
	return time.Date(2024, 3, 1, h, m, 0, 0, time.Local)
}

func TestFormatMessage(t *testing.T) {
	bob := &domain.User{ID: "2", Username: "bob"}

	text := domain.Message{ID: "7", Kind: domain.KindText, Sender: bob, Text: "hi", Timestamp: at(9, 5),
		Reactions: domain.Reactions{"👍": {{Username: "alice"}, {Username: "carol"}}, "🎉": {}}}
	assert.Equal(t, "[09:05] #7          bob: hi  👍 2", FormatMessage(text))

	file := domain.Message{ID: "8", Kind: domain.KindFile, Sender: bob, Timestamp: at(13, 0),
		File: &domain.FileRef{OriginalName: "cat.png", URL: "/api/uploads/1.png", Size: 2048}}
	assert.Equal(t, "[13:00] #8          bob: [file] cat.png (2.0 KB, /api/uploads/1.png)", FormatMessage(file))

	sys := domain.Message{ID: "system-x", Kind: domain.KindSystem, Text: "bob joined the chat", Timestamp: at(23, 59)}
	assert.Equal(t, "[23:59] * bob joined the chat", FormatMessage(sys))
}

func TestFormatTyping(t *testing.T) {
	assert.Empty(t, FormatTyping(nil))
	assert.Equal(t, "bob is typing...", FormatTyping([]domain.User{{Username: "bob"}}))
	assert.Equal(t, "bob and carol are typing...", FormatTyping([]domain.User{{Username: "bob"}, {Username: "carol"}}))
	assert.Equal(t, "3 people are typing...", FormatTyping([]domain.User{{Username: "a"}, {Username: "b"}, {Username: "c"}}))
}

func TestRender(t *testing.T) {
	snap := store.Snapshot{
		Rooms:    []domain.Room{{ID: "general"}, {ID: "random"}},
		Selected: domain.RoomKey("general"),
		Peers:    []string{"bob"},
		Unread:   map[string]int{"random": 2, "private-bob": 1},
		Current: []domain.Message{
			{ID: "1", Kind: domain.KindText, Sender: &domain.User{Username: "bob"}, Text: "yo", Timestamp: at(10, 0)},
		},
		Typing: []domain.User{{Username: "bob"}},
	}
	var buf bytes.Buffer
	Render(&buf, snap)
	assert.Equal(t, "[#general] #random(2) @bob(1)\n[10:00] #1          bob: yo\nbob is typing...\n", buf.String())

	assert.Equal(t, "online (2): alice, bob", FormatRoster([]domain.User{{Username: "alice"}, {Username: "bob"}}))
}
