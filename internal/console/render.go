package console

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"client_go/internal/domain"
	"client_go/internal/store"
)

const nameWidth = 12

// FormatMessage renders one message as a single line.
func FormatMessage(m domain.Message) string {
	ts := m.Timestamp.Local().Format("15:04")
	if m.Kind == domain.KindSystem {
		return fmt.Sprintf("[%s] * %s", ts, m.Text)
	}

	name := runewidth.Truncate(m.SenderName(), nameWidth, "…")
	name = runewidth.FillLeft(name, nameWidth)

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] #%s %s: ", ts, m.ID, name)
	if m.Kind == domain.KindFile && m.File != nil {
		fmt.Fprintf(&b, "[file] %s (%s, %s)", m.File.OriginalName, humanSize(m.File.Size), m.File.URL)
	} else {
		b.WriteString(m.Text)
	}
	if r := formatReactions(m.Reactions); r != "" {
		b.WriteString("  ")
		b.WriteString(r)
	}
	return b.String()
}

func formatReactions(r domain.Reactions) string {
	if len(r) == 0 {
		return ""
	}
	emojis := make([]string, 0, len(r))
	for e, users := range r {
		if len(users) > 0 {
			emojis = append(emojis, e)
		}
	}
	sort.Strings(emojis)
	parts := make([]string, 0, len(emojis))
	for _, e := range emojis {
		parts = append(parts, fmt.Sprintf("%s %d", e, len(r[e])))
	}
	return strings.Join(parts, " ")
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

// FormatTyping describes who is typing; empty when nobody is.
func FormatTyping(users []domain.User) string {
	switch len(users) {
	case 0:
		return ""
	case 1:
		return users[0].Username + " is typing..."
	case 2:
		return users[0].Username + " and " + users[1].Username + " are typing..."
	}
	return fmt.Sprintf("%d people are typing...", len(users))
}

// FormatHeader lists conversations with unread badges; the selected one is
// bracketed.
func FormatHeader(snap store.Snapshot) string {
	var parts []string
	label := func(key domain.ConversationKey, name string) string {
		if n := snap.UnreadFor(key); n > 0 {
			name = fmt.Sprintf("%s(%d)", name, n)
		}
		if key == snap.Selected {
			name = "[" + name + "]"
		}
		return name
	}
	for _, r := range snap.Rooms {
		parts = append(parts, label(domain.RoomKey(r.ID), "#"+r.ID))
	}
	for _, p := range snap.Peers {
		parts = append(parts, label(domain.PrivateKey(p), "@"+p))
	}
	return strings.Join(parts, " ")
}

// FormatRoster lists online users.
func FormatRoster(users []domain.User) string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	return fmt.Sprintf("online (%d): %s", len(names), strings.Join(names, ", "))
}

// Render writes the full view of a snapshot.
func Render(w io.Writer, snap store.Snapshot) {
	fmt.Fprintln(w, FormatHeader(snap))
	for _, m := range snap.Current {
		fmt.Fprintln(w, FormatMessage(m))
	}
	if t := FormatTyping(snap.Typing); t != "" {
		fmt.Fprintln(w, t)
	}
}
