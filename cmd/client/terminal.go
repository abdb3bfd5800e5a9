package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"client_go/internal/console"
	"client_go/internal/domain"
	"client_go/internal/engine"
	"client_go/internal/focus"
	"client_go/internal/store"
	"client_go/internal/upload"
)

var errQuit = errors.New("quit")

type terminal struct {
	mu     sync.Mutex
	out    io.Writer
	prompt bool
	last   store.Snapshot
}

func newTerminal(out io.Writer, interactive bool) *terminal {
	return &terminal{out: out, prompt: interactive}
}

func (t *terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format+"\n", args...)
	if t.prompt {
		fmt.Fprint(t.out, "> ")
	}
}

// onUpdate runs on the engine loop after each inbound event.
func (t *terminal) onUpdate(ev domain.Event, snap store.Snapshot) {
	prevTyping := console.FormatTyping(t.last.Typing)
	t.last = snap

	switch ev := ev.(type) {
	case domain.Connected:
		t.printf("* connected")
	case domain.Disconnected:
		t.printf("* disconnected, reconnecting...")
	case domain.MessageHistory:
		t.render(snap)
	case domain.NewMessage:
		t.showMessage(ev.Message, snap)
	case domain.NewPrivateMessage:
		t.showMessage(ev.Message, snap)
	case domain.UserJoined, domain.UserLeft:
		if n := len(snap.Current); n > 0 && snap.Current[n-1].Kind == domain.KindSystem {
			t.printf("%s", console.FormatMessage(snap.Current[n-1]))
		}
	case domain.UserTyping:
		if now := console.FormatTyping(snap.Typing); now != prevTyping && now != "" {
			t.printf("%s", now)
		}
	case domain.MessageReaction:
		for _, m := range snap.Current {
			if m.ID == ev.MessageID {
				t.printf("%s", console.FormatMessage(m))
			}
		}
	}
}

func (t *terminal) showMessage(m domain.Message, snap store.Snapshot) {
	if n := len(snap.Current); n > 0 && snap.Current[n-1].ID == m.ID {
		t.printf("%s", console.FormatMessage(snap.Current[n-1]))
		return
	}
	t.printf("%s", console.FormatHeader(snap))
}

func (t *terminal) render(snap store.Snapshot) {
	var b strings.Builder
	console.Render(&b, snap)
	t.printf("%s", strings.TrimRight(b.String(), "\n"))
}

type session struct {
	eng      *engine.Engine
	uploader *upload.Client
	idle     *focus.Idle
}

// readInput reads commands until EOF, /quit or ctx is done.
func (t *terminal) readInput(ctx context.Context, in io.Reader, s *session) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return errQuit
			}
			s.idle.Touch()
			if err := t.exec(ctx, line, s); err != nil {
				if errors.Is(err, errQuit) || engine.IsClosed(err) {
					return errQuit
				}
				t.printf("! %v", err)
			}
		}
	}
}

func (t *terminal) exec(ctx context.Context, line string, s *session) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	cmd, err := console.Parse(line)
	if err != nil {
		return err
	}
	switch cmd.Kind {
	case console.KindQuit:
		return errQuit
	case console.KindHelp:
		t.printf("%s", console.Help)
	case console.KindWho:
		snap, err := s.eng.Snapshot()
		if err != nil {
			return err
		}
		t.printf("%s", console.FormatRoster(snap.Roster))
	case console.KindRoom, console.KindPrivate:
		key := domain.RoomKey(cmd.Arg)
		if cmd.Kind == console.KindPrivate {
			key = domain.PrivateKey(cmd.Arg)
		}
		if err := s.eng.Select(key); err != nil {
			return err
		}
		snap, err := s.eng.Snapshot()
		if err != nil {
			return err
		}
		t.render(snap)
	case console.KindReact:
		return s.eng.React(domain.ID(cmd.Arg), cmd.Text)
	case console.KindFile:
		ref, err := s.uploader.Upload(ctx, cmd.Arg)
		if err != nil {
			return err
		}
		return s.eng.SendFile(ref)
	case console.KindText:
		if err := s.eng.Keystroke(); err != nil {
			return err
		}
		return s.eng.SendText(cmd.Text)
	}
	return nil
}
