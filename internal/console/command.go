// Package console is the line-oriented presentation layer: it parses user
// input into commands and renders store snapshots as text.
package console

import (
	"errors"
	"strings"
)

type Kind int

const (
	KindText Kind = iota
	KindRoom
	KindPrivate
	KindReact
	KindFile
	KindWho
	KindHelp
	KindQuit
)

// Command is one parsed input line.
type Command struct {
	Kind Kind
	Arg  string
	Text string
}

var ErrUsage = errors.New("usage")

const Help = `commands:
  /room <id>            switch to a room
  /pm <user>            open a private conversation
  /react <id> <emoji>   toggle a reaction on a message
  /file <path>          upload and share a file
  /who                  list online users
  /quit                 leave
anything else is sent to the current conversation`

// Parse turns an input line into a Command. Lines that do not start with a
// known slash command are text; "//" escapes a leading slash.
func Parse(line string) (Command, error) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "//") {
		return Command{Kind: KindText, Text: trimmed[1:]}, nil
	}
	if !strings.HasPrefix(trimmed, "/") {
		return Command{Kind: KindText, Text: line}, nil
	}

	name, rest, _ := strings.Cut(trimmed, " ")
	rest = strings.TrimSpace(rest)
	switch name {
	case "/room":
		if rest == "" {
			return Command{}, usage("/room <id>")
		}
		return Command{Kind: KindRoom, Arg: rest}, nil
	case "/pm":
		if rest == "" {
			return Command{}, usage("/pm <user>")
		}
		return Command{Kind: KindPrivate, Arg: rest}, nil
	case "/react":
		id, emoji, ok := strings.Cut(rest, " ")
		emoji = strings.TrimSpace(emoji)
		if !ok || id == "" || emoji == "" {
			return Command{}, usage("/react <id> <emoji>")
		}
		return Command{Kind: KindReact, Arg: id, Text: emoji}, nil
	case "/file":
		if rest == "" {
			return Command{}, usage("/file <path>")
		}
		return Command{Kind: KindFile, Arg: rest}, nil
	case "/who":
		return Command{Kind: KindWho}, nil
	case "/help", "/?":
		return Command{Kind: KindHelp}, nil
	case "/quit", "/exit":
		return Command{Kind: KindQuit}, nil
	}
	return Command{Kind: KindText, Text: line}, nil
}

func usage(s string) error {
	return &usageError{s}
}

type usageError struct{ s string }

func (e *usageError) Error() string { return "usage: " + e.s }
func (e *usageError) Unwrap() error { return ErrUsage }
