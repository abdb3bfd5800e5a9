// Package outbound validates user actions and shapes them into wire commands.
package outbound

import (
	"fmt"
	"strings"

	"client_go/internal/domain"
)

// Roster resolves a username to its live roster entry.
type Roster interface {
	FindOnline(username string) (domain.User, bool)
}

// Builder turns user intents into outbound events. Every method refuses
// silently on the wire; the returned error says why nothing was sent.
type Builder struct {
	emitter domain.Emitter
	roster  Roster
}

func New(emitter domain.Emitter, roster Roster) *Builder {
	return &Builder{emitter: emitter, roster: roster}
}

// SendText sends body to target.
func (b *Builder) SendText(body string, target domain.ConversationKey) error {
	if strings.TrimSpace(body) == "" {
		return domain.ErrEmptyMessage
	}
	if !b.emitter.IsConnected() {
		return domain.ErrNotConnected
	}
	if target.IsRoom() {
		return b.emitter.Emit(domain.CmdSendMessage, domain.SendMessagePayload{Text: body, Room: target.ID})
	}
	recipient, ok := b.roster.FindOnline(target.ID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrPeerOffline, target.ID)
	}
	return b.emitter.Emit(domain.CmdSendPrivateMessage, domain.SendPrivateMessagePayload{Text: body, Recipient: recipient})
}

// FileCaption is the text sent along with a shared file.
func FileCaption(ref domain.FileRef) string {
	return "Shared a file: " + ref.OriginalName
}

// SendFile shares an uploaded file with target.
func (b *Builder) SendFile(ref domain.FileRef, target domain.ConversationKey) error {
	if !b.emitter.IsConnected() {
		return domain.ErrNotConnected
	}
	text := FileCaption(ref)
	if target.IsRoom() {
		return b.emitter.Emit(domain.CmdSendFileMessage, domain.SendFileMessagePayload{Text: text, Room: target.ID, File: ref})
	}
	recipient, ok := b.roster.FindOnline(target.ID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrPeerOffline, target.ID)
	}
	file := ref
	return b.emitter.Emit(domain.CmdSendPrivateMessage, domain.SendPrivateMessagePayload{Text: text, Recipient: recipient, File: &file})
}

// React asks the server to toggle emoji on a message.
func (b *Builder) React(id domain.ID, emoji string) error {
	return b.emitter.Emit(domain.CmdAddReaction, domain.AddReactionPayload{MessageID: id, Emoji: emoji})
}

// Typing sends a typing signal scoped to the conversation key.
func (b *Builder) Typing(key domain.ConversationKey, isTyping bool) error {
	p := domain.TypingPayload{IsTyping: isTyping}
	if key.IsPrivate() {
		p.Recipient = key.ID
	} else {
		p.Room = key.ID
	}
	return b.emitter.Emit(domain.CmdTyping, p)
}
