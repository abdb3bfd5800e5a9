// Package fakebackend is an in-process stand-in for the chat backend used by
// tests: a websocket hub speaking the client's wire protocol plus the upload
// endpoint.
package fakebackend

import (
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"client_go/internal/domain"
)

type peer struct {
	user domain.User
	conn *websocket.Conn
	mu   sync.Mutex
}

func (p *peer) send(f domain.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return p.conn.WriteJSON(f)
}

// Hub manages joined connections keyed by username and the server-side
// message state the protocol needs.
type Hub struct {
	mu        sync.RWMutex
	peers     map[string]*peer
	order     []string
	history   []domain.Message
	reactions map[domain.ID]domain.Reactions
	seq       int64
	received  []domain.Frame
}

func NewHub() *Hub {
	return &Hub{
		peers:     make(map[string]*peer),
		reactions: make(map[domain.ID]domain.Reactions),
	}
}

func (h *Hub) nextID() domain.ID {
	h.seq++
	return domain.ID(strconv.FormatInt(h.seq, 10))
}

// Register adds a joined connection and returns the assigned user.
func (h *Hub) register(username, avatar string, conn *websocket.Conn) *peer {
	h.mu.Lock()
	defer h.mu.Unlock()

	p := &peer{
		user: domain.User{ID: h.nextID(), Username: username, Avatar: avatar},
		conn: conn,
	}
	if _, exists := h.peers[username]; !exists {
		h.order = append(h.order, username)
	}
	h.peers[username] = p
	return p
}

// unregister removes the connection if it is still the current one for its user.
func (h *Hub) unregister(p *peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	cur, ok := h.peers[p.user.Username]
	if !ok || cur != p {
		return false
	}
	delete(h.peers, p.user.Username)
	for i, name := range h.order {
		if name == p.user.Username {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	return true
}

// Online returns the joined users in join order.
func (h *Hub) Online() []domain.User {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]domain.User, 0, len(h.order))
	for _, name := range h.order {
		users = append(users, h.peers[name].user)
	}
	return users
}

// Received returns every frame the hub has read from clients.
func (h *Hub) Received() []domain.Frame {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]domain.Frame(nil), h.received...)
}

func (h *Hub) record(f domain.Frame) {
	h.mu.Lock()
	h.received = append(h.received, f)
	h.mu.Unlock()
}

// Drop closes the connection of username, simulating a network failure.
func (h *Hub) Drop(username string) bool {
	h.mu.RLock()
	p, ok := h.peers[username]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	p.conn.Close()
	return true
}

// Emit sends an event to one joined user.
func (h *Hub) Emit(username, event string, payload any) error {
	f, err := domain.NewFrame(event, payload)
	if err != nil {
		return err
	}
	h.mu.RLock()
	p, ok := h.peers[username]
	h.mu.RUnlock()
	if !ok {
		return domain.ErrPeerOffline
	}
	return p.send(f)
}

// BroadcastToUsers sends the event to the named users. Failed connections
// are closed; their read loop cleans up.
func (h *Hub) BroadcastToUsers(usernames []string, event string, payload any) {
	f, err := domain.NewFrame(event, payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	targets := make([]*peer, 0, len(usernames))
	for _, name := range usernames {
		if p, ok := h.peers[name]; ok {
			targets = append(targets, p)
		}
	}
	h.mu.RUnlock()

	for _, p := range targets {
		if err := p.send(f); err != nil {
			p.conn.Close()
		}
	}
}

// BroadcastAll sends the event to every joined user except those in skip.
func (h *Hub) BroadcastAll(event string, payload any, skip ...string) {
	h.mu.RLock()
	names := make([]string, 0, len(h.order))
	for _, name := range h.order {
		if !contains(skip, name) {
			names = append(names, name)
		}
	}
	h.mu.RUnlock()
	h.BroadcastToUsers(names, event, payload)
}

func (h *Hub) storeRoomMessage(m domain.Message) domain.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	m.ID = h.nextID()
	h.history = append(h.history, m)
	return m
}

func (h *Hub) newPrivateID() domain.ID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.nextID()
}

func (h *Hub) History() []domain.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]domain.Message(nil), h.history...)
}

// toggleReaction flips user's emoji on a message and returns the full map.
func (h *Hub) toggleReaction(id domain.ID, emoji string, user domain.User) domain.Reactions {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.reactions[id]
	if !ok {
		r = make(domain.Reactions)
		h.reactions[id] = r
	}
	users := r[emoji]
	for i, u := range users {
		if u.Username == user.Username {
			r[emoji] = append(users[:i:i], users[i+1:]...)
			if len(r[emoji]) == 0 {
				delete(r, emoji)
			}
			return r.Clone()
		}
	}
	r[emoji] = append(users, user)
	return r.Clone()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
