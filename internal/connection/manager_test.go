package connection_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"client_go/internal/connection"
	"client_go/internal/domain"
)

type fakeTransport struct {
	mu     sync.Mutex
	sent   []domain.Frame
	sinks  chan domain.FrameSink
	closed chan struct{}
	once   sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{sinks: make(chan domain.FrameSink, 1), closed: make(chan struct{})}
}

func (f *fakeTransport) Run(ctx context.Context, sink domain.FrameSink) error {
	sink.OnConnecting()
	f.sinks <- sink
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.closed:
		return domain.ErrClosed
	}
}

func (f *fakeTransport) Send(fr domain.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, fr)
	return nil
}

func (f *fakeTransport) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeTransport) Sent() []domain.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Frame(nil), f.sent...)
}

func start(t *testing.T) (*connection.Manager, *fakeTransport, domain.FrameSink, chan error) {
	t.Helper()
	tr := newFakeTransport()
	m := connection.New(tr, connection.Options{})
	done := make(chan error, 1)
	go func() { done <- m.Connect(context.Background(), connection.Identity{Username: "alice smith"}) }()

	select {
	case sink := <-tr.sinks:
		return m, tr, sink, done
	case <-time.After(time.Second):
		t.Fatal("transport never started")
	}
	return nil, nil, nil, nil
}

func nextEvent(t *testing.T, m *connection.Manager) domain.Event {
	t.Helper()
	select {
	case ev := <-m.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
	return nil
}

func TestConnectEmitsJoin(t *testing.T) {
	m, tr, sink, done := start(t)
	assert.Equal(t, connection.Connecting, m.State())
	assert.False(t, m.IsConnected())

	sink.OnConnected()
	assert.Equal(t, domain.Connected{}, nextEvent(t, m))
	assert.True(t, m.IsConnected())

	sent := tr.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.CmdJoin, sent[0].Event)

	var join domain.JoinPayload
	require.NoError(t, json.Unmarshal(sent[0].Data, &join))
	assert.Equal(t, "alice smith", join.Username)
	assert.Equal(t, "https://ui-avatars.com/api/?name=alice+smith&background=random", join.Avatar)

	require.NoError(t, m.Close())
	assert.NoError(t, <-done)
	assert.Equal(t, connection.Disconnected, m.State())
}

func TestDisconnectDropsEmits(t *testing.T) {
	m, tr, sink, _ := start(t)
	defer m.Close()

	sink.OnConnected()
	nextEvent(t, m)

	sink.OnDisconnected(errors.New("reset by peer"))
	ev := nextEvent(t, m)
	require.IsType(t, domain.Disconnected{}, ev)
	assert.EqualError(t, ev.(domain.Disconnected).Err, "reset by peer")

	assert.ErrorIs(t, m.Emit(domain.CmdSendMessage, domain.SendMessagePayload{Text: "x", Room: "general"}), domain.ErrNotConnected)
	assert.Len(t, tr.Sent(), 1)

	t.Run("ReconnectJoinsAgain", func(t *testing.T) {
		sink.OnConnecting()
		assert.Equal(t, connection.Connecting, m.State())
		sink.OnConnected()
		nextEvent(t, m)
		assert.Len(t, tr.Sent(), 2)
	})
}

func TestFramesAreDecoded(t *testing.T) {
	m, _, sink, _ := start(t)
	defer m.Close()

	sink.OnFrame(domain.Frame{Event: "bogus"})
	sink.OnFrame(domain.Frame{Event: domain.EventNewMessage, Data: json.RawMessage(`{"id":`)})
	sink.OnFrame(domain.Frame{Event: domain.EventUserJoined, Data: json.RawMessage(`{"id":12,"username":"bob"}`)})

	assert.Equal(t, domain.UserJoined{User: domain.User{ID: "12", Username: "bob"}}, nextEvent(t, m))
}

func TestEmptyUsernameDoesNothing(t *testing.T) {
	tr := newFakeTransport()
	m := connection.New(tr, connection.Options{})

	assert.NoError(t, m.Connect(context.Background(), connection.Identity{}))
	assert.Equal(t, connection.Disconnected, m.State())
	assert.Empty(t, tr.sinks)
}

func TestConnectAfterClose(t *testing.T) {
	m := connection.New(newFakeTransport(), connection.Options{})
	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Connect(context.Background(), connection.Identity{Username: "alice"}), domain.ErrClosed)
}
