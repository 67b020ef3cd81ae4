package propagation

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fyrsmithlabs/reflectd/internal/store/sqlite"
)

// startTestNATSServer starts an embedded NATS server for testing.
func startTestNATSServer(t *testing.T) *natsserver.Server {
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	}

	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})

	return server
}

func connect(t *testing.T, server *natsserver.Server) *nats.Conn {
	t.Helper()
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

func TestNATSPublisher_Publish(t *testing.T) {
	server := startTestNATSServer(t)
	nc := connect(t, server)

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe(DefaultSubject, ch)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	pub := NewNATSPublisher(nc, "")
	msg := Message{
		ID:          "msg-1",
		UserID:      "user-1",
		Attributes:  []string{"travel"},
		SourceTitle: "Flight to Lisbon",
		OccurredAt:  time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.Publish(context.Background(), msg))

	select {
	case got := <-ch:
		var decoded Message
		require.NoError(t, json.Unmarshal(got.Data, &decoded))
		assert.Equal(t, msg, decoded)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for propagation message")
	}
}

func TestNATSPublisher_Errors(t *testing.T) {
	t.Run("without connection", func(t *testing.T) {
		err := NewNATSPublisher(nil, "").Publish(context.Background(), Message{})
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewNATSPublisher(nil, "").Publish(ctx, Message{})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("closed connection", func(t *testing.T) {
		server := startTestNATSServer(t)
		nc, err := nats.Connect(server.ClientURL())
		require.NoError(t, err)
		nc.Close()
		err = NewNATSPublisher(nc, "").Publish(context.Background(), Message{UserID: "u"})
		assert.Error(t, err)
	})
}

func TestWorker_HandlesMessages(t *testing.T) {
	server := startTestNATSServer(t)
	nc := connect(t, server)

	received := make(chan Message, 4)
	propagator := PropagatorFunc(func(_ context.Context, msg Message) error {
		received <- msg
		if msg.SourceTitle == "fail" {
			return errors.New("graph unavailable")
		}
		return nil
	})

	w := NewWorker(nc, propagator, WorkerConfig{}, zaptest.NewLogger(t))
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	pub := NewNATSPublisher(nc, "")
	require.NoError(t, nc.Publish(DefaultSubject, []byte("not json")))
	require.NoError(t, pub.Publish(context.Background(), Message{ID: "empty", UserID: "user-1"}))
	require.NoError(t, pub.Publish(context.Background(), Message{ID: "bad", UserID: "user-1", Attributes: []string{"x"}, SourceTitle: "fail"}))
	require.NoError(t, pub.Publish(context.Background(), Message{ID: "ok", UserID: "user-1", Attributes: []string{"travel"}}))

	var ids []string
	for len(ids) < 2 {
		select {
		case msg := <-received:
			ids = append(ids, msg.ID)
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for messages, got %v", ids)
		}
	}
	assert.Equal(t, []string{"bad", "ok"}, ids)
}

func TestWorker_StartWithoutConnection(t *testing.T) {
	w := NewWorker(nil, PropagatorFunc(func(context.Context, Message) error { return nil }), WorkerConfig{}, nil)
	assert.Error(t, w.Start(context.Background()))
	assert.NoError(t, w.Stop())
}

func TestWisdomPropagator(t *testing.T) {
	ctx := context.Background()
	s, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "reflectd.db"))
	require.NoError(t, err)
	defer s.Close()

	p := NewWisdomPropagator(s)
	at := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)
	require.NoError(t, p.Propagate(ctx, Message{UserID: "user-1", Attributes: []string{"travel", "family"}, SourceTitle: "Flight", OccurredAt: at}))
	require.NoError(t, p.Propagate(ctx, Message{UserID: "user-1", Attributes: []string{"travel"}, SourceTitle: "Hotel", OccurredAt: at}))

	entries, err := s.ListWisdom(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "travel", entries[0].Attribute)
	assert.Equal(t, 2, entries[0].Occurrences)
}

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NoopPublisher{}.Publish(context.Background(), Message{}))
}
