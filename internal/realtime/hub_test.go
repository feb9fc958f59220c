package realtime

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newHubClient(pgID uuid.UUID) *Client {
	return &Client{
		ID:         uuid.New().String(),
		PGHostelID: pgID,
		UserID:     uuid.New(),
		send:       make(chan WSMessage, 8),
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	pgID := uuid.New()

	c1 := newHubClient(pgID)
	c2 := newHubClient(pgID)
	c1.hub, c2.hub = hub, hub

	hub.Register(c1)
	hub.Register(c2)
	assert.Equal(t, 2, hub.ClientCount(pgID))

	hub.Unregister(c1)
	assert.Equal(t, 1, hub.ClientCount(pgID))
	hub.Unregister(c2)
	assert.Zero(t, hub.ClientCount(pgID))
}

type failingSubscriber struct {
	calls int
}

func (f *failingSubscriber) SubscribePG(_ uuid.UUID, _ func(event string, payload []byte)) (func(), error) {
	f.calls++
	return nil, assert.AnError
}

func TestRegisterSurvivesSubscribeFailure(t *testing.T) {
	sub := &failingSubscriber{}
	hub := NewHub(zap.NewNop(), nil, sub)
	pgID := uuid.New()

	c := newHubClient(pgID)
	c.hub = hub
	hub.Register(c)

	// local delivery keeps working even when the Redis subscription fails
	assert.Equal(t, 1, sub.calls)
	assert.Equal(t, 1, hub.ClientCount(pgID))
	assert.Empty(t, hub.subs, "a failed subscription must not leave a cancel func behind")

	hub.BroadcastToPG(pgID, "issue.created", map[string]string{"title": "Leaking tap"})
	select {
	case msg := <-c.send:
		assert.Equal(t, "issue.created", msg.Event)
	default:
		t.Fatal("expected local delivery despite subscribe failure")
	}

	hub.Unregister(c)
	assert.Zero(t, hub.ClientCount(pgID))
}

func TestBroadcastToPGIsScopedToRoom(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	pgA := uuid.New()
	pgB := uuid.New()

	inRoom := newHubClient(pgA)
	otherRoom := newHubClient(pgB)
	inRoom.hub, otherRoom.hub = hub, hub
	hub.Register(inRoom)
	hub.Register(otherRoom)

	hub.BroadcastToPG(pgA, "issue.created", map[string]string{"title": "Leaking tap"})

	select {
	case msg := <-inRoom.send:
		assert.Equal(t, "issue.created", msg.Event)
		var data map[string]string
		assert.NoError(t, json.Unmarshal(msg.Data, &data))
		assert.Equal(t, "Leaking tap", data["title"])
	default:
		t.Fatal("client in room received nothing")
	}

	select {
	case msg := <-otherRoom.send:
		t.Fatalf("client in another room received %q", msg.Event)
	default:
	}
}

func TestBroadcastWithoutRedisDeliversLocally(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	pgID := uuid.New()
	c := newHubClient(pgID)
	c.hub = hub
	hub.Register(c)

	hub.BroadcastToPGAndPublish(pgID, "issue.status", map[string]string{"status": "resolved"})

	select {
	case msg := <-c.send:
		assert.Equal(t, "issue.status", msg.Event)
	default:
		t.Fatal("expected local delivery when redis is not configured")
	}
}

func TestBroadcastSkipsFullBuffers(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	pgID := uuid.New()
	c := &Client{ID: uuid.New().String(), PGHostelID: pgID, send: make(chan WSMessage)}
	c.hub = hub
	hub.Register(c)

	// unbuffered channel with no reader; the broadcast must not block
	hub.BroadcastToPG(pgID, "issue.created", nil)
	assert.Equal(t, 1, hub.ClientCount(pgID))
}
