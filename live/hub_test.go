package live

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/speech-ballots/models"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func register(t *testing.T, hub *Hub, room string) *Client {
	t.Helper()
	c := &Client{Hub: hub, Send: make(chan []byte, 4), Room: room}
	before := hub.RoomSize(room)
	require.True(t, hub.Join(c))
	require.Eventually(t, func() bool { return hub.RoomSize(room) == before+1 }, time.Second, 5*time.Millisecond)
	return c
}

func TestHub_BroadcastOnlyToRoom(t *testing.T) {
	hub, _ := startHub(t)
	a := register(t, hub, TournamentRoom("t1"))
	b := register(t, hub, TournamentRoom("t2"))

	hub.BroadcastToRoom(TournamentRoom("t1"), Message{Type: "ping"})

	select {
	case msg := <-a.Send:
		assert.JSONEq(t, `{"type":"ping","payload":null}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("room t1 client did not receive message")
	}
	assert.Len(t, b.Send, 0)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub, _ := startHub(t)
	room := TournamentRoom("t1")
	c := register(t, hub, room)

	hub.Leave(c)
	require.Eventually(t, func() bool { return hub.RoomSize(room) == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-c.Send
	assert.False(t, open)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub, cancel := startHub(t)
	c := register(t, hub, TournamentRoom("t1"))

	cancel()
	select {
	case _, open := <-c.Send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("client channel not closed on shutdown")
	}
}

func TestHubPublisher_PublishSubmission(t *testing.T) {
	hub, _ := startHub(t)
	c := register(t, hub, TournamentRoom("t1"))

	at := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	NewHubPublisher(hub).PublishSubmission(&models.Ballot{
		ID: "b1", TournamentID: "t1", CompetitorID: "c1", EventTypeID: 3,
		JudgeName: "Judge Judy", SubmittedAt: &at,
	})

	select {
	case raw := <-c.Send:
		var msg struct {
			Type    string           `json:"type"`
			RoomID  string           `json:"room_id"`
			Payload SubmissionNotice `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, TypeBallotSubmitted, msg.Type)
		assert.Equal(t, "tournament_t1", msg.RoomID)
		assert.Equal(t, "b1", msg.Payload.BallotID)
		assert.Equal(t, "Judge Judy", msg.Payload.JudgeName)
	case <-time.After(time.Second):
		t.Fatal("no submission notice")
	}
}

func TestHubPublisher_NilSafe(t *testing.T) {
	var p *HubPublisher
	assert.NotPanics(t, func() { p.PublishSubmission(&models.Ballot{}) })
}
