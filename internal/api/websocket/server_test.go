package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/gridiron/internal/engine"
	"github.com/fortuna/gridiron/internal/logger"
)

func startServer(t *testing.T) (*Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(logger.Discard())
	go hub.Run(ctx)

	ts := httptest.NewServer(NewServer(hub, nil, logger.Discard()).Handler())
	t.Cleanup(ts.Close)
	return hub, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/games"
}

func dial(t *testing.T, hub *Hub, url string, want int) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return hub.ClientCount() == want }, time.Second, 5*time.Millisecond)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestBroadcastGame(t *testing.T) {
	hub, url := startServer(t)
	conn := dial(t, hub, url, 1)

	hub.BroadcastGame(&engine.Summary{GameKey: "g1", HomeTeam: "TeamA", AwayTeam: "TeamB", AwayScore: 6})

	msg := read(t, conn)
	assert.Equal(t, MessageTypeGameProcessed, msg["type"])
	payload := msg["payload"].(map[string]interface{})
	assert.Equal(t, "g1", payload["gameKey"])
	assert.Equal(t, 6.0, payload["awayScore"])
	assert.NotEmpty(t, msg["timestamp"])
}

func TestSubscriptionFiltersTeams(t *testing.T) {
	hub, url := startServer(t)
	conn := dial(t, hub, url, 1)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":    MessageTypeSubscribe,
		"payload": map[string]interface{}{"teams": []string{"TeamC"}},
	}))
	assert.Equal(t, MessageTypeSubscribed, read(t, conn)["type"])

	hub.BroadcastGame(&engine.Summary{GameKey: "g1", HomeTeam: "TeamA", AwayTeam: "TeamB"})
	hub.BroadcastGame(&engine.Summary{GameKey: "g2", HomeTeam: "TeamC", AwayTeam: "TeamD"})

	msg := read(t, conn)
	assert.Equal(t, "g2", msg["payload"].(map[string]interface{})["gameKey"])
}

func TestUnknownMessageType(t *testing.T) {
	hub, url := startServer(t)
	conn := dial(t, hub, url, 1)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "dance"}))
	assert.Equal(t, MessageTypeError, read(t, conn)["type"])
}

func TestDisconnectUnregisters(t *testing.T) {
	hub, url := startServer(t)
	conn := dial(t, hub, url, 1)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestFilterMatches(t *testing.T) {
	assert.True(t, SubscriptionFilter{}.matches([]string{"TeamA"}))
	assert.True(t, SubscriptionFilter{Teams: []string{"TeamB"}}.matches([]string{"TeamA", "TeamB"}))
	assert.False(t, SubscriptionFilter{Teams: []string{"TeamC"}}.matches([]string{"TeamA", "TeamB"}))
}
