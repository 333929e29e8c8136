package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/fairness-engine/internal/config"
	"go.uber.org/zap"
)

type routedEvent struct {
	Game   string `json:"game"`
	Player string `json:"player"`
}

func (e routedEvent) RouteKeys() (string, string) {
	return e.Game, e.Player
}

func setupHub(t *testing.T) (*Hub, string) {
	gin.SetMode(gin.TestMode)

	hub := NewHub(config.WebSocketConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		PingInterval:    time.Second,
		PongTimeout:     5 * time.Second,
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", hub.ServeWS)
	server := httptest.NewServer(r)

	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return hub, "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *gorillaws.Conn {
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	msg := readMessage(t, conn)
	require.Equal(t, MessageTypeConnected, msg.Type)
	return conn
}

func readMessage(t *testing.T, conn *gorillaws.Conn) Message {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func waitOnline(t *testing.T, hub *Hub, n int) {
	require.Eventually(t, func() bool { return hub.OnlineCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishFiltersBySubscription(t *testing.T) {
	hub, url := setupHub(t)

	all := dial(t, url)
	wheel := dial(t, url+"?game_type=wheel")
	p1 := dial(t, url+"?player_id=p1")
	p2 := dial(t, url+"?game_type=wheel&player_id=p2")
	waitOnline(t, hub, 4)

	require.NoError(t, hub.Publish("spin_result", routedEvent{Game: "wheel", Player: "p1"}))
	require.NoError(t, hub.Publish("spin_result", routedEvent{Game: "slots", Player: "p2"}))
	require.NoError(t, hub.Publish("spin_result", routedEvent{Game: "wheel", Player: "p2"}))
	require.NoError(t, hub.Publish("config_updated", routedEvent{Game: "wheel"}))
	require.NoError(t, hub.Publish("notice", map[string]string{"text": "hello"}))

	// 未订阅玩家的客户端收不到任何玩家的下注结果
	assert.Equal(t, "config_updated", readMessage(t, all).Type)
	assert.Equal(t, "notice", readMessage(t, all).Type)
	assert.Equal(t, "config_updated", readMessage(t, wheel).Type)
	assert.Equal(t, "notice", readMessage(t, wheel).Type)

	// 玩家只收到自己的结果
	first := readMessage(t, p1)
	assert.Equal(t, "spin_result", first.Type)
	assert.Equal(t, "wheel", first.GameType)
	assert.Equal(t, "p1", first.PlayerID)
	assert.Equal(t, "config_updated", readMessage(t, p1).Type)

	// wheel+p2 跳过 slots 的结果
	mine := readMessage(t, p2)
	assert.Equal(t, "spin_result", mine.Type)
	assert.Equal(t, "wheel", mine.GameType)
	assert.Equal(t, "p2", mine.PlayerID)
	assert.Equal(t, "config_updated", readMessage(t, p2).Type)

	msg := readMessage(t, p2)
	assert.Equal(t, "notice", msg.Type)
	var data map[string]string
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, "hello", data["text"])
}

func TestHub_ClientMessages(t *testing.T) {
	hub, url := setupHub(t)
	conn := dial(t, url)
	waitOnline(t, hub, 1)

	require.NoError(t, conn.WriteJSON(Message{Type: MessageTypePing}))
	assert.Equal(t, MessageTypePong, readMessage(t, conn).Type)

	sub, _ := json.Marshal(subscription{GameType: "fruit"})
	require.NoError(t, conn.WriteJSON(Message{Type: MessageTypeSubscribe, Data: sub}))
	assert.Equal(t, MessageTypeSubscribed, readMessage(t, conn).Type)

	require.NoError(t, hub.Publish("spin_result", routedEvent{Game: "wheel"}))
	require.NoError(t, hub.Publish("spin_result", routedEvent{Game: "fruit"}))
	assert.Equal(t, "fruit", readMessage(t, conn).GameType)

	require.NoError(t, conn.WriteJSON(Message{Type: "unknown"}))
	assert.Equal(t, MessageTypeError, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte("{bad")))
	assert.Equal(t, MessageTypeError, readMessage(t, conn).Type)
}

func TestHub_DisconnectAndShutdown(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", hub.ServeWS)
	server := httptest.NewServer(r)
	defer server.Close()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	conn := dial(t, url)
	waitOnline(t, hub, 1)
	conn.Close()
	waitOnline(t, hub, 0)

	conn2 := dial(t, url)
	waitOnline(t, hub, 1)

	cancel()
	<-done
	assert.Equal(t, 0, hub.OnlineCount())
	assert.ErrorIs(t, hub.Publish("x", 1), ErrHubClosed)

	// 关闭后客户端收到关闭帧
	require.NoError(t, conn2.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn2.ReadMessage()
	assert.Error(t, err)
}

func TestHub_PublishMarshalError(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, zap.NewNop())
	assert.Error(t, hub.Publish("bad", make(chan int)))
}
