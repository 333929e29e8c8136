package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/wfunc/fairness-engine/internal/config"
	"go.uber.org/zap"
)

// 错误定义
var (
	ErrHubClosed      = errors.New("hub 已关闭")
	ErrBroadcastFull  = errors.New("广播队列已满")
	ErrClientNotFound = errors.New("客户端未找到")
	ErrSendBufferFull = errors.New("发送缓冲区已满")
)

// 消息类型
const (
	MessageTypeConnected  = "connected"
	MessageTypePing       = "ping"
	MessageTypePong       = "pong"
	MessageTypeSubscribe  = "subscribe"
	MessageTypeSubscribed = "subscribed"
	MessageTypeError      = "error"
)

// Message WebSocket消息
type Message struct {
	Type      string          `json:"type"`
	GameType  string          `json:"game_type,omitempty"`
	PlayerID  string          `json:"player_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Routable 事件数据实现该接口时按游戏和玩家定向推送
type Routable interface {
	RouteKeys() (gameType, playerID string)
}

// Hub WebSocket连接管理中心
type Hub struct {
	clients   map[string]*Client
	clientsMu sync.RWMutex

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	closeOnce  sync.Once

	cfg    config.WebSocketConfig
	logger *zap.Logger
}

// NewHub 创建Hub
func NewHub(cfg config.WebSocketConfig, logger *zap.Logger) *Hub {
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 60 * time.Second
	}
	if cfg.PingInterval <= 0 || cfg.PingInterval >= cfg.PongTimeout {
		cfg.PingInterval = cfg.PongTimeout * 9 / 10
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 4096
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		cfg:        cfg,
		logger:     logger,
	}
}

// Run 运行Hub，ctx 取消后断开所有客户端
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

func (h *Hub) shutdown() {
	h.closeOnce.Do(func() { close(h.done) })

	h.clientsMu.Lock()
	for id, client := range h.clients {
		delete(h.clients, id)
		close(client.send)
	}
	h.clientsMu.Unlock()
	h.logger.Info("WebSocket Hub 已停止")
}

func (h *Hub) registerClient(client *Client) {
	h.clientsMu.Lock()
	h.clients[client.ID] = client
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端连接",
		zap.String("client_id", client.ID),
		zap.String("game_type", client.gameType()),
		zap.String("player_id", client.playerID()))

	h.sendTo(client, &Message{
		Type:      MessageTypeConnected,
		Data:      json.RawMessage(`{"client_id":"` + client.ID + `"}`),
		Timestamp: time.Now().Unix(),
	})
}

func (h *Hub) unregisterClient(client *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.send)
	}
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端断开", zap.String("client_id", client.ID))
}

// broadcastMessage 推送给订阅条件匹配的客户端
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("序列化消息失败", zap.Error(err))
		return
	}

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	for _, client := range h.clients {
		if !client.accepts(message) {
			continue
		}
		select {
		case client.send <- data:
		default:
			h.logger.Warn("客户端发送缓冲区满，丢弃消息",
				zap.String("client_id", client.ID),
				zap.String("type", message.Type))
		}
	}
}

func (h *Hub) sendTo(client *Client, message *Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	if _, ok := h.clients[client.ID]; !ok {
		return ErrClientNotFound
	}
	select {
	case client.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Publish 发布事件，不阻塞调用方
func (h *Hub) Publish(eventType string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	msg := &Message{
		Type:      eventType,
		Data:      raw,
		Timestamp: time.Now().Unix(),
	}
	if r, ok := data.(Routable); ok {
		msg.GameType, msg.PlayerID = r.RouteKeys()
	}
	return h.Broadcast(msg)
}

// Broadcast 广播消息，队列满时丢弃并返回错误
func (h *Hub) Broadcast(message *Message) error {
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}

	select {
	case h.broadcast <- message:
		return nil
	case <-h.done:
		return ErrHubClosed
	default:
		return ErrBroadcastFull
	}
}

// Register 注册客户端
func (h *Hub) Register(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

// Unregister 注销客户端
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// OnlineCount 在线连接数
func (h *Hub) OnlineCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}
