package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client WebSocket客户端
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	filter subscription
}

// subscription 订阅条件，空值表示不过滤
type subscription struct {
	GameType string `json:"game_type"`
	PlayerID string `json:"player_id"`
}

// NewClient 创建新客户端
func NewClient(hub *Hub, conn *websocket.Conn, gameType, playerID string) *Client {
	return &Client{
		ID:     uuid.New().String(),
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		filter: subscription{GameType: gameType, PlayerID: playerID},
	}
}

func (c *Client) gameType() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter.GameType
}

func (c *Client) playerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter.PlayerID
}

// accepts 消息是否符合订阅条件
//
// 带玩家路由键的消息（含余额）只推送给订阅了该玩家的客户端；
// 不带路由键的消息推送给所有人。
func (c *Client) accepts(m *Message) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.filter.GameType != "" && m.GameType != "" && c.filter.GameType != m.GameType {
		return false
	}
	if m.PlayerID != "" && c.filter.PlayerID != m.PlayerID {
		return false
	}
	return true
}

// ReadPump 读取消息，连接断开后注销
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	pongWait := c.hub.cfg.PongTimeout
	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("WebSocket读取错误",
					zap.String("client_id", c.ID),
					zap.Error(err))
			}
			return
		}
		c.handleMessage(data)
	}
}

// WritePump 写入消息并定时发送 ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	writeWait := c.hub.cfg.WriteTimeout
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub关闭了通道
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 处理客户端上行消息，只支持心跳和修改订阅
func (c *Client) handleMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply(MessageTypeError, map[string]string{"error": "无效的消息格式"})
		return
	}

	switch msg.Type {
	case MessageTypePing:
		c.reply(MessageTypePong, nil)

	case MessageTypeSubscribe:
		var sub subscription
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &sub); err != nil {
				c.reply(MessageTypeError, map[string]string{"error": "无效的订阅参数"})
				return
			}
		}
		c.mu.Lock()
		c.filter = sub
		c.mu.Unlock()
		c.reply(MessageTypeSubscribed, sub)

	default:
		c.reply(MessageTypeError, map[string]string{"error": "不支持的消息类型: " + msg.Type})
	}
}

func (c *Client) reply(msgType string, data interface{}) {
	msg := &Message{Type: msgType, Timestamp: time.Now().Unix()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return
		}
		msg.Data = raw
	}
	if err := c.hub.sendTo(c, msg); err != nil {
		c.hub.logger.Debug("回复客户端失败", zap.String("client_id", c.ID), zap.Error(err))
	}
}
