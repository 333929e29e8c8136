package service

// 推送给前端的事件类型
const (
	EventSpinResult    = "spin_result"
	EventConfigUpdated = "config_updated"
)

// Publisher 事件发布者，由 websocket hub 实现
type Publisher interface {
	Publish(eventType string, data interface{}) error
}

// ConfigUpdatedEvent 配置变更事件
type ConfigUpdatedEvent struct {
	GameType      string  `json:"game_type"`
	Version       uint64  `json:"version"`
	TargetWinRate float64 `json:"target_win_rate"`
	ExpectedRTP   float64 `json:"expected_rtp"`
	Source        string  `json:"source"`
}

// RouteKeys 推送给该游戏的所有订阅者
func (e ConfigUpdatedEvent) RouteKeys() (string, string) {
	return e.GameType, ""
}
