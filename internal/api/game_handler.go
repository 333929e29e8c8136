package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/fairness-engine/internal/errors"
	"github.com/wfunc/fairness-engine/internal/service"
	"go.uber.org/zap"
)

// GameHandler 玩家侧游戏接口
type GameHandler struct {
	service *service.GameService
	logger  *zap.Logger
}

// NewGameHandler 创建游戏处理器
func NewGameHandler(svc *service.GameService, logger *zap.Logger) *GameHandler {
	return &GameHandler{service: svc, logger: logger}
}

// List 已配置的游戏
func (h *GameHandler) List(c *gin.Context) {
	respondOK(c, h.service.Games())
}

// Distribution 有效分布预览，?rate= 可预览其他胜率
func (h *GameHandler) Distribution(c *gin.Context) {
	var rate *float64
	if raw := c.Query("rate"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(c, apperrors.Newf(apperrors.ErrInvalidParam, "rate 无效: %s", raw))
			return
		}
		rate = &v
	}

	view, err := h.service.Distribution(c.Param("type"), rate)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

// Spin 下注
func (h *GameHandler) Spin(c *gin.Context) {
	var req service.SpinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.GameType = c.Param("type")

	resp, err := h.service.Spin(c.Request.Context(), req)
	if err != nil {
		h.logger.Info("下注失败",
			zap.String("game_type", req.GameType),
			zap.String("player_id", req.PlayerID),
			zap.Float64("bet", req.BetAmount),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}
	respondOK(c, resp)
}

// Replay 回放校验
func (h *GameHandler) Replay(c *gin.Context) {
	result, err := h.service.Replay(c.Request.Context(), c.Param("type"), c.Param("round_id"))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrReplayMismatch) {
			h.logger.Error("回放结果不一致", zap.String("round_id", c.Param("round_id")), zap.Error(err))
		}
		respondError(c, err)
		return
	}
	respondOK(c, result)
}
