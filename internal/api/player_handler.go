package api

import (
	"github.com/gin-gonic/gin"
	"github.com/wfunc/fairness-engine/internal/service"
)

// PlayerHandler 玩家记录和余额
type PlayerHandler struct {
	service *service.GameService
}

// NewPlayerHandler 创建玩家处理器
func NewPlayerHandler(svc *service.GameService) *PlayerHandler {
	return &PlayerHandler{service: svc}
}

// Rounds 玩家抽奖历史
func (h *PlayerHandler) Rounds(c *gin.Context) {
	records, p, err := h.service.History(c.Request.Context(), c.Param("player_id"),
		queryInt(c, "page", 1), queryInt(c, "page_size", 10))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, PageResponse{Records: records, Total: p.Total, Page: p.Page, PageSize: p.PageSize})
}

// Balance 玩家余额
func (h *PlayerHandler) Balance(c *gin.Context) {
	playerID := c.Param("player_id")
	balance, err := h.service.Balance(c.Request.Context(), playerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"player_id": playerID, "balance": balance})
}

// Seed 当前服务端种子的哈希，抽奖前获取用于事后验证
func (h *PlayerHandler) Seed(c *gin.Context) {
	commitment, err := h.service.SeedCommitment(c.Param("player_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, commitment)
}

// RotateSeed 公开当前服务端种子并换新
func (h *PlayerHandler) RotateSeed(c *gin.Context) {
	revealed, err := h.service.RotateSeed(c.Param("player_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, revealed)
}
