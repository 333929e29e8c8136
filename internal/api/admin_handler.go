package api

import (
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/fairness-engine/internal/errors"
	"github.com/wfunc/fairness-engine/internal/service"
	"go.uber.org/zap"
)

// AdminHandler 运营侧配置接口
type AdminHandler struct {
	service *service.GameService
	logger  *zap.Logger
}

// NewAdminHandler 创建运营处理器
func NewAdminHandler(svc *service.GameService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{service: svc, logger: logger}
}

// UpdateConfig 修改胜率或赔率表
func (h *AdminHandler) UpdateConfig(c *gin.Context) {
	var req service.UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	gameType := c.Param("type")
	cfg, err := h.service.UpdateGameConfig(c.Request.Context(), gameType, req, service.SourceAPI)
	if err != nil {
		h.logger.Warn("配置更新被拒绝", zap.String("game_type", gameType), zap.Error(err))
		respondError(c, err)
		return
	}
	respondOK(c, cfg)
}

// ConfigHistory 配置版本历史
func (h *AdminHandler) ConfigHistory(c *gin.Context) {
	records, p, err := h.service.ConfigHistory(c.Request.Context(), c.Param("type"),
		queryInt(c, "page", 1), queryInt(c, "page_size", 10))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, PageResponse{Records: records, Total: p.Total, Page: p.Page, PageSize: p.PageSize})
}

// Stats 实际开奖统计，?since= 为 RFC3339 时间
func (h *AdminHandler) Stats(c *gin.Context) {
	var since time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, apperrors.Newf(apperrors.ErrInvalidParam, "since 无效: %s", raw))
			return
		}
		since = t
	}

	stats, err := h.service.Stats(c.Request.Context(), c.Param("type"), since)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stats)
}

// Simulate 用固定种子批量模拟
func (h *AdminHandler) Simulate(c *gin.Context) {
	var req service.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.service.Simulate(c.Request.Context(), c.Param("type"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}
