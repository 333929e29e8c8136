package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/wfunc/fairness-engine/internal/database"
	"github.com/wfunc/fairness-engine/internal/middleware"
	"github.com/wfunc/fairness-engine/internal/service"
	"github.com/wfunc/fairness-engine/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router API路由器
type Router struct {
	engine  *gin.Engine
	db      *gorm.DB
	service *service.GameService
	hub     *websocket.Hub
	log     *zap.Logger

	games   *GameHandler
	players *PlayerHandler
	admin   *AdminHandler
}

// Options 路由可选依赖
type Options struct {
	DB     *gorm.DB       // 为 nil 时健康检查跳过数据库
	Hub    *websocket.Hub // 为 nil 时不注册 WebSocket 路由
	WSPath string
	Mode   string

	CORSOrigins []string // 为空时不启用跨域
}

// NewRouter 创建路由器
func NewRouter(svc *service.GameService, opts Options, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery())
	engine.Use(middleware.AccessLog())
	if len(opts.CORSOrigins) > 0 {
		engine.Use(corsMiddleware(opts.CORSOrigins))
	}

	r := &Router{
		engine:  engine,
		db:      opts.DB,
		service: svc,
		hub:     opts.Hub,
		log:     log,
		games:   NewGameHandler(svc, log),
		players: NewPlayerHandler(svc),
		admin:   NewAdminHandler(svc, log),
	}
	r.setupRoutes(opts.WSPath)
	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = origins
	return cors.New(cfg)
}

// setupRoutes 设置路由
func (r *Router) setupRoutes(wsPath string) {
	r.engine.GET("/health", r.healthCheck)

	v1 := r.engine.Group("/api/v1")
	{
		games := v1.Group("/games")
		{
			games.GET("", r.games.List)
			games.GET("/:type/distribution", r.games.Distribution)
			games.POST("/:type/spin", r.games.Spin)
			games.GET("/:type/rounds/:round_id/replay", r.games.Replay)
		}

		players := v1.Group("/players")
		{
			players.GET("/:player_id/rounds", r.players.Rounds)
			players.GET("/:player_id/balance", r.players.Balance)
			players.GET("/:player_id/seed", r.players.Seed)
			players.POST("/:player_id/seed/rotate", r.players.RotateSeed)
		}

		admin := v1.Group("/admin/games")
		{
			admin.PUT("/:type", r.admin.UpdateConfig)
			admin.GET("/:type/history", r.admin.ConfigHistory)
			admin.GET("/:type/stats", r.admin.Stats)
			admin.POST("/:type/simulate", r.admin.Simulate)
		}
	}

	if r.hub != nil {
		if wsPath == "" {
			wsPath = "/ws"
		}
		r.engine.GET(wsPath, r.hub.ServeWS)
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "接口不存在",
		})
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	status := gin.H{
		"status": "healthy",
		"games":  len(r.service.Games()),
	}
	if r.hub != nil {
		status["online"] = r.hub.OnlineCount()
	}

	if r.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := database.Ping(ctx, r.db); err != nil {
			r.log.Warn("健康检查数据库失败", zap.Error(err))
			status["status"] = "unhealthy"
			status["message"] = "数据库连接失败"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
	}
	c.JSON(http.StatusOK, status)
}

// Handler 返回 http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
