package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/wfunc/fairness-engine/internal/api"
	"github.com/wfunc/fairness-engine/internal/config"
	"github.com/wfunc/fairness-engine/internal/database"
	"github.com/wfunc/fairness-engine/internal/errors"
	"github.com/wfunc/fairness-engine/internal/game/fairness"
	"github.com/wfunc/fairness-engine/internal/logger"
	"github.com/wfunc/fairness-engine/internal/repository"
	"github.com/wfunc/fairness-engine/internal/service"
	"github.com/wfunc/fairness-engine/internal/websocket"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	engine  *fairness.Engine
	service *service.GameService
	hub     *websocket.Hub
	http    *http.Server

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
	)
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()

	server := NewServer(cfg)
	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	server.WaitForShutdown()

	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:    cfg,
		logger: logger.GetLogger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动公平性引擎服务...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
		zap.String("config_file", config.ConfigFile()),
	)

	if err := s.initDatabase(); err != nil {
		return err
	}
	if err := s.initGames(); err != nil {
		return errors.Wrap(err, errors.ErrConfigLoad, "初始化游戏配置失败")
	}
	s.startServices()

	// 配置文件变化时只重载游戏配置和日志级别
	config.Watch(s.reloadConfig, func(err error) {
		s.logger.Error("配置重载失败", zap.Error(err))
	})

	s.logger.Info("服务器启动成功",
		zap.String("http", s.http.Addr),
		zap.String("websocket", s.cfg.WebSocket.Path),
	)
	return nil
}

// initDatabase 初始化数据库
func (s *Server) initDatabase() error {
	if err := database.Init(&s.cfg.Database); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseConnect, "初始化数据库连接失败")
	}

	if s.cfg.Database.AutoMigrate {
		s.logger.Info("执行数据库自动迁移...")
		if err := database.AutoMigrate(database.GetDB()); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseConnect, "数据库迁移失败")
		}
	}

	if err := database.Ping(s.ctx, database.GetDB()); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseConnect, "数据库连接检查失败")
	}
	return nil
}

// initGames 先恢复数据库中的最新版本，再补充配置文件中新增的游戏
func (s *Server) initGames() error {
	repos := repository.NewManager(database.GetDB())
	s.engine = fairness.NewEngine()
	s.hub = websocket.NewHub(s.cfg.WebSocket, logger.GetModuleLogger("websocket"))

	s.service = service.NewGameService(s.engine, service.NewMemoryLedger(s.cfg.Wallet.InitialBalance), service.Options{
		Configs:       repos.GameConfig(),
		Spins:         repos.SpinRecord(),
		Publisher:     s.hub,
		Wallet:        s.cfg.Wallet,
		MaxSimulation: s.cfg.Server.MaxSimulation,
		Logger:        logger.GetModuleLogger("game"),
	})

	restored, err := s.service.Restore(s.ctx)
	if err != nil {
		return err
	}
	s.logger.Info("已恢复游戏配置", zap.Int("count", restored))

	return s.service.LoadGames(s.ctx, s.cfg.Games)
}

// startServices 启动 WebSocket 中心和 HTTP 服务
func (s *Server) startServices() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run(s.ctx)
	}()

	router := api.NewRouter(s.service, api.Options{
		DB:     database.GetDB(),
		Hub:    s.hub,
		WSPath: s.cfg.WebSocket.Path,
		Mode:   s.cfg.Server.Mode,

		CORSOrigins: s.cfg.Server.CORSOrigins,
	}, logger.GetModuleLogger("http"))

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.http.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP服务异常退出", zap.Error(err))
			s.cancel()
		}
	}()
}

// WaitForShutdown 等待关闭信号或服务异常退出
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
	case <-s.ctx.Done():
	}
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP服务关闭失败", zap.Error(err))
	}

	// 取消主上下文，触发所有goroutine退出
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("所有服务已正常关闭")
	case <-shutdownCtx.Done():
		s.logger.Warn("关闭超时，强制退出")
		return errors.New(errors.ErrTimeout, "关闭超时")
	}

	if err := database.Close(); err != nil {
		s.logger.Error("关闭数据库失败", zap.Error(err))
	}
	return nil
}

// reloadConfig 应用新的日志级别和游戏配置，服务端口等参数需要重启生效
func (s *Server) reloadConfig(newCfg *config.Config) {
	logger.SetLevel(newCfg.Log.Level)

	changed := s.service.ReloadGames(s.ctx, newCfg.Games)
	s.cfg = newCfg
	s.logger.Info("配置重新加载完成", zap.Strings("changed_games", changed))
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("公平性引擎服务\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
