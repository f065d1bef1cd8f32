package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"shoten/internal/camera"
	"shoten/internal/config"
)

// CaptureStore はキャプチャ履歴の保存先
type CaptureStore interface {
	Save(ctx context.Context, record camera.CaptureRecord) error
	List(ctx context.Context, limit int) ([]camera.CaptureRecord, error)
}

// Server はHTTPサーバーを管理する構造体
type Server struct {
	config     *config.Config
	manager    *camera.Manager
	store      CaptureStore
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// New は新しいServerインスタンスを作成する
func New(cfg *config.Config, manager *camera.Manager, store CaptureStore, logger *slog.Logger) *Server {
	if !cfg.Log.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		config:  cfg,
		manager: manager,
		store:   store,
		logger:  logger,
		engine:  engine,
		httpServer: &http.Server{
			Addr:         cfg.ServerAddress(),
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// setupRoutes はHTTPルートを設定する
func (s *Server) setupRoutes() {
	// ヘルスチェックエンドポイント
	s.engine.GET("/health", s.handleHealth)

	// APIエンドポイント
	api := s.engine.Group("/api")
	{
		api.GET("/status", s.handleStatus)
		api.GET("/cameras", s.handleGetCameras)
		api.GET("/cameras/:id/state", s.handleGetCameraState)
		api.POST("/cameras/:id/capture", s.handleCapture)
		api.GET("/cameras/:id/shutter-speed", s.handleGetShutterSpeed)
		api.PUT("/cameras/:id/shutter-speed", s.handleSetShutterSpeed)
		api.PUT("/cameras/:id/flash", s.handleSetFlash)
		api.GET("/cameras/:id/events", s.handleEvents)
		api.GET("/captures", s.handleGetCaptures)
	}
}

// Start はサーバーを起動する
func (s *Server) Start(ctx context.Context) error {
	// ルートを設定
	s.setupRoutes()

	// シャットダウン用のチャンネル
	shutdownCh := make(chan error, 1)

	// サーバーを別ゴルーチンで起動
	go func() {
		s.logger.Info("HTTPサーバーを起動しています", "address", s.config.ServerAddress())
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			shutdownCh <- fmt.Errorf("サーバーの起動に失敗: %w", err)
		}
	}()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// コンテキストかシグナルを待つ
	select {
	case <-ctx.Done():
		s.logger.Info("コンテキストがキャンセルされました")
	case sig := <-sigCh:
		s.logger.Info("シグナルを受信しました", "signal", sig.String())
	case err := <-shutdownCh:
		return err
	}

	// グレースフルシャットダウン
	return s.Shutdown()
}

// Shutdown はサーバーをグレースフルにシャットダウンする
func (s *Server) Shutdown() error {
	s.logger.Info("サーバーをシャットダウンしています")

	// 5秒のタイムアウトを設定
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("サーバーのシャットダウンに失敗: %w", err)
	}

	s.logger.Info("サーバーが正常にシャットダウンされました")
	return nil
}
