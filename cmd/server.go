// Package main はShotenサーバーコマンドの実装です
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"shoten/internal/camera"
	"shoten/internal/config"
	"shoten/internal/feature"
	"shoten/internal/history"
	"shoten/internal/logging"
	"shoten/internal/server"
)

func main() {
	// コマンドラインオプション
	var (
		host    = flag.String("host", "", "サーバーのホスト (デフォルト: 0.0.0.0)")
		port    = flag.Int("port", 0, "サーバーのポート (デフォルト: 8080)")
		cameras = flag.Int("cameras", 0, "シミュレートカメラの台数 (デフォルト: 1)")
		verbose = flag.Bool("verbose", false, "デバッグログを有効にする")
		help    = flag.Bool("help", false, "ヘルプを表示")
	)

	flag.Parse()

	// ヘルプ表示
	if *help {
		fmt.Println("Shoten")
		fmt.Println()
		fmt.Println("使用方法:")
		fmt.Println("  server [オプション]")
		fmt.Println()
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// コマンドラインオプションで設定を上書き
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *cameras != 0 {
		cfg.Camera.SimulatedCount = *cameras
	}
	if *verbose {
		cfg.Log.Verbose = true
	}

	// ロガーを構築
	logger, err := logging.Setup(cfg.Log.Path, cfg.Log.Verbose)
	if err != nil {
		log.Fatalf("ロガーの構築に失敗しました: %v", err)
	}

	ctx := context.Background()

	// キャプチャ履歴リポジトリを開く
	repo, err := history.New(ctx, cfg.History.Path, logger)
	if err != nil {
		log.Fatalf("履歴データベースを開けません: %v", err)
	}
	defer func() { _ = repo.Close() }()

	// カメラマネージャーを作成し、シミュレートカメラを登録する
	manager := camera.NewManager(cfg.Capture.FocusTimeout, cfg.Capture.MeteringTimeout, logger)
	defer func() { _ = manager.Stop(context.Background()) }()

	exposureRange := &feature.ExposureRange{
		Lower: cfg.Camera.ExposureMinNs,
		Upper: cfg.Camera.ExposureMaxNs,
	}
	for i := range cfg.Camera.SimulatedCount {
		device := camera.NewSimulatedDevice(
			fmt.Sprintf("シミュレートカメラ%d", i),
			exposureRange,
			camera.SimulatedBehavior{},
			cfg.Camera.FrameInterval,
			logger,
		)
		if _, err := manager.AddDevice(ctx, device); err != nil {
			log.Fatalf("カメラの登録に失敗しました: %v", err)
		}
	}

	// サーバーを作成して起動
	log.Printf("Shoten サーバーを起動します: %s", cfg.ServerAddress())
	srv := server.New(cfg, manager, repo, logger)
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
	}
}
