package main

import (
	"context"
	"fmt"
	"log"

	"shoten/internal/camera"
	"shoten/internal/config"
	"shoten/internal/feature"
	"shoten/internal/history"
	"shoten/internal/logging"
	"shoten/internal/server"
)

func main() {
	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
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
	srv := server.New(cfg, manager, repo, logger)
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
	}
}
