package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Capture CaptureConfig `yaml:"capture"`
	Camera  CameraConfig  `yaml:"camera"`
	History HistoryConfig `yaml:"history"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string `yaml:"host"` // リッスンするホスト
	Port int    `yaml:"port"` // リッスンするポート番号

	// タイムアウト設定
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // 読み込みタイムアウト
	WriteTimeout time.Duration `yaml:"write_timeout"` // 書き込みタイムアウト
}

// CaptureConfig は収束待ちの設定
type CaptureConfig struct {
	FocusTimeout    time.Duration `yaml:"focus_timeout"`    // フォーカス待ちの上限
	MeteringTimeout time.Duration `yaml:"metering_timeout"` // 測光待ちの上限
}

// CameraConfig はカメラ関連の設定
type CameraConfig struct {
	SimulatedCount int           `yaml:"simulated_count"` // 起動時に作成するシミュレートカメラ数
	FrameInterval  time.Duration `yaml:"frame_interval"`  // フレーム間隔
	ExposureMinNs  int64         `yaml:"exposure_min_ns"` // 露出時間の下限 (ns)
	ExposureMaxNs  int64         `yaml:"exposure_max_ns"` // 露出時間の上限 (ns)
}

// HistoryConfig はキャプチャ履歴の設定
type HistoryConfig struct {
	Path string `yaml:"path"` // SQLiteデータベースのパス
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Path    string `yaml:"path"`    // ログファイルのパス
	Verbose bool   `yaml:"verbose"` // デバッグログを有効にする
}

// Load は設定を読み込む
// デフォルト値 -> 環境変数 -> SHOTEN_CONFIG で指定されたyamlの順に上書きする
func Load() (*Config, error) {
	// デフォルト設定を作成
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsIntOrDefault("PORT", 8080),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 0, // イベントストリーミング用にタイムアウト無効化
		},
		Capture: CaptureConfig{
			FocusTimeout:    getEnvAsDurationOrDefault("FOCUS_TIMEOUT", time.Second),
			MeteringTimeout: getEnvAsDurationOrDefault("METERING_TIMEOUT", time.Second),
		},
		Camera: CameraConfig{
			SimulatedCount: getEnvAsIntOrDefault("SIMULATED_CAMERAS", 1),
			FrameInterval:  33 * time.Millisecond,
			ExposureMinNs:  250_000,
			ExposureMaxNs:  250_000_000,
		},
		History: HistoryConfig{
			Path: getEnvOrDefault("HISTORY_PATH", "captures.db"),
		},
		Log: LogConfig{
			Path:    getEnvOrDefault("LOG_PATH", "logs/shoten.log"),
			Verbose: os.Getenv("VERBOSE") != "",
		},
	}

	// yamlファイルが指定されていれば上書き
	if path := os.Getenv("SHOTEN_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルの解析に失敗: %w", err)
		}
	}

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	// サーバー設定の検証
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}

	// 収束待ち設定の検証
	if c.Capture.FocusTimeout <= 0 {
		return fmt.Errorf("無効なフォーカスタイムアウト: %v", c.Capture.FocusTimeout)
	}
	if c.Capture.MeteringTimeout <= 0 {
		return fmt.Errorf("無効な測光タイムアウト: %v", c.Capture.MeteringTimeout)
	}

	// カメラ設定の検証
	if c.Camera.SimulatedCount < 0 {
		return fmt.Errorf("無効なカメラ数: %d", c.Camera.SimulatedCount)
	}
	if c.Camera.ExposureMinNs <= 0 || c.Camera.ExposureMaxNs < c.Camera.ExposureMinNs {
		return fmt.Errorf("無効な露出時間範囲: %d..%d", c.Camera.ExposureMinNs, c.Camera.ExposureMaxNs)
	}

	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvAsDurationOrDefault は環境変数を期間として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
