package camera

import (
	"context"
	"time"

	"shoten/internal/capture"
	"shoten/internal/feature"
)

// Camera は管理対象カメラの情報を表す
type Camera struct {
	ID      string    // カメラの一意識別子
	Name    string    // カメラの表示名
	Driver  string    // ドライバー名
	AddedAt time.Time // 管理対象に追加された時刻
}

// DeviceInfo はデバイスの静的な特性を表す
type DeviceInfo struct {
	Name           string // デバイスの表示名
	Driver         string // ドライバー名
	FlashAvailable bool   // フラッシュユニットの有無
}

// ResultHandler はデバイスからのキャプチャ結果を受け取るインターフェース
//
// 両メソッドともデバイスのコールバックスレッド1本から
// 結果の生成順に呼ばれることを前提とする。
type ResultHandler interface {
	// OnPartialResult は部分結果の到着時に呼ばれる
	OnPartialResult(result capture.Result)

	// OnFinalResult は最終結果の到着時に呼ばれる
	OnFinalResult(result capture.Result)
}

// Device はカメラデバイスドライバ層との境界インターフェース
type Device interface {
	// Info はデバイスの静的な特性を返す
	Info() DeviceInfo

	// ExposureTimeRange はサポートされる露出時間範囲を返す。不明な場合はnil
	ExposureTimeRange() *feature.ExposureRange

	// SetResultHandler は結果の配送先を設定する。Startより前に呼ぶこと
	SetResultHandler(handler ResultHandler)

	// Start は結果ストリームの配送を開始する
	Start(ctx context.Context) error

	// Stop は結果ストリームの配送を停止する
	Stop(ctx context.Context) error

	// SetRepeatingRequest はプレビュー用の繰り返しリクエストを差し替える
	SetRepeatingRequest(request feature.Request) error

	// TriggerAutoFocus はオートフォーカスのロックシーケンスを開始する
	TriggerAutoFocus() error

	// TriggerPrecapture はプリキャプチャ測光シーケンスを開始する
	TriggerPrecapture() error

	// CaptureStill は静止画を1枚撮影する
	CaptureStill(request feature.Request) error
}

// CaptureRecord は完了した静止画キャプチャの記録
type CaptureRecord struct {
	ID          string    // キャプチャの一意識別子
	CameraID    string    // 撮影したカメラのID
	StartedAt   time.Time // シーケンス開始時刻
	ConvergedAt time.Time // 収束時刻
	ViaTimeout  bool      // タイムアウト脱出パスで収束したか

	// 収束時点のセンサー値（最終結果で観測できなかった場合はnil）
	ExposureTimeNs    *int64
	SensorSensitivity *int
	LensAperture      *float64
}

// EventType はセッションが配信するイベントの種別
type EventType string

const (
	// EventStateChanged は状態遷移を表す
	EventStateChanged EventType = "state_changed"
	// EventPrecapture はプリキャプチャ測光パスへの分岐を表す
	EventPrecapture EventType = "precapture"
	// EventConverged は収束を表す
	EventConverged EventType = "converged"
)

// Event はセッションの状態変化を購読者へ伝える
type Event struct {
	CameraID  string    `json:"camera_id"`
	Type      EventType `json:"type"`
	State     string    `json:"state"`
	Timestamp time.Time `json:"timestamp"`
}
