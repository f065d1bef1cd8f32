package camera

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"shoten/internal/capture"
	"shoten/internal/feature"
)

// SimulatedBehavior はシミュレートデバイスの応答特性を指定する
//
// タイムアウト脱出パスを実機なしで検証するため、収束シグナルを
// 報告しない劣化モードを個別に有効化できる。
type SimulatedBehavior struct {
	AFNeverLocks        bool // フォーカスが永遠にロックしない
	AEStuckInPrecapture bool // 測光がプリキャプチャフェーズから抜けない
	OmitAFState         bool // AF状態を一切報告しない
	OmitAEState         bool // AE状態を一切報告しない
	NeedsPrecapture     bool // 露出が収束済みでなくプリキャプチャを要求する
}

// SimulatedDevice はハードウェアなしで結果ストリームを生成するデバイス実装
//
// フレームごとに部分結果と最終結果を1件ずつ、1本のゴルーチンから
// 到着順に配送する。トリガーに応じてAF・AEの状態コードを遷移させる。
type SimulatedDevice struct {
	info          DeviceInfo
	exposureRange *feature.ExposureRange
	behavior      SimulatedBehavior
	frameInterval time.Duration
	logger        *slog.Logger

	mu                   sync.Mutex
	handler              ResultHandler
	repeating            feature.Request
	afTriggered          bool
	afFramesLeft         int
	precaptureTriggered  bool
	precaptureFramesLeft int
	running              bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewSimulatedDevice は新しいSimulatedDeviceを作成する
func NewSimulatedDevice(name string, exposureRange *feature.ExposureRange, behavior SimulatedBehavior, frameInterval time.Duration, logger *slog.Logger) *SimulatedDevice {
	return &SimulatedDevice{
		info: DeviceInfo{
			Name:           name,
			Driver:         "simulated",
			FlashAvailable: true,
		},
		exposureRange: exposureRange,
		behavior:      behavior,
		frameInterval: frameInterval,
		logger:        logger,
	}
}

// Info はデバイスの静的な特性を返す
func (d *SimulatedDevice) Info() DeviceInfo {
	return d.info
}

// ExposureTimeRange はサポートされる露出時間範囲を返す
func (d *SimulatedDevice) ExposureTimeRange() *feature.ExposureRange {
	return d.exposureRange
}

// SetResultHandler は結果の配送先を設定する
func (d *SimulatedDevice) SetResultHandler(handler ResultHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = handler
}

// Start はフレームループを開始する
func (d *SimulatedDevice) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("デバイス %s は既に開始されています", d.info.Name)
	}
	if d.handler == nil {
		return fmt.Errorf("結果ハンドラが設定されていません")
	}

	d.stopCh = make(chan struct{})
	d.running = true

	d.wg.Add(1)
	go d.frameLoop(ctx)

	return nil
}

// Stop はフレームループを停止する
func (d *SimulatedDevice) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	close(d.stopCh)
	d.mu.Unlock()

	d.wg.Wait()
	return nil
}

// SetRepeatingRequest はプレビュー用の繰り返しリクエストを差し替える
func (d *SimulatedDevice) SetRepeatingRequest(request feature.Request) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.repeating = request
	return nil
}

// TriggerAutoFocus はフォーカスのロックシーケンスを開始する
func (d *SimulatedDevice) TriggerAutoFocus() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.afTriggered = true
	d.afFramesLeft = 2 // 数フレームのスキャンを経てロックする
	return nil
}

// TriggerPrecapture はプリキャプチャ測光シーケンスを開始する
func (d *SimulatedDevice) TriggerPrecapture() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.precaptureTriggered = true
	d.precaptureFramesLeft = 2
	return nil
}

// CaptureStill は静止画の撮影を記録し、トリガー状態をリセットする
func (d *SimulatedDevice) CaptureStill(request feature.Request) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.afTriggered = false
	d.precaptureTriggered = false

	d.logger.Debug("静止画を撮影しました",
		"device", d.info.Name,
		"manualExposure", request.SensorExposureTime != nil)
	return nil
}

// frameLoop はフレーム周期ごとに部分結果と最終結果を配送する
func (d *SimulatedDevice) frameLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.deliverFrame()
		}
	}
}

// deliverFrame は1フレーム分の結果を生成して配送する
func (d *SimulatedDevice) deliverFrame() {
	d.mu.Lock()
	partial := d.nextResult()
	final := partial
	final.SensorExposureTime = d.sensorExposureTime()
	final.SensorSensitivity = d.sensorSensitivity()
	aperture := 1.8
	final.LensAperture = &aperture
	handler := d.handler
	d.mu.Unlock()

	// ハンドラ呼び出しはこのゴルーチン1本から順に行う
	handler.OnPartialResult(partial)
	handler.OnFinalResult(final)
}

// nextResult は現在のトリガー状態からAF・AE状態コードを決定する（ロック済み前提）
func (d *SimulatedDevice) nextResult() capture.Result {
	var result capture.Result

	if !d.behavior.OmitAFState {
		af := d.nextAFState()
		result.AFState = &af
	}
	if !d.behavior.OmitAEState {
		ae := d.nextAEState()
		result.AEState = &ae
	}
	return result
}

func (d *SimulatedDevice) nextAFState() capture.AFState {
	switch {
	case !d.afTriggered:
		return capture.AFStateInactive
	case d.behavior.AFNeverLocks:
		return capture.AFStateActiveScan
	case d.afFramesLeft > 0:
		d.afFramesLeft--
		return capture.AFStateActiveScan
	default:
		return capture.AFStateFocusedLocked
	}
}

func (d *SimulatedDevice) nextAEState() capture.AEState {
	switch {
	case d.precaptureTriggered:
		if d.behavior.AEStuckInPrecapture {
			return capture.AEStatePrecapture
		}
		if d.precaptureFramesLeft > 0 {
			d.precaptureFramesLeft--
			return capture.AEStatePrecapture
		}
		return capture.AEStateConverged
	case d.behavior.NeedsPrecapture:
		return capture.AEStateSearching
	default:
		return capture.AEStateConverged
	}
}

// sensorExposureTime は最終結果に載せる露出時間を返す（ロック済み前提）
func (d *SimulatedDevice) sensorExposureTime() *int64 {
	if d.repeating.SensorExposureTime != nil {
		v := *d.repeating.SensorExposureTime
		return &v
	}
	v := int64(16_666_666) // 自動露出の既定値（約1/60秒）
	return &v
}

// sensorSensitivity は最終結果に載せる感度を返す（ロック済み前提）
func (d *SimulatedDevice) sensorSensitivity() *int {
	if d.repeating.SensorSensitivity != nil {
		v := *d.repeating.SensorSensitivity
		return &v
	}
	v := 200
	return &v
}
