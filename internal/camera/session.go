package camera

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"shoten/internal/capture"
	"shoten/internal/feature"
)

// Session は個別カメラの静止画キャプチャシーケンスを制御する
//
// 収束ステートマシンのリスナーとして振る舞い、収束したら撮影を実行して
// 状態をプレビューへ戻す。収束判定自体はcapture.Callbackが行う。
type Session struct {
	id       string
	device   Device
	timeouts *capture.Timeouts
	props    *capture.Properties
	callback *capture.Callback
	shutter  *feature.ShutterSpeed
	flash    *feature.Flash
	logger   *slog.Logger

	// TakePictureを1回ずつに直列化する
	captureMu sync.Mutex

	// コールバック・タイムアウト・センサー値キャッシュへのアクセスを直列化する。
	// フレーム配送スレッドと外部呼び出しの両方がここを通る
	stateMu sync.Mutex

	// 進行中のキャプチャ試行の情報
	attemptMu      sync.Mutex
	doneCh         chan captureOutcome
	startedAt      time.Time
	escapesAtStart int

	// イベント購読者
	subMu       sync.Mutex
	subscribers map[chan Event]struct{}
}

// captureOutcome は1回のキャプチャ試行の結果
type captureOutcome struct {
	record CaptureRecord
	err    error
}

// NewSession は新しいSessionを作成し、デバイスに結果ハンドラを登録する
func NewSession(id string, device Device, focusTimeout, meteringTimeout time.Duration, logger *slog.Logger) *Session {
	props := capture.NewProperties()
	timeouts := capture.NewTimeouts(focusTimeout, meteringTimeout)

	s := &Session{
		id:          id,
		device:      device,
		timeouts:    timeouts,
		props:       props,
		shutter:     feature.NewShutterSpeed(device.ExposureTimeRange(), props, logger),
		flash:       feature.NewFlash(device.Info().FlashAvailable, logger),
		logger:      logger,
		subscribers: make(map[chan Event]struct{}),
	}
	s.callback = capture.NewCallback(s, timeouts, props, logger)

	device.SetResultHandler(s)
	return s
}

// ID はセッションのカメラIDを返す
func (s *Session) ID() string {
	return s.id
}

// State は現在のキャプチャ状態を返す
func (s *Session) State() capture.CameraState {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.callback.CameraState()
}

// TimeoutEscapes はタイムアウト脱出で前進した累計回数を返す
func (s *Session) TimeoutEscapes() int {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.callback.TimeoutEscapes()
}

// Properties は直近のセンサー値キャッシュの呼び出し時点のスナップショットを返す
func (s *Session) Properties() *capture.Properties {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	snapshot := *s.props
	return &snapshot
}

// TakePicture は静止画キャプチャシーケンスを実行する
//
// タイムアウトウィンドウを装填して収束待ちに入り、収束またはコンテキストの
// キャンセルまでブロックする。キャンセル時は状態をプレビューへ戻すだけで
// ウィンドウは再装填しない。
func (s *Session) TakePicture(ctx context.Context) (*CaptureRecord, error) {
	s.captureMu.Lock()
	defer s.captureMu.Unlock()

	done := make(chan captureOutcome, 1)

	s.stateMu.Lock()
	s.attemptMu.Lock()
	s.doneCh = done
	s.startedAt = time.Now()
	s.escapesAtStart = s.callback.TimeoutEscapes()
	s.attemptMu.Unlock()

	s.timeouts.Reset()
	s.callback.SetCameraState(capture.StateWaitingFocus)
	s.emit(EventStateChanged)
	s.stateMu.Unlock()

	if err := s.device.TriggerAutoFocus(); err != nil {
		s.stateMu.Lock()
		s.callback.SetCameraState(capture.StatePreview)
		s.stateMu.Unlock()
		return nil, fmt.Errorf("AFトリガーの送信に失敗: %w", err)
	}

	select {
	case <-ctx.Done():
		// 試行の放棄。外部リセットとして状態だけをプレビューへ戻す
		s.stateMu.Lock()
		s.attemptMu.Lock()
		s.doneCh = nil
		s.attemptMu.Unlock()
		s.callback.SetCameraState(capture.StatePreview)
		s.emit(EventStateChanged)
		s.stateMu.Unlock()
		return nil, ctx.Err()

	case outcome := <-done:
		if outcome.err != nil {
			return nil, outcome.err
		}
		return &outcome.record, nil
	}
}

// SetShutterSpeed はシャッタースピードを設定し、繰り返しリクエストを更新する
//
// nilまたは0は自動露出への復帰を意味する。
func (s *Session) SetShutterSpeed(shutterSpeedNs *int64) error {
	s.stateMu.Lock()
	s.shutter.Set(shutterSpeedNs)
	request := s.buildRequest()
	s.stateMu.Unlock()

	if err := s.device.SetRepeatingRequest(request); err != nil {
		return fmt.Errorf("繰り返しリクエストの更新に失敗: %w", err)
	}
	return nil
}

// ShutterSpeed はシャッタースピード機能を返す
func (s *Session) ShutterSpeed() *feature.ShutterSpeed {
	return s.shutter
}

// SetFlashMode はフラッシュモードを設定し、繰り返しリクエストを更新する
func (s *Session) SetFlashMode(mode feature.FlashMode) error {
	s.stateMu.Lock()
	s.flash.Set(mode)
	request := s.buildRequest()
	s.stateMu.Unlock()

	if err := s.device.SetRepeatingRequest(request); err != nil {
		return fmt.Errorf("繰り返しリクエストの更新に失敗: %w", err)
	}
	return nil
}

// FlashMode は現在のフラッシュモードを返す
func (s *Session) FlashMode() feature.FlashMode {
	return s.flash.Value()
}

// buildRequest は各機能の差分をマージしてリクエストを構築する
//
// シャッタースピード→フラッシュの順に適用する。フラッシュ機能は
// マージ済みのリクエストを見て手動露出の有無を判断する。
func (s *Session) buildRequest() feature.Request {
	request := s.shutter.Delta().Apply(feature.Request{})
	request = s.flash.Delta(request).Apply(request)
	return request
}

// OnPartialResult はResultHandlerの実装。部分結果をステートマシンへ渡す
func (s *Session) OnPartialResult(result capture.Result) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.callback.ProcessPartial(result)
}

// OnFinalResult はResultHandlerの実装。最終結果をステートマシンへ渡す
func (s *Session) OnFinalResult(result capture.Result) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.logRequestMismatch(result)
	s.callback.ProcessFinal(result)
}

// logRequestMismatch は手動露出の要求値と実際のセンサー値の乖離を記録する
func (s *Session) logRequestMismatch(result capture.Result) {
	requested := s.shutter.Value()
	if requested == nil || result.SensorExposureTime == nil {
		return
	}
	if *requested != *result.SensorExposureTime {
		s.logger.Debug("要求した露出時間と実際の値が一致しません",
			"camera", s.id,
			"requestedNs", *requested,
			"actualNs", *result.SensorExposureTime)
	}
}

// OnConverged はStateListenerの実装。撮影を実行してシーケンスを完了する
//
// ProcessPartial/ProcessFinalの処理中にのみ呼ばれるため、
// 呼び出し時点でstateMuは保持済み。
func (s *Session) OnConverged() {
	s.emit(EventConverged)

	err := s.device.CaptureStill(s.buildRequest())

	s.attemptMu.Lock()
	startedAt := s.startedAt
	viaTimeout := s.callback.TimeoutEscapes() > s.escapesAtStart
	done := s.doneCh
	s.doneCh = nil
	s.attemptMu.Unlock()

	record := CaptureRecord{
		ID:                uuid.New().String(),
		CameraID:          s.id,
		StartedAt:         startedAt,
		ConvergedAt:       time.Now(),
		ViaTimeout:        viaTimeout,
		ExposureTimeNs:    s.props.LastSensorExposureTime(),
		SensorSensitivity: s.props.LastSensorSensitivity(),
		LensAperture:      s.props.LastLensAperture(),
	}

	// 撮影後はプレビューへ戻す。この遷移はリスナー側の責務
	s.callback.SetCameraState(capture.StatePreview)
	s.emit(EventStateChanged)

	if done != nil {
		done <- captureOutcome{record: record, err: err}
	}
}

// OnPrecapture はStateListenerの実装。プリキャプチャ測光パスへ進む
//
// ProcessPartial/ProcessFinalの処理中にのみ呼ばれるため、
// 呼び出し時点でstateMuは保持済み。
func (s *Session) OnPrecapture() {
	s.emit(EventPrecapture)

	s.callback.SetCameraState(capture.StateWaitingPrecaptureStart)
	s.emit(EventStateChanged)

	if err := s.device.TriggerPrecapture(); err != nil {
		s.logger.Error("プリキャプチャトリガーの送信に失敗しました", "camera", s.id, "error", err)
	}
}

// Subscribe はイベントの購読を開始する
//
// 戻り値の関数で購読を解除する。配信が追いつかないイベントは破棄される。
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	unsubscribe := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
	}
	return ch, unsubscribe
}

// emit は全購読者へイベントを配信する。stateMuを保持して呼ぶこと
func (s *Session) emit(eventType EventType) {
	event := Event{
		CameraID:  s.id,
		Type:      eventType,
		State:     s.callback.CameraState().String(),
		Timestamp: time.Now(),
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// 追いつかない購読者にはイベントを破棄する
		}
	}
}
