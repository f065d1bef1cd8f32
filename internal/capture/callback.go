package capture

import "log/slog"

// StateListener は収束判定の結果を受け取るインターフェース
//
// 1回の収束判定につきOnConvergedかOnPrecaptureのどちらか一方だけが
// 呼ばれる。両方が同時に呼ばれることはない。
type StateListener interface {
	// OnConverged はフォーカス・露出が収束し撮影可能になったときに呼ばれる
	OnConverged()

	// OnPrecapture はプリキャプチャ測光パスが必要と判断されたときに呼ばれる
	OnPrecapture()
}

// listenerEvent は1回の遷移で発火するリスナーイベント
type listenerEvent int

const (
	eventNone listenerEvent = iota
	eventConverged
	eventPrecapture
)

// Callback はキャプチャ結果を逐次処理する収束ステートマシン
//
// デバイスのコールバックスレッド1本から呼ばれることを前提とし、
// 内部ロックは持たない。別スレッドからのCameraState()等の読み取りは
// 「最後に観測したスナップショット」として扱うこと。
type Callback struct {
	listener StateListener
	timeouts *Timeouts
	props    *Properties
	logger   *slog.Logger

	state          CameraState
	timeoutEscapes int // タイムアウト脱出で前進した回数（観測用）
}

// NewCallback は新しいCallbackを作成する
func NewCallback(listener StateListener, timeouts *Timeouts, props *Properties, logger *slog.Logger) *Callback {
	return &Callback{
		listener: listener,
		timeouts: timeouts,
		props:    props,
		logger:   logger,
		state:    StatePreview,
	}
}

// CameraState は現在の状態を返す
func (c *Callback) CameraState() CameraState {
	return c.state
}

// SetCameraState は状態を設定する
//
// 収束後にプレビューへ戻す遷移はステートマシン内部ではなく
// 呼び出し側（リスナー）が行う。
func (c *Callback) SetCameraState(state CameraState) {
	c.state = state
}

// TimeoutEscapes はタイムアウト脱出で前進した累計回数を返す
func (c *Callback) TimeoutEscapes() int {
	return c.timeoutEscapes
}

// ProcessPartial は部分結果を処理する
func (c *Callback) ProcessPartial(result Result) {
	c.process(result)
}

// ProcessFinal は最終結果を処理する
//
// 最終結果は収束ロジックとは無関係に、現在の状態によらず
// センサー値キャッシュを常に更新する。
func (c *Callback) ProcessFinal(result Result) {
	c.props.SetLastSensorExposureTime(result.SensorExposureTime)
	c.props.SetLastSensorSensitivity(result.SensorSensitivity)
	c.props.SetLastLensAperture(result.LensAperture)

	c.process(result)
}

// process は結果を1件処理し、必要なら状態遷移とリスナー通知を行う
func (c *Callback) process(result Result) {
	if c.state != StatePreview {
		c.logger.Debug("キャプチャ結果を処理",
			"state", c.state.String(),
			"afState", afStateAttr(result.AFState),
			"aeState", aeStateAttr(result.AEState))
	}

	next, event, timedOut := advance(c.state, result, c.timeouts)

	if timedOut {
		c.timeoutEscapes++
		c.logger.Warn("タイムアウトにより収束を待たずに前進します",
			"state", c.state.String(), "escapes", c.timeoutEscapes)
	}

	c.state = next

	switch event {
	case eventConverged:
		c.listener.OnConverged()
	case eventPrecapture:
		c.listener.OnPrecapture()
	}
}

// advance は現在状態と結果から次状態とイベントを決定する純粋関数
//
// 戻り値のboolはタイムアウト脱出パスを通ったかどうかを示す。
// 1回の評価で発火するイベントは最大1つ、状態遷移も最大1つ。
func advance(state CameraState, result Result, timeouts *Timeouts) (CameraState, listenerEvent, bool) {
	switch state {
	case StatePreview:
		// プレビュー中は何もしない

	case StateWaitingFocus:
		switch {
		case result.AFState != nil &&
			(*result.AFState == AFStateFocusedLocked || *result.AFState == AFStateNotFocusedLocked):
			// 成功・失敗を問わずロック完了として露出判定へ進む
			return state, decideExposure(result.AEState), false
		case timeouts.PreCaptureFocusing().IsExpired():
			// AF状態を報告しない・ロックしないハードウェアでも停滞させない
			return state, decideExposure(result.AEState), true
		}
		// それ以外（報告なし・スキャン中）は次の結果を待つ

	case StateWaitingPrecaptureStart:
		switch {
		case result.AEState == nil ||
			*result.AEState == AEStateConverged ||
			*result.AEState == AEStatePrecapture ||
			*result.AEState == AEStateFlashRequired:
			// AE状態は一部のデバイスで報告されないことがある
			return StateWaitingPrecaptureDone, eventNone, false
		case timeouts.PreCaptureMetering().IsExpired():
			return StateWaitingPrecaptureDone, eventNone, true
		}

	case StateWaitingPrecaptureDone:
		switch {
		case result.AEState == nil || *result.AEState != AEStatePrecapture:
			// 測光がプリキャプチャフェーズを抜けた
			return state, eventConverged, false
		case timeouts.PreCaptureMetering().IsExpired():
			return state, eventConverged, true
		}
	}

	return state, eventNone, false
}

// decideExposure はフォーカス確定後の露出判定を行う
//
// AE状態の報告がない、または既に収束している場合はそのまま収束とし、
// それ以外はプリキャプチャ測光パスへ回す。
func decideExposure(aeState *AEState) listenerEvent {
	if aeState == nil || *aeState == AEStateConverged {
		return eventConverged
	}
	return eventPrecapture
}

// afStateAttr はログ出力用にAF状態を文字列化する
func afStateAttr(s *AFState) string {
	if s == nil {
		return "nil"
	}
	return s.String()
}

// aeStateAttr はログ出力用にAE状態を文字列化する
func aeStateAttr(s *AEState) string {
	if s == nil {
		return "nil"
	}
	return s.String()
}
