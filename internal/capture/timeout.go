package capture

import "time"

// Timeout は固定長のカウントダウンウィンドウを表す
//
// Start()で現在時刻から期限を張り直し、IsExpired()で超過を判定する。
// 自動の再装填は行わない。装填は外側のキャプチャシーケンスの責務。
// 一度もStart()されていないウィンドウは期限切れを報告しない。
type Timeout struct {
	duration time.Duration
	deadline time.Time
	now      func() time.Time // テスト用に差し替え可能
}

// NewTimeout は指定された長さのTimeoutを作成する
func NewTimeout(duration time.Duration) *Timeout {
	return &Timeout{
		duration: duration,
		now:      time.Now,
	}
}

// Start は現在時刻から期限を張り直す
func (t *Timeout) Start() {
	t.deadline = t.now().Add(t.duration)
}

// IsExpired は期限を超過しているかを返す
func (t *Timeout) IsExpired() bool {
	if t.deadline.IsZero() {
		return false
	}
	return t.now().After(t.deadline)
}

// Timeouts はキャプチャシーケンスで使う2つの独立したウィンドウを保持する
type Timeouts struct {
	preCaptureFocusing *Timeout // フォーカスロック待ちウィンドウ
	preCaptureMetering *Timeout // プリキャプチャ測光待ちウィンドウ
}

// NewTimeouts は新しいTimeoutsを作成する
func NewTimeouts(focusTimeout, meteringTimeout time.Duration) *Timeouts {
	return &Timeouts{
		preCaptureFocusing: NewTimeout(focusTimeout),
		preCaptureMetering: NewTimeout(meteringTimeout),
	}
}

// Reset は両方のウィンドウを現在時刻から張り直す
func (t *Timeouts) Reset() {
	t.preCaptureFocusing.Start()
	t.preCaptureMetering.Start()
}

// PreCaptureFocusing はフォーカスロック待ちウィンドウを返す
func (t *Timeouts) PreCaptureFocusing() *Timeout {
	return t.preCaptureFocusing
}

// PreCaptureMetering はプリキャプチャ測光待ちウィンドウを返す
func (t *Timeouts) PreCaptureMetering() *Timeout {
	return t.preCaptureMetering
}
