package feature

import (
	"log/slog"

	"shoten/internal/capture"
)

// manualSensitivityISO は手動露出時に併用する固定ISO値
//
// ノイズが少なく結果が予測しやすいISO 100に固定する。
const manualSensitivityISO = 100

// ExposureRange はデバイスがサポートする露出時間の範囲（ナノ秒）
type ExposureRange struct {
	Lower int64
	Upper int64
}

// ShutterSpeed はシャッタースピード（手動露出時間）を制御する機能
type ShutterSpeed struct {
	supportedRange *ExposureRange
	captureProps   *capture.Properties
	logger         *slog.Logger

	// 現在の設定値（ナノ秒）。nilは自動露出を意味する
	current *int64
}

// NewShutterSpeed は新しいShutterSpeedを作成する
//
// supportedRangeはデバイス特性から取得できない場合nilでよい。
// その場合クランプは行わず指定値をそのまま使う。
func NewShutterSpeed(supportedRange *ExposureRange, captureProps *capture.Properties, logger *slog.Logger) *ShutterSpeed {
	if supportedRange == nil {
		logger.Warn("露出時間のサポート範囲が取得できません。クランプなしで動作します")
	} else {
		logger.Debug("露出時間のサポート範囲",
			"lowerNs", supportedRange.Lower, "upperNs", supportedRange.Upper)
	}

	return &ShutterSpeed{
		supportedRange: supportedRange,
		captureProps:   captureProps,
		logger:         logger,
	}
}

// Set はシャッタースピードを設定する
//
// nilまたは0は自動露出への復帰を意味する。それ以外の値は
// サポート範囲にクランプして保持する。
func (s *ShutterSpeed) Set(shutterSpeedNs *int64) {
	if shutterSpeedNs == nil || *shutterSpeedNs == 0 {
		s.logger.Debug("シャッタースピードを自動露出に戻します")
		s.current = nil
		return
	}

	clamped := s.clamp(*shutterSpeedNs)
	if clamped != *shutterSpeedNs {
		s.logger.Warn("シャッタースピードをサポート範囲にクランプしました",
			"requestedNs", *shutterSpeedNs, "clampedNs", clamped)
	}
	s.current = &clamped
}

// Value は現在の設定値を返す。自動露出の場合はnil
func (s *ShutterSpeed) Value() *int64 {
	return s.current
}

// Actual は直近の最終結果で観測された実際のセンサー露出時間を返す
func (s *ShutterSpeed) Actual() *int64 {
	return s.captureProps.LastSensorExposureTime()
}

// Range はサポートされる露出時間の範囲を返す。不明な場合はnil
func (s *ShutterSpeed) Range() *ExposureRange {
	return s.supportedRange
}

// Delta はこの機能が次のリクエストへ適用する差分を返す
//
// 手動露出では固定ISOと露出補正0を併せて設定し、自動露出への復帰では
// 露出時間だけでなく手動露出の3フィールドすべてを消去する。
func (s *ShutterSpeed) Delta() Delta {
	if s.current == nil {
		mode := AEModeOn
		return Delta{
			AEMode:              &mode,
			ClearManualExposure: true,
		}
	}

	mode := AEModeOff
	iso := manualSensitivityISO
	compensation := 0
	return Delta{
		AEMode:                 &mode,
		SensorExposureTime:     s.current,
		SensorSensitivity:      &iso,
		AEExposureCompensation: &compensation,
	}
}

// clamp は値をサポート範囲に収める
func (s *ShutterSpeed) clamp(value int64) int64 {
	if s.supportedRange == nil {
		return value
	}
	if value < s.supportedRange.Lower {
		return s.supportedRange.Lower
	}
	if value > s.supportedRange.Upper {
		return s.supportedRange.Upper
	}
	return value
}
