package feature

import "log/slog"

// FlashMode は利用者が指定するフラッシュの動作モード
type FlashMode string

const (
	// FlashOff はフラッシュを使わない
	FlashOff FlashMode = "off"
	// FlashAuto は必要時のみフラッシュを発光する
	FlashAuto FlashMode = "auto"
	// FlashAlways は常にフラッシュを発光する
	FlashAlways FlashMode = "always"
	// FlashTorch はトーチ（常時点灯）モード
	FlashTorch FlashMode = "torch"
)

// ParseFlashMode は文字列をFlashModeに変換する
func ParseFlashMode(s string) (FlashMode, bool) {
	switch FlashMode(s) {
	case FlashOff, FlashAuto, FlashAlways, FlashTorch:
		return FlashMode(s), true
	default:
		return "", false
	}
}

// Flash はフラッシュモードを制御する機能
type Flash struct {
	available bool // デバイスにフラッシュユニットがあるか
	logger    *slog.Logger

	current FlashMode
}

// NewFlash は新しいFlashを作成する
func NewFlash(available bool, logger *slog.Logger) *Flash {
	return &Flash{
		available: available,
		logger:    logger,
		current:   FlashAuto,
	}
}

// Set はフラッシュモードを設定する
func (f *Flash) Set(mode FlashMode) {
	f.current = mode
}

// Value は現在のフラッシュモードを返す
func (f *Flash) Value() FlashMode {
	return f.current
}

// Delta はこの機能が次のリクエストへ適用する差分を返す
//
// マージ済みのリクエストでAEモードが既にオフ（手動露出が有効）の場合、
// フラッシュ経由でAEモードを上書きせず発光のみ止める。
func (f *Flash) Delta(current Request) Delta {
	if !f.available {
		return Delta{}
	}

	if current.AEMode != nil && *current.AEMode == AEModeOff {
		// 手動露出が有効。自動露出を再有効化してはいけない
		off := FlashControlOff
		return Delta{Flash: &off}
	}

	switch f.current {
	case FlashAlways:
		mode := AEModeOnAlwaysFlash
		off := FlashControlOff
		return Delta{AEMode: &mode, Flash: &off}

	case FlashTorch:
		mode := AEModeOn
		torch := FlashControlTorch
		return Delta{AEMode: &mode, Flash: &torch}

	case FlashOff:
		off := FlashControlOff
		return Delta{Flash: &off}

	default: // FlashAuto
		mode := AEModeOnAutoFlash
		off := FlashControlOff
		return Delta{AEMode: &mode, Flash: &off}
	}
}
