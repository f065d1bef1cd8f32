package capture

// CameraState はキャプチャシーケンスの進行状態を表す
type CameraState int

const (
	// StatePreview はプレビュー中（収束処理なし）の定常状態
	StatePreview CameraState = iota
	// StateWaitingFocus はオートフォーカスのロック待ち
	StateWaitingFocus
	// StateWaitingPrecaptureStart はプリキャプチャ測光の開始待ち
	StateWaitingPrecaptureStart
	// StateWaitingPrecaptureDone はプリキャプチャ測光の完了待ち
	StateWaitingPrecaptureDone
)

// String は状態名を返す
func (s CameraState) String() string {
	switch s {
	case StatePreview:
		return "preview"
	case StateWaitingFocus:
		return "waiting_focus"
	case StateWaitingPrecaptureStart:
		return "waiting_precapture_start"
	case StateWaitingPrecaptureDone:
		return "waiting_precapture_done"
	default:
		return "unknown"
	}
}

// AFState はハードウェアが報告するオートフォーカスの状態コード
type AFState int

const (
	// AFStateInactive はフォーカス処理が行われていない状態
	AFStateInactive AFState = iota
	// AFStatePassiveScan は連続フォーカスのスキャン中
	AFStatePassiveScan
	// AFStateActiveScan はトリガーによるスキャン中
	AFStateActiveScan
	// AFStateFocusedLocked はフォーカスが合ってロックされた状態
	AFStateFocusedLocked
	// AFStateNotFocusedLocked はフォーカスが合わないままロックされた状態
	AFStateNotFocusedLocked
)

// String はAF状態名を返す
func (s AFState) String() string {
	switch s {
	case AFStateInactive:
		return "inactive"
	case AFStatePassiveScan:
		return "passive_scan"
	case AFStateActiveScan:
		return "active_scan"
	case AFStateFocusedLocked:
		return "focused_locked"
	case AFStateNotFocusedLocked:
		return "not_focused_locked"
	default:
		return "unknown"
	}
}

// AEState はハードウェアが報告する自動露出の状態コード
type AEState int

const (
	// AEStateInactive は露出制御が行われていない状態
	AEStateInactive AEState = iota
	// AEStateSearching は適正露出を探索中
	AEStateSearching
	// AEStateConverged は露出が収束した状態
	AEStateConverged
	// AEStateLocked は露出がロックされた状態
	AEStateLocked
	// AEStateFlashRequired はフラッシュが必要と判断された状態
	AEStateFlashRequired
	// AEStatePrecapture はプリキャプチャ測光の実行中
	AEStatePrecapture
)

// String はAE状態名を返す
func (s AEState) String() string {
	switch s {
	case AEStateInactive:
		return "inactive"
	case AEStateSearching:
		return "searching"
	case AEStateConverged:
		return "converged"
	case AEStateLocked:
		return "locked"
	case AEStateFlashRequired:
		return "flash_required"
	case AEStatePrecapture:
		return "precapture"
	default:
		return "unknown"
	}
}
