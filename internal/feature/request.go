package feature

// AEMode は自動露出の制御モードを表す
type AEMode int

const (
	// AEModeOff は自動露出を無効化する（手動露出）
	AEModeOff AEMode = iota
	// AEModeOn は通常の自動露出
	AEModeOn
	// AEModeOnAutoFlash は自動露出＋必要時フラッシュ
	AEModeOnAutoFlash
	// AEModeOnAlwaysFlash は自動露出＋常時フラッシュ
	AEModeOnAlwaysFlash
)

// FlashControl はデバイスのフラッシュユニットへの直接指示を表す
type FlashControl int

const (
	// FlashControlOff はフラッシュを発光させない
	FlashControlOff FlashControl = iota
	// FlashControlTorch はトーチ（常時点灯）モード
	FlashControlTorch
)

// Request は1回のキャプチャリクエストに載せる制御値の集合
//
// nilのフィールドは「指定なし（デバイス既定）」を意味する。
type Request struct {
	AEMode                 *AEMode
	SensorExposureTime     *int64 // 手動露出時間（ナノ秒）
	SensorSensitivity      *int   // 手動感度（ISO）
	AEExposureCompensation *int   // 露出補正ステップ
	Flash                  *FlashControl
}

// Delta は1つの機能がリクエストへ適用する変更の不変値
//
// 共有ビルダーへの隠れた順序依存の変更を避けるため、機能は
// この差分を返し、呼び出し側が機能の順にマージする。
type Delta struct {
	AEMode *AEMode
	Flash  *FlashControl

	// 手動露出フィールド。ClearManualExposureがtrueの場合、
	// 個別値の設定より先に3フィールドすべてを消去する
	SensorExposureTime     *int64
	SensorSensitivity      *int
	AEExposureCompensation *int
	ClearManualExposure    bool
}

// Apply は差分をリクエストへ適用した新しいリクエストを返す
func (d Delta) Apply(req Request) Request {
	if d.ClearManualExposure {
		req.SensorExposureTime = nil
		req.SensorSensitivity = nil
		req.AEExposureCompensation = nil
	}
	if d.AEMode != nil {
		req.AEMode = d.AEMode
	}
	if d.Flash != nil {
		req.Flash = d.Flash
	}
	if d.SensorExposureTime != nil {
		req.SensorExposureTime = d.SensorExposureTime
	}
	if d.SensorSensitivity != nil {
		req.SensorSensitivity = d.SensorSensitivity
	}
	if d.AEExposureCompensation != nil {
		req.AEExposureCompensation = d.AEExposureCompensation
	}
	return req
}
