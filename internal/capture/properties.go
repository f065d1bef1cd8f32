package capture

// Properties は最終結果で観測した直近のセンサー値を保持するキャッシュ
//
// 書き込みはステートマシンが最終結果を処理したときのみ。
// 読み取りは任意のタイミングで可能（last-write-wins、鮮度の追跡はしない）。
// ロックは持たない。単一のキャプチャパイプラインでの利用を前提とする。
type Properties struct {
	lastSensorExposureTime *int64
	lastSensorSensitivity  *int
	lastLensAperture       *float64
}

// NewProperties は空のPropertiesを作成する
func NewProperties() *Properties {
	return &Properties{}
}

// LastSensorExposureTime は直近のセンサー露出時間（ナノ秒）を返す
func (p *Properties) LastSensorExposureTime() *int64 {
	return p.lastSensorExposureTime
}

// SetLastSensorExposureTime は直近のセンサー露出時間を更新する
func (p *Properties) SetLastSensorExposureTime(v *int64) {
	p.lastSensorExposureTime = v
}

// LastSensorSensitivity は直近のセンサー感度（ISO）を返す
func (p *Properties) LastSensorSensitivity() *int {
	return p.lastSensorSensitivity
}

// SetLastSensorSensitivity は直近のセンサー感度を更新する
func (p *Properties) SetLastSensorSensitivity(v *int) {
	p.lastSensorSensitivity = v
}

// LastLensAperture は直近のレンズ絞り（F値）を返す
func (p *Properties) LastLensAperture() *float64 {
	return p.lastLensAperture
}

// SetLastLensAperture は直近のレンズ絞りを更新する
func (p *Properties) SetLastLensAperture(v *float64) {
	p.lastLensAperture = v
}
