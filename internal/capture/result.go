package capture

// Result は1回のデバイスコールバックで届くキャプチャ結果のスナップショット
//
// AFState・AEStateはハードウェアが報告しない場合nilになる。
// nilはエラーではなく「報告なし」を表す正常な値として扱う。
// センサー値（露出時間・感度・絞り）は最終結果のみが持つ。
type Result struct {
	AFState *AFState // オートフォーカスの状態コード
	AEState *AEState // 自動露出の状態コード

	// 以下は最終結果のみ。部分結果では常にnil
	SensorExposureTime *int64   // センサー露出時間（ナノ秒）
	SensorSensitivity  *int     // センサー感度（ISO）
	LensAperture       *float64 // レンズ絞り（F値）
}
