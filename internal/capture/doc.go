// Package capture は静止画キャプチャの収束ステートマシンを提供する
//
// # 責務
// - デバイスから届くキャプチャ結果（部分・最終）の逐次処理
// - オートフォーカス／自動露出の収束フェーズの追跡
// - タイムアウトによる強制前進（ハングの防止）
// - 収束・プリキャプチャ開始イベントのリスナー通知
// - 最終結果からのセンサー値キャッシュの更新
//
// # 仕様
// - 状態遷移は純粋関数として実装されハードウェアなしでテスト可能
// - 1回の処理につき最大1つのリスナーイベントと1つの状態遷移
// - フィールドの欠落はエラーではなく「条件充足」として扱う（楽観的既定値）
// - すべての停滞パスにタイムアウト脱出があり、シーケンスは必ず終了する
//
// # 前提要件
// - 結果はデバイスのコールバックスレッド1本から到着順に渡されること
// - 内部ロックは持たない。スレッド間の可視性は境界側の責務
package capture
