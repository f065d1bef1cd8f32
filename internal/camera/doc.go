// Package camera はカメラデバイスと静止画キャプチャシーケンスを管理する
//
// # 責務
// - カメラデバイスの抽象化と動的管理
// - 静止画キャプチャシーケンス（フォーカス→測光→撮影）の実行
// - 収束ステートマシンとデバイスの結線
// - シャッタースピード・フラッシュ機能によるリクエスト構築
// - 状態遷移イベントの購読者への配信
//
// # 仕様
// - Manager: 複数カメラの統合管理（追加・削除・一覧）
// - Session: 個別カメラのキャプチャシーケンス制御
// - Device: デバイスドライバ層との境界インターフェース
// - SimulatedDevice: ハードウェアなしで動作する結果ストリーム生成器
// - 結果はデバイスごとに1本のコールバックスレッドから到着順に処理される
//
// # 前提要件
// - 実デバイスへの接続はDeviceインターフェースの実装として外部から供給する
// - トランスポート層（ホストプロセスとドライバ間）はこのパッケージの範囲外
package camera
