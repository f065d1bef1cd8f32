// Package feature は送信リクエストを形作るカメラ機能を提供する
//
// # 責務
// - シャッタースピード（手動露出時間）の設定とクランプ
// - フラッシュモードの決定
// - 各機能が適用する変更の不変なリクエスト差分（Delta）の生成
//
// # 仕様
// - 機能は共有ビルダーを直接変更せず、差分値を返して呼び出し側がマージする
// - 手動露出が有効な間はフラッシュ機能がAEモードを上書きしない
// - サポート範囲が不明な場合はクランプせず値をそのまま使う
//
// これらの機能は収束ステートマシンと直接やり取りしない。
// 次の送信リクエストを形作るだけで、デバイスはそのリクエストに対して
// 同じ結果ストリーム経由で非同期に応答する。
package feature
