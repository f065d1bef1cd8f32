// Package server はHTTP APIを提供する
//
// # 責務
//
// - カメラ一覧とキャプチャ状態の公開
// - 静止画キャプチャの実行と履歴の保存
// - シャッタースピードとフラッシュモードの設定
// - WebSocketによる収束イベントの配信
//
// # 仕様
//
// - ginベースのルーティング
// - シグナルとコンテキストによるグレースフルシャットダウン
package server
