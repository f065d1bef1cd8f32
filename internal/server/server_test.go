package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"shoten/internal/camera"
	"shoten/internal/config"
	"shoten/internal/feature"
)

// memoryStore はテスト用のインメモリ履歴ストア
type memoryStore struct {
	mu      sync.Mutex
	records []camera.CaptureRecord
}

func (m *memoryStore) Save(_ context.Context, record camera.CaptureRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *memoryStore) List(_ context.Context, limit int) ([]camera.CaptureRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.records) {
		limit = len(m.records)
	}
	return m.records[:limit], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         8081,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		Capture: config.CaptureConfig{
			FocusTimeout:    time.Second,
			MeteringTimeout: time.Second,
		},
	}
}

// newTestServer はシミュレートカメラ1台を登録したサーバーを作成する
func newTestServer(t *testing.T) (*Server, *camera.Camera, *memoryStore) {
	t.Helper()

	manager := camera.NewManager(time.Second, time.Second, testLogger())
	device := camera.NewSimulatedDevice("テストカメラ",
		&feature.ExposureRange{Lower: 250_000, Upper: 250_000_000},
		camera.SimulatedBehavior{}, time.Millisecond, testLogger())

	cam, err := manager.AddDevice(context.Background(), device)
	if err != nil {
		t.Fatalf("デバイスの追加に失敗しました: %v", err)
	}
	t.Cleanup(func() { _ = manager.Stop(context.Background()) })

	store := &memoryStore{}
	srv := New(testConfig(), manager, store, testLogger())
	srv.setupRoutes()
	return srv, cam, store
}

// doRequest はテスト用のHTTPリクエストを実行する
func doRequest(srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	srv.engine.ServeHTTP(recorder, req)
	return recorder
}

// TestHealthEndpoint はヘルスチェックをテストする
func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := doRequest(srv, http.MethodGet, "/health", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("ステータスコードが一致しません: %d", resp.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("応答の解析に失敗しました: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("ステータスが一致しません: %v", body["status"])
	}
}

// TestGetCameras はカメラ一覧の取得をテストする
func TestGetCameras(t *testing.T) {
	srv, cam, _ := newTestServer(t)

	resp := doRequest(srv, http.MethodGet, "/api/cameras", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("ステータスコードが一致しません: %d", resp.Code)
	}

	var body struct {
		Cameras []cameraResponse `json:"cameras"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("応答の解析に失敗しました: %v", err)
	}
	if len(body.Cameras) != 1 {
		t.Fatalf("カメラ数が一致しません: %d", len(body.Cameras))
	}
	if body.Cameras[0].ID != cam.ID {
		t.Errorf("カメラIDが一致しません: %s", body.Cameras[0].ID)
	}
	if body.Cameras[0].Driver != "simulated" {
		t.Errorf("ドライバー名が一致しません: %s", body.Cameras[0].Driver)
	}
}

// TestGetCameraState は初期状態の取得をテストする
func TestGetCameraState(t *testing.T) {
	srv, cam, _ := newTestServer(t)

	resp := doRequest(srv, http.MethodGet, "/api/cameras/"+cam.ID+"/state", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("ステータスコードが一致しません: %d", resp.Code)
	}

	var state stateResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &state); err != nil {
		t.Fatalf("応答の解析に失敗しました: %v", err)
	}
	if state.State != "preview" {
		t.Errorf("初期状態がプレビューではありません: %s", state.State)
	}
	if state.FlashMode != "auto" {
		t.Errorf("初期フラッシュモードが一致しません: %s", state.FlashMode)
	}
	if state.ShutterSpeedNs != nil {
		t.Errorf("初期状態で手動露出が設定されています: %v", state.ShutterSpeedNs)
	}
}

// TestCameraNotFound は未知のカメラIDへのアクセスをテストする
func TestCameraNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := doRequest(srv, http.MethodGet, "/api/cameras/unknown/state", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("404が返りませんでした: %d", resp.Code)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("応答の解析に失敗しました: %v", err)
	}
	if errResp.Error != "camera_not_found" {
		t.Errorf("エラーコードが一致しません: %s", errResp.Error)
	}
}

// TestCaptureEndpoint はキャプチャの実行と履歴の保存をテストする
func TestCaptureEndpoint(t *testing.T) {
	srv, cam, store := newTestServer(t)

	resp := doRequest(srv, http.MethodPost, "/api/cameras/"+cam.ID+"/capture", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("キャプチャに失敗しました: %d %s", resp.Code, resp.Body.String())
	}

	var record captureResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &record); err != nil {
		t.Fatalf("応答の解析に失敗しました: %v", err)
	}
	if record.CameraID != cam.ID {
		t.Errorf("カメラIDが一致しません: %s", record.CameraID)
	}
	if record.ID == "" {
		t.Error("キャプチャIDが割り当てられていません")
	}
	if record.ExposureTimeNs == nil {
		t.Error("露出時間が記録されていません")
	}

	store.mu.Lock()
	saved := len(store.records)
	store.mu.Unlock()
	if saved != 1 {
		t.Errorf("履歴が保存されていません: %d", saved)
	}
}

// TestShutterSpeedEndpoints はシャッタースピードの設定と取得をテストする
func TestShutterSpeedEndpoints(t *testing.T) {
	srv, cam, _ := newTestServer(t)
	path := "/api/cameras/" + cam.ID + "/shutter-speed"

	// 範囲外の値はクランプされる
	resp := doRequest(srv, http.MethodPut, path, []byte(`{"nanoseconds":10}`))
	if resp.Code != http.StatusOK {
		t.Fatalf("設定に失敗しました: %d %s", resp.Code, resp.Body.String())
	}

	var body shutterSpeedResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("応答の解析に失敗しました: %v", err)
	}
	if body.Nanoseconds == nil || *body.Nanoseconds != 250_000 {
		t.Errorf("下限へのクランプが行われていません: %v", body.Nanoseconds)
	}

	// 取得には範囲も含まれる
	resp = doRequest(srv, http.MethodGet, path, nil)
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("応答の解析に失敗しました: %v", err)
	}
	if body.MinNs == nil || *body.MinNs != 250_000 {
		t.Errorf("露出時間の下限が返っていません: %v", body.MinNs)
	}

	// 0で自動露出へ戻す
	resp = doRequest(srv, http.MethodPut, path, []byte(`{"nanoseconds":0}`))
	if resp.Code != http.StatusOK {
		t.Fatalf("自動露出への復帰に失敗しました: %d", resp.Code)
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("応答の解析に失敗しました: %v", err)
	}
	if body.Nanoseconds != nil {
		t.Errorf("自動露出に戻っていません: %v", body.Nanoseconds)
	}
}

// TestFlashEndpoint はフラッシュモードの設定をテストする
func TestFlashEndpoint(t *testing.T) {
	srv, cam, _ := newTestServer(t)
	path := "/api/cameras/" + cam.ID + "/flash"

	resp := doRequest(srv, http.MethodPut, path, []byte(`{"mode":"torch"}`))
	if resp.Code != http.StatusOK {
		t.Fatalf("設定に失敗しました: %d %s", resp.Code, resp.Body.String())
	}

	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("応答の解析に失敗しました: %v", err)
	}
	if body["mode"] != "torch" {
		t.Errorf("フラッシュモードが一致しません: %s", body["mode"])
	}

	// 未知のモードは400
	resp = doRequest(srv, http.MethodPut, path, []byte(`{"mode":"strobe"}`))
	if resp.Code != http.StatusBadRequest {
		t.Errorf("未知のモードが拒否されませんでした: %d", resp.Code)
	}
}

// TestGetCaptures はキャプチャ履歴の取得をテストする
func TestGetCaptures(t *testing.T) {
	srv, cam, _ := newTestServer(t)

	// 2回キャプチャして履歴を作る
	for range 2 {
		resp := doRequest(srv, http.MethodPost, "/api/cameras/"+cam.ID+"/capture", nil)
		if resp.Code != http.StatusOK {
			t.Fatalf("キャプチャに失敗しました: %d", resp.Code)
		}
	}

	resp := doRequest(srv, http.MethodGet, "/api/captures?limit=1", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("取得に失敗しました: %d", resp.Code)
	}

	var body struct {
		Captures []captureResponse `json:"captures"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("応答の解析に失敗しました: %v", err)
	}
	if len(body.Captures) != 1 {
		t.Errorf("limitが効いていません: %d", len(body.Captures))
	}

	// 不正なlimitは400
	resp = doRequest(srv, http.MethodGet, "/api/captures?limit=abc", nil)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("不正なlimitが拒否されませんでした: %d", resp.Code)
	}
}

// TestServerStartAndShutdown はサーバーの起動とシャットダウンをテストする
func TestServerStartAndShutdown(t *testing.T) {
	manager := camera.NewManager(time.Second, time.Second, testLogger())
	store := &memoryStore{}

	cfg := testConfig()
	cfg.Server.Port = 0 // ランダムポートを使用
	srv := New(cfg, manager, store, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// サーバーを別ゴルーチンで起動
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	// サーバーが起動するまで少し待つ
	time.Sleep(100 * time.Millisecond)

	// コンテキストをキャンセルしてサーバーを停止
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("サーバーの起動/停止でエラーが発生しました: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("サーバーの停止がタイムアウトしました")
	}
}
