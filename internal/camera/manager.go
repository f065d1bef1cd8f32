package camera

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager は複数カメラのデバイスとセッションを統合管理する
type Manager struct {
	mu       sync.RWMutex
	cameras  map[string]*Camera
	devices  map[string]Device
	sessions map[string]*Session

	focusTimeout    time.Duration
	meteringTimeout time.Duration
	logger          *slog.Logger
}

// NewManager は新しいManagerを作成する
func NewManager(focusTimeout, meteringTimeout time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		cameras:         make(map[string]*Camera),
		devices:         make(map[string]Device),
		sessions:        make(map[string]*Session),
		focusTimeout:    focusTimeout,
		meteringTimeout: meteringTimeout,
		logger:          logger,
	}
}

// AddDevice はデバイスを管理対象に追加し、セッションを作成して開始する
func (m *Manager) AddDevice(ctx context.Context, device Device) (*Camera, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info := device.Info()
	cam := &Camera{
		ID:      uuid.New().String(),
		Name:    info.Name,
		Driver:  info.Driver,
		AddedAt: time.Now(),
	}

	session := NewSession(cam.ID, device, m.focusTimeout, m.meteringTimeout, m.logger)

	if err := device.Start(ctx); err != nil {
		return nil, fmt.Errorf("デバイス %s の開始に失敗: %w", info.Name, err)
	}

	m.cameras[cam.ID] = cam
	m.devices[cam.ID] = device
	m.sessions[cam.ID] = session

	m.logger.Info("カメラを追加しました", "id", cam.ID, "name", cam.Name)
	return cam, nil
}

// RemoveDevice はデバイスを停止して管理対象から削除する
func (m *Manager) RemoveDevice(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	device, exists := m.devices[id]
	if !exists {
		return fmt.Errorf("カメラが見つかりません: %s", id)
	}

	if err := device.Stop(ctx); err != nil {
		return fmt.Errorf("デバイスの停止に失敗: %w", err)
	}

	delete(m.cameras, id)
	delete(m.devices, id)
	delete(m.sessions, id)

	m.logger.Info("カメラを削除しました", "id", id)
	return nil
}

// GetCameras は現在管理されているカメラ一覧を取得する
func (m *Manager) GetCameras() []Camera {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cameras := make([]Camera, 0, len(m.cameras))
	for _, cam := range m.cameras {
		cameras = append(cameras, *cam)
	}
	return cameras
}

// GetCamera は指定されたIDのカメラを取得する
func (m *Manager) GetCamera(id string) (*Camera, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cam, exists := m.cameras[id]
	if !exists {
		return nil, false
	}

	// コピーを返す
	result := *cam
	return &result, true
}

// GetSession は指定されたIDのセッションを取得する
func (m *Manager) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[id]
	return session, exists
}

// Stop は全デバイスを停止して管理対象をクリアする
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stopErrors []error
	for id, device := range m.devices {
		if err := device.Stop(ctx); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("カメラ %s の停止に失敗: %w", id, err))
		}
	}

	m.cameras = make(map[string]*Camera)
	m.devices = make(map[string]Device)
	m.sessions = make(map[string]*Session)

	if len(stopErrors) > 0 {
		return fmt.Errorf("一部のカメラ停止に失敗: %v", stopErrors)
	}
	return nil
}
