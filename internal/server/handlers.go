package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"shoten/internal/camera"
	"shoten/internal/feature"
)

// ErrorResponse はエラー応答の共通形式
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// cameraResponse はカメラ一覧のエントリ
type cameraResponse struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Driver  string    `json:"driver"`
	AddedAt time.Time `json:"added_at"`
}

// stateResponse はカメラのキャプチャ状態
type stateResponse struct {
	CameraID         string   `json:"camera_id"`
	State            string   `json:"state"`
	TimeoutEscapes   int      `json:"timeout_escapes"`
	FlashMode        string   `json:"flash_mode"`
	ShutterSpeedNs   *int64   `json:"shutter_speed_ns"`
	LastExposureNs   *int64   `json:"last_exposure_ns"`
	LastSensitivity  *int     `json:"last_sensitivity"`
	LastLensAperture *float64 `json:"last_lens_aperture"`
}

// captureResponse は完了したキャプチャの応答形式
type captureResponse struct {
	ID                string    `json:"id"`
	CameraID          string    `json:"camera_id"`
	StartedAt         time.Time `json:"started_at"`
	ConvergedAt       time.Time `json:"converged_at"`
	ViaTimeout        bool      `json:"via_timeout"`
	ExposureTimeNs    *int64    `json:"exposure_time_ns"`
	SensorSensitivity *int      `json:"sensor_sensitivity"`
	LensAperture      *float64  `json:"lens_aperture"`
}

// shutterSpeedRequest はシャッタースピード設定の要求形式
// Nanosecondsが0のときは自動露出へ戻す
type shutterSpeedRequest struct {
	Nanoseconds int64 `json:"nanoseconds"`
}

// shutterSpeedResponse はシャッタースピードの応答形式
type shutterSpeedResponse struct {
	Nanoseconds *int64 `json:"nanoseconds"`
	MinNs       *int64 `json:"min_ns"`
	MaxNs       *int64 `json:"max_ns"`
}

// flashRequest はフラッシュモード設定の要求形式
type flashRequest struct {
	Mode string `json:"mode"`
}

// handleHealth はヘルスチェックエンドポイント
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}

// handleStatus はシステム状態取得エンドポイント
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "running",
		"server": gin.H{
			"host": s.config.Server.Host,
			"port": s.config.Server.Port,
		},
		"cameras":   len(s.manager.GetCameras()),
		"timestamp": time.Now(),
	})
}

// handleGetCameras はカメラ一覧取得エンドポイント
func (s *Server) handleGetCameras(c *gin.Context) {
	managed := s.manager.GetCameras()
	cameras := make([]cameraResponse, 0, len(managed))
	for _, cam := range managed {
		cameras = append(cameras, cameraResponse{
			ID:      cam.ID,
			Name:    cam.Name,
			Driver:  cam.Driver,
			AddedAt: cam.AddedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"cameras": cameras})
}

// handleGetCameraState はキャプチャ状態取得エンドポイント
func (s *Server) handleGetCameraState(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	props := session.Properties()
	c.JSON(http.StatusOK, stateResponse{
		CameraID:         session.ID(),
		State:            session.State().String(),
		TimeoutEscapes:   session.TimeoutEscapes(),
		FlashMode:        string(session.FlashMode()),
		ShutterSpeedNs:   session.ShutterSpeed().Value(),
		LastExposureNs:   props.LastSensorExposureTime(),
		LastSensitivity:  props.LastSensorSensitivity(),
		LastLensAperture: props.LastLensAperture(),
	})
}

// handleCapture は静止画キャプチャ実行エンドポイント
func (s *Server) handleCapture(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	record, err := session.TakePicture(c.Request.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusRequestTimeout
		}
		c.JSON(status, ErrorResponse{
			Error:     "capture_failed",
			Message:   err.Error(),
			Timestamp: time.Now(),
		})
		return
	}

	// 履歴の保存に失敗してもキャプチャ自体は成功として返す
	if err := s.store.Save(c.Request.Context(), *record); err != nil {
		s.logger.Error("キャプチャ履歴の保存に失敗しました", "camera", record.CameraID, "error", err)
	}

	c.JSON(http.StatusOK, toCaptureResponse(*record))
}

// handleGetShutterSpeed はシャッタースピード取得エンドポイント
func (s *Server) handleGetShutterSpeed(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	response := shutterSpeedResponse{
		Nanoseconds: session.ShutterSpeed().Value(),
	}
	if r := session.ShutterSpeed().Range(); r != nil {
		response.MinNs = &r.Lower
		response.MaxNs = &r.Upper
	}
	c.JSON(http.StatusOK, response)
}

// handleSetShutterSpeed はシャッタースピード設定エンドポイント
func (s *Server) handleSetShutterSpeed(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	var request shutterSpeedRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "invalid_request",
			Message:   "リクエストの形式が不正です",
			Timestamp: time.Now(),
		})
		return
	}

	var value *int64
	if request.Nanoseconds != 0 {
		value = &request.Nanoseconds
	}
	if err := session.SetShutterSpeed(value); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:     "shutter_speed_failed",
			Message:   err.Error(),
			Timestamp: time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, shutterSpeedResponse{
		Nanoseconds: session.ShutterSpeed().Value(),
	})
}

// handleSetFlash はフラッシュモード設定エンドポイント
func (s *Server) handleSetFlash(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	var request flashRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "invalid_request",
			Message:   "リクエストの形式が不正です",
			Timestamp: time.Now(),
		})
		return
	}

	mode, valid := feature.ParseFlashMode(request.Mode)
	if !valid {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "invalid_flash_mode",
			Message:   "未知のフラッシュモードです: " + request.Mode,
			Timestamp: time.Now(),
		})
		return
	}

	if err := session.SetFlashMode(mode); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:     "flash_mode_failed",
			Message:   err.Error(),
			Timestamp: time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"mode": string(session.FlashMode())})
}

// handleGetCaptures はキャプチャ履歴取得エンドポイント
func (s *Server) handleGetCaptures(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:     "invalid_limit",
				Message:   "limitは正の整数で指定してください",
				Timestamp: time.Now(),
			})
			return
		}
		limit = parsed
	}

	records, err := s.store.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:     "history_failed",
			Message:   err.Error(),
			Timestamp: time.Now(),
		})
		return
	}

	captures := make([]captureResponse, 0, len(records))
	for _, record := range records {
		captures = append(captures, toCaptureResponse(record))
	}
	c.JSON(http.StatusOK, gin.H{"captures": captures})
}

// session はパスパラメータのIDからセッションを引く。見つからなければ404を返す
func (s *Server) session(c *gin.Context) (*camera.Session, bool) {
	id := c.Param("id")
	session, exists := s.manager.GetSession(id)
	if !exists {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:     "camera_not_found",
			Message:   "指定されたカメラが見つかりません",
			Timestamp: time.Now(),
		})
		return nil, false
	}
	return session, true
}

func toCaptureResponse(record camera.CaptureRecord) captureResponse {
	return captureResponse{
		ID:                record.ID,
		CameraID:          record.CameraID,
		StartedAt:         record.StartedAt,
		ConvergedAt:       record.ConvergedAt,
		ViaTimeout:        record.ViaTimeout,
		ExposureTimeNs:    record.ExposureTimeNs,
		SensorSensitivity: record.SensorSensitivity,
		LensAperture:      record.LensAperture,
	}
}
