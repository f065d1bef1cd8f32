package history

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"shoten/internal/camera"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "captures.db")
	repo, err := New(context.Background(), dbPath, testLogger())
	if err != nil {
		t.Fatalf("リポジトリの作成に失敗しました: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func testRecord(id string, convergedAt time.Time) camera.CaptureRecord {
	exposure := int64(16_666_666)
	sensitivity := 200
	aperture := 1.8
	return camera.CaptureRecord{
		ID:                id,
		CameraID:          "camera-1",
		StartedAt:         convergedAt.Add(-100 * time.Millisecond),
		ConvergedAt:       convergedAt,
		ViaTimeout:        false,
		ExposureTimeNs:    &exposure,
		SensorSensitivity: &sensitivity,
		LensAperture:      &aperture,
	}
}

// TestRepository_SaveAndList は保存と取得の往復を検証する
func TestRepository_SaveAndList(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	if err := repo.Save(ctx, testRecord("rec-1", now)); err != nil {
		t.Fatalf("保存に失敗しました: %v", err)
	}

	records, err := repo.List(ctx, 10)
	if err != nil {
		t.Fatalf("取得に失敗しました: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("記録数が一致しません: %d", len(records))
	}

	record := records[0]
	if record.ID != "rec-1" || record.CameraID != "camera-1" {
		t.Errorf("識別子が一致しません: %+v", record)
	}
	if record.ExposureTimeNs == nil || *record.ExposureTimeNs != 16_666_666 {
		t.Errorf("露出時間が一致しません: %v", record.ExposureTimeNs)
	}
	if !record.ConvergedAt.Equal(now) {
		t.Errorf("収束時刻が一致しません: %v != %v", record.ConvergedAt, now)
	}
}

// TestRepository_ListOrder は新しい順に返ることを検証する
func TestRepository_ListOrder(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, id := range []string{"rec-1", "rec-2", "rec-3"} {
		if err := repo.Save(ctx, testRecord(id, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("保存に失敗しました: %v", err)
		}
	}

	records, err := repo.List(ctx, 2)
	if err != nil {
		t.Fatalf("取得に失敗しました: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("limitが効いていません: %d", len(records))
	}
	if records[0].ID != "rec-3" || records[1].ID != "rec-2" {
		t.Errorf("並び順が新しい順ではありません: %s, %s", records[0].ID, records[1].ID)
	}
}

// TestRepository_ListOrderFractionalSeconds は小数秒の桁数が異なっても時系列順を保つことを検証する
//
// テキスト表現では末尾ゼロが削られて ".1" が ".15" の後ろに並んでしまうような
// タイムスタンプの組でも、数値として正しく並ぶこと
func TestRepository_ListOrderFractionalSeconds(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 29, 12, 0, 5, 0, time.UTC)
	earlier := testRecord("rec-early", base.Add(100*time.Millisecond)) // 12:00:05.1
	later := testRecord("rec-late", base.Add(150*time.Millisecond))    // 12:00:05.15

	if err := repo.Save(ctx, earlier); err != nil {
		t.Fatalf("保存に失敗しました: %v", err)
	}
	if err := repo.Save(ctx, later); err != nil {
		t.Fatalf("保存に失敗しました: %v", err)
	}

	records, err := repo.List(ctx, 10)
	if err != nil {
		t.Fatalf("取得に失敗しました: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("記録数が一致しません: %d", len(records))
	}
	if records[0].ID != "rec-late" || records[1].ID != "rec-early" {
		t.Errorf("小数秒の並び順が時系列になっていません: %s, %s", records[0].ID, records[1].ID)
	}
	if !records[0].ConvergedAt.Equal(later.ConvergedAt) {
		t.Errorf("収束時刻が往復で変化しました: %v != %v", records[0].ConvergedAt, later.ConvergedAt)
	}
}

// TestRepository_NullableFields はセンサー値なしの記録を扱えることを検証する
func TestRepository_NullableFields(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	record := camera.CaptureRecord{
		ID:          "rec-empty",
		CameraID:    "camera-1",
		StartedAt:   time.Now().UTC(),
		ConvergedAt: time.Now().UTC(),
		ViaTimeout:  true,
	}
	if err := repo.Save(ctx, record); err != nil {
		t.Fatalf("保存に失敗しました: %v", err)
	}

	records, err := repo.List(ctx, 1)
	if err != nil {
		t.Fatalf("取得に失敗しました: %v", err)
	}

	got := records[0]
	if !got.ViaTimeout {
		t.Error("ViaTimeoutが保存されていません")
	}
	if got.ExposureTimeNs != nil || got.SensorSensitivity != nil || got.LensAperture != nil {
		t.Error("未設定のセンサー値が値を持っています")
	}
}
