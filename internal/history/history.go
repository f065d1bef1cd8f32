// Package history は完了したキャプチャの記録をSQLiteに永続化する
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"shoten/internal/camera"
)

// Repository はキャプチャ履歴のSQLiteリポジトリ
type Repository struct {
	db     *sql.DB
	logger *slog.Logger
}

// New はデータベースを開いてマイグレーションを実行する
func New(ctx context.Context, dbPath string, logger *slog.Logger) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("データベースを開けません: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	repo := &Repository{db: db, logger: logger}
	if err := repo.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close はデータベースを閉じる
func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// migrate はスキーマを作成する
func (r *Repository) migrate(ctx context.Context) error {
	statements := []string{
		`PRAGMA journal_mode = WAL;`,
		`CREATE TABLE IF NOT EXISTS captures (
			id TEXT PRIMARY KEY,
			camera_id TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			converged_at INTEGER NOT NULL,
			via_timeout INTEGER NOT NULL,
			exposure_time_ns INTEGER,
			sensor_sensitivity INTEGER,
			lens_aperture REAL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_captures_camera ON captures(camera_id, converged_at);`,
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("マイグレーションに失敗: %w", err)
		}
	}
	return nil
}

// Save はキャプチャ記録を保存する
func (r *Repository) Save(ctx context.Context, record camera.CaptureRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO captures
			(id, camera_id, started_at, converged_at, via_timeout,
			 exposure_time_ns, sensor_sensitivity, lens_aperture)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.CameraID,
		record.StartedAt.UnixNano(),
		record.ConvergedAt.UnixNano(),
		boolToInt(record.ViaTimeout),
		nullableInt64(record.ExposureTimeNs),
		nullableInt(record.SensorSensitivity),
		nullableFloat(record.LensAperture),
	)
	if err != nil {
		return fmt.Errorf("キャプチャ記録の保存に失敗: %w", err)
	}
	return nil
}

// List は新しい順にキャプチャ記録を取得する
func (r *Repository) List(ctx context.Context, limit int) ([]camera.CaptureRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, camera_id, started_at, converged_at, via_timeout,
		        exposure_time_ns, sensor_sensitivity, lens_aperture
		 FROM captures
		 ORDER BY converged_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("キャプチャ記録の取得に失敗: %w", err)
	}
	defer rows.Close()

	var records []camera.CaptureRecord
	for rows.Next() {
		var (
			record      camera.CaptureRecord
			startedAt   int64
			convergedAt int64
			viaTimeout  int
			exposure    sql.NullInt64
			sensitivity sql.NullInt64
			aperture    sql.NullFloat64
		)
		if err := rows.Scan(&record.ID, &record.CameraID, &startedAt, &convergedAt,
			&viaTimeout, &exposure, &sensitivity, &aperture); err != nil {
			return nil, fmt.Errorf("キャプチャ記録の読み取りに失敗: %w", err)
		}

		record.StartedAt = time.Unix(0, startedAt).UTC()
		record.ConvergedAt = time.Unix(0, convergedAt).UTC()
		record.ViaTimeout = viaTimeout != 0
		if exposure.Valid {
			v := exposure.Int64
			record.ExposureTimeNs = &v
		}
		if sensitivity.Valid {
			v := int(sensitivity.Int64)
			record.SensorSensitivity = &v
		}
		if aperture.Valid {
			v := aperture.Float64
			record.LensAperture = &v
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

