package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// GormCompressionRunRepository implements CompressionRunRepository using GORM,
// the same dual interface-plus-struct shape as the teacher's
// GormTaskRepository, adapted from a task-analysis table to a
// compression-run history table.
type GormCompressionRunRepository struct {
	db *gorm.DB
}

// NewGormCompressionRunRepository creates a new GormCompressionRunRepository.
func NewGormCompressionRunRepository(db *gorm.DB) *GormCompressionRunRepository {
	return &GormCompressionRunRepository{db: db}
}

// Create inserts a new compression run row.
func (r *GormCompressionRunRepository) Create(ctx context.Context, run *CompressionRun) error {
	if run.Status == "" {
		run.Status = StatusPending
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create compression run: %w", err)
	}
	return nil
}

// Complete marks a run completed and records its final statistics.
func (r *GormCompressionRunRepository) Complete(ctx context.Context, runUUID string, stats CompressionStats) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&CompressionRun{}).
		Where("run_uuid = ?", runUUID).
		Updates(map[string]interface{}{
			"status":             StatusCompleted,
			"vertex_count_raw":   stats.VertexCountRaw,
			"vertex_count_mined": stats.VertexCountMined,
			"cluster_count":      stats.ClusterCount,
			"dict_count":         stats.DictCount,
			"raw_bytes":          stats.RawBytes,
			"compressed_bytes":   stats.CompressedBytes,
			"summary":            JSONField(stats.Summary),
			"end_time":           &now,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to complete compression run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("compression run not found: %s", runUUID)
	}
	return nil
}

// Fail marks a run failed with the given reason.
func (r *GormCompressionRunRepository) Fail(ctx context.Context, runUUID string, reason string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&CompressionRun{}).
		Where("run_uuid = ?", runUUID).
		Updates(map[string]interface{}{
			"status":      StatusFailed,
			"status_info": reason,
			"end_time":    &now,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark compression run failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("compression run not found: %s", runUUID)
	}
	return nil
}

// GetByUUID retrieves a single run by its UUID.
func (r *GormCompressionRunRepository) GetByUUID(ctx context.Context, runUUID string) (*CompressionRun, error) {
	var run CompressionRun
	err := r.db.WithContext(ctx).Where("run_uuid = ?", runUUID).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("compression run not found: %s", runUUID)
		}
		return nil, fmt.Errorf("failed to get compression run: %w", err)
	}
	return &run, nil
}

// ListRecent returns the most recent runs, newest first.
func (r *GormCompressionRunRepository) ListRecent(ctx context.Context, limit int) ([]*CompressionRun, error) {
	var runs []*CompressionRun
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list compression runs: %w", err)
	}
	return runs, nil
}
