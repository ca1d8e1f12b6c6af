// Package repository provides database abstraction for the ppmc service.
package repository

import (
	"database/sql/driver"
	"errors"
	"time"
)

// CompressionRun represents the compression_runs table: one row per
// `ppmc compress --record` invocation, recording enough of
// the pipeline's before/after state to audit compression ratio over time.
type CompressionRun struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunUUID          string    `gorm:"column:run_uuid;type:varchar(64);uniqueIndex"`
	SourcePath       string    `gorm:"column:source_path;type:varchar(512)"`
	OutputPath       string    `gorm:"column:output_path;type:varchar(512)"`
	Status           string    `gorm:"column:status;type:varchar(32)"` // pending, running, completed, failed
	StatusInfo       string    `gorm:"column:status_info;type:text"`
	VertexCountRaw   int       `gorm:"column:vertex_count_raw"`
	VertexCountMined int       `gorm:"column:vertex_count_mined"`
	ClusterCount     int       `gorm:"column:cluster_count"`
	DictCount        int       `gorm:"column:dict_count"`
	RawBytes         int64     `gorm:"column:raw_bytes"`
	CompressedBytes  int64     `gorm:"column:compressed_bytes"`
	Summary          JSONField `gorm:"column:summary;type:json"` // marshaled ppm.ModelSummary
	CreateTime       time.Time `gorm:"column:create_time;autoCreateTime"`
	BeginTime        *time.Time `gorm:"column:begin_time"`
	EndTime          *time.Time `gorm:"column:end_time"`
}

// TableName returns the table name for CompressionRun.
func (CompressionRun) TableName() string {
	return "compression_runs"
}

// CompressionRatio returns CompressedBytes/RawBytes, or 0 if RawBytes is 0.
func (r *CompressionRun) CompressionRatio() float64 {
	if r.RawBytes == 0 {
		return 0
	}
	return float64(r.CompressedBytes) / float64(r.RawBytes)
}

// Run status values, mirroring the pipeline's lifecycle.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// JSONField is a custom type for handling JSON fields in GORM.
type JSONField []byte

// Value implements driver.Valuer interface.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = []byte(v)
		return nil
	default:
		return errors.New("unsupported type for JSONField")
	}
}

// MarshalJSON implements json.Marshaler interface.
func (j JSONField) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (j *JSONField) UnmarshalJSON(data []byte) error {
	if data == nil || string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}
