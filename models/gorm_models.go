package models

import (
	"time"
)

// GORM-compatible models with proper tags

// RefreshLog is the refresh_logs audit table. Every snapshot fetch of
// the workbook (manual refresh or the nightly cron warm) records what
// the materializer saw, so drifting sheets are diagnosable after the
// fact.
type RefreshLog struct {
	ID           uint      `gorm:"primaryKey;column:id" json:"id"`
	Sheet        string    `gorm:"column:sheet;not null" json:"sheet"`
	RowCount     int       `gorm:"column:row_count;default:0" json:"row_count"`
	PendingCount int       `gorm:"column:pending_count;default:0" json:"pending_count"`
	HistoryCount int       `gorm:"column:history_count;default:0" json:"history_count"`
	ErrorCount   int       `gorm:"column:error_count;default:0" json:"error_count"`
	TriggeredBy  string    `gorm:"column:triggered_by;not null" json:"triggered_by"`
	CreatedAt    time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName overrides the GORM default table name
func (RefreshLog) TableName() string {
	return "refresh_logs"
}
