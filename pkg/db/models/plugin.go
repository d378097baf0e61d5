package models

import (
	"time"

	"github.com/lib/pq"
)

// Plugin is a marketplace product published by a developer.
type Plugin struct {
	ID            int64          `gorm:"column:id;primaryKey;autoIncrement"`
	DeveloperName string         `gorm:"column:developer_name;not null"`
	Name          string         `gorm:"column:name;not null"`
	Handle        string         `gorm:"column:handle;not null;uniqueIndex"`
	Keywords      pq.StringArray `gorm:"column:keywords;type:text[];default:ARRAY[]::text[]"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
