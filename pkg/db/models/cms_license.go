package models

import "time"

// CmsLicense is the platform license a plugin license may be tied to. The
// linkage is best-effort metadata, never required for provisioning.
type CmsLicense struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Key       string    `gorm:"column:key;not null;uniqueIndex"`
	Email     string    `gorm:"column:email;not null"`
	Expired   bool      `gorm:"column:expired;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
