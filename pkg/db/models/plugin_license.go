package models

import "time"

// PluginLicense entitles an owner to one edition of a plugin.
type PluginLicense struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement"`
	PluginID     int64      `gorm:"column:plugin_id;not null"`
	EditionID    int64      `gorm:"column:edition_id;not null"`
	CmsLicenseID *int64     `gorm:"column:cms_license_id"`
	Email        string     `gorm:"column:email;not null"`
	Key          string     `gorm:"column:key;not null;uniqueIndex"`
	Expired      bool       `gorm:"column:expired;not null"`
	Expirable    bool       `gorm:"column:expirable;not null"`
	ExpiresOn    *time.Time `gorm:"column:expires_on"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
