package models

// LicenseLineItem records which line item produced a plugin license.
// Append-only bookkeeping; no columns beyond the two ids.
type LicenseLineItem struct {
	LicenseID  int64 `gorm:"column:license_id;not null;index"`
	LineItemID int64 `gorm:"column:line_item_id;not null;index"`
}

// TableName overrides GORM's pluralization.
func (LicenseLineItem) TableName() string {
	return "plugin_licenses_line_items"
}
