package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// NewLicenseKeyPrefix marks a line-item license key that should create a
// fresh license instead of upgrading an existing one. External contract;
// clients depend on the literal prefix.
const NewLicenseKeyPrefix = "new:"

// LineItemOptions is the jsonb options column on order line items.
type LineItemOptions struct {
	LicenseKey    string `json:"licenseKey,omitempty"`
	CmsLicenseKey string `json:"cmsLicenseKey,omitempty"`
}

// WantsNewLicense reports whether the license key carries the new-license
// prefix.
func (o LineItemOptions) WantsNewLicense() bool {
	return strings.HasPrefix(o.LicenseKey, NewLicenseKeyPrefix)
}

// BareLicenseKey returns the license key with the new-license prefix removed.
func (o LineItemOptions) BareLicenseKey() string {
	return strings.TrimPrefix(o.LicenseKey, NewLicenseKeyPrefix)
}

func (o LineItemOptions) Value() (driver.Value, error) {
	raw, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("LineItemOptions: marshal: %w", err)
	}
	return string(raw), nil
}

func (o *LineItemOptions) Scan(src any) error {
	if src == nil {
		*o = LineItemOptions{}
		return nil
	}

	switch v := src.(type) {
	case string:
		return o.parseFromString(v)
	case []byte:
		return o.parseFromString(string(v))
	default:
		return fmt.Errorf("LineItemOptions: unsupported Scan type %T", src)
	}
}

func (o *LineItemOptions) parseFromString(s string) error {
	if strings.TrimSpace(s) == "" {
		*o = LineItemOptions{}
		return nil
	}
	if err := json.Unmarshal([]byte(s), o); err != nil {
		return fmt.Errorf("LineItemOptions: unmarshal: %w", err)
	}
	return nil
}
