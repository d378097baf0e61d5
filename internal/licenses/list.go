package licenses

import (
	"time"

	"github.com/pluginbazaar/pluginbazaar-backend/pkg/db/models"
	pkgpagination "github.com/pluginbazaar/pluginbazaar-backend/pkg/pagination"
)

type ListParams struct {
	Email string
	pkgpagination.Params
}

type ListResult struct {
	Items  []ListItem `json:"items"`
	Cursor string     `json:"cursor"`
}

type ListItem struct {
	ID           int64      `json:"id"`
	PluginID     int64      `json:"pluginId"`
	EditionID    int64      `json:"editionId"`
	CmsLicenseID *int64     `json:"cmsLicenseId,omitempty"`
	Email        string     `json:"email"`
	Key          string     `json:"key"`
	Expired      bool       `json:"expired"`
	Expirable    bool       `json:"expirable"`
	ExpiresOn    *time.Time `json:"expiresOn,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type listQuery struct {
	email  string
	limit  int
	cursor *pkgpagination.Cursor
}

func toListItem(m models.PluginLicense) ListItem {
	return ListItem{
		ID:           m.ID,
		PluginID:     m.PluginID,
		EditionID:    m.EditionID,
		CmsLicenseID: m.CmsLicenseID,
		Email:        m.Email,
		Key:          m.Key,
		Expired:      m.Expired,
		Expirable:    m.Expirable,
		ExpiresOn:    m.ExpiresOn,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
