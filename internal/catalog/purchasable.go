package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pluginbazaar/pluginbazaar-backend/pkg/db/models"
	dbtypes "github.com/pluginbazaar/pluginbazaar-backend/pkg/db/types"
	pkgerrors "github.com/pluginbazaar/pluginbazaar-backend/pkg/errors"
)

// Purchasable answers the purchasing-related queries for a sellable unit.
type Purchasable interface {
	Price() decimal.Decimal
	SKU() string
	Description() string
	FullName() string
	LineItemValidation(options dbtypes.LineItemOptions) error
}

// EditionPurchasable is the purchasable view over an edition and its plugin.
// The plugin may be nil; accessors that need it degrade to the bare edition
// fields rather than failing.
type EditionPurchasable struct {
	Edition models.PluginEdition
	Plugin  *models.Plugin
}

// Price returns the edition price unmodified.
func (p EditionPurchasable) Price() decimal.Decimal {
	return p.Edition.Price
}

// SKU is UPPER(pluginHandle-editionHandle), e.g. awesome/pro -> AWESOME-PRO.
// Handles are chosen so the result is unique across all editions.
func (p EditionPurchasable) SKU() string {
	pluginHandle := ""
	if p.Plugin != nil {
		pluginHandle = p.Plugin.Handle
	}
	return strings.ToUpper(pluginHandle + "-" + p.Edition.Handle)
}

// Description renders "<developerName> <pluginName>".
func (p EditionPurchasable) Description() string {
	if p.Plugin == nil {
		return ""
	}
	return fmt.Sprintf("%s %s", p.Plugin.DeveloperName, p.Plugin.Name)
}

// FullName renders "<pluginName> (<editionName>)", falling back to the bare
// edition name when the plugin could not be resolved.
func (p EditionPurchasable) FullName() string {
	if p.Plugin == nil {
		return p.Edition.Name
	}
	return fmt.Sprintf("%s (%s)", p.Plugin.Name, p.Edition.Name)
}

// LineItemValidation rejects line items without a license key. It runs even
// when every other option field is empty.
func (p EditionPurchasable) LineItemValidation(options dbtypes.LineItemOptions) error {
	if strings.TrimSpace(options.LicenseKey) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "licenseKey is required")
	}
	return nil
}
