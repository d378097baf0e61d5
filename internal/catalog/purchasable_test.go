package catalog

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/pluginbazaar/pluginbazaar-backend/pkg/db/models"
	dbtypes "github.com/pluginbazaar/pluginbazaar-backend/pkg/db/types"
	pkgerrors "github.com/pluginbazaar/pluginbazaar-backend/pkg/errors"
)

func TestPurchasableSKU(t *testing.T) {
	purchasable := EditionPurchasable{
		Edition: models.PluginEdition{Handle: "pro"},
		Plugin:  &models.Plugin{Handle: "awesome"},
	}
	if got := purchasable.SKU(); got != "AWESOME-PRO" {
		t.Fatalf("unexpected sku %q", got)
	}
}

func TestPurchasablePriceUnmodified(t *testing.T) {
	price := decimal.RequireFromString("99.00")
	purchasable := EditionPurchasable{
		Edition: models.PluginEdition{Price: price},
	}
	if !purchasable.Price().Equal(price) {
		t.Fatalf("price changed: %s", purchasable.Price())
	}
}

func TestPurchasableDescription(t *testing.T) {
	purchasable := EditionPurchasable{
		Edition: models.PluginEdition{Name: "Pro"},
		Plugin:  &models.Plugin{DeveloperName: "Pixel & Tonic", Name: "Awesome"},
	}
	if got := purchasable.Description(); got != "Pixel & Tonic Awesome" {
		t.Fatalf("unexpected description %q", got)
	}
}

func TestPurchasableFullName(t *testing.T) {
	purchasable := EditionPurchasable{
		Edition: models.PluginEdition{Name: "Pro"},
		Plugin:  &models.Plugin{Name: "Awesome"},
	}
	if got := purchasable.FullName(); got != "Awesome (Pro)" {
		t.Fatalf("unexpected full name %q", got)
	}
}

func TestPurchasableFullNameFallsBackWithoutPlugin(t *testing.T) {
	purchasable := EditionPurchasable{
		Edition: models.PluginEdition{Name: "Pro"},
	}
	if got := purchasable.FullName(); got != "Pro" {
		t.Fatalf("expected bare edition name, got %q", got)
	}
}

func TestLineItemValidationRequiresLicenseKey(t *testing.T) {
	purchasable := EditionPurchasable{}

	err := purchasable.LineItemValidation(dbtypes.LineItemOptions{})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}

	if err := purchasable.LineItemValidation(dbtypes.LineItemOptions{LicenseKey: "  "}); err == nil {
		t.Fatalf("expected whitespace-only key to fail")
	}

	if err := purchasable.LineItemValidation(dbtypes.LineItemOptions{LicenseKey: "new:XYZ789"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
