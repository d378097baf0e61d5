package controllers

import (
	"net/http"

	"github.com/pluginbazaar/pluginbazaar-backend/api/responses"
	"github.com/pluginbazaar/pluginbazaar-backend/internal/catalog"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/logger"
)

// EditionDetail returns one edition with its derived purchasable fields.
// When the plugin row cannot be loaded the view degrades to bare edition
// fields instead of failing the request.
func EditionDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editionID, err := pathID(r, "editionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		edition, err := svc.GetEdition(r.Context(), editionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, edition)
	}
}
