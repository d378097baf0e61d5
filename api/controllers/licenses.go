package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pluginbazaar/pluginbazaar-backend/api/responses"
	"github.com/pluginbazaar/pluginbazaar-backend/api/validators"
	"github.com/pluginbazaar/pluginbazaar-backend/internal/licenses"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/logger"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/pagination"
)

// LicenseList returns the licenses owned by an email, newest first, with a
// cursor for the next page.
func LicenseList(svc licenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := licenses.ListParams{
			Email: strings.TrimSpace(r.URL.Query().Get("email")),
		}
		params.Limit = limit
		params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

		result, err := svc.ListLicenses(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// LicenseDetail looks a license up by its key.
func LicenseDetail(svc licenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "licenseKey")
		item, err := svc.GetByKey(r.Context(), key)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}
