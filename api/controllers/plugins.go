package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pluginbazaar/pluginbazaar-backend/api/responses"
	"github.com/pluginbazaar/pluginbazaar-backend/internal/catalog"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/db/models"
	pkgerrors "github.com/pluginbazaar/pluginbazaar-backend/pkg/errors"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/logger"
)

type pluginResponse struct {
	ID            int64     `json:"id"`
	DeveloperName string    `json:"developerName"`
	Name          string    `json:"name"`
	Handle        string    `json:"handle"`
	Keywords      []string  `json:"keywords"`
	CreatedAt     time.Time `json:"createdAt"`
}

func pluginResponseFromModel(m models.Plugin) pluginResponse {
	keywords := []string(m.Keywords)
	if keywords == nil {
		keywords = []string{}
	}
	return pluginResponse{
		ID:            m.ID,
		DeveloperName: m.DeveloperName,
		Name:          m.Name,
		Handle:        m.Handle,
		Keywords:      keywords,
		CreatedAt:     m.CreatedAt,
	}
}

// PluginList returns the catalog in handle order.
func PluginList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plugins, err := svc.ListPlugins(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]pluginResponse, len(plugins))
		for i, plugin := range plugins {
			out[i] = pluginResponseFromModel(plugin)
		}
		responses.WriteSuccess(w, map[string]any{"plugins": out})
	}
}

// PluginEditions returns every edition of one plugin with its derived
// SKU, description, and full name.
func PluginEditions(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pluginID, err := pathID(r, "pluginId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		editions, err := svc.ListEditions(r.Context(), pluginID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"editions": editions})
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a positive integer").WithDetails(map[string]any{"field": name})
	}
	return id, nil
}
