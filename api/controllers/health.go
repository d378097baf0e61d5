package controllers

import (
	"net/http"

	"github.com/pluginbazaar/pluginbazaar-backend/api/responses"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/config"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/db"
	pkgerrors "github.com/pluginbazaar/pluginbazaar-backend/pkg/errors"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/logger"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PluginBazaar-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when every backing dependency answers a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PluginBazaar-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				checks["database"] = "down"
				healthy = false
				logg.Error(r.Context(), "database ping failed", err)
			} else {
				checks["database"] = "up"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				checks["redis"] = "down"
				healthy = false
				logg.Error(r.Context(), "redis ping failed", err)
			} else {
				checks["redis"] = "up"
			}
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
