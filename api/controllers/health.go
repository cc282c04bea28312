package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/verdecoop/verdecoop-backend/api/responses"
	"github.com/verdecoop/verdecoop-backend/pkg/config"
	"github.com/verdecoop/verdecoop-backend/pkg/db"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
	"github.com/verdecoop/verdecoop-backend/pkg/logger"
	"github.com/verdecoop/verdecoop-backend/pkg/redis"
)

const readyPingTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-VerdeCoop-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the ledger store and the cache answer.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-VerdeCoop-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyPingTimeout)
		defer cancel()

		checks := map[string]string{"database": "ok", "cache": "ok"}
		failed := false

		if dbP == nil {
			checks["database"] = "not configured"
			failed = true
		} else if err := dbP.Ping(ctx); err != nil {
			checks["database"] = "unreachable"
			failed = true
			if logg != nil {
				logg.Error(ctx, "readiness database ping failed", err)
			}
		}

		if redisP == nil {
			checks["cache"] = "not configured"
			failed = true
		} else if err := redisP.Ping(ctx); err != nil {
			checks["cache"] = "unreachable"
			failed = true
			if logg != nil {
				logg.Error(ctx, "readiness cache ping failed", err)
			}
		}

		if failed {
			err := pkgerrors.New(pkgerrors.CodeStorageUnavailable, "dependencies not ready").
				WithDetails(checks)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
