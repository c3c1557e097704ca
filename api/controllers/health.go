package controllers

import (
	"net/http"

	"go.uber.org/multierr"

	"github.com/streamtips/streamtips-backend/api/responses"
	"github.com/streamtips/streamtips-backend/pkg/config"
	"github.com/streamtips/streamtips-backend/pkg/db"
	pkgerrors "github.com/streamtips/streamtips-backend/pkg/errors"
	"github.com/streamtips/streamtips-backend/pkg/logger"
	"github.com/streamtips/streamtips-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-StreamTips-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-StreamTips-Env", cfg.App.Env)

		ctx := r.Context()
		var err error
		if dbP != nil {
			err = multierr.Append(err, dbP.Ping(ctx))
		}
		if redisP != nil {
			err = multierr.Append(err, redisP.Ping(ctx))
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "readiness check failed"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
