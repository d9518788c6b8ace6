package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/dlemaitre/sales-analytics-backend/pkg/config"
	"github.com/dlemaitre/sales-analytics-backend/pkg/db"
	"github.com/dlemaitre/sales-analytics-backend/pkg/logger"
)

const healthMessage = "Sales API is running"

// Health reports liveness in the shape API consumers expect.
func Health(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-SalesAPI-Env", cfg.App.Env)
		writeHealthJSON(w, http.StatusOK, map[string]string{
			"status":    "OK",
			"message":   healthMessage,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// HealthReady verifies the store dependency before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SalesAPI-Env", cfg.App.Env)
		checks := map[string]string{"db": "ok"}
		status := http.StatusOK

		if dbP == nil {
			checks["db"] = "not configured"
			status = http.StatusServiceUnavailable
		} else if err := dbP.Ping(r.Context()); err != nil {
			checks["db"] = "down"
			status = http.StatusServiceUnavailable
			if logg != nil {
				logg.Error(r.Context(), "readiness db ping failed", err)
			}
		}

		payload := map[string]any{
			"status": "ready",
			"checks": checks,
		}
		if status != http.StatusOK {
			payload["status"] = "degraded"
		}
		writeHealthJSON(w, status, payload)
	}
}

func writeHealthJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to write health response","err":"%v"}`, err)
	}
}
