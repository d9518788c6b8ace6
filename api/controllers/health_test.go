package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dlemaitre/sales-analytics-backend/pkg/config"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error {
	return f.err
}

func healthTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	return cfg
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	Health(healthTestConfig()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["status"] != "OK" {
		t.Fatalf("unexpected status %q", payload["status"])
	}
	if payload["message"] != healthMessage {
		t.Fatalf("unexpected message %q", payload["message"])
	}
	if payload["timestamp"] == "" {
		t.Fatal("expected a timestamp")
	}
	if rec.Header().Get("X-SalesAPI-Env") != "test" {
		t.Fatal("expected env header")
	}
}

func TestHealthReady(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
		rec := httptest.NewRecorder()
		HealthReady(healthTestConfig(), testLogger(), fakePinger{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("db down", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
		rec := httptest.NewRecorder()
		HealthReady(healthTestConfig(), testLogger(), fakePinger{err: errors.New("connection refused")}).ServeHTTP(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}

		var payload struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if payload.Status != "degraded" || payload.Checks["db"] != "down" {
			t.Fatalf("unexpected payload %s", rec.Body.String())
		}
	})
}
