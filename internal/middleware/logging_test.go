package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"storefront-seo-router/internal/route"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	e := echo.New()
	e.Use(RequestLogger(logger))
	e.GET("/test", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}
	if entry["path"] != "/test" {
		t.Errorf("path = %v, want /test", entry["path"])
	}
	if _, ok := entry["routed_path"]; ok {
		t.Error("routed_path should be absent when the request was not rewritten")
	}
}

func TestRequestLogger_RewrittenRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	e := echo.New()
	e.Pre(RequestLogger(logger))
	e.Pre(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(route.Header, string(route.ActionRewrite))
			c.Request().URL.Path = "/api/render"
			return next(c)
		}
	})
	e.GET("/api/render", func(c echo.Context) error {
		return c.HTML(http.StatusOK, "<html></html>")
	})

	req := httptest.NewRequest(http.MethodGet, "/products/shoe", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}
	if entry["path"] != "/products/shoe" {
		t.Errorf("path = %v, want /products/shoe", entry["path"])
	}
	if entry["routed_path"] != "/api/render" {
		t.Errorf("routed_path = %v, want /api/render", entry["routed_path"])
	}
	if entry["seo_route"] != "rewrite" {
		t.Errorf("seo_route = %v, want rewrite", entry["seo_route"])
	}
}
