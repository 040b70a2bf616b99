package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"storefront-seo-router/internal/metrics"
)

// requestCount returns the seo_router_http_requests_total value whose labels
// include all of want, and whether such a series exists.
func requestCount(t *testing.T, m *metrics.Metrics, want map[string]string) (float64, bool) {
	t.Helper()
	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, f := range families {
		if f.GetName() != "seo_router_http_requests_total" {
			continue
		}
	series:
		for _, metric := range f.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue series
				}
			}
			return metric.GetCounter().GetValue(), true
		}
	}
	return 0, false
}

func TestMetricsMiddleware_IncrementsCounter(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.GET("/api/products", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/products", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	v, ok := requestCount(t, m, map[string]string{"path_prefix": "/api", "status_code": "200"})
	if !ok {
		t.Fatal("expected seo_router_http_requests_total with path_prefix=/api")
	}
	if v != 1 {
		t.Errorf("counter value = %v, want 1", v)
	}
}

func TestMetricsMiddleware_RecordsDuration(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "seo_router_http_request_duration_seconds" {
			for _, metric := range f.GetMetric() {
				if metric.GetHistogram().GetSampleCount() > 0 {
					found = true
				}
			}
		}
	}
	if !found {
		t.Error("expected seo_router_http_request_duration_seconds with at least one sample")
	}
}

func TestMetricsMiddleware_HTTPErrorStatus(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.GET("/api/products", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/products", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if _, ok := requestCount(t, m, map[string]string{"path_prefix": "/api", "status_code": "404"}); !ok {
		t.Error("expected seo_router_http_requests_total with path_prefix=/api and status_code=404")
	}
}

func TestMetricsMiddleware_PlainErrorIs500(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.GET("/products", func(c echo.Context) error {
		return errors.New("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/products", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if _, ok := requestCount(t, m, map[string]string{"path_prefix": "page", "status_code": "500"}); !ok {
		t.Error("expected seo_router_http_requests_total with status_code=500 for a plain error")
	}
}

func TestMetricsMiddleware_UnknownMethodNormalized(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.Any("/api/products", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest("XYZZY", "/api/products", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if _, ok := requestCount(t, m, map[string]string{"path_prefix": "/api", "method": "other"}); !ok {
		t.Error("expected seo_router_http_requests_total with path_prefix=/api and method=other")
	}
}

func TestMetricsMiddleware_LabelsOriginalPath(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Pre(MetricsMiddleware(m))
	e.Pre(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Request().URL.Path = "/api/render"
			return next(c)
		}
	})
	e.GET("/api/render", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/products/shoe", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if _, ok := requestCount(t, m, map[string]string{"path_prefix": "page"}); !ok {
		t.Error("rewritten request should be labelled by its original path")
	}
	if _, ok := requestCount(t, m, map[string]string{"path_prefix": "/api"}); ok {
		t.Error("rewritten request must not be labelled by the routed path")
	}
}

func TestMetricsMiddleware_NotFound(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if _, ok := requestCount(t, m, map[string]string{"path_prefix": "page", "method": "GET", "status_code": "404"}); !ok {
		t.Error("expected seo_router_http_requests_total with path_prefix=page, method=GET, status_code=404")
	}
}
