package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/infra/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := metrics.NewAPIMetrics(prometheus.NewRegistry())
	router := gin.New()
	router.Use(NewMetricsMiddleware(m, zap.NewNop(), "/health").Middleware())
	router.GET("/admin/users/:uuid", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/admin/users/:uuid/permissions", func(c *gin.Context) {
		c.Status(http.StatusForbidden)
	})
	router.GET("/health/readiness", func(c *gin.Context) {
		c.Status(http.StatusServiceUnavailable)
	})

	do := func(path string) {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	do("/admin/users/a")
	do("/admin/users/b")
	do("/admin/users/a/permissions")
	do("/nao-existe")
	do("/health/readiness")

	requests := m.Requests()
	errs := m.Errors()

	assert.Equal(t, 2.0, testutil.ToFloat64(requests.WithLabelValues("/admin/users/:uuid", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(errs.WithLabelValues("/admin/users/:uuid/permissions", "GET", "auth_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(errs.WithLabelValues("no_route", "GET", "client_error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(requests.WithLabelValues("/health/readiness", "GET", "503")))
}

func TestClassifyStatus(t *testing.T) {
	tests := map[int]string{
		http.StatusOK:                  "",
		http.StatusCreated:             "",
		http.StatusBadRequest:          "client_error",
		http.StatusNotFound:            "client_error",
		http.StatusUnauthorized:        "auth_error",
		http.StatusForbidden:           "auth_error",
		http.StatusInternalServerError: "server_error",
		http.StatusGatewayTimeout:      "server_error",
	}

	for status, expected := range tests {
		assert.Equal(t, expected, classifyStatus(status), "status %d", status)
	}
}
