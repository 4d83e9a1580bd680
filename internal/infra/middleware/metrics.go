package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/infra/metrics"
	"go.uber.org/zap"
)

// MetricsMiddleware coleta contadores e latência por rota do gin
type MetricsMiddleware struct {
	metrics   *metrics.APIMetrics
	logger    *zap.Logger
	skipPaths []string
}

// NewMetricsMiddleware cria o middleware. Rotas com prefixo em skipPaths
// (health checks, scrape do prometheus) não são contadas.
func NewMetricsMiddleware(metrics *metrics.APIMetrics, logger *zap.Logger, skipPaths ...string) *MetricsMiddleware {
	return &MetricsMiddleware{
		metrics:   metrics,
		logger:    logger,
		skipPaths: skipPaths,
	}
}

// Middleware usa o template da rota (/admin/users/:uuid) como label para
// manter a cardinalidade limitada; rotas inexistentes viram "no_route".
func (m *MetricsMiddleware) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.skip(c.Request.URL.Path) {
			c.Next()
			return
		}

		path := c.FullPath()
		if path == "" {
			path = "no_route"
		}
		method := c.Request.Method

		m.metrics.RequestStarted(path, method)
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		m.metrics.RequestCompleted(path, method, strconv.Itoa(status), time.Since(start))

		if errorType := classifyStatus(status); errorType != "" {
			m.metrics.RequestError(path, method, errorType)
		}
	}
}

func (m *MetricsMiddleware) skip(path string) bool {
	for _, prefix := range m.skipPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// classifyStatus separa falhas de autenticação dos demais erros de cliente
func classifyStatus(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return "auth_error"
	case status >= http.StatusBadRequest:
		return "client_error"
	}
	return ""
}
