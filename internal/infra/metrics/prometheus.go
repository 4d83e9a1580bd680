package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// APIMetrics gerencia métricas relacionadas à API e ao cache
type APIMetrics struct {
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	activeRequests  *prometheus.GaugeVec
	errorsTotal     *prometheus.CounterVec
	cacheHitRatio   *prometheus.GaugeVec
	cacheFailures   *prometheus.CounterVec
	cacheFallbacks  *prometheus.CounterVec
}

// NewAPIMetrics cria e registra métricas do prometheus no registerer informado.
// Com registerer nil as métricas são criadas mas não registradas (útil em testes).
func NewAPIMetrics(registerer prometheus.Registerer) *APIMetrics {
	m := &APIMetrics{
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hoteis_requests_total",
				Help: "Total number of HTTP requests by path, method, and status code",
			},
			[]string{"path", "method", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hoteis_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),

		activeRequests: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hoteis_active_requests",
				Help: "Number of in-flight requests being processed",
			},
			[]string{"path", "method"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hoteis_errors_total",
				Help: "Total number of errors by type",
			},
			[]string{"path", "method", "error_type"},
		),

		cacheHitRatio: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hoteis_cache_hit_ratio",
				Help: "Cache hit ratio (0.0 to 1.0)",
			},
			[]string{"cache_type"},
		),

		cacheFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hoteis_cache_failures_total",
				Help: "Total number of failed cache backend operations",
			},
			[]string{"cache_type", "operation"},
		),

		cacheFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hoteis_cache_fallbacks_total",
				Help: "Number of times the remote cache was abandoned for the local one",
			},
			[]string{"cache_type"},
		),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.requestCounter,
			m.requestDuration,
			m.activeRequests,
			m.errorsTotal,
			m.cacheHitRatio,
			m.cacheFailures,
			m.cacheFallbacks,
		)
	}

	return m
}

// RequestStarted registra o início de uma requisição
func (m *APIMetrics) RequestStarted(path, method string) {
	m.activeRequests.WithLabelValues(path, method).Inc()
}

// RequestCompleted registra a conclusão de uma requisição
func (m *APIMetrics) RequestCompleted(path, method, status string, duration time.Duration) {
	m.requestCounter.WithLabelValues(path, method, status).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
	m.activeRequests.WithLabelValues(path, method).Dec()
}

// RequestError registra um erro de requisição
func (m *APIMetrics) RequestError(path, method, errorType string) {
	m.errorsTotal.WithLabelValues(path, method, errorType).Inc()
}

// UpdateCacheHitRatio atualiza a taxa de acertos do cache
func (m *APIMetrics) UpdateCacheHitRatio(cacheType string, hitRatio float64) {
	m.cacheHitRatio.WithLabelValues(cacheType).Set(hitRatio)
}

// CacheOperationFailed conta uma operação de cache que falhou
func (m *APIMetrics) CacheOperationFailed(cacheType, operation string) {
	m.cacheFailures.WithLabelValues(cacheType, operation).Inc()
}

// CacheFallbackActivated registra a troca do cache remoto pelo local
func (m *APIMetrics) CacheFallbackActivated(cacheType string) {
	m.cacheFallbacks.WithLabelValues(cacheType).Inc()
}

// CacheFailures expõe o contador de falhas do cache
func (m *APIMetrics) CacheFailures() *prometheus.CounterVec {
	return m.cacheFailures
}

// CacheFallbacks expõe o contador de trocas para o cache local
func (m *APIMetrics) CacheFallbacks() *prometheus.CounterVec {
	return m.cacheFallbacks
}

// Requests expõe o contador de requisições
func (m *APIMetrics) Requests() *prometheus.CounterVec {
	return m.requestCounter
}

// Errors expõe o contador de erros por tipo
func (m *APIMetrics) Errors() *prometheus.CounterVec {
	return m.errorsTotal
}
