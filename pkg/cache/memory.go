package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/infra/metrics"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// MemoryCache implementa a interface Cache usando armazenamento em memória.
// Os valores são guardados serializados em JSON, assim como no Redis, para que
// quem lê nunca compartilhe memória com quem escreveu.
type MemoryCache struct {
	cache   *cache.Cache
	mutex   sync.RWMutex
	logger  *zap.Logger
	hits    int64
	misses  int64
	metrics *metrics.APIMetrics
}

// NewMemoryCache cria uma nova instância de MemoryCache.
// cleanupInterval define de quanto em quanto tempo as entradas expiradas são varridas.
func NewMemoryCache(defaultExpiration, cleanupInterval time.Duration, metrics *metrics.APIMetrics, logger *zap.Logger) *MemoryCache {
	return &MemoryCache{
		cache:   cache.New(defaultExpiration, cleanupInterval),
		logger:  logger,
		metrics: metrics,
	}
}

// Set armazena um valor no cache
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("falha ao serializar para cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache.Set(key, data, expiration)
	return nil
}

// Get recupera um valor do cache
func (c *MemoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mutex.RLock()
	value, found := c.cache.Get(key)
	c.mutex.RUnlock()

	if !found {
		atomic.AddInt64(&c.misses, 1)
		c.updateMetrics()
		return false, nil
	}

	atomic.AddInt64(&c.hits, 1)
	c.updateMetrics()

	data, ok := value.([]byte)
	if !ok {
		// Entrada corrompida não deve ser servida
		c.cache.Delete(key)
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Error("falha ao deserializar para o destino", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	return true, nil
}

// Delete remove um valor do cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache.Delete(key)
	return nil
}

// DeletePattern remove os valores cujas chaves casam com o padrão
func (c *MemoryCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for key := range c.cache.Items() {
		if MatchPattern(pattern, key) {
			c.cache.Delete(key)
		}
	}
	return nil
}

// Clear remove todos os valores do cache
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache.Flush()
	return nil
}

// Ping verifica se o cache está funcionando
func (c *MemoryCache) Ping(ctx context.Context) error {
	return nil // O cache em memória está sempre disponível
}

// ItemCount retorna o número de entradas, incluindo expiradas ainda não varridas
func (c *MemoryCache) ItemCount() int {
	return c.cache.ItemCount()
}

// DeleteExpired varre as entradas expiradas imediatamente
func (c *MemoryCache) DeleteExpired() {
	c.cache.DeleteExpired()
}

func (c *MemoryCache) updateMetrics() {
	updateCacheMetrics(atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses), "memory", c.metrics)
}

// Função auxiliar para atualizar métricas de cache
func updateCacheMetrics(hits, misses int64, cacheType string, metrics *metrics.APIMetrics) {
	if metrics == nil {
		return
	}

	total := hits + misses
	if total > 0 {
		hitRatio := float64(hits) / float64(total)
		metrics.UpdateCacheHitRatio(cacheType, hitRatio)
	}
}
