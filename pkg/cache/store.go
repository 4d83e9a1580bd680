package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/infra/metrics"
	"go.uber.org/zap"
)

// DefaultOperationTimeout limita cada chamada ao backend remoto
const DefaultOperationTimeout = 2 * time.Second

// Store é o cache de melhor esforço usado pelas regras de negócio.
//
// Tenta o backend remoto primeiro; na primeira falha de conexão passa a usar o
// cache local em memória até o fim do processo. Nenhum método retorna erro:
// falhas são registradas no log e tratadas como cache miss.
type Store struct {
	remote    Cache
	local     *MemoryCache
	logger    *zap.Logger
	metrics   *metrics.APIMetrics
	timeout   time.Duration
	degraded  atomic.Bool
	remoteTyp string
}

// StoreOption configura um Store
type StoreOption func(*Store)

// WithOperationTimeout define o timeout aplicado às chamadas ao backend remoto
func WithOperationTimeout(timeout time.Duration) StoreOption {
	return func(s *Store) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithRemoteName define o nome do backend remoto usado em logs, métricas e Mode
func WithRemoteName(name string) StoreOption {
	return func(s *Store) {
		if name != "" {
			s.remoteTyp = name
		}
	}
}

// WithMetrics registra as métricas de fallback
func WithMetrics(m *metrics.APIMetrics) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore cria um Store. remote pode ser nil quando a conexão falhou na
// inicialização; nesse caso o Store já nasce usando o cache local.
func NewStore(remote Cache, local *MemoryCache, logger *zap.Logger, opts ...StoreOption) *Store {
	s := &Store{
		remote:    remote,
		local:     local,
		logger:    logger,
		timeout:   DefaultOperationTimeout,
		remoteTyp: "redis",
	}

	for _, opt := range opts {
		opt(s)
	}

	if remote == nil {
		s.degraded.Store(true)
		logger.Warn("Cache remoto não configurado ou indisponível, usando cache em memória")
	}

	return s
}

// Mode retorna o backend em uso: o nome do remoto (padrão "redis") ou "memory"
func (s *Store) Mode() string {
	if s.usingLocal() {
		return "memory"
	}
	return s.remoteTyp
}

// Get preenche dest e retorna true quando a chave existe e não expirou
func (s *Store) Get(ctx context.Context, key string, dest interface{}) bool {
	if s.usingLocal() {
		found, err := s.local.Get(ctx, key, dest)
		if err != nil {
			s.logger.Warn("Erro ao ler do cache local", zap.String("key", key), zap.Error(err))
			return false
		}
		return found
	}

	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	found, err := s.remote.Get(rctx, key, dest)
	if err != nil {
		s.handleRemoteError(ctx, "get", key, err)
		return false
	}
	return found
}

// Set armazena value com expiração ttl, sobrescrevendo qualquer valor anterior
func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.usingLocal() {
		rctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.remote.Set(rctx, key, value, ttl)
		cancel()
		if err == nil {
			return
		}
		if !s.handleRemoteError(ctx, "set", key, err) {
			return
		}
	}

	if err := s.local.Set(ctx, key, value, ttl); err != nil {
		s.logger.Warn("Erro ao armazenar no cache local", zap.String("key", key), zap.Error(err))
	}
}

// Delete remove uma chave. Remover uma chave inexistente não tem efeito.
//
// Invalidações acontecem depois de uma escrita já confirmada no banco, então
// não são abandonadas quando o chamador cancela a requisição.
func (s *Store) Delete(ctx context.Context, key string) {
	ctx = context.WithoutCancel(ctx)
	if !s.usingLocal() {
		rctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.remote.Delete(rctx, key)
		cancel()
		if err == nil {
			return
		}
		s.handleRemoteError(ctx, "delete", key, err)
	}

	_ = s.local.Delete(ctx, key)
}

// DeleteByPattern remove todas as chaves que casam com o padrão glob
func (s *Store) DeleteByPattern(ctx context.Context, pattern string) {
	ctx = context.WithoutCancel(ctx)
	if !s.usingLocal() {
		rctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.remote.DeletePattern(rctx, pattern)
		cancel()
		if err == nil {
			return
		}
		s.handleRemoteError(ctx, "delete_pattern", pattern, err)
	}

	_ = s.local.DeletePattern(ctx, pattern)
}

// Ping verifica o backend em uso
func (s *Store) Ping(ctx context.Context) error {
	if s.usingLocal() {
		return s.local.Ping(ctx)
	}
	return s.remote.Ping(ctx)
}

func (s *Store) usingLocal() bool {
	return s.degraded.Load()
}

// handleRemoteError registra a falha e, se for do backend, troca
// definitivamente para o cache local. Retorna true quando a troca aconteceu
// (ou já tinha acontecido) e a operação deve ser repetida localmente.
//
// Cancelamento ou prazo esgotado do contexto do chamador não indicam falha do
// backend: contam como miss e o remoto continua em uso. Só o timeout próprio
// do Store (ctx do chamador ainda ativo) e erros de conexão ativam o fallback.
func (s *Store) handleRemoteError(ctx context.Context, op, key string, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		s.logger.Debug("Operação no cache remoto interrompida pelo chamador",
			zap.String("operation", op),
			zap.String("key", key),
			zap.Error(err))
		return false
	}

	if s.metrics != nil {
		s.metrics.CacheOperationFailed(s.remoteTyp, op)
	}

	if errors.Is(err, ErrSerialization) {
		s.logger.Warn("Erro de serialização no cache remoto",
			zap.String("operation", op),
			zap.String("key", key),
			zap.Error(err))
		return false
	}

	s.logger.Warn("Erro no cache remoto",
		zap.String("operation", op),
		zap.String("key", key),
		zap.Error(err))

	if s.degraded.CompareAndSwap(false, true) {
		s.logger.Error("Cache remoto indisponível, usando cache em memória até o fim do processo",
			zap.Error(err))
		if s.metrics != nil {
			s.metrics.CacheFallbackActivated(s.remoteTyp)
		}
	}

	return true
}
