package cache

import (
	"context"
	"errors"
	"time"
)

// ErrSerialization indica falha ao (de)serializar um valor. Não é falha de
// conexão e por isso não provoca a troca para o cache local.
var ErrSerialization = errors.New("falha de serialização no cache")

// Cache define a interface para os backends de cache.
// Implementações retornam erros; quem decide engolir ou propagar é o Store.
type Cache interface {
	// Set armazena um valor no cache com tempo de expiração
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// Get recupera um valor do cache
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Delete remove um valor do cache. Remover uma chave inexistente não é erro.
	Delete(ctx context.Context, key string) error

	// DeletePattern remove todas as chaves que casam com o padrão glob (* = qualquer trecho)
	DeletePattern(ctx context.Context, pattern string) error

	// Clear remove todos os valores do cache
	Clear(ctx context.Context) error

	// Ping verifica se o cache está acessível
	Ping(ctx context.Context) error
}
