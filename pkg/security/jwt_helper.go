package security

import (
	"os"

	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/config"
)

// JWTSecretEnv sobrepõe o segredo da configuração
const JWTSecretEnv = "JWT_SECRET_KEY"

// GetJWTSecret obtém o segredo JWT na seguinte ordem:
// 1. Variável de ambiente JWT_SECRET_KEY
// 2. auth.jwtSecret da configuração (que já considera HOTEIS_AUTH_JWTSECRET)
func GetJWTSecret(cfg *config.Config) []byte {
	if secret := os.Getenv(JWTSecretEnv); secret != "" {
		return []byte(secret)
	}

	if cfg != nil && cfg.Auth.JWTSecret != "" {
		return []byte(cfg.Auth.JWTSecret)
	}

	return nil
}
