package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/app/user"
	apperrors "github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/errors"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/security"
	"go.uber.org/zap"
)

// Erros devolvidos ao cliente sem detalhar o motivo
var (
	ErrInvalidCredentials = fmt.Errorf("%w: credenciais inválidas", apperrors.ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: token inválido", apperrors.ErrUnauthorized)
)

// DefaultTokenExpiration é usado quando nenhuma duração é configurada
const DefaultTokenExpiration = 24 * time.Hour

// UserFinder busca agregados User; *user.Service satisfaz esta interface
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	FindByUUID(ctx context.Context, uuid string) (*user.User, error)
}

// AuthService gerencia operações de autenticação
type AuthService struct {
	keyManager      *security.KeyManager
	users           UserFinder
	tokenExpiration time.Duration
	logger          *zap.Logger
}

// NewAuthService cria um novo serviço de autenticação
func NewAuthService(keyManager *security.KeyManager, users UserFinder, tokenExpiration time.Duration, logger *zap.Logger) *AuthService {
	if tokenExpiration <= 0 {
		tokenExpiration = DefaultTokenExpiration
	}

	return &AuthService{
		keyManager:      keyManager,
		users:           users,
		tokenExpiration: tokenExpiration,
		logger:          logger,
	}
}

// Login autentica um usuário e gera um token JWT. Usuários inativos nunca
// autenticam, mesmo com a senha correta.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.logger.Error("Erro ao buscar usuário para login", zap.String("email", email), zap.Error(err))
		return "", nil, err
	}

	if u == nil {
		s.logger.Warn("Falha na autenticação: usuário não encontrado", zap.String("email", email))
		return "", nil, ErrInvalidCredentials
	}

	if !u.CanAuthenticate() {
		s.logger.Warn("Falha na autenticação: usuário inativo", zap.Uint("user_id", u.ID))
		return "", nil, ErrInvalidCredentials
	}

	if !u.ValidatePassword(password) {
		s.logger.Warn("Falha na autenticação: senha incorreta", zap.Uint("user_id", u.ID))
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.keyManager.GenerateToken(u.UUID, string(u.Role), s.tokenExpiration)
	if err != nil {
		s.logger.Error("Falha ao gerar token", zap.Uint("user_id", u.ID), zap.Error(err))
		return "", nil, err
	}

	s.logger.Info("Login bem-sucedido", zap.Uint("user_id", u.ID))
	return token, u, nil
}

// ValidateToken valida um token JWT e retorna o usuário correspondente
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*user.User, error) {
	claims, err := s.keyManager.VerifyToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	u, err := s.users.FindByUUID(ctx, claims.UserID)
	if err != nil {
		s.logger.Error("Erro ao buscar usuário do token", zap.String("uuid", claims.UserID), zap.Error(err))
		return nil, err
	}

	if u == nil || !u.Active {
		s.logger.Warn("Usuário do token não encontrado ou inativo", zap.String("uuid", claims.UserID))
		return nil, ErrInvalidToken
	}

	return u, nil
}

// IsAdmin verifica se um usuário tem permissão administrativa
func (s *AuthService) IsAdmin(u *user.User) bool {
	return u != nil && u.IsAdmin()
}
