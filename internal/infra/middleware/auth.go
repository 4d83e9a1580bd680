package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/app/auth"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/app/user"
	"go.uber.org/zap"
)

// ContextUserKey é a chave do usuário autenticado no gin.Context
const ContextUserKey = "user"

// AuthMiddleware gerencia middlewares de autenticação
type AuthMiddleware struct {
	authService *auth.AuthService
	logger      *zap.Logger
}

// NewAuthMiddleware cria uma nova instância do middleware de autenticação
func NewAuthMiddleware(authService *auth.AuthService, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		logger:      logger,
	}
}

// Authenticate verifica se o usuário está autenticado
func (m *AuthMiddleware) Authenticate(c *gin.Context) {
	if _, ok := m.authenticate(c); !ok {
		return
	}
	c.Next()
}

// AuthenticateAdmin verifica se o usuário é SUPER_ADMIN ou ADMIN
func (m *AuthMiddleware) AuthenticateAdmin(c *gin.Context) {
	u, ok := m.authenticate(c)
	if !ok {
		return
	}

	if !m.authService.IsAdmin(u) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Acesso negado: permissão de administrador necessária"})
		return
	}

	c.Next()
}

// authenticate valida o token Bearer e guarda o usuário no contexto.
// Em caso de falha a requisição já foi abortada.
func (m *AuthMiddleware) authenticate(c *gin.Context) (*user.User, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header não fornecido"})
		return nil, false
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Formato inválido do token"})
		return nil, false
	}

	u, err := m.authService.ValidateToken(c.Request.Context(), tokenString)
	if err != nil {
		m.logger.Debug("Token rejeitado", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token inválido ou expirado"})
		return nil, false
	}

	c.Set(ContextUserKey, u)
	return u, true
}

// CurrentUser retorna o usuário autenticado pela requisição
func CurrentUser(c *gin.Context) (*user.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	u, ok := value.(*user.User)
	return u, ok && u != nil
}
