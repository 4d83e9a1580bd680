package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/logging"
	"go.uber.org/zap"
)

// RecoveryMiddleware converte pânicos de handlers em 500 sem derrubar o processo
type RecoveryMiddleware struct {
	logger *logging.ContextLogger
}

func NewRecoveryMiddleware(logger *zap.Logger) *RecoveryMiddleware {
	return &RecoveryMiddleware{
		logger: logging.NewContextLogger(logger),
	}
}

// Recovery registra o pânico com a rota, o usuário autenticado (quando houver)
// e o trace da requisição.
func (m *RecoveryMiddleware) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			route := c.FullPath()
			if route == "" {
				route = "no_route"
			}

			fields := []zap.Field{
				zap.Any("panic", recovered),
				zap.String("route", route),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			}
			if u, ok := CurrentUser(c); ok {
				fields = append(fields,
					zap.String("user_uuid", u.UUID),
					zap.String("user_type", string(u.Role)))
			}
			fields = append(fields, zap.ByteString("stack", debug.Stack()))

			m.logger.ErrorCtx(c.Request.Context(), "Pânico recuperado no handler", fields...)

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Erro interno do servidor",
			})
		}()

		c.Next()
	}
}
