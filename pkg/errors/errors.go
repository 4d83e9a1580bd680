package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// Tipos de erro comuns
var (
	ErrNotFound           = errors.New("recurso não encontrado")
	ErrBadRequest         = errors.New("requisição inválida")
	ErrUnauthorized       = errors.New("não autorizado")
	ErrForbidden          = errors.New("acesso negado")
	ErrInternalServer     = errors.New("erro interno do servidor")
	ErrServiceUnavailable = errors.New("serviço indisponível")
	ErrTimeout            = errors.New("tempo de espera excedido")
	ErrDuplicate          = errors.New("recurso já existe")
	ErrPrecondition       = errors.New("pré-condição não atendida")
)

// PreconditionError indica uma operação chamada em um estado que não a permite,
// por exemplo remover um usuário que ainda não foi salvo.
type PreconditionError struct {
	Operation string
	Reason    string
}

// Error implementa a interface error
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, e.Reason)
}

// Unwrap permite errors.Is(err, ErrPrecondition)
func (e *PreconditionError) Unwrap() error {
	return ErrPrecondition
}

// Precondition cria um PreconditionError
func Precondition(operation, reason string) *PreconditionError {
	return &PreconditionError{Operation: operation, Reason: reason}
}

// APIError representa um erro da API com informações adicionais
type APIError struct {
	Code        int         `json:"-"`
	Message     string      `json:"message"`
	Details     interface{} `json:"details,omitempty"`
	OriginalErr error       `json:"-"`
}

// Error implementa a interface error
func (e *APIError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.OriginalErr)
	}
	return e.Message
}

// Unwrap permite usar errors.Is e errors.As
func (e *APIError) Unwrap() error {
	return e.OriginalErr
}

// New cria um novo APIError
func New(code int, message string, err error) *APIError {
	return &APIError{
		Code:        code,
		Message:     message,
		OriginalErr: err,
	}
}

// WithDetails adiciona detalhes ao erro
func (e *APIError) WithDetails(details interface{}) *APIError {
	e.Details = details
	return e
}

// NotFound cria um erro 404
func NotFound(resource string, err error) *APIError {
	message := fmt.Sprintf("%s não encontrado", resource)
	return New(http.StatusNotFound, message, err)
}

// BadRequest cria um erro 400
func BadRequest(message string, err error) *APIError {
	return New(http.StatusBadRequest, message, err)
}

// Unauthorized cria um erro 401
func Unauthorized(message string, err error) *APIError {
	if message == "" {
		message = "Autenticação necessária"
	}
	return New(http.StatusUnauthorized, message, err)
}

// Forbidden cria um erro 403
func Forbidden(message string, err error) *APIError {
	if message == "" {
		message = "Acesso negado"
	}
	return New(http.StatusForbidden, message, err)
}

// Conflict cria um erro 409
func Conflict(message string, err error) *APIError {
	return New(http.StatusConflict, message, err)
}

// InternalServer cria um erro 500
func InternalServer(message string, err error) *APIError {
	if message == "" {
		message = "Erro interno do servidor"
	}
	return New(http.StatusInternalServerError, message, err)
}

// FromError converte um erro qualquer em APIError de acordo com os sentinelas
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return New(http.StatusNotFound, "Recurso não encontrado", err)
	case errors.Is(err, ErrBadRequest):
		return BadRequest("Requisição inválida", err)
	case errors.Is(err, ErrDuplicate), errors.Is(err, gorm.ErrDuplicatedKey):
		return Conflict("Recurso já existe", err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated), errors.Is(err, gorm.ErrForeignKeyViolated):
		return BadRequest("Valor rejeitado pelo banco de dados", err)
	case errors.Is(err, ErrPrecondition):
		apiErr = New(http.StatusPreconditionFailed, "Pré-condição não atendida", err)
		var precondition *PreconditionError
		if errors.As(err, &precondition) {
			apiErr.WithDetails(map[string]string{
				"operation": precondition.Operation,
				"reason":    precondition.Reason,
			})
		}
		return apiErr
	case errors.Is(err, ErrUnauthorized):
		return Unauthorized("", err)
	case errors.Is(err, ErrForbidden):
		return Forbidden("", err)
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return New(http.StatusGatewayTimeout, "Tempo de espera excedido", err)
	}
	return InternalServer("", err)
}
