package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/app/auth"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/app/user"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/domain/model"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/domain/repository"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/infra/metrics"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/infra/middleware"
	apperrors "github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/errors"
	"go.uber.org/zap"
)

// UserHandler expõe o agregado User para o painel administrativo
type UserHandler struct {
	users          *user.Service
	authService    *auth.AuthService
	logger         *zap.Logger
	metrics        *metrics.APIMetrics
	passwordMinLen int
}

// NewUserHandler cria um novo handler de usuários
func NewUserHandler(users *user.Service, authService *auth.AuthService, passwordMinLen int, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:          users,
		authService:    authService,
		logger:         logger,
		passwordMinLen: passwordMinLen,
	}
}

// SetMetrics configura o objeto de métricas
func (h *UserHandler) SetMetrics(metrics *metrics.APIMetrics) {
	h.metrics = metrics
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login autentica por email e senha e devolve o token JWT
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos: " + err.Error()})
		return
	}

	token, u, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, "login_error", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  u,
	})
}

// Me devolve o usuário autenticado com hotéis e permissões carregados
func (h *UserHandler) Me(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Autenticação necessária"})
		return
	}

	h.respondUser(c, http.StatusOK, u, true)
}

type CreateUserRequest struct {
	Name     string     `json:"name" binding:"required"`
	Email    string     `json:"email" binding:"required,email"`
	Password string     `json:"password" binding:"required"`
	Role     model.Role `json:"user_type"`
	Active   *bool      `json:"active"`
}

// CreateUser cadastra um novo usuário
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos: " + err.Error()})
		return
	}

	if len(req.Password) < h.passwordMinLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Senha deve ter pelo menos " + strconv.Itoa(h.passwordMinLen) + " caracteres"})
		return
	}

	if req.Role == "" {
		req.Role = model.RoleHotel
	}

	u := h.users.New(req.Name, req.Email, req.Role)
	if req.Active != nil {
		u.Active = *req.Active
	}

	if err := u.SetPassword(req.Password); err != nil {
		h.respondError(c, "create_user_error", err)
		return
	}

	if err := u.Save(c.Request.Context()); err != nil {
		h.respondError(c, "create_user_error", err)
		return
	}

	c.JSON(http.StatusCreated, u)
}

// ListUsers aceita os filtros user_type (lista separada por vírgula), active, search e limit
func (h *UserHandler) ListUsers(c *gin.Context) {
	filter := repository.UserFilter{
		Search: c.Query("search"),
	}

	if types := c.Query("user_type"); types != "" {
		for _, t := range strings.Split(types, ",") {
			filter.Roles = append(filter.Roles, model.Role(strings.TrimSpace(t)))
		}
	}

	if active := c.Query("active"); active != "" {
		value, err := strconv.ParseBool(active)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parâmetro 'active' inválido"})
			return
		}
		filter.Active = &value
	}

	if limit := c.Query("limit"); limit != "" {
		value, err := strconv.Atoi(limit)
		if err != nil || value < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parâmetro 'limit' inválido"})
			return
		}
		filter.Limit = value
	}

	users, err := h.users.FindAll(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "list_users_error", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

// GetUser devolve o usuário; com ?expand=true inclui hotéis, workspaces e permissões
func (h *UserHandler) GetUser(c *gin.Context) {
	u, ok := h.loadUser(c)
	if !ok {
		return
	}

	h.respondUser(c, http.StatusOK, u, c.Query("expand") == "true")
}

type UpdateUserRequest struct {
	Name          *string     `json:"name"`
	Email         *string     `json:"email" binding:"omitempty,email"`
	Password      *string     `json:"password"`
	Role          *model.Role `json:"user_type"`
	Active        *bool       `json:"active"`
	EmailVerified *bool       `json:"email_verified"`
}

// UpdateUser altera apenas os campos enviados
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos: " + err.Error()})
		return
	}

	u, ok := h.loadUser(c)
	if !ok {
		return
	}

	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.Active != nil {
		u.Active = *req.Active
	}
	if req.EmailVerified != nil {
		u.EmailVerified = *req.EmailVerified
	}
	if req.Password != nil {
		if len(*req.Password) < h.passwordMinLen {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Senha deve ter pelo menos " + strconv.Itoa(h.passwordMinLen) + " caracteres"})
			return
		}
		if err := u.SetPassword(*req.Password); err != nil {
			h.respondError(c, "update_user_error", err)
			return
		}
	}

	if err := u.Save(c.Request.Context()); err != nil {
		h.respondError(c, "update_user_error", err)
		return
	}

	c.JSON(http.StatusOK, u)
}

// DeleteUser remove o usuário
func (h *UserHandler) DeleteUser(c *gin.Context) {
	u, ok := h.loadUser(c)
	if !ok {
		return
	}

	if current, ok := middleware.CurrentUser(c); ok && current.ID == u.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Não é possível remover o próprio usuário"})
		return
	}

	if err := u.Delete(c.Request.Context()); err != nil {
		h.respondError(c, "delete_user_error", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Usuário removido com sucesso"})
}

// GetPermissions lista as permissões globais do usuário
func (h *UserHandler) GetPermissions(c *gin.Context) {
	u, ok := h.loadUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"permissions": u.GetPermissions(c.Request.Context())})
}

type SetPermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// SetPermissions substitui o conjunto de permissões
func (h *UserHandler) SetPermissions(c *gin.Context) {
	var req SetPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos: " + err.Error()})
		return
	}

	for _, permission := range req.Permissions {
		if strings.TrimSpace(permission) == "" {
			h.respondError(c, "set_permissions_error", apperrors.BadRequest("Permissão vazia não é permitida", nil))
			return
		}
	}

	u, ok := h.loadUser(c)
	if !ok {
		return
	}

	if err := u.SetPermissions(c.Request.Context(), req.Permissions); err != nil {
		h.respondError(c, "set_permissions_error", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"permissions": u.GetPermissions(c.Request.Context())})
}

// GetHotels lista os vínculos ativos; ?cache=false lê direto do banco
func (h *UserHandler) GetHotels(c *gin.Context) {
	u, ok := h.loadUser(c)
	if !ok {
		return
	}

	hotels, err := u.GetHotels(c.Request.Context(), c.Query("cache") != "false")
	if err != nil {
		h.respondError(c, "get_hotels_error", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"hotels": hotels})
}

type AddToHotelRequest struct {
	HotelID     uint            `json:"hotel_id" binding:"required"`
	Role        string          `json:"role"`
	Permissions json.RawMessage `json:"permissions"`
}

// AddToHotel vincula o usuário a um hotel
func (h *UserHandler) AddToHotel(c *gin.Context) {
	var req AddToHotelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos: " + err.Error()})
		return
	}

	u, ok := h.loadUser(c)
	if !ok {
		return
	}

	if err := u.AddToHotel(c.Request.Context(), req.HotelID, req.Role, req.Permissions); err != nil {
		h.respondError(c, "add_to_hotel_error", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Usuário vinculado ao hotel", "hotel_id": req.HotelID})
}

// RemoveFromHotel desfaz o vínculo com o hotel
func (h *UserHandler) RemoveFromHotel(c *gin.Context) {
	hotelID, err := strconv.ParseUint(c.Param("hotelId"), 10, strconv.IntSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parâmetro 'hotelId' inválido"})
		return
	}

	u, ok := h.loadUser(c)
	if !ok {
		return
	}

	if err := u.RemoveFromHotel(c.Request.Context(), uint(hotelID)); err != nil {
		h.respondError(c, "remove_from_hotel_error", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Usuário desvinculado do hotel"})
}

// loadUser busca o usuário do parâmetro :uuid e já responde 404 quando não existe
func (h *UserHandler) loadUser(c *gin.Context) (*user.User, bool) {
	u, err := h.users.FindByUUID(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		h.respondError(c, "find_user_error", err)
		return nil, false
	}

	if u == nil {
		h.respondError(c, "user_not_found", apperrors.NotFound("Usuário", apperrors.ErrNotFound))
		return nil, false
	}

	return u, true
}

func (h *UserHandler) respondUser(c *gin.Context, status int, u *user.User, expand bool) {
	if expand {
		ctx := c.Request.Context()
		if _, err := u.LoadHotelsDetailed(ctx); err != nil {
			h.respondError(c, "load_user_error", err)
			return
		}
		if _, err := u.LoadWorkspaces(ctx); err != nil {
			h.respondError(c, "load_user_error", err)
			return
		}
		if _, err := u.LoadPermissionsDetailed(ctx); err != nil {
			h.respondError(c, "load_user_error", err)
			return
		}
	}

	body, err := u.ToJSON()
	if err != nil {
		h.respondError(c, "serialize_user_error", err)
		return
	}

	c.Data(status, "application/json; charset=utf-8", body)
}

func (h *UserHandler) respondError(c *gin.Context, errorType string, err error) {
	apiErr := apperrors.FromError(err)

	if apiErr.Code >= http.StatusInternalServerError {
		h.logger.Error("Falha ao processar requisição de usuário",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	} else {
		h.logger.Debug("Requisição de usuário rejeitada",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}

	if h.metrics != nil {
		h.metrics.RequestError(c.FullPath(), c.Request.Method, errorType)
	}

	body := gin.H{"error": apiErr.Message}
	if apiErr.Details != nil {
		body["details"] = apiErr.Details
	}
	c.JSON(apiErr.Code, body)
}
