package user

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/domain/model"
	apperrors "github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

// User é o agregado de usuário: identidade, credencial, vínculos com hotéis
// e permissões, com leitura através do cache.
type User struct {
	ID            uint
	UUID          string
	Name          string
	Email         string
	Role          model.Role
	Active        bool
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	passwordHash string
	svc          *Service

	hotels      loaded[[]model.HotelDetail]
	workspaces  loaded[[]model.WorkspaceSummary]
	permissions loaded[[]model.UserPermission]
}

// loaded guarda um relacionamento carregado durante a vida da instância
type loaded[T any] struct {
	value T
	ok    bool
}

func (l *loaded[T]) get() (T, bool) {
	return l.value, l.ok
}

func (l *loaded[T]) set(value T) {
	l.value = value
	l.ok = true
}

func (l *loaded[T]) reset() {
	var zero T
	l.value = zero
	l.ok = false
}

func (l *loaded[T]) ptr() *T {
	if !l.ok {
		return nil
	}
	return &l.value
}

func userKey(id uint, aspect string) string {
	return fmt.Sprintf("user:%d:%s", id, aspect)
}

func userPattern(id uint) string {
	return fmt.Sprintf("user:%d:*", id)
}

func hotelPattern(id uint) string {
	return fmt.Sprintf("hotel:%d:*", id)
}

// HasIdentity indica se o usuário já foi persistido
func (u *User) HasIdentity() bool {
	return u.ID != 0
}

// IsAdmin indica acesso à área administrativa
func (u *User) IsAdmin() bool {
	return u.Role.IsAdministrative()
}

// CanAuthenticate é falso para usuários inativos ou sem senha definida
func (u *User) CanAuthenticate() bool {
	return u.Active && u.passwordHash != ""
}

// Save insere o usuário quando ainda não tem identidade; caso contrário
// atualiza os campos mutáveis. id e uuid nunca mudam depois da inserção.
func (u *User) Save(ctx context.Context) error {
	if !u.Role.Valid() {
		return fmt.Errorf("%w: tipo de usuário inválido %q", apperrors.ErrBadRequest, u.Role)
	}

	entity := &model.UserEntity{
		ID:            u.ID,
		UUID:          u.UUID,
		Name:          u.Name,
		Email:         strings.TrimSpace(u.Email),
		PasswordHash:  u.passwordHash,
		UserType:      u.Role,
		Active:        u.Active,
		EmailVerified: u.EmailVerified,
	}

	if !u.HasIdentity() {
		entity.UUID = uuid.NewString()
		if err := u.svc.repo.Create(ctx, entity); err != nil {
			return err
		}

		u.ID = entity.ID
		u.UUID = entity.UUID
		u.Email = entity.Email
		u.CreatedAt = entity.CreatedAt
		u.UpdatedAt = entity.UpdatedAt
		u.svc.log.InfoCtx(ctx, "Usuário criado", zap.Uint("user_id", u.ID), zap.String("uuid", u.UUID))
		return nil
	}

	if err := u.svc.repo.Update(ctx, entity); err != nil {
		return err
	}

	u.Email = entity.Email
	u.UpdatedAt = entity.UpdatedAt
	return nil
}

// SetPassword gera o hash da senha. A senha só é gravada no próximo Save.
func (u *User) SetPassword(plaintext string) error {
	if plaintext == "" {
		return fmt.Errorf("%w: senha vazia", apperrors.ErrBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), u.svc.bcryptCost)
	if err != nil {
		return fmt.Errorf("falha ao gerar hash da senha: %w", err)
	}

	u.passwordHash = string(hash)
	return nil
}

// ValidatePassword compara a senha com o hash armazenado
func (u *User) ValidatePassword(plaintext string) bool {
	if u.passwordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(plaintext)) == nil
}

// Delete remove o usuário, suas permissões e vínculos, e invalida user:{id}:*
// e hotel:{id}:* de cada hotel a que ele estava vinculado.
func (u *User) Delete(ctx context.Context) error {
	if !u.HasIdentity() {
		return apperrors.Precondition("delete", "usuário sem identidade")
	}

	// Os vínculos somem junto com o usuário, então são lidos antes
	memberships, err := u.svc.repo.ListHotels(ctx, u.ID)
	if err != nil {
		return err
	}

	if err := u.svc.repo.Delete(ctx, u.ID); err != nil {
		return err
	}

	u.svc.cache.DeleteByPattern(ctx, userPattern(u.ID))
	for _, membership := range memberships {
		u.svc.cache.DeleteByPattern(ctx, hotelPattern(membership.HotelID))
	}
	u.hotels.reset()
	u.workspaces.reset()
	u.permissions.reset()

	u.svc.log.InfoCtx(ctx, "Usuário removido", zap.Uint("user_id", u.ID))
	return nil
}

// GetHotels retorna os vínculos ativos do usuário. Com useCache consulta
// user:{id}:hotels antes do banco e repopula o cache quando há resultado.
func (u *User) GetHotels(ctx context.Context, useCache bool) ([]model.HotelSummary, error) {
	if !u.HasIdentity() {
		return []model.HotelSummary{}, nil
	}

	key := userKey(u.ID, "hotels")

	if useCache {
		var hotels []model.HotelSummary
		if u.svc.cache.Get(ctx, key, &hotels) {
			return hotels, nil
		}
	}

	hotels, err := u.svc.repo.ListHotels(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	if useCache && len(hotels) > 0 {
		u.svc.cache.Set(ctx, key, hotels, HotelsTTL)
	}

	return hotels, nil
}

// AddToHotel vincula o usuário ao hotel. role vazio vira STAFF e
// permissions vazio vira um objeto JSON vazio.
func (u *User) AddToHotel(ctx context.Context, hotelID uint, role string, permissions json.RawMessage) error {
	if !u.HasIdentity() {
		return apperrors.Precondition("addToHotel", "usuário sem identidade")
	}

	if role == "" {
		role = model.HotelRoleStaff
	}

	if len(permissions) == 0 {
		permissions = json.RawMessage("{}")
	} else if !json.Valid(permissions) {
		return fmt.Errorf("%w: permissões do vínculo não são JSON válido", apperrors.ErrBadRequest)
	}

	membership := &model.UserHotel{
		UserID:      u.ID,
		HotelID:     hotelID,
		Role:        role,
		Permissions: datatypes.JSON(permissions),
		Active:      true,
		JoinedAt:    time.Now(),
	}

	if err := u.svc.repo.AddMembership(ctx, membership); err != nil {
		return err
	}

	u.invalidateMembership(ctx, hotelID)

	u.svc.log.InfoCtx(ctx, "Usuário vinculado ao hotel",
		zap.Uint("user_id", u.ID),
		zap.Uint("hotel_id", hotelID),
		zap.String("role", role))
	return nil
}

// RemoveFromHotel desativa o vínculo com o hotel
func (u *User) RemoveFromHotel(ctx context.Context, hotelID uint) error {
	if !u.HasIdentity() {
		return apperrors.Precondition("removeFromHotel", "usuário sem identidade")
	}

	if err := u.svc.repo.RemoveMembership(ctx, u.ID, hotelID); err != nil {
		return err
	}

	u.invalidateMembership(ctx, hotelID)

	u.svc.log.InfoCtx(ctx, "Usuário desvinculado do hotel",
		zap.Uint("user_id", u.ID),
		zap.Uint("hotel_id", hotelID))
	return nil
}

// invalidateMembership roda sempre depois da escrita no banco
func (u *User) invalidateMembership(ctx context.Context, hotelID uint) {
	u.svc.cache.DeleteByPattern(ctx, userPattern(u.ID))
	u.svc.cache.DeleteByPattern(ctx, hotelPattern(hotelID))
	u.hotels.reset()
	u.workspaces.reset()
}

// GetPermissions retorna as permissões do usuário. Erros de leitura são
// registrados e resultam em lista vazia.
func (u *User) GetPermissions(ctx context.Context) []string {
	if !u.HasIdentity() {
		return []string{}
	}

	permissions, err := u.svc.repo.ListPermissions(ctx, u.ID)
	if err != nil {
		u.svc.log.ErrorCtx(ctx, "Erro ao buscar permissões, retornando lista vazia",
			zap.Uint("user_id", u.ID),
			zap.Error(err))
		return []string{}
	}

	if permissions == nil {
		return []string{}
	}
	return permissions
}

// SetPermissions substitui todas as permissões do usuário em uma transação.
// Em caso de erro o conjunto anterior permanece e o erro é devolvido.
func (u *User) SetPermissions(ctx context.Context, permissions []string) error {
	if !u.HasIdentity() {
		return apperrors.Precondition("setPermissions", "usuário sem identidade")
	}

	if err := u.svc.repo.ReplacePermissions(ctx, u.ID, permissions); err != nil {
		u.svc.log.ErrorCtx(ctx, "Erro ao substituir permissões",
			zap.Uint("user_id", u.ID),
			zap.Error(err))
		return err
	}

	u.svc.cache.Delete(ctx, userKey(u.ID, "permissions:lazy"))
	u.permissions.reset()

	u.svc.log.InfoCtx(ctx, "Permissões atualizadas",
		zap.Uint("user_id", u.ID),
		zap.Int("count", len(permissions)))
	return nil
}

// LoadHotelsDetailed carrega os hotéis com dados completos (user:{id}:hotels:lazy)
func (u *User) LoadHotelsDetailed(ctx context.Context) ([]model.HotelDetail, error) {
	return lazyLoad(ctx, u, &u.hotels, "hotels:lazy", HotelsTTL, u.svc.repo.ListHotelsDetailed)
}

// LoadWorkspaces carrega os workspaces acessíveis (user:{id}:workspaces:lazy)
func (u *User) LoadWorkspaces(ctx context.Context) ([]model.WorkspaceSummary, error) {
	return lazyLoad(ctx, u, &u.workspaces, "workspaces:lazy", WorkspacesTTL, u.svc.repo.ListWorkspaces)
}

// LoadPermissionsDetailed carrega as permissões com data de concessão (user:{id}:permissions:lazy)
func (u *User) LoadPermissionsDetailed(ctx context.Context) ([]model.UserPermission, error) {
	return lazyLoad(ctx, u, &u.permissions, "permissions:lazy", PermissionsTTL, u.svc.repo.ListPermissionsDetailed)
}

// lazyLoad consulta o campo da instância, depois o cache, depois o banco.
// Uma busca bem-sucedida preenche o campo e o cache.
func lazyLoad[T any](
	ctx context.Context,
	u *User,
	field *loaded[T],
	aspect string,
	ttl time.Duration,
	fetch func(context.Context, uint) (T, error),
) (T, error) {
	if value, ok := field.get(); ok {
		return value, nil
	}

	var zero T
	if !u.HasIdentity() {
		return zero, apperrors.Precondition("load "+aspect, "usuário sem identidade")
	}

	key := userKey(u.ID, aspect)

	var cached T
	if u.svc.cache.Get(ctx, key, &cached) {
		field.set(cached)
		return cached, nil
	}

	value, err := fetch(ctx, u.ID)
	if err != nil {
		return zero, err
	}

	field.set(value)
	u.svc.cache.Set(ctx, key, value, ttl)

	return value, nil
}

type userJSON struct {
	ID            uint                      `json:"id"`
	UUID          string                    `json:"uuid"`
	Name          string                    `json:"name"`
	Email         string                    `json:"email"`
	Role          model.Role                `json:"user_type"`
	Active        bool                      `json:"active"`
	EmailVerified bool                      `json:"email_verified"`
	CreatedAt     time.Time                 `json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`
	Hotels        *[]model.HotelDetail      `json:"hotels,omitempty"`
	Workspaces    *[]model.WorkspaceSummary `json:"workspaces,omitempty"`
	Permissions   *[]model.UserPermission   `json:"permissions,omitempty"`
}

// MarshalJSON nunca inclui o hash da senha. Relacionamentos aparecem só
// quando já foram carregados nesta instância.
func (u *User) MarshalJSON() ([]byte, error) {
	return json.Marshal(userJSON{
		ID:            u.ID,
		UUID:          u.UUID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		Active:        u.Active,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
		Hotels:        u.hotels.ptr(),
		Workspaces:    u.workspaces.ptr(),
		Permissions:   u.permissions.ptr(),
	})
}

// ToJSON serializa o usuário para respostas externas
func (u *User) ToJSON() ([]byte, error) {
	return json.Marshal(u)
}
