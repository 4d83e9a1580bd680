package repository

import (
	"context"

	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/domain/model"
)

// UserFilter filtra a listagem de usuários. Campos vazios não filtram.
type UserFilter struct {
	Roles  []model.Role
	Active *bool
	Search string
	Limit  int
}

// UserRepository define a interface para armazenamento de usuários,
// permissões e vínculos com hotéis.
//
// Buscas pontuais retornam (nil, nil) quando nada é encontrado.
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*model.UserEntity, error)
	FindByUUID(ctx context.Context, uuid string) (*model.UserEntity, error)
	FindByEmail(ctx context.Context, email string) (*model.UserEntity, error)

	// FindAll lista usuários do mais recente para o mais antigo
	FindAll(ctx context.Context, filter UserFilter) ([]*model.UserEntity, error)

	Create(ctx context.Context, user *model.UserEntity) error

	// Update altera apenas os campos mutáveis; id e uuid nunca mudam
	Update(ctx context.Context, user *model.UserEntity) error

	// Delete remove o usuário junto com suas permissões e vínculos
	Delete(ctx context.Context, id uint) error

	// ListHotels retorna os vínculos ativos do usuário
	ListHotels(ctx context.Context, userID uint) ([]model.HotelSummary, error)
	ListHotelsDetailed(ctx context.Context, userID uint) ([]model.HotelDetail, error)
	ListWorkspaces(ctx context.Context, userID uint) ([]model.WorkspaceSummary, error)

	// AddMembership cria o vínculo ou reativa um vínculo removido
	AddMembership(ctx context.Context, membership *model.UserHotel) error

	// RemoveMembership desativa o vínculo (remoção lógica)
	RemoveMembership(ctx context.Context, userID, hotelID uint) error

	ListPermissions(ctx context.Context, userID uint) ([]string, error)
	ListPermissionsDetailed(ctx context.Context, userID uint) ([]model.UserPermission, error)

	// ReplacePermissions troca o conjunto inteiro de permissões em uma transação
	ReplacePermissions(ctx context.Context, userID uint, permissions []string) error
}

// HotelRepository cobre o cadastro mínimo de hotéis usado pelos vínculos
type HotelRepository interface {
	FindHotelByID(ctx context.Context, id uint) (*model.Hotel, error)
	CreateHotel(ctx context.Context, hotel *model.Hotel) error
}
