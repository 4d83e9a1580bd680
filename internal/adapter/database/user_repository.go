package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/domain/model"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/domain/repository"
	apperrors "github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserRepository implementa repository.UserRepository sobre GORM
type UserRepository struct {
	db           *gorm.DB
	logger       *zap.Logger
	queryTimeout time.Duration
}

var (
	_ repository.UserRepository  = (*UserRepository)(nil)
	_ repository.HotelRepository = (*UserRepository)(nil)
)

// NewUserRepository cria o repositório. queryTimeout <= 0 usa DefaultQueryTimeout.
func NewUserRepository(db *gorm.DB, logger *zap.Logger, queryTimeout time.Duration) *UserRepository {
	if queryTimeout <= 0 {
		queryTimeout = DefaultQueryTimeout
	}
	return &UserRepository{
		db:           db,
		logger:       logger,
		queryTimeout: queryTimeout,
	}
}

// conn devolve a sessão ligada a um contexto com o timeout por consulta
func (r *UserRepository) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	return r.db.WithContext(ctx), cancel
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg interface{}) (*model.UserEntity, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var user model.UserEntity
	if err := db.Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindByID busca um usuário pelo id numérico
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.UserEntity, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByUUID busca um usuário pelo identificador público
func (r *UserRepository) FindByUUID(ctx context.Context, uuid string) (*model.UserEntity, error) {
	return r.findOne(ctx, "uuid = ?", uuid)
}

// FindByEmail busca um usuário pelo email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.UserEntity, error) {
	return r.findOne(ctx, "email = ?", email)
}

// FindAll lista usuários aplicando os filtros informados
func (r *UserRepository) FindAll(ctx context.Context, filter repository.UserFilter) ([]*model.UserEntity, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	query := db.Model(&model.UserEntity{})

	if len(filter.Roles) == 1 {
		query = query.Where("user_type = ?", string(filter.Roles[0]))
	} else if len(filter.Roles) > 1 {
		roles := make([]string, 0, len(filter.Roles))
		for _, role := range filter.Roles {
			roles = append(roles, string(role))
		}
		query = query.Where("user_type IN ?", roles)
	}

	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var users []*model.UserEntity
	if err := query.Order("created_at DESC").Order("id DESC").Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

// Create insere um novo usuário e preenche id e timestamps
func (r *UserRepository) Create(ctx context.Context, user *model.UserEntity) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	return db.Create(user).Error
}

// Update altera os campos mutáveis de um usuário existente
func (r *UserRepository) Update(ctx context.Context, user *model.UserEntity) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	user.UpdatedAt = time.Now()

	// Mapa para que valores zero (ex.: active=false) também sejam gravados
	return db.Model(&model.UserEntity{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"name":           user.Name,
			"email":          user.Email,
			"password_hash":  user.PasswordHash,
			"user_type":      user.UserType,
			"active":         user.Active,
			"email_verified": user.EmailVerified,
			"updated_at":     user.UpdatedAt,
		}).Error
}

// Delete remove o usuário, suas permissões e seus vínculos
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("falha ao iniciar transação: %w", tx.Error)
	}

	if err := tx.Where("user_id = ?", id).Delete(&model.UserPermission{}).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Where("user_id = ?", id).Delete(&model.UserHotel{}).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Where("id = ?", id).Delete(&model.UserEntity{}).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// ListHotels retorna os vínculos ativos do usuário ordenados pelo nome do hotel
func (r *UserRepository) ListHotels(ctx context.Context, userID uint) ([]model.HotelSummary, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	hotels := make([]model.HotelSummary, 0)
	err := db.Table("user_hotels AS uh").
		Select("h.id AS hotel_id, h.uuid AS hotel_uuid, h.name AS name, " +
			"uh.role AS role, uh.permissions AS permissions, uh.active AS active, uh.joined_at AS joined_at").
		Joins("JOIN hotels h ON h.id = uh.hotel_id").
		Where("uh.user_id = ? AND uh.active = ?", userID, true).
		Order("h.name ASC").
		Scan(&hotels).Error
	if err != nil {
		return nil, err
	}

	return hotels, nil
}

// ListHotelsDetailed retorna os vínculos ativos com os dados completos do hotel
func (r *UserRepository) ListHotelsDetailed(ctx context.Context, userID uint) ([]model.HotelDetail, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	hotels := make([]model.HotelDetail, 0)
	err := db.Table("user_hotels AS uh").
		Select("h.id AS hotel_id, h.uuid AS hotel_uuid, h.name AS name, h.active AS hotel_active, " +
			"h.created_at AS hotel_created_at, uh.role AS role, uh.permissions AS permissions, uh.joined_at AS joined_at").
		Joins("JOIN hotels h ON h.id = uh.hotel_id").
		Where("uh.user_id = ? AND uh.active = ?", userID, true).
		Order("h.name ASC").
		Scan(&hotels).Error
	if err != nil {
		return nil, err
	}

	return hotels, nil
}

// ListWorkspaces retorna os workspaces dos hotéis aos quais o usuário está vinculado
func (r *UserRepository) ListWorkspaces(ctx context.Context, userID uint) ([]model.WorkspaceSummary, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	workspaces := make([]model.WorkspaceSummary, 0)
	err := db.Table("workspaces AS w").
		Select("w.id AS id, w.uuid AS uuid, w.hotel_id AS hotel_id, h.name AS hotel_name, w.name AS name, w.active AS active").
		Joins("JOIN hotels h ON h.id = w.hotel_id").
		Joins("JOIN user_hotels uh ON uh.hotel_id = w.hotel_id").
		Where("uh.user_id = ? AND uh.active = ?", userID, true).
		Order("h.name ASC").Order("w.name ASC").
		Scan(&workspaces).Error
	if err != nil {
		return nil, err
	}

	return workspaces, nil
}

// AddMembership cria o vínculo. Um vínculo removido é reativado com o novo
// papel e permissões; um vínculo já ativo retorna ErrDuplicate e um hotel
// inexistente retorna ErrNotFound.
func (r *UserRepository) AddMembership(ctx context.Context, membership *model.UserHotel) error {
	hotel, err := r.FindHotelByID(ctx, membership.HotelID)
	if err != nil {
		return err
	}
	if hotel == nil {
		return fmt.Errorf("hotel %d: %w", membership.HotelID, apperrors.ErrNotFound)
	}

	db, cancel := r.conn(ctx)
	defer cancel()

	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("falha ao iniciar transação: %w", tx.Error)
	}

	var existing model.UserHotel
	err = tx.Where("user_id = ? AND hotel_id = ?", membership.UserID, membership.HotelID).
		First(&existing).Error

	switch {
	case err == nil && existing.Active:
		tx.Rollback()
		return fmt.Errorf("usuário %d já vinculado ao hotel %d: %w",
			membership.UserID, membership.HotelID, apperrors.ErrDuplicate)

	case err == nil:
		err = tx.Model(&model.UserHotel{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"role":        membership.Role,
				"permissions": membership.Permissions,
				"active":      true,
				"joined_at":   membership.JoinedAt,
			}).Error
		membership.ID = existing.ID

	case errors.Is(err, gorm.ErrRecordNotFound):
		// O índice único cobre a corrida entre duas inserções simultâneas
		err = tx.Create(membership).Error

	default:
		tx.Rollback()
		return err
	}

	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// RemoveMembership desativa o vínculo. Remover um vínculo inexistente não é erro.
func (r *UserRepository) RemoveMembership(ctx context.Context, userID, hotelID uint) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Model(&model.UserHotel{}).
		Where("user_id = ? AND hotel_id = ? AND active = ?", userID, hotelID, true).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		r.logger.Debug("Nenhum vínculo ativo para remover",
			zap.Uint("user_id", userID),
			zap.Uint("hotel_id", hotelID))
	}

	return nil
}

// ListPermissions retorna as permissões do usuário em ordem alfabética
func (r *UserRepository) ListPermissions(ctx context.Context, userID uint) ([]string, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	permissions := make([]string, 0)
	err := db.Model(&model.UserPermission{}).
		Where("user_id = ?", userID).
		Order("permission ASC").
		Pluck("permission", &permissions).Error
	if err != nil {
		return nil, err
	}

	return permissions, nil
}

// ListPermissionsDetailed retorna as linhas de permissão com a data de concessão
func (r *UserRepository) ListPermissionsDetailed(ctx context.Context, userID uint) ([]model.UserPermission, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	permissions := make([]model.UserPermission, 0)
	err := db.Where("user_id = ?", userID).
		Order("permission ASC").
		Find(&permissions).Error
	if err != nil {
		return nil, err
	}

	return permissions, nil
}

// ReplacePermissions apaga todas as permissões do usuário e insere as novas
// na mesma transação. Qualquer falha desfaz tudo e o conjunto anterior fica intacto.
func (r *UserRepository) ReplacePermissions(ctx context.Context, userID uint, permissions []string) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("falha ao iniciar transação: %w", tx.Error)
	}

	if err := tx.Where("user_id = ?", userID).Delete(&model.UserPermission{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("falha ao remover permissões: %w", err)
	}

	if len(permissions) > 0 {
		rows := make([]model.UserPermission, 0, len(permissions))
		for _, permission := range permissions {
			rows = append(rows, model.UserPermission{
				UserID:     userID,
				Permission: permission,
			})
		}

		if err := tx.Create(&rows).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("falha ao inserir permissões: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("falha ao confirmar transação: %w", err)
	}

	return nil
}

// FindHotelByID busca um hotel pelo id
func (r *UserRepository) FindHotelByID(ctx context.Context, id uint) (*model.Hotel, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var hotel model.Hotel
	if err := db.Where("id = ?", id).First(&hotel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &hotel, nil
}

// CreateHotel insere um hotel
func (r *UserRepository) CreateHotel(ctx context.Context, hotel *model.Hotel) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	if hotel.UUID == "" {
		hotel.UUID = uuid.NewString()
	}
	return db.Create(hotel).Error
}
