package user

import (
	"context"
	"time"

	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/domain/model"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/domain/repository"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/logging"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Custo do bcrypt. Valores abaixo de MinBcryptCost são ignorados.
const (
	MinBcryptCost     = 10
	DefaultBcryptCost = 12
)

// Expiração das entradas de cache do agregado
const (
	HotelsTTL      = 300 * time.Second
	WorkspacesTTL  = 300 * time.Second
	PermissionsTTL = 600 * time.Second
)

// Cache é o cache de melhor esforço consumido pelo agregado. Nenhuma operação
// falha: indisponibilidade se comporta como cache miss.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Delete(ctx context.Context, key string)
	DeleteByPattern(ctx context.Context, pattern string)
}

// Service carrega e cria agregados User ligados ao repositório e ao cache
type Service struct {
	repo       repository.UserRepository
	cache      Cache
	log        *logging.ContextLogger
	bcryptCost int
}

// Option configura o Service
type Option func(*Service)

// WithBcryptCost define o custo do hash de senha
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= MinBcryptCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

func NewService(repo repository.UserRepository, cache Cache, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		cache:      cache,
		log:        logging.NewContextLogger(logger),
		bcryptCost: DefaultBcryptCost,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// New cria um usuário ainda não persistido. Save atribui id e uuid.
func (s *Service) New(name, email string, role model.Role) *User {
	return &User{
		Name:   name,
		Email:  email,
		Role:   role,
		Active: true,
		svc:    s,
	}
}

// FindByID retorna nil, nil quando o usuário não existe
func (s *Service) FindByID(ctx context.Context, id uint) (*User, error) {
	entity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.fromEntity(entity), nil
}

// FindByUUID retorna nil, nil quando o usuário não existe
func (s *Service) FindByUUID(ctx context.Context, uuid string) (*User, error) {
	entity, err := s.repo.FindByUUID(ctx, uuid)
	if err != nil {
		return nil, err
	}
	return s.fromEntity(entity), nil
}

// FindByEmail retorna nil, nil quando o usuário não existe
func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	entity, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.fromEntity(entity), nil
}

// FindAll lista usuários do mais recente para o mais antigo
func (s *Service) FindAll(ctx context.Context, filter repository.UserFilter) ([]*User, error) {
	entities, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	users := make([]*User, 0, len(entities))
	for _, entity := range entities {
		users = append(users, s.fromEntity(entity))
	}

	return users, nil
}

func (s *Service) fromEntity(entity *model.UserEntity) *User {
	if entity == nil {
		return nil
	}

	return &User{
		ID:            entity.ID,
		UUID:          entity.UUID,
		Name:          entity.Name,
		Email:         entity.Email,
		Role:          entity.UserType,
		Active:        entity.Active,
		EmailVerified: entity.EmailVerified,
		CreatedAt:     entity.CreatedAt,
		UpdatedAt:     entity.UpdatedAt,
		passwordHash:  entity.PasswordHash,
		svc:           s,
	}
}
