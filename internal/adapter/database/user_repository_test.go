package database_test

import (
	"errors"
	"testing"
	"time"

	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/adapter/database"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/domain/model"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/domain/repository"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/testutils"
	apperrors "github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newRepository(t *testing.T) *database.UserRepository {
	db := testutils.NewTestDB(t)
	return database.NewUserRepository(db, testutils.TestLogger(t), 5*time.Second)
}

func createUser(t *testing.T, repo *database.UserRepository, email string, role model.Role, active bool) *model.UserEntity {
	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	user := &model.UserEntity{
		UUID:         email + "-uuid",
		Name:         "Usuário " + email,
		Email:        email,
		PasswordHash: "hash",
		UserType:     role,
		Active:       active,
	}
	require.NoError(t, repo.Create(ctx, user))
	require.NotZero(t, user.ID)
	return user
}

func createHotel(t *testing.T, repo *database.UserRepository, name string) *model.Hotel {
	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	hotel := &model.Hotel{Name: name, Active: true}
	require.NoError(t, repo.CreateHotel(ctx, hotel))
	require.NotEmpty(t, hotel.UUID)
	return hotel
}

func TestUserRepository_FindLookups(t *testing.T) {
	repo := newRepository(t)
	user := createUser(t, repo, "ana@hotel.com", model.RoleAdmin, true)

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	t.Run("by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, user.Email, found.Email)
	})

	t.Run("by uuid", func(t *testing.T) {
		found, err := repo.FindByUUID(ctx, user.UUID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, user.ID, found.ID)
	})

	t.Run("by email", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "ana@hotel.com")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, model.RoleAdmin, found.UserType)
	})

	t.Run("absent returns nil without error", func(t *testing.T) {
		found, err := repo.FindByID(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, found)

		found, err = repo.FindByEmail(ctx, "ninguem@hotel.com")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	repo := newRepository(t)
	createUser(t, repo, "dup@hotel.com", model.RoleHotel, true)

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	err := repo.Create(ctx, &model.UserEntity{
		UUID:         "outro-uuid",
		Name:         "Outro",
		Email:        "dup@hotel.com",
		PasswordHash: "hash",
		UserType:     model.RoleHotel,
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestUserRepository_FindAll(t *testing.T) {
	repo := newRepository(t)
	createUser(t, repo, "maria@hotel.com", model.RoleHotel, true)
	createUser(t, repo, "joao@hotel.com", model.RoleAdmin, true)
	createUser(t, repo, "pedro@hotel.com", model.RoleHotel, false)
	last := createUser(t, repo, "root@hotel.com", model.RoleSuperAdmin, true)

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	t.Run("no filter orders newest first", func(t *testing.T) {
		users, err := repo.FindAll(ctx, repository.UserFilter{})
		require.NoError(t, err)
		require.Len(t, users, 4)
		assert.Equal(t, last.ID, users[0].ID)
	})

	t.Run("single role", func(t *testing.T) {
		users, err := repo.FindAll(ctx, repository.UserFilter{Roles: []model.Role{model.RoleHotel}})
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})

	t.Run("role set", func(t *testing.T) {
		users, err := repo.FindAll(ctx, repository.UserFilter{
			Roles: []model.Role{model.RoleAdmin, model.RoleSuperAdmin},
		})
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})

	t.Run("active flag", func(t *testing.T) {
		inactive := false
		users, err := repo.FindAll(ctx, repository.UserFilter{Active: &inactive})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "pedro@hotel.com", users[0].Email)
	})

	t.Run("case insensitive search", func(t *testing.T) {
		users, err := repo.FindAll(ctx, repository.UserFilter{Search: "MARIA"})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "maria@hotel.com", users[0].Email)
	})

	t.Run("limit", func(t *testing.T) {
		users, err := repo.FindAll(ctx, repository.UserFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})
}

func TestUserRepository_UpdateKeepsIdentity(t *testing.T) {
	repo := newRepository(t)
	user := createUser(t, repo, "carla@hotel.com", model.RoleHotel, true)

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	originalUUID := user.UUID
	user.UUID = "tentativa-de-troca"
	user.Name = "Carla Souza"
	user.Active = false

	require.NoError(t, repo.Update(ctx, user))

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, originalUUID, found.UUID)
	assert.Equal(t, "Carla Souza", found.Name)
	assert.False(t, found.Active)
}

func TestUserRepository_ReplacePermissions(t *testing.T) {
	repo := newRepository(t)
	user := createUser(t, repo, "perm@hotel.com", model.RoleHotel, true)

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	t.Run("replaces the whole set", func(t *testing.T) {
		require.NoError(t, repo.ReplacePermissions(ctx, user.ID, []string{"view_pms", "edit_rates"}))
		require.NoError(t, repo.ReplacePermissions(ctx, user.ID, []string{"view_pms", "view_pms_calendar"}))

		permissions, err := repo.ListPermissions(ctx, user.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"view_pms", "view_pms_calendar"}, permissions)
	})

	t.Run("rollback keeps previous set", func(t *testing.T) {
		require.NoError(t, repo.ReplacePermissions(ctx, user.ID, []string{"view_pms"}))

		err := repo.ReplacePermissions(ctx, user.ID, []string{"edit_rates", ""})
		require.Error(t, err)

		permissions, err := repo.ListPermissions(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"view_pms"}, permissions)
	})

	t.Run("duplicate input is rejected and rolled back", func(t *testing.T) {
		require.NoError(t, repo.ReplacePermissions(ctx, user.ID, []string{"view_pms"}))

		err := repo.ReplacePermissions(ctx, user.ID, []string{"edit_rates", "edit_rates"})
		require.Error(t, err)

		permissions, err := repo.ListPermissions(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"view_pms"}, permissions)
	})

	t.Run("empty set clears", func(t *testing.T) {
		require.NoError(t, repo.ReplacePermissions(ctx, user.ID, nil))

		permissions, err := repo.ListPermissions(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, permissions)
		assert.NotNil(t, permissions)
	})

	t.Run("detailed listing", func(t *testing.T) {
		require.NoError(t, repo.ReplacePermissions(ctx, user.ID, []string{"b_perm", "a_perm"}))

		rows, err := repo.ListPermissionsDetailed(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "a_perm", rows[0].Permission)
		assert.False(t, rows[0].CreatedAt.IsZero())
	})
}

func TestUserRepository_Memberships(t *testing.T) {
	repo := newRepository(t)
	user := createUser(t, repo, "staff@hotel.com", model.RoleHotel, true)
	beira := createHotel(t, repo, "Beira Mar")
	serra := createHotel(t, repo, "Alto da Serra")

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	add := func(hotelID uint, role string) error {
		return repo.AddMembership(ctx, &model.UserHotel{
			UserID:      user.ID,
			HotelID:     hotelID,
			Role:        role,
			Permissions: datatypes.JSON(`{"reservas":true}`),
			Active:      true,
			JoinedAt:    time.Now(),
		})
	}

	t.Run("no memberships", func(t *testing.T) {
		hotels, err := repo.ListHotels(ctx, user.ID)
		require.NoError(t, err)
		assert.NotNil(t, hotels)
		assert.Empty(t, hotels)
	})

	t.Run("add and list ordered by hotel name", func(t *testing.T) {
		require.NoError(t, add(beira.ID, model.HotelRoleStaff))
		require.NoError(t, add(serra.ID, model.HotelRoleManager))

		hotels, err := repo.ListHotels(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, hotels, 2)
		assert.Equal(t, serra.ID, hotels[0].HotelID)
		assert.Equal(t, model.HotelRoleManager, hotels[0].Role)
		assert.Equal(t, beira.ID, hotels[1].HotelID)
		assert.JSONEq(t, `{"reservas":true}`, string(hotels[1].Permissions))

		detailed, err := repo.ListHotelsDetailed(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, detailed, 2)
		assert.Equal(t, serra.UUID, detailed[0].HotelUUID)
		assert.True(t, detailed[0].HotelActive)
	})

	t.Run("active duplicate", func(t *testing.T) {
		err := add(beira.ID, model.HotelRoleOwner)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrDuplicate))
	})

	t.Run("unknown hotel", func(t *testing.T) {
		err := add(serra.ID+50, model.HotelRoleStaff)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		found, err := repo.FindHotelByID(ctx, serra.ID+50)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("remove is soft and idempotent", func(t *testing.T) {
		require.NoError(t, repo.RemoveMembership(ctx, user.ID, beira.ID))
		require.NoError(t, repo.RemoveMembership(ctx, user.ID, beira.ID))

		hotels, err := repo.ListHotels(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, hotels, 1)
		assert.Equal(t, serra.ID, hotels[0].HotelID)
	})

	t.Run("re-adding reactivates", func(t *testing.T) {
		require.NoError(t, add(beira.ID, model.HotelRoleOwner))

		hotels, err := repo.ListHotels(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, hotels, 2)
		assert.Equal(t, model.HotelRoleOwner, hotels[1].Role)
	})

	t.Run("workspaces follow active memberships", func(t *testing.T) {
		db := testutils.NewTestDB(t)
		wsRepo := database.NewUserRepository(db, testutils.TestLogger(t), 0)
		member := createUser(t, wsRepo, "ws@hotel.com", model.RoleHotel, true)
		hotel := createHotel(t, wsRepo, "Pousada")

		require.NoError(t, db.Create(&model.Workspace{UUID: "ws-1", HotelID: hotel.ID, Name: "Recepção", Active: true}).Error)
		require.NoError(t, wsRepo.AddMembership(ctx, &model.UserHotel{
			UserID: member.ID, HotelID: hotel.ID, Role: model.HotelRoleStaff,
			Permissions: datatypes.JSON(`{}`), Active: true, JoinedAt: time.Now(),
		}))

		workspaces, err := wsRepo.ListWorkspaces(ctx, member.ID)
		require.NoError(t, err)
		require.Len(t, workspaces, 1)
		assert.Equal(t, "Pousada", workspaces[0].HotelName)

		require.NoError(t, wsRepo.RemoveMembership(ctx, member.ID, hotel.ID))

		workspaces, err = wsRepo.ListWorkspaces(ctx, member.ID)
		require.NoError(t, err)
		assert.Empty(t, workspaces)
	})
}

func TestUserRepository_DeleteRemovesDependents(t *testing.T) {
	repo := newRepository(t)
	user := createUser(t, repo, "bye@hotel.com", model.RoleHotel, true)
	hotel := createHotel(t, repo, "Centro")

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	require.NoError(t, repo.ReplacePermissions(ctx, user.ID, []string{"view_pms"}))
	require.NoError(t, repo.AddMembership(ctx, &model.UserHotel{
		UserID: user.ID, HotelID: hotel.ID, Role: model.HotelRoleStaff,
		Permissions: datatypes.JSON(`{}`), Active: true, JoinedAt: time.Now(),
	}))

	require.NoError(t, repo.Delete(ctx, user.ID))

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	permissions, err := repo.ListPermissions(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, permissions)

	hotels, err := repo.ListHotels(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, hotels)
}
