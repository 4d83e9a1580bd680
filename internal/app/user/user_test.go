package user_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/adapter/database"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/app/user"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/domain/model"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/mocks"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/testutils"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/cache"
	apperrors "github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	svc   *user.Service
	store *cache.Store
}

func newFixture(t *testing.T) *fixture {
	logger := testutils.TestLogger(t)
	db := testutils.NewTestDB(t)
	repo := database.NewUserRepository(db, logger, 5*time.Second)
	local := cache.NewMemoryCache(5*time.Minute, 5*time.Minute, nil, logger)
	store := cache.NewStore(nil, local, logger)

	return &fixture{
		db:    db,
		svc:   user.NewService(repo, store, logger, user.WithBcryptCost(user.MinBcryptCost)),
		store: store,
	}
}

func (f *fixture) createUser(t *testing.T, email string) *user.User {
	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	u := f.svc.New("Usuário", email, model.RoleHotel)
	require.NoError(t, u.SetPassword("senha-inicial"))
	require.NoError(t, u.Save(ctx))
	return u
}

func (f *fixture) createHotel(t *testing.T, id uint, name string) {
	require.NoError(t, f.db.Create(&model.Hotel{ID: id, UUID: name + "-uuid", Name: name, Active: true}).Error)
}

func hotelIDs(hotels []model.HotelSummary) []uint {
	ids := make([]uint, 0, len(hotels))
	for _, h := range hotels {
		ids = append(ids, h.HotelID)
	}
	return ids
}

func TestUser_PasswordRoundTrip(t *testing.T) {
	f := newFixture(t)
	u := f.svc.New("Ana", "ana@hotel.com", model.RoleHotel)

	for _, plaintext := range []string{"a", "senha123", "çãõ-ünicode", "senha com espaços"} {
		require.NoError(t, u.SetPassword(plaintext))
		assert.True(t, u.ValidatePassword(plaintext))
		assert.False(t, u.ValidatePassword(plaintext+"x"))
	}

	assert.Error(t, u.SetPassword(""))
}

func TestUser_ValidatePasswordWithoutHash(t *testing.T) {
	f := newFixture(t)
	u := f.svc.New("Ana", "ana@hotel.com", model.RoleHotel)

	assert.False(t, u.ValidatePassword(""))
	assert.False(t, u.CanAuthenticate())
}

func TestUser_Save(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	t.Run("insert assigns identity", func(t *testing.T) {
		u := f.svc.New("Bruno", "bruno@hotel.com", model.RoleAdmin)
		require.False(t, u.HasIdentity())

		require.NoError(t, u.Save(ctx))
		assert.True(t, u.HasIdentity())
		assert.Len(t, u.UUID, 36)
		assert.False(t, u.CreatedAt.IsZero())
	})

	t.Run("update never changes identity", func(t *testing.T) {
		u := f.svc.New("Clara", "clara@hotel.com", model.RoleHotel)
		require.NoError(t, u.Save(ctx))
		id, uid := u.ID, u.UUID

		u.Name = "Clara Lima"
		u.Active = false
		require.NoError(t, u.Save(ctx))

		found, err := f.svc.FindByUUID(ctx, uid)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, id, found.ID)
		assert.Equal(t, "Clara Lima", found.Name)
		assert.False(t, found.Active)
	})

	t.Run("password persisted on save", func(t *testing.T) {
		u := f.svc.New("Davi", "davi@hotel.com", model.RoleHotel)
		require.NoError(t, u.SetPassword("segredo"))
		require.NoError(t, u.Save(ctx))

		found, err := f.svc.FindByEmail(ctx, "davi@hotel.com")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.True(t, found.ValidatePassword("segredo"))
		assert.True(t, found.CanAuthenticate())
	})

	t.Run("invalid role", func(t *testing.T) {
		u := f.svc.New("Eva", "eva@hotel.com", model.Role("GUEST"))
		err := u.Save(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrBadRequest))
		assert.False(t, u.HasIdentity())
	})

	t.Run("duplicate email propagates", func(t *testing.T) {
		u := f.svc.New("Outro Bruno", "bruno@hotel.com", model.RoleHotel)
		assert.Error(t, u.Save(ctx))
	})
}

func TestService_FindAbsent(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	u, err := f.svc.FindByID(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = f.svc.FindByUUID(ctx, "nao-existe")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUser_Delete(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	t.Run("requires identity", func(t *testing.T) {
		u := f.svc.New("Sem Id", "semid@hotel.com", model.RoleHotel)
		err := u.Delete(ctx)
		testutils.CheckError(t, err, "usuário sem identidade")
		assert.True(t, errors.Is(err, apperrors.ErrPrecondition))

		var precondition *apperrors.PreconditionError
		assert.True(t, errors.As(err, &precondition))
	})

	t.Run("removes row and cached views", func(t *testing.T) {
		u := f.createUser(t, "remover@hotel.com")
		f.createHotel(t, 3, "Hotel Três")
		require.NoError(t, u.AddToHotel(ctx, 3, "", nil))

		_, err := u.GetHotels(ctx, true)
		require.NoError(t, err)
		f.store.Set(ctx, "hotel:3:staff", []uint{u.ID}, time.Minute)
		f.store.Set(ctx, "hotel:4:staff", []uint{99}, time.Minute)

		require.NoError(t, u.Delete(ctx))

		found, err := f.svc.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Nil(t, found)

		var cached []model.HotelSummary
		assert.False(t, f.store.Get(ctx, fmt.Sprintf("user:%d:hotels", u.ID), &cached))

		var staff []uint
		assert.False(t, f.store.Get(ctx, "hotel:3:staff", &staff))
		assert.True(t, f.store.Get(ctx, "hotel:4:staff", &staff))
	})

	t.Run("membership read failure aborts delete", func(t *testing.T) {
		mockRepo := new(mocks.MockUserRepository)
		svc := user.NewService(mockRepo, f.store, testutils.TestLogger(t))

		dbErr := errors.New("connection reset by peer")
		mockRepo.On("FindByID", mock.Anything, uint(42)).Return(&model.UserEntity{ID: 42, UUID: "u-42", Email: "x@hotel.com"}, nil).Once()
		mockRepo.On("ListHotels", mock.Anything, uint(42)).Return(nil, dbErr).Once()

		u, err := svc.FindByID(ctx, 42)
		require.NoError(t, err)

		assert.ErrorIs(t, u.Delete(ctx), dbErr)
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

// Cenário: permissões ["view_pms"] substituídas por ["view_pms","view_pms_calendar"]
func TestUser_SetPermissionsReplacesSet(t *testing.T) {
	f := newFixture(t)
	u := f.createUser(t, "perm@hotel.com")

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	require.NoError(t, u.SetPermissions(ctx, []string{"view_pms"}))
	require.NoError(t, u.SetPermissions(ctx, []string{"view_pms", "view_pms_calendar"}))

	assert.ElementsMatch(t, []string{"view_pms", "view_pms_calendar"}, u.GetPermissions(ctx))

	require.NoError(t, u.SetPermissions(ctx, []string{}))
	assert.Equal(t, []string{}, u.GetPermissions(ctx))
}

func TestUser_SetPermissionsRollback(t *testing.T) {
	f := newFixture(t)
	u := f.createUser(t, "rollback@hotel.com")

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	require.NoError(t, u.SetPermissions(ctx, []string{"view_pms", "edit_rates"}))

	err := u.SetPermissions(ctx, []string{"view_reports", ""})
	require.Error(t, err)

	assert.ElementsMatch(t, []string{"view_pms", "edit_rates"}, u.GetPermissions(ctx))
}

func TestUser_SetPermissionsInvalidatesLazyPermissions(t *testing.T) {
	f := newFixture(t)
	u := f.createUser(t, "lazy@hotel.com")

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	require.NoError(t, u.SetPermissions(ctx, []string{"view_pms"}))

	loaded, err := u.LoadPermissionsDetailed(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	require.NoError(t, u.SetPermissions(ctx, []string{"view_pms", "edit_rates"}))

	fresh, err := f.svc.FindByID(ctx, u.ID)
	require.NoError(t, err)

	reloaded, err := fresh.LoadPermissionsDetailed(ctx)
	require.NoError(t, err)
	assert.Len(t, reloaded, 2)

	reloaded, err = u.LoadPermissionsDetailed(ctx)
	require.NoError(t, err)
	assert.Len(t, reloaded, 2)
}

func TestUser_GetPermissionsFailsOpen(t *testing.T) {
	logger := testutils.TestLogger(t)
	mockRepo := new(mocks.MockUserRepository)
	mockStore := new(mocks.MockStore)
	svc := user.NewService(mockRepo, mockStore, logger)

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	mockRepo.On("FindByID", mock.Anything, uint(5)).
		Return(&model.UserEntity{ID: 5, UUID: "u-5", UserType: model.RoleHotel, Active: true}, nil).Once()
	mockRepo.On("ListPermissions", mock.Anything, uint(5)).
		Return(nil, errors.New("connection reset")).Once()

	u, err := svc.FindByID(ctx, 5)
	require.NoError(t, err)

	permissions := u.GetPermissions(ctx)
	assert.NotNil(t, permissions)
	assert.Empty(t, permissions)
	mockRepo.AssertExpectations(t)
}

func TestUser_SetPermissionsPropagatesError(t *testing.T) {
	logger := testutils.TestLogger(t)
	mockRepo := new(mocks.MockUserRepository)
	mockStore := new(mocks.MockStore)
	svc := user.NewService(mockRepo, mockStore, logger)

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	expectedError := errors.New("deadlock detected")

	mockRepo.On("FindByID", mock.Anything, uint(8)).
		Return(&model.UserEntity{ID: 8, UUID: "u-8", UserType: model.RoleHotel}, nil).Once()
	mockRepo.On("ReplacePermissions", mock.Anything, uint(8), []string{"a"}).
		Return(expectedError).Once()

	u, err := svc.FindByID(ctx, 8)
	require.NoError(t, err)

	err = u.SetPermissions(ctx, []string{"a"})
	assert.Equal(t, expectedError, err)
	mockStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestUser_MembershipInvalidation(t *testing.T) {
	logger := testutils.TestLogger(t)

	t.Run("invalidates user and hotel prefixes after the write", func(t *testing.T) {
		mockRepo := new(mocks.MockUserRepository)
		mockStore := new(mocks.MockStore)
		svc := user.NewService(mockRepo, mockStore, logger)

		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		mockRepo.On("FindByID", mock.Anything, uint(1)).
			Return(&model.UserEntity{ID: 1, UUID: "u-1", UserType: model.RoleHotel}, nil).Once()
		mockRepo.On("AddMembership", mock.Anything, mock.MatchedBy(func(m *model.UserHotel) bool {
			return m.UserID == 1 && m.HotelID == 7 && m.Role == model.HotelRoleStaff &&
				string(m.Permissions) == "{}" && m.Active
		})).Return(nil).Once()
		mockStore.On("DeleteByPattern", mock.Anything, "user:1:*").Once()
		mockStore.On("DeleteByPattern", mock.Anything, "hotel:7:*").Once()

		u, err := svc.FindByID(ctx, 1)
		require.NoError(t, err)

		require.NoError(t, u.AddToHotel(ctx, 7, "", nil))
		mockRepo.AssertExpectations(t)
		mockStore.AssertExpectations(t)
	})

	t.Run("failed write skips invalidation", func(t *testing.T) {
		mockRepo := new(mocks.MockUserRepository)
		mockStore := new(mocks.MockStore)
		svc := user.NewService(mockRepo, mockStore, logger)

		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		expectedError := apperrors.ErrDuplicate

		mockRepo.On("FindByID", mock.Anything, uint(1)).
			Return(&model.UserEntity{ID: 1, UUID: "u-1", UserType: model.RoleHotel}, nil).Once()
		mockRepo.On("RemoveMembership", mock.Anything, uint(1), uint(7)).
			Return(expectedError).Once()

		u, err := svc.FindByID(ctx, 1)
		require.NoError(t, err)

		err = u.RemoveFromHotel(ctx, 7)
		assert.ErrorIs(t, err, expectedError)
		mockStore.AssertNotCalled(t, "DeleteByPattern", mock.Anything, mock.Anything)
	})

	t.Run("invalid membership permissions", func(t *testing.T) {
		mockRepo := new(mocks.MockUserRepository)
		svc := user.NewService(mockRepo, new(mocks.MockStore), logger)

		ctx, cancel := testutils.ContextWithTimeout(t)
		defer cancel()

		mockRepo.On("FindByID", mock.Anything, uint(1)).
			Return(&model.UserEntity{ID: 1, UUID: "u-1", UserType: model.RoleHotel}, nil).Once()

		u, err := svc.FindByID(ctx, 1)
		require.NoError(t, err)

		err = u.AddToHotel(ctx, 7, model.HotelRoleManager, json.RawMessage(`{"reservas":`))
		assert.ErrorIs(t, err, apperrors.ErrBadRequest)
		mockRepo.AssertNotCalled(t, "AddMembership", mock.Anything, mock.Anything)
	})
}

// Cenário: sem vínculos, GetHotels é vazio; depois de AddToHotel(7) retorna só o hotel 7
func TestUser_GetHotelsAfterAddToHotel(t *testing.T) {
	f := newFixture(t)
	f.createHotel(t, 7, "Hotel Sete")
	u := f.createUser(t, "sete@hotel.com")

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	hotels, err := u.GetHotels(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, hotels)

	require.NoError(t, u.AddToHotel(ctx, 7, model.HotelRoleStaff, nil))

	hotels, err = u.GetHotels(ctx, true)
	require.NoError(t, err)
	require.Len(t, hotels, 1)
	assert.Equal(t, uint(7), hotels[0].HotelID)
}

func TestUser_GetHotelsColdCacheMatchesDatabase(t *testing.T) {
	f := newFixture(t)
	f.createHotel(t, 1, "Hotel Um")
	f.createHotel(t, 2, "Hotel Dois")
	u := f.createUser(t, "frio@hotel.com")

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	require.NoError(t, u.AddToHotel(ctx, 1, model.HotelRoleOwner, json.RawMessage(`{"financeiro":true}`)))
	require.NoError(t, u.AddToHotel(ctx, 2, model.HotelRoleStaff, nil))

	fromCache, err := u.GetHotels(ctx, true)
	require.NoError(t, err)

	fromDatabase, err := u.GetHotels(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, fromDatabase, fromCache)

	warm, err := u.GetHotels(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, hotelIDs(fromDatabase), hotelIDs(warm))
}

func TestUser_MembershipChangesVisibleThroughCache(t *testing.T) {
	f := newFixture(t)
	f.createHotel(t, 10, "Alfa")
	f.createHotel(t, 11, "Beta")
	u := f.createUser(t, "cache@hotel.com")

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	require.NoError(t, u.AddToHotel(ctx, 10, "", nil))

	hotels, err := u.GetHotels(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []uint{10}, hotelIDs(hotels))

	require.NoError(t, u.AddToHotel(ctx, 11, "", nil))

	hotels, err = u.GetHotels(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []uint{10, 11}, hotelIDs(hotels))

	require.NoError(t, u.RemoveFromHotel(ctx, 10))

	hotels, err = u.GetHotels(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []uint{11}, hotelIDs(hotels))

	// Uma segunda instância do mesmo usuário também enxerga o estado novo
	other, err := f.svc.FindByID(ctx, u.ID)
	require.NoError(t, err)

	detailed, err := other.LoadHotelsDetailed(ctx)
	require.NoError(t, err)
	require.Len(t, detailed, 1)
	assert.Equal(t, uint(11), detailed[0].HotelID)
}

func TestUser_LazyLoadersMemoize(t *testing.T) {
	logger := testutils.TestLogger(t)
	mockRepo := new(mocks.MockUserRepository)
	local := cache.NewMemoryCache(5*time.Minute, 5*time.Minute, nil, logger)
	store := cache.NewStore(nil, local, logger)
	svc := user.NewService(mockRepo, store, logger)

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	entity := &model.UserEntity{ID: 3, UUID: "u-3", UserType: model.RoleHotel}
	mockRepo.On("FindByID", mock.Anything, uint(3)).Return(entity, nil).Twice()
	mockRepo.On("ListWorkspaces", mock.Anything, uint(3)).
		Return([]model.WorkspaceSummary{{ID: 1, UUID: "ws-1", HotelID: 9, HotelName: "Nove", Name: "Recepção", Active: true}}, nil).
		Once()

	u, err := svc.FindByID(ctx, 3)
	require.NoError(t, err)

	first, err := u.LoadWorkspaces(ctx)
	require.NoError(t, err)
	second, err := u.LoadWorkspaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Nova instância lê do cache compartilhado
	other, err := svc.FindByID(ctx, 3)
	require.NoError(t, err)

	fromCache, err := other.LoadWorkspaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, fromCache)

	mockRepo.AssertNumberOfCalls(t, "ListWorkspaces", 1)
}

func TestUser_LazyLoaderPropagatesError(t *testing.T) {
	logger := testutils.TestLogger(t)
	mockRepo := new(mocks.MockUserRepository)
	mockStore := new(mocks.MockStore)
	svc := user.NewService(mockRepo, mockStore, logger)

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	expectedError := errors.New("query timeout")

	mockRepo.On("FindByID", mock.Anything, uint(4)).
		Return(&model.UserEntity{ID: 4, UUID: "u-4", UserType: model.RoleHotel}, nil).Once()
	mockStore.On("Get", mock.Anything, "user:4:hotels:lazy", mock.AnythingOfType("*[]model.HotelDetail")).
		Return(false).Once()
	mockRepo.On("ListHotelsDetailed", mock.Anything, uint(4)).Return(nil, expectedError).Once()

	u, err := svc.FindByID(ctx, 4)
	require.NoError(t, err)

	hotels, err := u.LoadHotelsDetailed(ctx)
	assert.Equal(t, expectedError, err)
	assert.Nil(t, hotels)
	mockStore.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUser_MarshalJSON(t *testing.T) {
	f := newFixture(t)
	u := f.createUser(t, "json@hotel.com")

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	found, err := f.svc.FindByID(ctx, u.ID)
	require.NoError(t, err)

	t.Run("never exposes the password hash", func(t *testing.T) {
		data, err := found.ToJSON()
		require.NoError(t, err)

		body := string(data)
		assert.NotContains(t, body, "$2a$")
		assert.NotContains(t, body, "password")
		assert.Contains(t, body, `"email":"json@hotel.com"`)
	})

	t.Run("omits relationships not loaded", func(t *testing.T) {
		var out map[string]interface{}
		data, err := json.Marshal(found)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &out))

		assert.NotContains(t, out, "hotels")
		assert.NotContains(t, out, "workspaces")
		assert.NotContains(t, out, "permissions")
	})

	t.Run("includes loaded relationships", func(t *testing.T) {
		require.NoError(t, found.SetPermissions(ctx, []string{"view_pms"}))
		_, err := found.LoadPermissionsDetailed(ctx)
		require.NoError(t, err)
		_, err = found.LoadWorkspaces(ctx)
		require.NoError(t, err)

		var out map[string]interface{}
		data, err := json.Marshal(found)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &out))

		assert.Contains(t, out, "permissions")
		assert.Contains(t, out, "workspaces")
		assert.Equal(t, []interface{}{}, out["workspaces"])
		assert.NotContains(t, out, "hotels")
	})
}
