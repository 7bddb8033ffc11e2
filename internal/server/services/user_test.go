package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ddanilenko/famledger/internal/common"
	"github.com/ddanilenko/famledger/internal/dbx"
	"github.com/ddanilenko/famledger/internal/server/auth"
	"github.com/ddanilenko/famledger/internal/server/config"
	"github.com/ddanilenko/famledger/internal/server/models"
	"github.com/ddanilenko/famledger/internal/server/repositories/users"
	syncsvc "github.com/ddanilenko/famledger/internal/server/sync"
)

type fakeUsersRepo struct {
	byEmail map[string]*models.User
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byEmail: map[string]*models.User{}}
}

func (r *fakeUsersRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	if _, ok := r.byEmail[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	u := *user
	u.CreatedAt = time.Now().UTC()
	r.byEmail[u.Email] = &u
	return &u, nil
}

func (r *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fakeRepoManager struct {
	users *fakeUsersRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.users }
func (m *fakeRepoManager) UnitOfWork(*sql.DB) syncsvc.UnitOfWork        { return nil }

func newTestUserService() (*UserService, *fakeUsersRepo) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	repo := newFakeUsersRepo()
	return NewUserService(nil, &fakeRepoManager{users: repo}, cfg), repo
}

func TestRegister(t *testing.T) {
	svc, repo := newTestUserService()

	user, token, err := svc.Register(context.Background(), "Anna@Example.com", "correcthorse", "Anna")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Email is normalized, ids are fresh uuids, each signup opens its own
	// family scope.
	require.Equal(t, "anna@example.com", user.Email)
	require.NoError(t, uuid.Validate(user.ID))
	require.NoError(t, uuid.Validate(user.FamilyID))

	require.NoError(t, bcrypt.CompareHashAndPassword(user.PasswordHash, []byte("correcthorse")))

	claims, err := auth.ParseToken(token, []byte(svc.config.SecretKey))
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, user.FamilyID, claims.FamilyID)

	_, ok := repo.byEmail["anna@example.com"]
	require.True(t, ok)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestUserService()

	_, _, err := svc.Register(context.Background(), "not-an-email", "correcthorse", "Anna")
	require.ErrorIs(t, err, common.ErrorValidation)

	_, _, err = svc.Register(context.Background(), "anna@example.com", "short", "Anna")
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestUserService()

	_, _, err := svc.Register(context.Background(), "anna@example.com", "correcthorse", "Anna")
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), "anna@example.com", "correcthorse", "Anna")
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestUserService()

	user, _, err := svc.Register(context.Background(), "anna@example.com", "correcthorse", "Anna")
	require.NoError(t, err)

	token, err := svc.Login(context.Background(), "ANNA@example.com", "correcthorse")
	require.NoError(t, err)

	claims, err := auth.ParseToken(token, []byte(svc.config.SecretKey))
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestUserService()

	_, _, err := svc.Register(context.Background(), "anna@example.com", "correcthorse", "Anna")
	require.NoError(t, err)

	// Unknown email and wrong password fail identically.
	_, err = svc.Login(context.Background(), "nobody@example.com", "correcthorse")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = svc.Login(context.Background(), "anna@example.com", "wrongwrong")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}
