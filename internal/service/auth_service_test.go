package service

import (
	"context"
	"testing"
	"time"

	"facturo/internal/dto"
	"facturo/internal/models"
	"facturo/pkg/auth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUsers struct {
	users map[uuid.UUID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return f.users[id], nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func newAuthService(users *fakeUsers) *AuthService {
	jwtManager := auth.NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)
	return NewAuthService(users, jwtManager, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	users := newFakeUsers()
	svc := newAuthService(users)

	registered, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Username: "operator",
		Email:    "operator@facturo.local",
		Password: "changeme-now",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.AccessToken)
	assert.NotEmpty(t, registered.RefreshToken)
	assert.Equal(t, "Bearer", registered.TokenType)
	assert.Equal(t, "operator", registered.User.Username)

	loggedIn, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "operator@facturo.local",
		Password: "changeme-now",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuthService(newFakeUsers())

	req := &dto.RegisterRequest{Username: "operator", Email: "operator@facturo.local", Password: "changeme-now"}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newAuthService(newFakeUsers())

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Username: "operator",
		Email:    "operator@facturo.local",
		Password: "changeme-now",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "operator@facturo.local",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "unknown@facturo.local",
		Password: "changeme-now",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshToken(t *testing.T) {
	svc := newAuthService(newFakeUsers())

	registered, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Username: "operator",
		Email:    "operator@facturo.local",
		Password: "changeme-now",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), registered.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, refreshed.User.ID)

	_, err = svc.RefreshToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
