package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/opmecontrol/opme_backend/internal/apperrors"
	"github.com/opmecontrol/opme_backend/internal/core/domain"
	portsrepo "github.com/opmecontrol/opme_backend/internal/core/ports/repositories"
	"github.com/opmecontrol/opme_backend/internal/core/services"
	"github.com/opmecontrol/opme_backend/internal/dto"
	"github.com/opmecontrol/opme_backend/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mock UserRepository ---
type MockUserRepository struct {
	mock.Mock
}

var _ portsrepo.UserRepositoryFacade = (*MockUserRepository)(nil)

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUsers(ctx context.Context, limit int, offset int) ([]domain.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) MarkUserDeleted(ctx context.Context, userID string, deletedAt time.Time, deletedBy string) error {
	args := m.Called(ctx, userID, deletedAt, deletedBy)
	return args.Error(0)
}

func TestRegisterUserHashesPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := services.NewUserService(mockRepo)
	ctx := context.Background()

	var saved domain.User
	mockRepo.On("SaveUser", ctx, mock.AnythingOfType("domain.User")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(domain.User)
		}).Return(nil).Once()

	user, err := svc.RegisterUser(ctx, dto.RegisterUserRequest{
		Username: "operator",
		Email:    "operator@example.com",
		Password: "s3cret-password",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, user.UserID)
	assert.NotEqual(t, "s3cret-password", saved.PasswordHash)
	assert.True(t, utils.CheckPasswordHash("s3cret-password", saved.PasswordHash))
	assert.Equal(t, saved.UserID, saved.CreatedBy, "self registration audits itself")
	mockRepo.AssertExpectations(t)
}

func TestRegisterUserDuplicate(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := services.NewUserService(mockRepo)
	ctx := context.Background()

	mockRepo.On("SaveUser", ctx, mock.Anything).
		Return(apperrors.NewConflictError("username or email already taken")).Once()

	_, err := svc.RegisterUser(ctx, dto.RegisterUserRequest{
		Username: "operator",
		Email:    "operator@example.com",
		Password: "s3cret-password",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

func TestAuthenticateUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := services.NewUserService(mockRepo)
	ctx := context.Background()

	hash, err := utils.HashPassword("correct-password")
	require.NoError(t, err)
	stored := &domain.User{UserID: uuid.NewString(), Username: "operator", PasswordHash: hash}

	mockRepo.On("FindUserByUsername", ctx, "operator").Return(stored, nil)
	mockRepo.On("FindUserByUsername", ctx, "ghost").Return(nil, apperrors.ErrNotFound)

	user, err := svc.AuthenticateUser(ctx, "operator", "correct-password")
	require.NoError(t, err)
	assert.Equal(t, stored.UserID, user.UserID)

	_, err = svc.AuthenticateUser(ctx, "operator", "wrong-password")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	// Unknown users fail identically to wrong passwords.
	_, err = svc.AuthenticateUser(ctx, "ghost", "whatever")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestUpdateUserChangesEmailOnly(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := services.NewUserService(mockRepo)
	ctx := context.Background()

	userID := uuid.NewString()
	existing := &domain.User{UserID: userID, Username: "operator", Email: "old@example.com"}
	mockRepo.On("FindUserByID", ctx, userID).Return(existing, nil).Once()
	mockRepo.On("UpdateUser", ctx, mock.MatchedBy(func(u domain.User) bool {
		return u.Email == "new@example.com" && u.Username == "operator" && u.LastUpdatedBy == userID
	})).Return(nil).Once()

	newEmail := "new@example.com"
	updated, err := svc.UpdateUser(ctx, userID, dto.UpdateUserRequest{Email: &newEmail}, userID)

	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)
	mockRepo.AssertExpectations(t)
}

func TestListUsersDefaultsLimit(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := services.NewUserService(mockRepo)
	ctx := context.Background()

	mockRepo.On("FindUsers", ctx, 20, 0).Return([]domain.User{}, nil).Once()

	_, err := svc.ListUsers(ctx, 0, -3)
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
