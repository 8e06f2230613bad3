package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"healthinsure/internal/domain"
	"healthinsure/internal/testutil"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type stubIssuer struct{}

func (stubIssuer) GenerateToken(userID int64, role string) (string, error) {
	return "token-" + role, nil
}

func newService(repo *mockUserRepo) *Service {
	return NewService(repo, stubIssuer{}, time.Hour, testutil.Logger())
}

func TestRegister_CreatesPolicyHolder(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("ExistsByEmail", mock.Anything, "jane@example.com").Return(false, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Role == domain.RolePolicyHolder && u.Email == "jane@example.com" && u.IsActive
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.User).ID = 10
	}).Return(nil)

	user, err := newService(repo).Register(context.Background(), RegisterRequest{
		Name:     "Jane",
		Email:    "  Jane@Example.com ",
		Password: "password123",
	})

	require.NoError(t, err)
	assert.EqualValues(t, 10, user.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
	repo.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("ExistsByEmail", mock.Anything, "jane@example.com").Return(true, nil)

	_, err := newService(repo).Register(context.Background(), RegisterRequest{
		Name: "Jane", Email: "jane@example.com", Password: "password123",
	})

	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLogin(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	require.NoError(t, err)

	active := &domain.User{ID: 3, Email: "officer@example.com", PasswordHash: hash, Role: domain.RoleClaimsOfficer, IsActive: true}
	disabled := &domain.User{ID: 4, Email: "old@example.com", PasswordHash: hash, Role: domain.RolePolicyHolder}

	repo := new(mockUserRepo)
	repo.On("GetByEmail", mock.Anything, "officer@example.com").Return(active, nil)
	repo.On("GetByEmail", mock.Anything, "old@example.com").Return(disabled, nil)
	repo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)
	svc := newService(repo)

	res, err := svc.Login(context.Background(), LoginRequest{Email: "Officer@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "token-claims_officer", res.AccessToken)
	assert.EqualValues(t, 3600, res.ExpiresIn)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "officer@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "old@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestMe_UnknownUser(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("GetByID", mock.Anything, int64(99)).Return(nil, gorm.ErrRecordNotFound)

	_, err := newService(repo).Me(context.Background(), 99)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
