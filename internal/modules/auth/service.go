package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"healthinsure/internal/domain"
	"healthinsure/internal/repository"
)

// Service registers policy holders and issues access tokens.
type Service struct {
	users UserRepository
	jwt   TokenIssuer
	ttl   time.Duration
	log   *logrus.Logger
}

type LoginResult struct {
	User        *domain.User
	AccessToken string
	ExpiresIn   int64
}

func NewService(users UserRepository, jwt TokenIssuer, ttl time.Duration, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{users: users, jwt: jwt, ttl: ttl, log: log}
}

// Register creates a policy holder account. Staff roles are provisioned out of band.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	email := normalizeEmail(req.Email)
	if err := s.validateEmailUnique(ctx, email); err != nil {
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Phone:        req.Phone,
		Role:         domain.RolePolicyHolder,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("policy holder registered")
	return user, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	token, err := s.jwt.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &LoginResult{User: user, AccessToken: token, ExpiresIn: int64(s.ttl.Seconds())}, nil
}

func (s *Service) Me(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *Service) validateEmailUnique(ctx context.Context, email string) error {
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if exists {
		return ErrEmailAlreadyExists
	}
	return nil
}

// HashPassword bcrypt-hashes a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
