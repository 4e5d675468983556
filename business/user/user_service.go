package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"insuranceInsights/domain"
	"insuranceInsights/pkg/logger"
	"insuranceInsights/pkg/metrics"
	"insuranceInsights/pkg/utils"

	"github.com/go-playground/validator/v10"
)

// UserRepository contract interface
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByUsername(ctx context.Context, username string) (domain.User, error)
	Count(ctx context.Context) (int64, error)
}

// TokenRepository contract interface
type TokenRepository interface {
	StoreToken(ctx context.Context, data domain.TokenRecord, ttl time.Duration) error
	ValidateToken(ctx context.Context, tokenID string) (*domain.TokenRecord, error)
	RevokeToken(ctx context.Context, tokenID string) error
	RevokeUserTokens(ctx context.Context, userID string) error
}

type userService struct {
	userRepo  UserRepository
	tokenRepo TokenRepository
	jwt       *utils.JWTManager
	validate  *validator.Validate
}

func NewUserService(
	userRepo UserRepository,
	tokenRepo TokenRepository,
	jwt *utils.JWTManager,
	validate *validator.Validate,
) *userService {
	return &userService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwt:       jwt,
		validate:  validate,
	}
}

type CreateUserInput struct {
	Username string `validate:"required,alphanum,min=3,max=64"`
	Password string `validate:"required,min=8,max=72"`
	Role     string `validate:"required,oneof=viewer admin"`
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      domain.User `json:"user"`
}

func (s *userService) CreateUser(ctx context.Context, in CreateUserInput) (domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Role == "" {
		in.Role = domain.RoleViewer
	}

	if err := s.validate.Struct(in); err != nil {
		logger.Warn("invalid user input", "username", in.Username, "error", err)
		return domain.User{}, fmt.Errorf("invalid user: %w", err)
	}

	passwordHash, err := utils.HashPassword(in.Password)
	if err != nil {
		logger.Error("failed to hash password", "error", err)
		return domain.User{}, errors.New("failed to hash password")
	}

	user := domain.User{
		Username:     in.Username,
		PasswordHash: string(passwordHash),
		Role:         in.Role,
	}
	if err := s.userRepo.Create(ctx, &user); err != nil {
		logger.Error("failed to create user", "username", in.Username, "error", err)
		return domain.User{}, err
	}

	logger.Info("user created", "username", user.Username, "role", user.Role)
	return user, nil
}

// EnsureAdmin creates the first admin account when no user exists yet.
func (s *userService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	n, err := s.userRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil
	}

	_, err = s.CreateUser(ctx, CreateUserInput{Username: username, Password: password, Role: domain.RoleAdmin})
	return err
}

// Login returns the same error for unknown users and wrong passwords.
func (s *userService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("login for unknown user", "username", username)
			return nil, domain.ErrInvalidCredentials
		}
		logger.Error("failed to find user", "username", username, "error", err)
		return nil, err
	}

	if !utils.CheckPassword(password, user.PasswordHash) {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		logger.Warn("login with wrong password", "username", username)
		return nil, domain.ErrInvalidCredentials
	}

	userID := strconv.FormatUint(uint64(user.ID), 10)
	token, claims, err := s.jwt.Generate(userID, user.Role)
	if err != nil {
		logger.Error("failed to generate token", "error", err)
		return nil, errors.New("failed to generate token")
	}

	data := domain.TokenRecord{
		TokenID:   claims.ID,
		UserID:    userID,
		Username:  user.Username,
		Role:      user.Role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := s.tokenRepo.StoreToken(ctx, data, s.jwt.TTL()); err != nil {
		logger.Error("failed to register token", "error", err)
		return nil, err
	}

	metrics.LoginAttempts.WithLabelValues("accepted").Inc()
	return &LoginResult{Token: token, ExpiresAt: data.ExpiresAt, User: user}, nil
}

func (s *userService) Logout(ctx context.Context, tokenID string) error {
	if err := s.tokenRepo.RevokeToken(ctx, tokenID); err != nil {
		logger.Warn("logout failed", "error", err)
		return err
	}

	return nil
}

// Profile returns the account behind an authenticated user id.
func (s *userService) Profile(ctx context.Context, userID string) (domain.User, error) {
	id, err := strconv.ParseUint(userID, 10, 0)
	if err != nil {
		return domain.User{}, fmt.Errorf("user id %q: %w", userID, domain.ErrUnauthorized)
	}

	return s.userRepo.FindByID(ctx, uint(id))
}

// LogoutAll revokes every session of a user.
func (s *userService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.tokenRepo.RevokeUserTokens(ctx, userID); err != nil {
		logger.Warn("logout all failed", "user_id", userID, "error", err)
		return err
	}

	logger.Info("all sessions revoked", "user_id", userID)
	return nil
}

// ValidateToken parses a bearer token and checks it is still registered.
func (s *userService) ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	data, err := s.tokenRepo.ValidateToken(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if data.UserID != claims.UserID {
		return nil, fmt.Errorf("%w: token user mismatch", domain.ErrUnauthorized)
	}

	return claims, nil
}
