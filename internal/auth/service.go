package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials hides whether the username or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrInvalidUsername is returned when the trimmed username is out of bounds.
var ErrInvalidUsername = errors.New("username must be 3 to 64 characters")

const (
	minUsernameLength = 3
	maxUsernameLength = 64
)

// Service registers users, issues tokens and seeds the admin account.
type Service struct {
	store    Store
	tokens   *TokenManager
	logger   *zap.Logger
	hashCost int
}

func NewService(store Store, tokens *TokenManager, logger *zap.Logger) *Service {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &Service{
		store:    store,
		tokens:   tokens,
		logger:   logger,
		hashCost: bcrypt.DefaultCost,
	}
}

// Register creates an account holding the user role.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	username := strings.TrimSpace(req.Username)
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return nil, ErrInvalidUsername
	}

	user, err := s.createUser(ctx, username, strings.TrimSpace(req.Email), req.Password, RoleUser)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login checks the credentials and issues a token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.store.FindUserByUsername(ctx, strings.TrimSpace(req.Username))
	if errors.Is(err, ErrUserNotFound) {
		s.logger.Warn("login for unknown user", zap.String("username", req.Username))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login with wrong password", zap.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return &LoginResponse{Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate resolves a bearer token into the principal of the request carrying it.
func (s *Service) Authenticate(token string) (*Principal, error) {
	return s.tokens.Validate(token)
}

// SeedAdmin makes sure the admin role exists and the admin account exists
// holding it. An existing account keeps its password and other roles.
func (s *Service) SeedAdmin(ctx context.Context, admin AdminAccount) error {
	if err := s.ensureRole(ctx, RoleAdmin); err != nil {
		return err
	}

	existing, err := s.store.FindUserByUsername(ctx, admin.Username)
	if err == nil {
		if slices.Contains(existing.RoleNames(), RoleAdmin) {
			s.logger.Debug("admin user already present", zap.String("username", admin.Username))
			return nil
		}
		if err := s.store.AddUserToRole(ctx, existing.ID, RoleAdmin); err != nil {
			return fmt.Errorf("grant admin role: %w", err)
		}
		s.logger.Warn("existing user promoted to admin", zap.String("user_id", existing.ID), zap.String("username", existing.Username))
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("find admin user: %w", err)
	}

	user, err := s.createUser(ctx, admin.Username, admin.Email, admin.Password, RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to create the admin user: %w", err)
	}

	s.logger.Info("admin user seeded", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return nil
}

func (s *Service) ensureRole(ctx context.Context, name string) error {
	exists, err := s.store.RoleExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check role %q: %w", name, err)
	}
	if exists {
		return nil
	}
	if err := s.store.CreateRole(ctx, name); err != nil {
		return fmt.Errorf("create role %q: %w", name, err)
	}
	s.logger.Info("role created", zap.String("role", name))
	return nil
}

func (s *Service) createUser(ctx context.Context, username, email, password, role string) (*User, error) {
	if err := s.ensureRole(ctx, role); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user, role); err != nil {
		return nil, err
	}
	return user, nil
}
