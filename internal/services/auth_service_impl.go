package services

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/ajharbinger/partnex-scoring/internal/auth"
	"github.com/ajharbinger/partnex-scoring/internal/errors"
	"github.com/ajharbinger/partnex-scoring/internal/logger"
	"github.com/ajharbinger/partnex-scoring/internal/models"
	"github.com/ajharbinger/partnex-scoring/internal/repository"
)

// authServiceImpl implements AuthService
type authServiceImpl struct {
	repos      *repository.Repositories
	jwtService *auth.JWTService
	logger     logger.Logger
}

// newAuthService creates a new auth service implementation
func newAuthService(repos *repository.Repositories, jwtService *auth.JWTService, log logger.Logger) AuthService {
	return &authServiceImpl{
		repos:      repos,
		jwtService: jwtService,
		logger:     log,
	}
}

// Register creates a new user account and signs a token for it
func (s *authServiceImpl) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	email := auth.NormalizeEmail(req.Email)
	role := strings.ToLower(strings.TrimSpace(req.Role))

	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if msg := auth.ValidatePassword(req.Password); msg != "" {
		return nil, errors.ValidationError(msg, nil)
	}
	if role == "" {
		return nil, errors.ValidationError("Role is required", nil)
	}
	if !models.ValidRole(role) {
		return nil, errors.ValidationError("role must be sme, investor, or admin", nil)
	}

	if _, err := s.repos.User.GetByEmail(ctx, email); err == nil {
		return nil, errors.Conflict("Email already in use", nil)
	} else if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.DatabaseError("failed to look up user", err).WithOperation("Register")
	}

	hash, err := auth.HashPassword(strings.TrimSpace(req.Password))
	if err != nil {
		return nil, errors.InternalError("failed to hash password", err).WithOperation("Register")
	}

	user := &models.User{Email: email, PasswordHash: hash, Role: role}
	if err := s.repos.User.Create(ctx, user); err != nil {
		if stderrors.Is(err, repository.ErrConflict) {
			return nil, errors.Conflict("Email already in use", err)
		}
		return nil, errors.DatabaseError("failed to create user", err).WithOperation("Register")
	}

	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return s.issueToken(user)
}

// Login authenticates a user and returns a token
func (s *authServiceImpl) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	email := auth.NormalizeEmail(req.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	password := strings.TrimSpace(req.Password)
	if password == "" {
		return nil, errors.ValidationError("Password is required", nil)
	}

	user, err := s.repos.User.GetByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.Unauthorized("Invalid credentials", nil)
		}
		return nil, errors.DatabaseError("failed to look up user", err).WithOperation("Login")
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, errors.Unauthorized("Invalid credentials", nil)
	}

	return s.issueToken(user)
}

func (s *authServiceImpl) issueToken(user *models.User) (*models.LoginResponse, error) {
	token, expiresAt, err := s.jwtService.GenerateToken(auth.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, errors.InternalError("failed to generate token", err)
	}

	return &models.LoginResponse{
		Token:     token,
		User:      *user,
		ExpiresAt: expiresAt,
	}, nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.ValidationError("Email is required", nil)
	}
	if !auth.ValidEmail(email) {
		return errors.ValidationError("Invalid email address", nil)
	}
	return nil
}
