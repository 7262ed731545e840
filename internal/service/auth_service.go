package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aryan0dhankhar/bloggingapi/internal/domain"
	"github.com/aryan0dhankhar/bloggingapi/internal/observability/metrics"
	"github.com/aryan0dhankhar/bloggingapi/internal/security/auth"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// AuthService handles signup, login and token resolution
type AuthService struct {
	userRepo   domain.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
	logger     *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo domain.UserRepository,
	tokens *auth.TokenManager,
	bcryptCost int,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		userRepo:   userRepo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// SignupInput is the registration payload
type SignupInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Bio       string `json:"bio"`
}

// AuthResult is returned by signup and login
type AuthResult struct {
	Token string             `json:"token"`
	User  domain.UserSummary `json:"user"`
}

// Signup registers a user and issues a token
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = domain.NormalizeEmail(in.Email)

	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" {
		metrics.ObserveAuthAttempt("signup", "invalid")
		return nil, domain.Validation("Missing required fields")
	}

	existing, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		metrics.ObserveAuthAttempt("signup", "conflict")
		return nil, domain.Conflict("Email already in use")
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		metrics.ObserveAuthAttempt("signup", "invalid")
		return nil, domain.Validation("Password too long")
	}
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		Bio:          strings.TrimSpace(in.Bio),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// a concurrent signup may win the unique index
		if errors.Is(err, domain.ErrConflict) {
			metrics.ObserveAuthAttempt("signup", "conflict")
			return nil, domain.Conflict("Email already in use")
		}
		return nil, err
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	metrics.ObserveAuthAttempt("signup", "success")
	s.logger.Info("user registered",
		slog.String("user_id", user.ID.Hex()),
		slog.String("email", user.Email),
	)
	return result, nil
}

// Login authenticates a user and returns a token. Unknown email and wrong password
// produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		metrics.ObserveAuthAttempt("login", "invalid")
		return nil, domain.Validation("Missing credentials")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Info("login attempt with non-existent email", slog.String("email", email))
		metrics.ObserveAuthAttempt("login", "failure")
		return nil, domain.Unauthenticated("Invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		s.logger.Info("login failed with wrong password", slog.String("email", email))
		metrics.ObserveAuthAttempt("login", "failure")
		return nil, domain.Unauthenticated("Invalid credentials")
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	metrics.ObserveAuthAttempt("login", "success")
	s.logger.Info("user logged in",
		slog.String("user_id", user.ID.Hex()),
		slog.String("email", user.Email),
	)
	return result, nil
}

// ResolveToken returns the user a bearer token refers to. It fails when the token is
// invalid or expired or when the user no longer exists.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	id, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	return s.userRepo.GetByID(ctx, id)
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID.Hex())
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &AuthResult{Token: token, User: user.Summary()}, nil
}
