package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shelterscout/shelterscout-server/internal/auth"
	"github.com/shelterscout/shelterscout-server/internal/domain"
	domainerrors "github.com/shelterscout/shelterscout-server/internal/errors"
	"github.com/shelterscout/shelterscout-server/internal/id"
	"github.com/shelterscout/shelterscout-server/internal/store"
	"github.com/shelterscout/shelterscout-server/internal/store/sqlite"
	"github.com/shelterscout/shelterscout-server/internal/validation"
)

// AuthService handles operator setup and login.
type AuthService struct {
	store     *sqlite.Store
	tokens    *auth.TokenService
	logger    *slog.Logger
	validator *validation.Validator
}

// NewAuthService creates a new auth service.
func NewAuthService(st *sqlite.Store, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:     st,
		tokens:    tokens,
		logger:    logger,
		validator: validation.New(),
	}
}

// SetupRequest contains fields for first-run operator creation.
type SetupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=256"`
}

// LoginRequest contains operator credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult carries the issued token and its subject.
type LoginResult struct {
	Token    string
	Operator *domain.Operator
}

// NeedsSetup reports whether no operator exists yet.
func (s *AuthService) NeedsSetup(ctx context.Context) (bool, error) {
	count, err := s.store.CountOperators(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// Setup creates the first operator. It only works once; subsequent operators
// have to be provisioned by the root operator.
func (s *AuthService) Setup(ctx context.Context, req SetupRequest) (*LoginResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	count, err := s.store.CountOperators(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, domainerrors.AlreadyConfigured("setup has already been completed")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	operatorID, err := id.Generate(id.PrefixOperator)
	if err != nil {
		return nil, err
	}

	op := &domain.Operator{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		IsRoot:       true,
	}
	op.ID = operatorID
	op.InitTimestamps()

	if err := s.store.CreateOperator(ctx, op); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyConfigured("setup has already been completed")
		}
		return nil, err
	}

	token, err := s.tokens.GenerateAccessToken(op)
	if err != nil {
		return nil, err
	}

	s.logger.Info("root operator created", "operator_id", op.ID, "email", op.Email)
	return &LoginResult{Token: token, Operator: op}, nil
}

// Login verifies credentials and issues an access token. A missing operator
// and a wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	op, err := s.store.GetOperatorByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, err
	}

	ok, err := auth.VerifyPassword(op.PasswordHash, req.Password)
	if err != nil || !ok {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	token, err := s.tokens.GenerateAccessToken(op)
	if err != nil {
		return nil, err
	}

	s.logger.Info("operator logged in", "operator_id", op.ID)
	return &LoginResult{Token: token, Operator: op}, nil
}

// VerifyToken checks an access token and returns its claims.
func (s *AuthService) VerifyToken(token string) (*auth.Claims, error) {
	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid or expired token")
	}
	return claims, nil
}
