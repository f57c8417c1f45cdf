package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelterscout/shelterscout-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "authStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/status",
		Summary:     "Setup status",
		Description: "Reports whether the server still needs its first operator.",
		Tags:        []string{"Authentication"},
	}, s.handleAuthStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "setup",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/setup",
		Summary:     "Initial server setup",
		Description: "Creates the root operator. Can only be called once.",
		Tags:        []string{"Authentication"},
	}, s.handleSetup)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Operator login",
		Description: "Authenticates an operator and returns an access token",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)
}

// === DTOs ===

// AuthStatusResponse reports setup state.
type AuthStatusResponse struct {
	SetupRequired bool `json:"setup_required" doc:"True until the first operator exists"`
}

// AuthStatusOutput wraps the status response for Huma.
type AuthStatusOutput struct {
	Body AuthStatusResponse
}

// SetupRequest is the request body for initial server setup.
type SetupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254" doc:"Operator email address"`
	Password string `json:"password" validate:"required,min=8,max=256" doc:"Operator password"`
}

// SetupInput wraps the setup request for Huma.
type SetupInput struct {
	Body SetupRequest
}

// LoginRequest is the request body for operator login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254" doc:"Operator email"`
	Password string `json:"password" validate:"required,max=1024" doc:"Operator password"`
}

// LoginInput wraps the login request with headers for Huma.
type LoginInput struct {
	Body          LoginRequest
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// OperatorResponse contains operator data in API responses.
type OperatorResponse struct {
	ID        string    `json:"id" doc:"Operator ID"`
	Email     string    `json:"email" doc:"Operator email"`
	IsRoot    bool      `json:"is_root" doc:"Root operator flag"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
}

// AuthResponse contains the access token and operator info.
type AuthResponse struct {
	AccessToken string           `json:"access_token" doc:"PASETO access token"`
	TokenType   string           `json:"token_type" doc:"Token type (Bearer)"`
	Operator    OperatorResponse `json:"operator" doc:"Authenticated operator"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// === Handlers ===

func (s *Server) handleAuthStatus(ctx context.Context, _ *struct{}) (*AuthStatusOutput, error) {
	needsSetup, err := s.services.Auth.NeedsSetup(ctx)
	if err != nil {
		return nil, err
	}
	return &AuthStatusOutput{Body: AuthStatusResponse{SetupRequired: needsSetup}}, nil
}

func (s *Server) handleSetup(ctx context.Context, input *SetupInput) (*AuthOutput, error) {
	result, err := s.services.Auth.Setup(ctx, service.SetupRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: mapAuthResult(result)}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	// Brute-force guard, keyed by client IP.
	ip := extractIP(input.XForwardedFor, input.XRealIP)
	if ip != "" && !s.authRateLimiter.Allow(ip) {
		return nil, huma.Error429TooManyRequests("Too many login attempts. Please try again later.")
	}

	result, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: mapAuthResult(result)}, nil
}

// === Helpers ===

func mapAuthResult(result *service.LoginResult) AuthResponse {
	return AuthResponse{
		AccessToken: result.Token,
		TokenType:   "Bearer",
		Operator: OperatorResponse{
			ID:        result.Operator.ID,
			Email:     result.Operator.Email,
			IsRoot:    result.Operator.IsRoot,
			CreatedAt: result.Operator.CreatedAt,
		},
	}
}

func extractIP(xForwardedFor, xRealIP string) string {
	if xForwardedFor != "" {
		for i := 0; i < len(xForwardedFor); i++ {
			if xForwardedFor[i] == ',' {
				return xForwardedFor[:i]
			}
		}
		return xForwardedFor
	}
	return xRealIP
}
