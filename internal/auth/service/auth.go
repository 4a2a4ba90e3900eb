package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fishtech/fishtech-backend/internal/auth/jwt"
	"github.com/fishtech/fishtech-backend/internal/auth/repository"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/logger"
	"github.com/fishtech/fishtech-backend/pkg/tenant"
)

// AuthService handles authentication logic
type AuthService struct {
	users      *repository.UserRepository
	sessions   *repository.SessionRepository
	jwtManager *jwt.Manager
	logger     *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users *repository.UserRepository, sessions *repository.SessionRepository, jwtManager *jwt.Manager, log *logger.Logger) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		jwtManager: jwtManager,
		logger:     log,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"`
	User         *UserInfo `json:"user"`
}

// UserInfo represents user information in API responses
type UserInfo struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	IsAdmin   bool   `json:"is_admin"`
	TenantID  string `json:"tenant_id"`
	Subdomain string `json:"subdomain"`
}

// Login authenticates a user and returns tokens scoped to the user's tenant
func (s *AuthService) Login(ctx context.Context, req *LoginRequest, userAgent, ipAddress string) (*LoginResponse, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		// Same response for unknown user and bad password
		return nil, errors.InvalidCredentials()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.InvalidCredentials()
	}

	link, err := s.users.GetTenantLink(ctx, user.ID)
	if err != nil {
		s.logger.Warn().Str("user_id", user.ID).Msg("login for user without tenant membership")
		return nil, errors.InvalidCredentials()
	}

	if !link.TenantActive {
		return nil, errors.Forbidden("this account has been deactivated")
	}

	info := &UserInfo{
		ID:        user.ID,
		Username:  user.Username,
		Name:      user.FullName(),
		IsAdmin:   link.IsAdmin,
		TenantID:  link.TenantID,
		Subdomain: link.Subdomain,
	}

	sessionID := uuid.New().String()

	tokens, err := s.jwtManager.GenerateTokenPair(&jwt.UserInfo{
		ID:        info.ID,
		Username:  info.Username,
		Name:      info.Name,
		IsAdmin:   info.IsAdmin,
		TenantID:  info.TenantID,
		Subdomain: info.Subdomain,
	}, sessionID)
	if err != nil {
		return nil, errors.Internal("failed to generate tokens")
	}

	expiresAt := time.Now().Add(s.jwtManager.GetRefreshExpiry())
	if _, err := s.sessions.CreateWithID(ctx, sessionID, user.ID, tokens.RefreshToken, expiresAt, userAgent, ipAddress); err != nil {
		s.logger.Error().Err(err).Msg("failed to create session")
		return nil, errors.Internal("failed to create session")
	}

	return &LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
		TokenType:    tokens.TokenType,
		User:         info,
	}, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.sessions.RevokeByRefreshToken(ctx, refreshToken); err != nil {
		s.logger.Warn().Err(err).Msg("failed to revoke session")
	}
	return nil
}

// Refresh rotates the token pair using a refresh token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, errors.Unauthorized("invalid session")
	}

	if session.RevokedAt != nil {
		return nil, errors.Unauthorized("session revoked")
	}

	// Look the user up under the tenant carried in the refresh claims
	userCtx := tenant.WithTenant(ctx, claims.TenantID, claims.Subdomain)
	member, err := s.users.GetByID(userCtx, claims.UserID)
	if err != nil {
		return nil, errors.Unauthorized("user no longer exists")
	}
	user := &member.User

	link, err := s.users.GetTenantLink(ctx, user.ID)
	if err != nil {
		return nil, errors.Unauthorized("user no longer belongs to a tenant")
	}

	tokens, err := s.jwtManager.GenerateTokenPair(&jwt.UserInfo{
		ID:        user.ID,
		Username:  user.Username,
		Name:      user.FullName(),
		IsAdmin:   link.IsAdmin,
		TenantID:  link.TenantID,
		Subdomain: link.Subdomain,
	}, session.ID)
	if err != nil {
		return nil, errors.Internal("failed to generate tokens")
	}

	if err := s.sessions.UpdateRefreshTokenHash(ctx, session.ID, tokens.RefreshToken); err != nil {
		s.logger.Warn().Err(err).Msg("failed to rotate refresh token")
	}

	return tokens, nil
}

// CurrentUser returns the profile of the authenticated user
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*UserInfo, error) {
	member, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	tenantID, _ := tenant.TenantID(ctx)
	subdomain, _ := tenant.Subdomain(ctx)

	return &UserInfo{
		ID:        member.ID,
		Username:  member.Username,
		Name:      member.FullName(),
		IsAdmin:   member.IsAdmin,
		TenantID:  tenantID,
		Subdomain: subdomain,
	}, nil
}
