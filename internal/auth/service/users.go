package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/fishtech/fishtech-backend/internal/auth/repository"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/logger"
)

// UserService handles per-tenant user management
type UserService struct {
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	logger   *logger.Logger
}

// NewUserService creates a new user management service
func NewUserService(users *repository.UserRepository, sessions *repository.SessionRepository, log *logger.Logger) *UserService {
	return &UserService{
		users:    users,
		sessions: sessions,
		logger:   log,
	}
}

// CreateUserRequest represents a request to add a user to the tenant
type CreateUserRequest struct {
	Username  string  `json:"username" validate:"required,min=3,max=150"`
	Password  string  `json:"password" validate:"required,min=6"`
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName string  `json:"first_name" validate:"max=100"`
	LastName  string  `json:"last_name" validate:"max=100"`
	IsAdmin   bool    `json:"is_admin"`
}

// UpdateUserRequest represents a request to edit a tenant user.
// A non-empty Password resets the user's password.
type UpdateUserRequest struct {
	Username  string  `json:"username" validate:"required,min=3,max=150"`
	Password  string  `json:"password" validate:"omitempty,min=6"`
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName string  `json:"first_name" validate:"max=100"`
	LastName  string  `json:"last_name" validate:"max=100"`
	IsAdmin   bool    `json:"is_admin"`
}

// UserSummary is the list representation of a tenant user
type UserSummary struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Email     *string `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	IsAdmin   bool    `json:"is_admin"`
}

// List returns all users of the current tenant
func (s *UserService) List(ctx context.Context) ([]UserSummary, error) {
	members, err := s.users.ListByTenant(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]UserSummary, 0, len(members))
	for _, m := range members {
		summaries = append(summaries, UserSummary{
			ID:        m.ID,
			Username:  m.Username,
			Email:     m.Email,
			FirstName: m.FirstName,
			LastName:  m.LastName,
			IsAdmin:   m.IsAdmin,
		})
	}

	return summaries, nil
}

// Create adds a user to the current tenant
func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*UserSummary, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("failed to hash password")
	}

	user := &repository.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
	}

	if err := s.users.Create(ctx, user, req.IsAdmin); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user created")

	return &UserSummary{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		IsAdmin:   req.IsAdmin,
	}, nil
}

// Update edits a tenant user, optionally resetting the password
func (s *UserService) Update(ctx context.Context, userID string, req *UpdateUserRequest) (*UserSummary, error) {
	member, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	member.Username = req.Username
	member.Email = req.Email
	member.FirstName = req.FirstName
	member.LastName = req.LastName

	if err := s.users.Update(ctx, &member.User, req.IsAdmin); err != nil {
		return nil, err
	}

	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.Internal("failed to hash password")
		}
		if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
			return nil, err
		}
		// Password change invalidates existing sessions
		if err := s.sessions.RevokeAllForUser(ctx, userID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to revoke sessions after password reset")
		}
	}

	return &UserSummary{
		ID:        member.ID,
		Username:  member.Username,
		Email:     member.Email,
		FirstName: member.FirstName,
		LastName:  member.LastName,
		IsAdmin:   req.IsAdmin,
	}, nil
}

// Delete removes a user from the tenant. Users cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, userID, actorID string) error {
	if userID == actorID {
		return errors.BadRequest("you cannot delete your own account")
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	if err := s.sessions.RevokeAllForUser(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to revoke sessions after delete")
	}

	return nil
}
