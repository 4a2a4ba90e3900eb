package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/fishtech/fishtech-backend/pkg/database"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/tenant"
)

// User represents a user account. Accounts are global; tenant membership
// lives in tenant_users.
type User struct {
	ID              string    `db:"id"`
	Username        string    `db:"username"`
	Email           *string   `db:"email"`
	FirstName       string    `db:"first_name"`
	LastName        string    `db:"last_name"`
	PasswordHash    string    `db:"password_hash"`
	IsPlatformAdmin bool      `db:"is_platform_admin"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// FullName returns the user's display name
func (u *User) FullName() string {
	name := u.FirstName + " " + u.LastName
	if name == " " {
		return u.Username
	}
	return name
}

// TenantMember is a user row joined with its tenant membership
type TenantMember struct {
	User
	IsAdmin bool `db:"is_admin"`
}

// TenantLink resolves which tenant a user belongs to
type TenantLink struct {
	TenantID           string `db:"tenant_id"`
	Subdomain          string `db:"subdomain"`
	TenantName         string `db:"tenant_name"`
	IsAdmin            bool   `db:"is_admin"`
	TenantActive       bool   `db:"is_active"`
	SubscriptionStatus string `db:"subscription_status"`
}

// UserRepository handles user persistence
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByUsername fetches a user by username. Runs outside tenant scope because
// login resolves the tenant from the user, not the other way around.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	query := `
		SELECT id, username, email, first_name, last_name, password_hash, is_platform_admin, created_at, updated_at
		FROM users
		WHERE username = $1
	`

	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("user")
		}
		return nil, err
	}

	return &user, nil
}

// GetTenantLink resolves the tenant a user is linked to.
// Users belong to exactly one tenant in this system.
func (r *UserRepository) GetTenantLink(ctx context.Context, userID string) (*TenantLink, error) {
	var link TenantLink
	query := `
		SELECT t.id AS tenant_id, t.subdomain, t.name AS tenant_name,
		       tu.is_admin, t.is_active, t.subscription_status
		FROM tenant_users tu
		JOIN tenants t ON t.id = tu.tenant_id
		WHERE tu.user_id = $1
	`

	if err := r.db.GetContext(ctx, &link, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("tenant membership")
		}
		return nil, err
	}

	return &link, nil
}

// GetByID fetches a user within the current tenant
func (r *UserRepository) GetByID(ctx context.Context, id string) (*TenantMember, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var member TenantMember
	query := `
		SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.password_hash,
		       u.is_platform_admin, u.created_at, u.updated_at, tu.is_admin
		FROM users u
		JOIN tenant_users tu ON tu.user_id = u.id
		WHERE tu.tenant_id = $1 AND u.id = $2
	`

	if err := r.db.GetContext(ctx, &member, query, tenantID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("user")
		}
		return nil, err
	}

	return &member, nil
}

// ListByTenant returns all users of the current tenant
func (r *UserRepository) ListByTenant(ctx context.Context) ([]TenantMember, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	members := make([]TenantMember, 0)
	query := `
		SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.password_hash,
		       u.is_platform_admin, u.created_at, u.updated_at, tu.is_admin
		FROM users u
		JOIN tenant_users tu ON tu.user_id = u.id
		WHERE tu.tenant_id = $1
		ORDER BY u.username
	`

	if err := r.db.SelectContext(ctx, &members, query, tenantID); err != nil {
		return nil, err
	}

	return members, nil
}

// Create inserts a user and links it to the current tenant in one transaction
func (r *UserRepository) Create(ctx context.Context, user *User, isAdmin bool) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	return r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		_, err := r.db.ExecContext(txCtx, `
			INSERT INTO users (id, username, email, first_name, last_name, password_hash)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, user.ID, user.Username, user.Email, user.FirstName, user.LastName, user.PasswordHash)
		if err != nil {
			if mapped := database.MapPQError(err); mapped != nil {
				return mapped
			}
			return err
		}

		_, err = r.db.ExecContext(txCtx, `
			INSERT INTO tenant_users (tenant_id, user_id, is_admin)
			VALUES ($1, $2, $3)
		`, tenantID, user.ID, isAdmin)
		if err != nil {
			if mapped := database.MapPQError(err); mapped != nil {
				return mapped
			}
			return err
		}

		return nil
	})
}

// Update modifies a user's profile fields within the current tenant
func (r *UserRepository) Update(ctx context.Context, user *User, isAdmin bool) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		result, err := r.db.ExecContext(txCtx, `
			UPDATE users SET username = $1, email = $2, first_name = $3, last_name = $4, updated_at = NOW()
			WHERE id = $5 AND EXISTS (
				SELECT 1 FROM tenant_users WHERE tenant_id = $6 AND user_id = $5
			)
		`, user.Username, user.Email, user.FirstName, user.LastName, user.ID, tenantID)
		if err != nil {
			if mapped := database.MapPQError(err); mapped != nil {
				return mapped
			}
			return err
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			return errors.NotFound("user")
		}

		_, err = r.db.ExecContext(txCtx, `
			UPDATE tenant_users SET is_admin = $1 WHERE tenant_id = $2 AND user_id = $3
		`, isAdmin, tenantID, user.ID)
		return err
	})
}

// UpdatePassword replaces a user's password hash within the current tenant
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $1, updated_at = NOW()
		WHERE id = $2 AND EXISTS (
			SELECT 1 FROM tenant_users WHERE tenant_id = $3 AND user_id = $2
		)
	`, passwordHash, userID, tenantID)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("user")
	}

	return nil
}

// Delete removes a user and its tenant link. The caller is responsible for
// the cannot-delete-yourself rule.
func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		result, err := r.db.ExecContext(txCtx, `
			DELETE FROM tenant_users WHERE tenant_id = $1 AND user_id = $2
		`, tenantID, userID)
		if err != nil {
			return err
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			return errors.NotFound("user")
		}

		_, err = r.db.ExecContext(txCtx, `DELETE FROM users WHERE id = $1`, userID)
		return err
	})
}
