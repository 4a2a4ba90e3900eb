package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fishtech/fishtech-backend/internal/auth/jwt"
	"github.com/fishtech/fishtech-backend/internal/auth/repository"
	"github.com/fishtech/fishtech-backend/pkg/config"
	"github.com/fishtech/fishtech-backend/pkg/database"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/logger"
	"github.com/fishtech/fishtech-backend/pkg/testutil"
)

const (
	testUserID   = "aaaaaaaa-0000-0000-0000-000000000001"
	testTenantID = "bbbbbbbb-0000-0000-0000-000000000001"
)

func newAuthService(t *testing.T) (*AuthService, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	log := logger.New("auth-test", "test")
	db := database.Wrap(mockDB.DB, log)

	manager := jwt.NewManager(&config.JWTConfig{
		Secret:        "test-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "fishtech-test",
	})

	svc := NewAuthService(
		repository.NewUserRepository(db),
		repository.NewSessionRepository(db),
		manager,
		log,
	)
	return svc, mockDB
}

func userRow(passwordHash string) *sqlmock.Rows {
	return testutil.MockRows(
		"id", "username", "email", "first_name", "last_name",
		"password_hash", "is_platform_admin", "created_at", "updated_at",
	).AddRow(
		testUserID, "inspector1", nil, "Jordan", "Reyes",
		passwordHash, false, time.Now(), time.Now(),
	)
}

func tenantLinkRow(active bool) *sqlmock.Rows {
	return testutil.MockRows(
		"tenant_id", "subdomain", "tenant_name", "is_admin", "is_active", "subscription_status",
	).AddRow(testTenantID, "pacific-seafoods", "Pacific Seafoods", true, active, "active")
}

func TestLogin_Success(t *testing.T) {
	svc, mockDB := newAuthService(t)
	defer mockDB.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("letmein123"), bcrypt.MinCost)
	require.NoError(t, err)

	mockDB.ExpectQuery("SELECT id, username, email, first_name, last_name, password_hash, is_platform_admin, created_at, updated_at").
		WithArgs("inspector1").
		WillReturnRows(userRow(string(hash)))
	mockDB.ExpectQuery("SELECT t.id AS tenant_id").
		WithArgs(testUserID).
		WillReturnRows(tenantLinkRow(true))
	mockDB.ExpectExec("INSERT INTO sessions").
		WillReturnResult(sqlmock.NewResult(1, 1))

	resp, err := svc.Login(context.Background(), &LoginRequest{
		Username: "inspector1",
		Password: "letmein123",
	}, "test-agent", "127.0.0.1")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "inspector1", resp.User.Username)
	assert.Equal(t, testTenantID, resp.User.TenantID)
	assert.True(t, resp.User.IsAdmin)

	mockDB.ExpectationsWereMet(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, mockDB := newAuthService(t)
	defer mockDB.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)

	mockDB.ExpectQuery("SELECT id, username, email, first_name, last_name, password_hash, is_platform_admin, created_at, updated_at").
		WithArgs("inspector1").
		WillReturnRows(userRow(string(hash)))

	_, err = svc.Login(context.Background(), &LoginRequest{
		Username: "inspector1",
		Password: "wrong-password",
	}, "test-agent", "127.0.0.1")
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INVALID_CREDENTIALS", appErr.Code)

	mockDB.ExpectationsWereMet(t)
}

func TestLogin_UnknownUserSameError(t *testing.T) {
	svc, mockDB := newAuthService(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT id, username, email, first_name, last_name, password_hash, is_platform_admin, created_at, updated_at").
		WithArgs("ghost").
		WillReturnRows(userRow("x").RowError(0, assert.AnError))

	_, err := svc.Login(context.Background(), &LoginRequest{
		Username: "ghost",
		Password: "whatever1",
	}, "test-agent", "127.0.0.1")
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	// Unknown user and wrong password are indistinguishable to the caller
	assert.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
}

func TestLogin_DeactivatedTenant(t *testing.T) {
	svc, mockDB := newAuthService(t)
	defer mockDB.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("letmein123"), bcrypt.MinCost)
	require.NoError(t, err)

	mockDB.ExpectQuery("SELECT id, username, email, first_name, last_name, password_hash, is_platform_admin, created_at, updated_at").
		WithArgs("inspector1").
		WillReturnRows(userRow(string(hash)))
	mockDB.ExpectQuery("SELECT t.id AS tenant_id").
		WithArgs(testUserID).
		WillReturnRows(tenantLinkRow(false))

	_, err = svc.Login(context.Background(), &LoginRequest{
		Username: "inspector1",
		Password: "letmein123",
	}, "test-agent", "127.0.0.1")
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "FORBIDDEN", appErr.Code)

	mockDB.ExpectationsWereMet(t)
}
