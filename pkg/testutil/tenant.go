package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fishtech/fishtech-backend/pkg/tenant"
)

// TestTenant represents a tenant created for testing
type TestTenant struct {
	ID        string
	Name      string
	Subdomain string
}

// TenantManager manages test tenant rows. Isolation is row-level (shared
// tables, tenant_id columns), so creating a tenant is just an insert and
// dropping one cascades through every tenant-scoped table.
type TenantManager struct {
	db      *sqlx.DB
	tenants []TestTenant
	mu      sync.Mutex
}

// NewTenantManager creates a new tenant manager for tests
func NewTenantManager(db *sqlx.DB) *TenantManager {
	return &TenantManager{
		db:      db,
		tenants: make([]TestTenant, 0),
	}
}

// CreateTenant registers a new tenant row for testing.
// Each test should use its own tenant for isolation.
//
// Usage:
//
//	tm := testutil.NewTenantManager(db)
//	tt, _ := tm.CreateTenant(ctx, "Pacific Seafoods")
//	ctx = testutil.WithTestTenant(ctx, tt)
//
//	// Repository operations now run under this tenant
//	doc, err := docRepo.GetByID(ctx, docID)
func (tm *TenantManager) CreateTenant(ctx context.Context, name string) (*TestTenant, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	id := uuid.New().String()
	subdomain := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	// Suffix keeps concurrent tests with the same name from colliding
	subdomain = fmt.Sprintf("%s-%s", subdomain, id[:8])

	_, err := tm.db.ExecContext(ctx, `
		INSERT INTO tenants (id, name, subdomain, is_active, subscription_status)
		VALUES ($1, $2, $3, TRUE, 'active')
	`, id, name, subdomain)
	if err != nil {
		return nil, fmt.Errorf("failed to register tenant: %w", err)
	}

	t := TestTenant{
		ID:        id,
		Name:      name,
		Subdomain: subdomain,
	}

	tm.tenants = append(tm.tenants, t)
	return &t, nil
}

// DropTenant removes a tenant row and everything under it (FK cascades)
func (tm *TenantManager) DropTenant(ctx context.Context, t *TestTenant) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	_, err := tm.db.ExecContext(ctx, "DELETE FROM tenants WHERE id = $1", t.ID)
	if err != nil {
		return fmt.Errorf("failed to delete tenant record: %w", err)
	}

	for i, tracked := range tm.tenants {
		if tracked.ID == t.ID {
			tm.tenants = append(tm.tenants[:i], tm.tenants[i+1:]...)
			break
		}
	}

	return nil
}

// Cleanup drops all tenants created by this manager.
// Call this in TestMain or test cleanup.
func (tm *TenantManager) Cleanup(ctx context.Context) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	var lastErr error
	for _, t := range tm.tenants {
		if _, err := tm.db.ExecContext(ctx, "DELETE FROM tenants WHERE id = $1", t.ID); err != nil {
			lastErr = err
		}
	}

	tm.tenants = make([]TestTenant, 0)
	return lastErr
}

// WithTestTenant creates a context carrying the test tenant's identity.
// This is the primary way to set up tenant context in tests.
func WithTestTenant(ctx context.Context, t *TestTenant) context.Context {
	return tenant.WithTenant(ctx, t.ID, t.Subdomain)
}

// WithTestTenantValues creates a context with custom tenant values.
// Useful for testing error cases or edge conditions.
func WithTestTenantValues(ctx context.Context, id, subdomain string) context.Context {
	return tenant.WithTenant(ctx, id, subdomain)
}

// TestTenantContext creates a context with a fake tenant for simple unit tests
// that don't need actual database isolation.
func TestTenantContext() context.Context {
	return tenant.WithTenant(
		context.Background(),
		"11111111-1111-1111-1111-111111111111",
		"test-tenant",
	)
}
