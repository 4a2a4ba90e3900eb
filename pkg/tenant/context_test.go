package tenant_test

import (
	"context"
	"testing"

	"github.com/fishtech/fishtech-backend/pkg/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantID_Missing(t *testing.T) {
	_, err := tenant.TenantID(context.Background())
	assert.ErrorIs(t, err, tenant.ErrNoTenantInContext)
}

func TestTenantID_Empty(t *testing.T) {
	ctx := tenant.WithTenantID(context.Background(), "")
	_, err := tenant.TenantID(ctx)
	assert.ErrorIs(t, err, tenant.ErrNoTenantInContext)
}

func TestWithTenant_RoundTrip(t *testing.T) {
	ctx := tenant.WithTenant(context.Background(), "d3f1c2e0-0000-0000-0000-000000000001", "goldenstateseafood")

	id, err := tenant.TenantID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "d3f1c2e0-0000-0000-0000-000000000001", id)

	sub, err := tenant.Subdomain(ctx)
	require.NoError(t, err)
	assert.Equal(t, "goldenstateseafood", sub)
}

func TestWithTenantID_NoSubdomain(t *testing.T) {
	ctx := tenant.WithTenantID(context.Background(), "abc")

	id, err := tenant.TenantID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	_, err = tenant.Subdomain(ctx)
	assert.ErrorIs(t, err, tenant.ErrNoTenantInContext)
}

func TestMustTenantID_Panics(t *testing.T) {
	assert.Panics(t, func() {
		tenant.MustTenantID(context.Background())
	})
}
