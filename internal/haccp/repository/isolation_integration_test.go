package repository

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	billingrepo "github.com/fishtech/fishtech-backend/internal/billing/repository"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	s, err := testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to set up integration suite: %v", err)
	}
	suite = s

	code := m.Run()
	_ = suite.Cleanup(ctx)
	os.Exit(code)
}

// twoTenants sets up two tenants, each with one facility, and returns a
// tenant-scoped context per side.
func twoTenants(t *testing.T) (ctxA, ctxB context.Context, companyA, companyB *billingrepo.Company) {
	t.Helper()

	tenantA := suite.SetupTenant(t, context.Background(), "atlantic-plant")
	tenantB := suite.SetupTenant(t, context.Background(), "baltic-plant")
	ctxA = suite.TenantContext(tenantA)
	ctxB = suite.TenantContext(tenantB)

	companies := billingrepo.NewCompanyRepository(suite.DB)
	var err error
	companyA, err = companies.Create(ctxA, "Atlantic Processing", nil)
	require.NoError(t, err)
	companyB, err = companies.Create(ctxB, "Baltic Processing", nil)
	require.NoError(t, err)
	return ctxA, ctxB, companyA, companyB
}

func requireNotFound(t *testing.T, err error) {
	t.Helper()
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestCertificates_CrossTenantFacilityUnreachable(t *testing.T) {
	testutil.SkipIfShort(t)
	ctxA, ctxB, companyA, _ := twoTenants(t)
	repo := NewCertificateRepository(suite.DB)

	// Tenant A signs its yearly certificate.
	_, err := repo.GetOrCreate(ctxA, companyA.ID, 2026, CertHaccp)
	require.NoError(t, err)

	issued := time.Now()
	signer := "Avery Lindqvist"
	signature := "sig-a"
	signed, err := repo.Save(ctxA, companyA.ID, 2026, CertHaccp, &issued, &signer, &signature, true)
	require.NoError(t, err)
	require.True(t, signed.IsCompleted)

	// Tenant B holding A's facility id gets nothing, not the signed row.
	cert, err := repo.GetOrCreate(ctxB, companyA.ID, 2026, CertHaccp)
	requireNotFound(t, err)
	assert.Nil(t, cert)

	_, err = repo.Save(ctxB, companyA.ID, 2026, CertHaccp, &issued, &signer, &signature, false)
	requireNotFound(t, err)

	// Tenant A's certificate is untouched.
	kept, err := repo.GetOrCreate(ctxA, companyA.ID, 2026, CertHaccp)
	require.NoError(t, err)
	assert.True(t, kept.IsCompleted)
	require.NotNil(t, kept.SignerName)
	assert.Equal(t, "Avery Lindqvist", *kept.SignerName)
}

func TestCompanyProductLinks_CrossTenantFacilityUnreachable(t *testing.T) {
	testutil.SkipIfShort(t)
	ctxA, ctxB, companyA, companyB := twoTenants(t)
	repo := NewProductTypeRepository(suite.DB)

	ptA, err := repo.Create(ctxA, "Smoked Salmon")
	require.NoError(t, err)
	require.NoError(t, repo.SetCompanyLink(ctxA, companyA.ID, ptA.Slug, true))

	// Tenant B has its own type under the same slug; that is fine.
	ptB, err := repo.Create(ctxB, "Smoked Salmon")
	require.NoError(t, err)
	require.NoError(t, repo.SetCompanyLink(ctxB, companyB.ID, ptB.Slug, true))

	// But B cannot flip the link on A's facility.
	err = repo.SetCompanyLink(ctxB, companyA.ID, ptB.Slug, false)
	requireNotFound(t, err)

	linked, err := repo.ListForCompany(ctxA, companyA.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, ptA.Slug, linked[0].Slug)
}

func TestDocuments_SetsDoNotCrossTenants(t *testing.T) {
	testutil.SkipIfShort(t)
	ctxA, ctxB, _, _ := twoTenants(t)
	repo := NewDocumentRepository(suite.DB)

	key := SetKey{ProductType: "pickled_herring", Year: 2026}
	require.NoError(t, repo.InsertBlankSet(ctxA, key, 1))

	versionsA, err := repo.ListVersions(ctxA, key)
	require.NoError(t, err)
	require.Len(t, versionsA, 1)
	assert.Equal(t, 4, versionsA[0].Total)

	// The same key under tenant B is an empty slate.
	versionsB, err := repo.ListVersions(ctxB, key)
	require.NoError(t, err)
	assert.Empty(t, versionsB)
}
