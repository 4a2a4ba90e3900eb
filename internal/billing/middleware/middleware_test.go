package middleware

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishtech/fishtech-backend/internal/billing/repository"
	"github.com/fishtech/fishtech-backend/pkg/database"
	"github.com/fishtech/fishtech-backend/pkg/logger"
	"github.com/fishtech/fishtech-backend/pkg/testutil"
)

const (
	mwTestTenant  = "eeeeeeee-0000-0000-0000-000000000001"
	mwTestCompany = "eeeeeeee-0000-0000-0000-0000000000c1"
)

// companyGate mounts RequireCompany the way the server does: every route under
// a facility id passes through it first.
func companyGate(t *testing.T) (*testutil.MockDB, http.Handler) {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { _ = mockDB.Close() })

	db := database.Wrap(mockDB.DB, logger.New("middleware-test", "test"))
	companies := repository.NewCompanyRepository(db)

	r := chi.NewRouter()
	r.Route("/companies/{companyID}", func(r chi.Router) {
		r.Use(RequireCompany(companies))
		r.Get("/operations/config", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})
	return mockDB, r
}

func TestRequireCompany_OwnedFacilityPassesThrough(t *testing.T) {
	mockDB, handler := companyGate(t)

	mockDB.ExpectQuery("FROM companies").
		WithArgs(mwTestTenant, mwTestCompany).
		WillReturnRows(testutil.MockRows(
			"id", "tenant_id", "name", "address", "created_at", "updated_at",
		).AddRow(mwTestCompany, mwTestTenant, "Harbor Point Seafood", nil, time.Now(), time.Now()))

	req := httptest.NewRequest(http.MethodGet, "/companies/"+mwTestCompany+"/operations/config", nil)
	req = req.WithContext(testutil.WithTestTenantValues(req.Context(), mwTestTenant, "pacific"))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockDB.ExpectationsWereMet(t)
}

func TestRequireCompany_ForeignFacilityIsNotFound(t *testing.T) {
	mockDB, handler := companyGate(t)

	// The lookup is tenant-scoped, so another tenant's facility id resolves
	// to no row and the nested handler never runs.
	mockDB.ExpectQuery("FROM companies").
		WithArgs(mwTestTenant, mwTestCompany).
		WillReturnError(sql.ErrNoRows)

	req := httptest.NewRequest(http.MethodGet, "/companies/"+mwTestCompany+"/operations/config", nil)
	req = req.WithContext(testutil.WithTestTenantValues(req.Context(), mwTestTenant, "pacific"))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
	mockDB.ExpectationsWereMet(t)
}
