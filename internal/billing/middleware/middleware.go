package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fishtech/fishtech-backend/internal/billing/repository"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/httputil"
	"github.com/fishtech/fishtech-backend/pkg/tenant"
)

// RequireValidSubscription blocks tenants whose trial ran out or whose
// subscription lapsed. Billing routes stay outside this gate so an expired
// tenant can still pay.
func RequireValidSubscription(tenants *repository.TenantRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, err := tenant.TenantID(r.Context())
			if err != nil {
				httputil.Error(w, errors.Unauthorized("no tenant in request"))
				return
			}

			t, err := tenants.GetByID(r.Context(), tenantID)
			if err != nil {
				httputil.Error(w, err)
				return
			}

			if !t.IsSubscriptionValid() {
				httputil.Error(w, errors.New("SUBSCRIPTION_REQUIRED",
					"your trial has ended or your subscription is inactive", http.StatusPaymentRequired))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireCompany resolves the companyID route parameter against the caller's
// tenant before any nested handler runs. A facility belonging to another
// tenant is indistinguishable from one that does not exist.
func RequireCompany(companies *repository.CompanyRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			companyID := chi.URLParam(r, "companyID")
			if companyID == "" {
				httputil.Error(w, errors.BadRequest("company id is required"))
				return
			}

			if _, err := companies.GetByID(r.Context(), companyID); err != nil {
				httputil.Error(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
